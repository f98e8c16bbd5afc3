package catalog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifestyle/storefront/internal/domain"
	apperrors "github.com/lifestyle/storefront/pkg/errors"
	"github.com/lifestyle/storefront/pkg/httpclient"
)

func newBreakerClient(name string) *httpclient.CircuitBreakerClient {
	client := httpclient.New(httpclient.Config{Timeout: 2 * time.Second, MaxRetries: 0, MaxConnsPerHost: 4})
	return httpclient.NewCircuitBreakerClient(client, httpclient.DefaultCircuitBreakerConfig(name), discardLogger())
}

func TestHTTPSource_GetProducts(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"_id":"a","productname":"Tee","productprice":500},{"_id":"b","offerprice":"450","productprice":600}]`))
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL+"/", newBreakerClient("catalog-test-ok"))
	products, err := src.GetProducts(context.Background(), FetchOptions{Limit: 200, Collection: "Shirts"})

	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "a", products[0].ID)
	assert.True(t, products[1].OfferPrice.Valid)
	assert.Equal(t, "/api", gotPath)
	assert.Equal(t, "collection=Shirts&limit=200&skip=0", gotQuery)
}

func TestHTTPSource_NonArrayBodyIsEmpty(t *testing.T) {
	for _, body := range []string{`{"products":[]}`, `null`, `"nope"`} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		src := NewHTTPSource(server.URL, newBreakerClient("catalog-test-shape"))
		products, err := src.GetProducts(context.Background(), FetchOptions{})
		server.Close()

		require.NoError(t, err, body)
		assert.Empty(t, products, body)
	}
}

func TestHTTPSource_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"_id":`))
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, newBreakerClient("catalog-test-malformed"))
	_, err := src.GetProducts(context.Background(), FetchOptions{})
	assert.Error(t, err)
}

func TestHTTPSource_ClientErrorIsTranslated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":{"code":"NOT_FOUND","message":"no such collection"}}`))
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, newBreakerClient("catalog-test-404"))
	_, err := src.GetProducts(context.Background(), FetchOptions{Collection: "Nope"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestHTTPSource_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := NewHTTPSource(server.URL, newBreakerClient("catalog-test-500"))
	_, err := src.GetProducts(context.Background(), FetchOptions{})
	assert.ErrorContains(t, err, "fetch products")
}

func TestStaticSource_SampleCatalog(t *testing.T) {
	src, err := NewStaticSource()
	require.NoError(t, err)

	all, err := src.GetProducts(context.Background(), FetchOptions{})
	require.NoError(t, err)
	require.Len(t, all, 6)
	assert.Equal(t, "p1", all[0].ID)

	products := NormalizeAll(all, refTime)
	assert.Equal(t, "Minimal Oversized Tee", products[0].Name)
	assert.True(t, dec(799).Equal(products[0].Price))
	assert.Equal(t, 38, products[0].Discount)
}

func TestStaticSource_Options(t *testing.T) {
	src := NewStaticSourceFrom([]domain.RawProduct{
		{ID: "a", Collections: []string{"Shirts"}},
		{ID: "b", Collections: []string{"Pants"}},
		{ID: "c", Collections: []string{"Shirts"}},
		{ID: "d", Collections: []string{"Shirts"}},
	})
	ctx := context.Background()

	got, _ := src.GetProducts(ctx, FetchOptions{Collection: "Shirts", Skip: 1, Limit: 1})
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)

	got, _ = src.GetProducts(ctx, FetchOptions{Skip: 10})
	assert.Empty(t, got)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err := src.GetProducts(canceled, FetchOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}
