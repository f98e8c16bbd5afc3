package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifestyle/storefront/internal/catalog"
	"github.com/lifestyle/storefront/internal/checkout"
	"github.com/lifestyle/storefront/internal/domain"
	"github.com/lifestyle/storefront/internal/event"
	"github.com/lifestyle/storefront/internal/service"
	"github.com/lifestyle/storefront/internal/session"
	"github.com/lifestyle/storefront/internal/storage"
	"github.com/lifestyle/storefront/internal/store"
	"github.com/lifestyle/storefront/pkg/health"
	"github.com/lifestyle/storefront/pkg/httputil"
	"github.com/lifestyle/storefront/pkg/middleware"
)

// ============================================================================
// Test helpers
// ============================================================================

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testAPI struct {
	handler   http.Handler
	registry  *session.Registry
	persister *store.Persister
	kv        *storage.Memory
}

func newTestAPI(t *testing.T, source catalog.Source) *testAPI {
	t.Helper()
	return newTestAPIWithOptions(t, source, RouterOptions{CORS: middleware.DefaultCORSConfig()})
}

func newTestAPIWithOptions(t *testing.T, source catalog.Source, opts RouterOptions) *testAPI {
	t.Helper()
	logger := testLogger()

	if source == nil {
		sample, err := catalog.NewStaticSource()
		require.NoError(t, err)
		source = sample
	}

	kv := storage.NewMemory(0)
	persister := store.NewPersister(kv, logger, time.Second)
	t.Cleanup(persister.Close)
	registry := session.NewRegistry(persister, logger, session.Options{})

	products := catalog.New(source, logger, catalog.Options{})
	svcs := Services{
		Wishlist: service.NewWishlistService(products, event.Noop{}, logger),
		Cart:     service.NewCartService(products, event.Noop{}, logger),
		Checkout: service.NewCheckoutService(checkout.New(), event.Noop{}, logger),
		Catalog:  products,
	}

	h := NewRouter(svcs, registry, health.NewHandler(), logger, opts)
	return &testAPI{handler: h, registry: registry, persister: persister, kv: kv}
}

func (a *testAPI) do(t *testing.T, method, path, sessionID string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		reader = bytes.NewBufferString(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(middleware.SessionIDHeader, sessionID)
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

type envelope[T any] struct {
	Data  T                       `json:"data"`
	Error *httputil.ErrorResponse `json:"error"`
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env), rec.Body.String())
	require.Nil(t, env.Error)
	return env.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) *httputil.ErrorResponse {
	t.Helper()
	var env envelope[json.RawMessage]
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	require.NotNil(t, env.Error)
	return env.Error
}

type failingSource struct{}

func (failingSource) GetProducts(context.Context, catalog.FetchOptions) ([]domain.RawProduct, error) {
	return nil, errors.New("upstream down")
}

// ============================================================================
// Ops endpoints
// ============================================================================

func TestRouter_HealthAndMetrics(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_CORSHeaders(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), middleware.SessionIDHeader)
}

func TestRouter_RateLimitsSessionEndpoints(t *testing.T) {
	api := newTestAPIWithOptions(t, nil, RouterOptions{
		CORS:        middleware.DefaultCORSConfig(),
		RateLimiter: middleware.NewRateLimiter(0.001, 2, time.Minute),
	})

	for i := 0; i < 2; i++ {
		rec := api.do(t, http.MethodGet, "/api/v1/cart", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := api.do(t, http.MethodGet, "/api/v1/wishlist", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", decodeError(t, rec).Code)
	assert.Equal(t, 2, api.registry.Len())

	// Catalog reads are not throttled.
	rec = api.do(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// ============================================================================
// Session middleware
// ============================================================================

func TestSession_MintedWhenHeaderMissing(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	id := rec.Header().Get(middleware.SessionIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, 1, api.registry.Len())
}

func TestSession_InvalidHeaderRejected(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(t, http.MethodGet, "/api/v1/wishlist", "not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_PARAMETER", decodeError(t, rec).Code)
	assert.Equal(t, 0, api.registry.Len())
}

func TestSession_EchoesCanonicalID(t *testing.T) {
	api := newTestAPI(t, nil)
	id := uuid.New()

	rec := api.do(t, http.MethodGet, "/api/v1/cart", strings.ToUpper(id.String()), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id.String(), rec.Header().Get(middleware.SessionIDHeader))
}

func TestSession_StateIsPerSession(t *testing.T) {
	api := newTestAPI(t, nil)
	alice, bob := uuid.NewString(), uuid.NewString()

	rec := api.do(t, http.MethodPost, "/api/v1/cart/items", alice, map[string]any{"product_id": "p1", "size": "M"})
	require.Equal(t, http.StatusOK, rec.Code)

	aliceCart := decodeData[domain.CartSummary](t, api.do(t, http.MethodGet, "/api/v1/cart", alice, nil))
	bobCart := decodeData[domain.CartSummary](t, api.do(t, http.MethodGet, "/api/v1/cart", bob, nil))

	assert.Equal(t, 1, aliceCart.Count)
	assert.Equal(t, 0, bobCart.Count)
	assert.Empty(t, bobCart.Items)
}

func TestSessionFromContext_PanicsWithoutMiddleware(t *testing.T) {
	h := middleware.Recovery(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestContentTypeJSON_RejectsOtherTypes(t *testing.T) {
	api := newTestAPI(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString("product_id=p1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	api.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "UNSUPPORTED_MEDIA_TYPE", decodeError(t, rec).Code)
}
