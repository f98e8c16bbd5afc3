package catalog

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lifestyle/storefront/internal/domain"
	"github.com/lifestyle/storefront/pkg/httpclient"
	"github.com/lifestyle/storefront/pkg/tracing"
)

// upstreamName identifies the product API in errors and breaker metrics.
const upstreamName = "product-api"

// DefaultFetchLimit is how many products are requested per fetch.
const DefaultFetchLimit = 200

const maxBodyBytes = 16 << 20

// FetchOptions narrows an upstream product fetch.
type FetchOptions struct {
	Limit      int
	Skip       int
	Collection string
}

// Source yields raw product records.
type Source interface {
	GetProducts(ctx context.Context, opts FetchOptions) ([]domain.RawProduct, error)
}

// HTTPSource fetches products from the upstream product API.
type HTTPSource struct {
	baseURL string
	client  httpclient.Doer
}

// NewHTTPSource creates a source for the API rooted at baseURL. client is
// normally a *httpclient.CircuitBreakerClient.
func NewHTTPSource(baseURL string, client httpclient.Doer) *HTTPSource {
	return &HTTPSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// GetProducts issues GET {base}/api?limit=&skip=&collection=. A 2xx body that
// is not a JSON array yields no products.
func (s *HTTPSource) GetProducts(ctx context.Context, opts FetchOptions) ([]domain.RawProduct, error) {
	ctx, span := tracing.Start(ctx, "catalog.HTTPSource.GetProducts",
		attribute.Int("catalog.limit", opts.Limit),
		attribute.Int("catalog.skip", opts.Skip),
	)
	defer span.End()

	resp, err := s.client.Get(ctx, s.url(opts))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		err := httpclient.ParseResponseError(resp, upstreamName)
		span.RecordError(err)
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read products body: %w", err)
	}

	products, err := decodeProducts(body)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("catalog.count", len(products)))
	return products, nil
}

func (s *HTTPSource) url(opts FetchOptions) string {
	q := url.Values{}
	if opts.Collection != "" {
		q.Set("collection", opts.Collection)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	q.Set("skip", strconv.Itoa(opts.Skip))
	return s.baseURL + "/api?" + q.Encode()
}

// decodeProducts accepts a JSON array of records. Any other JSON value is
// treated as an empty list; malformed JSON is an error.
func decodeProducts(body []byte) ([]domain.RawProduct, error) {
	var doc json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	trimmed := strings.TrimSpace(string(doc))
	if !strings.HasPrefix(trimmed, "[") {
		return []domain.RawProduct{}, nil
	}

	var products []domain.RawProduct
	if err := json.Unmarshal(doc, &products); err != nil {
		return nil, fmt.Errorf("decode products: %w", err)
	}
	return products, nil
}

//go:embed data/sample_products.json
var sampleProducts []byte

// StaticSource serves the built-in sample catalog, used when no product API
// is configured.
type StaticSource struct {
	products []domain.RawProduct
}

// NewStaticSource parses the embedded sample catalog.
func NewStaticSource() (*StaticSource, error) {
	products, err := decodeProducts(sampleProducts)
	if err != nil {
		return nil, fmt.Errorf("load sample catalog: %w", err)
	}
	return &StaticSource{products: products}, nil
}

// NewStaticSourceFrom serves a fixed list of records.
func NewStaticSourceFrom(products []domain.RawProduct) *StaticSource {
	return &StaticSource{products: products}
}

// GetProducts applies collection, skip and limit to the fixed list.
func (s *StaticSource) GetProducts(ctx context.Context, opts FetchOptions) ([]domain.RawProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]domain.RawProduct, 0, len(s.products))
	for _, p := range s.products {
		if opts.Collection != "" && !contains(p.Collections, opts.Collection) {
			continue
		}
		out = append(out, p)
	}

	if opts.Skip > 0 {
		if opts.Skip >= len(out) {
			return []domain.RawProduct{}, nil
		}
		out = out[opts.Skip:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

var (
	_ Source = (*HTTPSource)(nil)
	_ Source = (*StaticSource)(nil)
)
