// Package catalog loads products from the upstream product API (or the
// built-in sample catalog), normalizes them and answers filtered listings.
package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lifestyle/storefront/internal/domain"
	apperrors "github.com/lifestyle/storefront/pkg/errors"
	"github.com/lifestyle/storefront/pkg/pagination"
	"github.com/lifestyle/storefront/pkg/tracing"
)

// LoadFailedMessage is shown to shoppers when the product list cannot be loaded.
const LoadFailedMessage = "failed to load products, please try again"

// DefaultTTL is how long a fetched catalog is served before refetching.
const DefaultTTL = 5 * time.Minute

// Options configures a Catalog.
type Options struct {
	TTL        time.Duration
	FetchLimit int
}

// Catalog caches the normalized product list of a Source.
type Catalog struct {
	source Source
	logger *slog.Logger
	ttl    time.Duration
	limit  int
	now    func() time.Time

	mu       sync.RWMutex
	products []domain.Product
	index    map[string]int
	loadedAt time.Time
	// gen numbers refreshes in start order; applied is the newest one whose
	// result replaced the cache.
	gen      uint64
	applied  uint64
}

// New creates a catalog over source. Nothing is fetched until first use.
func New(source Source, logger *slog.Logger, opts Options) *Catalog {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	if opts.FetchLimit <= 0 {
		opts.FetchLimit = DefaultFetchLimit
	}
	return &Catalog{
		source: source,
		logger: logger,
		ttl:    opts.TTL,
		limit:  opts.FetchLimit,
		now:    time.Now,
	}
}

// Products returns the normalized catalog, refreshing it when the cached copy
// is older than the TTL. When the refresh fails but an earlier load
// succeeded, the expired copy is served; only a catalog that never loaded
// reports the failure. The slice is shared and must not be modified.
func (c *Catalog) Products(ctx context.Context) ([]domain.Product, error) {
	c.mu.RLock()
	loaded := c.applied > 0
	fresh := loaded && c.now().Sub(c.loadedAt) < c.ttl
	products := c.products
	c.mu.RUnlock()

	if fresh {
		return products, nil
	}
	if err := c.Refresh(ctx); err != nil {
		if !loaded {
			return nil, err
		}
		c.logger.WarnContext(ctx, "serving expired catalog after failed refresh",
			slog.Int("products", len(products)),
			slog.String("error", err.Error()),
		)
		return products, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.products, nil
}

// Refresh reloads the catalog from the source. The result is discarded when
// ctx ended during the fetch or when a refresh started later has already
// been applied, so a slow stale fetch never overwrites newer data.
func (c *Catalog) Refresh(ctx context.Context) error {
	ctx, span := tracing.Start(ctx, "catalog.Refresh")
	defer span.End()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	raws, err := c.source.GetProducts(ctx, FetchOptions{Limit: c.limit})
	if err != nil {
		span.RecordError(err)
		c.logger.ErrorContext(ctx, "failed to load products",
			slog.String("error", err.Error()),
		)
		return apperrors.ServiceUnavailable(LoadFailedMessage, err)
	}
	if err := ctx.Err(); err != nil {
		c.logger.DebugContext(ctx, "discarding catalog refresh, context ended")
		return apperrors.ServiceUnavailable(LoadFailedMessage, err)
	}

	products := NormalizeAll(raws, c.now())
	index := make(map[string]int, len(products))
	for i, p := range products {
		if _, dup := index[p.ID]; !dup {
			index[p.ID] = i
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen < c.applied {
		c.logger.DebugContext(ctx, "discarding stale catalog refresh")
		return nil
	}
	c.products = products
	c.index = index
	c.loadedAt = c.now()
	c.applied = gen

	c.logger.InfoContext(ctx, "catalog refreshed", slog.Int("products", len(products)))
	return nil
}

// List filters, sorts and paginates the catalog.
func (c *Catalog) List(ctx context.Context, criteria Criteria, page pagination.Params) (pagination.Result[domain.Product], error) {
	products, err := c.Products(ctx)
	if err != nil {
		return pagination.Result[domain.Product]{}, err
	}
	return pagination.Slice(Filter(products, criteria), page), nil
}

// Get returns the product with the given id.
func (c *Catalog) Get(ctx context.Context, id string) (domain.Product, error) {
	if _, err := c.Products(ctx); err != nil {
		return domain.Product{}, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.index[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", id)
	}
	return c.products[i], nil
}

// Collections returns the category filter values for the current catalog.
func (c *Catalog) Collections(ctx context.Context) ([]string, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	return CollectionsOf(products), nil
}

// Facets returns every filter group's values for the current catalog.
func (c *Catalog) Facets(ctx context.Context) (Facets, error) {
	categories, err := c.Collections(ctx)
	if err != nil {
		return Facets{}, err
	}
	return StaticFacets(categories), nil
}
