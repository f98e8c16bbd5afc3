// Package service implements the storefront operations on top of the
// per-session stores: it resolves products from the catalog, mutates the
// stores, logs and publishes domain events.
package service

import (
	"context"

	"github.com/lifestyle/storefront/internal/domain"
)

// ProductLookup resolves a product id to the catalog's current snapshot.
// *catalog.Catalog satisfies it.
type ProductLookup interface {
	Get(ctx context.Context, id string) (domain.Product, error)
}
