package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lifestyle/storefront/internal/domain"
)

// Wishlist is the set of liked products of one session, keyed by product id.
type Wishlist struct {
	mu      sync.Mutex
	items   *entries[domain.Product]
	key     string
	persist Scheduler
	logger  *slog.Logger
}

// NewWishlist creates an empty wishlist persisted under key.
func NewWishlist(key string, persist Scheduler, logger *slog.Logger) *Wishlist {
	return &Wishlist{
		items:   newEntries[domain.Product](),
		key:     key,
		persist: persist,
		logger:  logger,
	}
}

// LoadWishlist creates a wishlist hydrated from the snapshot under key.
func LoadWishlist(ctx context.Context, key string, loader Loader, persist Scheduler, logger *slog.Logger) *Wishlist {
	w := NewWishlist(key, persist, logger)

	loaded := newEntries[domain.Product]()
	if hydrate(ctx, loader, key, loaded, logger) {
		for _, k := range loaded.keys {
			p := loaded.values[k]
			if p.ID == "" {
				p.ID = k
			}
			w.items.set(p.ID, p)
		}
	}
	return w
}

// IsLiked reports whether productID is in the wishlist.
func (w *Wishlist) IsLiked(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.items.get(productID)
	return ok
}

// Add stores a snapshot of p, replacing any earlier one. Products without an
// id are ignored.
func (w *Wishlist) Add(p domain.Product) {
	if p.ID == "" {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.items.set(p.ID, p)
	w.scheduleLocked()
}

// Remove deletes productID if present and reports whether it was liked.
func (w *Wishlist) Remove(productID string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.items.delete(productID) {
		return false
	}
	w.scheduleLocked()
	return true
}

// Toggle unlikes productID when liked. Otherwise it likes the product
// returned by resolve, which runs without the wishlist lock held. It returns
// whether the product is liked afterwards. An empty id is ignored and
// reports false.
func (w *Wishlist) Toggle(productID string, resolve func(id string) (domain.Product, error)) (bool, error) {
	if productID == "" {
		return false, nil
	}
	if w.Remove(productID) {
		return false, nil
	}

	p, err := resolve(productID)
	if err != nil {
		return false, err
	}
	p.ID = productID
	w.Add(p)
	return true, nil
}

// Clear removes every product.
func (w *Wishlist) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.items.clear()
	w.scheduleLocked()
}

// List returns the liked products in insertion order.
func (w *Wishlist) List() []domain.Product {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.items.list()
}

// Count returns the number of liked products.
func (w *Wishlist) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.items.len()
}

// Summary returns the list and count from a single consistent read.
func (w *Wishlist) Summary() domain.WishlistSummary {
	w.mu.Lock()
	defer w.mu.Unlock()
	return domain.WishlistSummary{Items: w.items.list(), Count: w.items.len()}
}

func (w *Wishlist) scheduleLocked() {
	schedule(w.persist, w.key, w.items, w.logger)
}
