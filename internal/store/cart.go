package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/lifestyle/storefront/internal/domain"
	apperrors "github.com/lifestyle/storefront/pkg/errors"
)

// Cart holds the line items of one session, keyed by domain.MakeKey.
type Cart struct {
	mu      sync.Mutex
	items   *entries[domain.LineItem]
	key     string
	persist Scheduler
	logger  *slog.Logger
}

// NewCart creates an empty cart persisted under key.
func NewCart(key string, persist Scheduler, logger *slog.Logger) *Cart {
	return &Cart{
		items:   newEntries[domain.LineItem](),
		key:     key,
		persist: persist,
		logger:  logger,
	}
}

// LoadCart creates a cart hydrated from the snapshot under key. Entries
// without a product id or with a quantity below 1 are dropped.
func LoadCart(ctx context.Context, key string, loader Loader, persist Scheduler, logger *slog.Logger) *Cart {
	c := NewCart(key, persist, logger)

	loaded := newEntries[domain.LineItem]()
	if !hydrate(ctx, loader, key, loaded, logger) {
		return c
	}
	for _, k := range loaded.keys {
		li := loaded.values[k]
		if li.ProductID == "" {
			li.ProductID = li.Product.ID
		}
		if li.ProductID == "" || li.Qty < 1 {
			logger.WarnContext(ctx, "dropping invalid cart entry",
				slog.String("key", key),
				slog.String("entry", k),
			)
			continue
		}
		li.Key = domain.MakeKey(li.ProductID, li.SizeOrEmpty())
		c.items.set(li.Key, li)
	}
	return c
}

// Add puts qty units of p in the given size into the cart, merging with an
// existing line for the same product and size. The line keeps the latest
// product snapshot. Products without an id are ignored; a quantity below 1
// is rejected and leaves the cart unchanged.
func (c *Cart) Add(p domain.Product, qty int, size string) error {
	return c.AddCapped(p, qty, size, 0)
}

// AddCapped is Add with a limit on the merged line quantity. The check and
// the write happen under the cart lock; a merge that would exceed max is
// rejected and leaves the cart unchanged. A max of 0 or below disables it.
func (c *Cart) AddCapped(p domain.Product, qty int, size string, max int) error {
	if p.ID == "" {
		return nil
	}
	if qty < 1 {
		return apperrors.InvalidInput("quantity must be greater than 0")
	}

	key := domain.MakeKey(p.ID, size)

	c.mu.Lock()
	defer c.mu.Unlock()

	li, ok := c.items.get(key)
	if max > 0 && li.Qty+qty > max {
		if ok {
			return apperrors.InvalidInput(fmt.Sprintf("combined quantity must not exceed %d", max))
		}
		return apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", max))
	}
	if !ok {
		li = domain.LineItem{Key: key, ProductID: p.ID}
		if size != "" {
			s := size
			li.Size = &s
		}
	}
	li.Product = p
	li.Qty += qty
	c.items.set(key, li)
	c.scheduleLocked()
	return nil
}

// Remove deletes the line with the given key if present.
func (c *Cart) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.items.delete(key) {
		c.scheduleLocked()
	}
}

// UpdateQty sets the quantity of an existing line. A quantity of 0 or below
// removes it. Unknown keys are ignored.
func (c *Cart) UpdateQty(key string, qty int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if qty <= 0 {
		if c.items.delete(key) {
			c.scheduleLocked()
		}
		return
	}

	li, ok := c.items.get(key)
	if !ok {
		return
	}
	li.Qty = qty
	c.items.set(key, li)
	c.scheduleLocked()
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items.clear()
	c.scheduleLocked()
}

// Has reports whether the product is in the cart in the given size.
func (c *Cart) Has(productID, size string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items.get(domain.MakeKey(productID, size))
	return ok
}

// Get returns the line with the given key.
func (c *Cart) Get(key string) (domain.LineItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.get(key)
}

// Items returns the lines in insertion order.
func (c *Cart) Items() []domain.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.items.list()
}

// Count returns the total quantity across all lines.
func (c *Cart) Count() int {
	return count(c.Items())
}

// Subtotal returns Σ price × qty across all lines.
func (c *Cart) Subtotal() decimal.Decimal {
	return subtotal(c.Items())
}

// Summary returns items and aggregates computed from a single consistent read.
func (c *Cart) Summary() domain.CartSummary {
	items := c.Items()
	return domain.CartSummary{Items: items, Count: count(items), Subtotal: subtotal(items)}
}

// Drain atomically returns the current lines and empties the cart.
func (c *Cart) Drain() []domain.LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := c.items.list()
	if len(items) > 0 {
		c.items.clear()
		c.scheduleLocked()
	}
	return items
}

func (c *Cart) scheduleLocked() {
	schedule(c.persist, c.key, c.items, c.logger)
}

func count(items []domain.LineItem) int {
	n := 0
	for _, li := range items {
		n += li.Qty
	}
	return n
}

func subtotal(items []domain.LineItem) decimal.Decimal {
	sum := decimal.Zero
	for _, li := range items {
		sum = sum.Add(li.LineTotal())
	}
	return sum
}
