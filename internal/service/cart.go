package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lifestyle/storefront/internal/domain"
	"github.com/lifestyle/storefront/internal/event"
	"github.com/lifestyle/storefront/internal/session"
	apperrors "github.com/lifestyle/storefront/pkg/errors"
)

// MaxQuantityPerItem caps the quantity of a single cart line.
const MaxQuantityPerItem = 100

// AddItemInput holds the parameters for adding an item to the cart. Qty
// defaults to 1 when omitted.
type AddItemInput struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Qty       *int   `json:"qty"`
}

// UpdateQuantityInput holds the new quantity of a cart line. Zero or below
// removes the line.
type UpdateQuantityInput struct {
	Qty int `json:"qty" validate:"lte=100"`
}

// CartService implements the cart operations.
type CartService struct {
	products ProductLookup
	events   event.Publisher
	logger   *slog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(products ProductLookup, events event.Publisher, logger *slog.Logger) *CartService {
	return &CartService{
		products: products,
		events:   events,
		logger:   logger,
	}
}

// Get returns the cart lines with their count and subtotal.
func (s *CartService) Get(_ context.Context, sess *session.Session) domain.CartSummary {
	return sess.Cart.Summary()
}

// Contains reports whether the product is in the cart in the given size.
func (s *CartService) Contains(_ context.Context, sess *session.Session, productID, size string) bool {
	return sess.Cart.Has(productID, size)
}

// AddItem adds a product to the cart, merging with an existing line of the
// same product and size. An empty product id leaves the cart unchanged.
func (s *CartService) AddItem(ctx context.Context, sess *session.Session, input AddItemInput) (domain.CartSummary, error) {
	if input.ProductID == "" {
		return sess.Cart.Summary(), nil
	}

	qty := 1
	if input.Qty != nil {
		qty = *input.Qty
	}
	if qty <= 0 {
		return domain.CartSummary{}, apperrors.InvalidInput("quantity must be greater than 0")
	}

	if qty > MaxQuantityPerItem {
		return domain.CartSummary{}, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	p, err := s.products.Get(ctx, input.ProductID)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("resolve product: %w", err)
	}
	if err := sess.Cart.AddCapped(p, qty, input.Size, MaxQuantityPerItem); err != nil {
		return domain.CartSummary{}, err
	}
	key := domain.MakeKey(p.ID, input.Size)

	summary := sess.Cart.Summary()
	s.publishUpdated(ctx, sess.ID, summary)

	s.logger.InfoContext(ctx, "item added to cart",
		slog.String("session_id", sess.ID),
		slog.String("key", key),
		slog.Int("qty", qty),
	)
	return summary, nil
}

// UpdateQuantity sets the quantity of the line with the given key. Zero or
// below removes the line; unknown keys are ignored.
func (s *CartService) UpdateQuantity(ctx context.Context, sess *session.Session, key string, input UpdateQuantityInput) (domain.CartSummary, error) {
	if input.Qty > MaxQuantityPerItem {
		return domain.CartSummary{}, apperrors.InvalidInput(fmt.Sprintf("quantity must not exceed %d", MaxQuantityPerItem))
	}

	_, exists := sess.Cart.Get(key)
	sess.Cart.UpdateQty(key, input.Qty)

	summary := sess.Cart.Summary()
	if exists {
		s.publishUpdated(ctx, sess.ID, summary)
		s.logger.InfoContext(ctx, "cart item quantity updated",
			slog.String("session_id", sess.ID),
			slog.String("key", key),
			slog.Int("qty", input.Qty),
		)
	}
	return summary, nil
}

// RemoveItem deletes the line with the given key. Unknown keys are ignored.
func (s *CartService) RemoveItem(ctx context.Context, sess *session.Session, key string) domain.CartSummary {
	_, exists := sess.Cart.Get(key)
	sess.Cart.Remove(key)

	summary := sess.Cart.Summary()
	if exists {
		s.publishUpdated(ctx, sess.ID, summary)
		s.logger.InfoContext(ctx, "item removed from cart",
			slog.String("session_id", sess.ID),
			slog.String("key", key),
		)
	}
	return summary
}

// Clear removes every line from the cart.
func (s *CartService) Clear(ctx context.Context, sess *session.Session) domain.CartSummary {
	sess.Cart.Clear()

	if err := s.events.PublishCartCleared(ctx, sess.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "cart cleared",
		slog.String("session_id", sess.ID),
	)
	return sess.Cart.Summary()
}

func (s *CartService) publishUpdated(ctx context.Context, sessionID string, summary domain.CartSummary) {
	if err := s.events.PublishCartUpdated(ctx, sessionID, summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.updated event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}
