package service

import (
	"context"
	"log/slog"

	"github.com/lifestyle/storefront/internal/checkout"
	"github.com/lifestyle/storefront/internal/domain"
	"github.com/lifestyle/storefront/internal/event"
	"github.com/lifestyle/storefront/internal/session"
)

// CheckoutService implements the placeholder checkout.
type CheckoutService struct {
	checkout *checkout.Checkout
	events   event.Publisher
	logger   *slog.Logger
}

// NewCheckoutService creates a new checkout service.
func NewCheckoutService(c *checkout.Checkout, events event.Publisher, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		checkout: c,
		events:   events,
		logger:   logger,
	}
}

// Summary returns count, subtotal, shipping and total for the session's cart.
func (s *CheckoutService) Summary(_ context.Context, sess *session.Session) domain.OrderSummary {
	return s.checkout.Summary(sess.Cart)
}

// PlaceOrder validates the delivery details, empties the cart and returns the
// order confirmation.
func (s *CheckoutService) PlaceOrder(ctx context.Context, sess *session.Session, details domain.DeliveryDetails) (domain.Order, error) {
	order, err := s.checkout.PlaceOrder(ctx, sess.Cart, details)
	if err != nil {
		return domain.Order{}, err
	}

	if err := s.events.PublishOrderPlaced(ctx, sess.ID, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.placed event",
			slog.String("session_id", sess.ID),
			slog.String("order_id", order.OrderID),
			slog.String("error", err.Error()),
		)
	}
	if err := s.events.PublishCartCleared(ctx, sess.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish cart.cleared event",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order placed",
		slog.String("session_id", sess.ID),
		slog.String("order_id", order.OrderID),
		slog.String("total", order.Total.String()),
		slog.Int("count", order.Count),
	)
	return order, nil
}
