package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lifestyle/storefront/internal/domain"
	"github.com/lifestyle/storefront/internal/event"
	"github.com/lifestyle/storefront/internal/session"
)

// WishlistItemInput identifies a product to like or toggle.
type WishlistItemInput struct {
	ProductID string `json:"product_id"`
}

// ToggleResult is the outcome of a wishlist toggle.
type ToggleResult struct {
	Liked    bool                   `json:"liked"`
	Wishlist domain.WishlistSummary `json:"wishlist"`
}

// WishlistService implements the wishlist operations.
type WishlistService struct {
	products ProductLookup
	events   event.Publisher
	logger   *slog.Logger
}

// NewWishlistService creates a new wishlist service.
func NewWishlistService(products ProductLookup, events event.Publisher, logger *slog.Logger) *WishlistService {
	return &WishlistService{
		products: products,
		events:   events,
		logger:   logger,
	}
}

// Get returns the liked products and their count.
func (s *WishlistService) Get(_ context.Context, sess *session.Session) domain.WishlistSummary {
	return sess.Wishlist.Summary()
}

// IsLiked reports whether productID is in the wishlist.
func (s *WishlistService) IsLiked(_ context.Context, sess *session.Session, productID string) bool {
	return sess.Wishlist.IsLiked(productID)
}

// Add likes a product. An empty product id leaves the wishlist unchanged.
func (s *WishlistService) Add(ctx context.Context, sess *session.Session, input WishlistItemInput) (domain.WishlistSummary, error) {
	if input.ProductID == "" {
		return sess.Wishlist.Summary(), nil
	}

	p, err := s.products.Get(ctx, input.ProductID)
	if err != nil {
		return domain.WishlistSummary{}, fmt.Errorf("resolve product: %w", err)
	}
	sess.Wishlist.Add(p)

	summary := sess.Wishlist.Summary()
	s.publish(ctx, sess.ID, summary)

	s.logger.InfoContext(ctx, "product added to wishlist",
		slog.String("session_id", sess.ID),
		slog.String("product_id", p.ID),
	)
	return summary, nil
}

// Remove unlikes a product. Unknown ids are ignored.
func (s *WishlistService) Remove(ctx context.Context, sess *session.Session, productID string) domain.WishlistSummary {
	removed := sess.Wishlist.Remove(productID)

	summary := sess.Wishlist.Summary()
	if removed {
		s.publish(ctx, sess.ID, summary)
		s.logger.InfoContext(ctx, "product removed from wishlist",
			slog.String("session_id", sess.ID),
			slog.String("product_id", productID),
		)
	}
	return summary
}

// Toggle likes the product if it is not liked and unlikes it otherwise. The
// catalog is consulted only when liking, so products that left the catalog
// can still be unliked. An empty product id leaves the wishlist unchanged
// and reports false.
func (s *WishlistService) Toggle(ctx context.Context, sess *session.Session, input WishlistItemInput) (ToggleResult, error) {
	if input.ProductID == "" {
		return ToggleResult{Wishlist: sess.Wishlist.Summary()}, nil
	}

	liked, err := sess.Wishlist.Toggle(input.ProductID, func(id string) (domain.Product, error) {
		return s.products.Get(ctx, id)
	})
	if err != nil {
		return ToggleResult{}, fmt.Errorf("resolve product: %w", err)
	}

	summary := sess.Wishlist.Summary()
	s.publish(ctx, sess.ID, summary)

	s.logger.InfoContext(ctx, "wishlist toggled",
		slog.String("session_id", sess.ID),
		slog.String("product_id", input.ProductID),
		slog.Bool("liked", liked),
	)
	return ToggleResult{Liked: liked, Wishlist: summary}, nil
}

// Clear removes every liked product.
func (s *WishlistService) Clear(ctx context.Context, sess *session.Session) domain.WishlistSummary {
	sess.Wishlist.Clear()

	summary := sess.Wishlist.Summary()
	s.publish(ctx, sess.ID, summary)

	s.logger.InfoContext(ctx, "wishlist cleared",
		slog.String("session_id", sess.ID),
	)
	return summary
}

func (s *WishlistService) publish(ctx context.Context, sessionID string, summary domain.WishlistSummary) {
	if err := s.events.PublishWishlistUpdated(ctx, sessionID, summary); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish wishlist.updated event",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}
