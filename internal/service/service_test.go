package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/lifestyle/storefront/internal/domain"
	"github.com/lifestyle/storefront/internal/session"
	"github.com/lifestyle/storefront/internal/storage"
	"github.com/lifestyle/storefront/internal/store"
	apperrors "github.com/lifestyle/storefront/pkg/errors"
)

// --- Mock Publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishCartUpdated(ctx context.Context, sessionID string, cart domain.CartSummary) error {
	return m.Called(ctx, sessionID, cart).Error(0)
}

func (m *mockPublisher) PublishCartCleared(ctx context.Context, sessionID string) error {
	return m.Called(ctx, sessionID).Error(0)
}

func (m *mockPublisher) PublishWishlistUpdated(ctx context.Context, sessionID string, wishlist domain.WishlistSummary) error {
	return m.Called(ctx, sessionID, wishlist).Error(0)
}

func (m *mockPublisher) PublishOrderPlaced(ctx context.Context, sessionID string, order domain.Order) error {
	return m.Called(ctx, sessionID, order).Error(0)
}

// --- Test Helpers ---

type catalogStub map[string]domain.Product

func (c catalogStub) Get(_ context.Context, id string) (domain.Product, error) {
	p, ok := c[id]
	if !ok {
		return domain.Product{}, apperrors.NotFound("product", id)
	}
	return p, nil
}

func testCatalog() catalogStub {
	return catalogStub{
		"p1": {ID: "p1", Name: "Minimal Oversized Tee", Price: decimal.NewFromInt(500)},
		"p2": {ID: "p2", Name: "Relaxed Fit Cargo Pants", Price: decimal.NewFromInt(1499)},
	}
}

// gatedLookup holds every Get until n callers are waiting, so concurrent
// service calls are guaranteed to overlap in the lookup.
type gatedLookup struct {
	catalogStub
	arrived sync.WaitGroup
}

func newGatedLookup(n int) *gatedLookup {
	g := &gatedLookup{catalogStub: testCatalog()}
	g.arrived.Add(n)
	return g
}

func (g *gatedLookup) Get(ctx context.Context, id string) (domain.Product, error) {
	g.arrived.Done()
	g.arrived.Wait()
	return g.catalogStub.Get(ctx, id)
}

type discardScheduler struct{}

func (discardScheduler) Schedule(string, []byte) {}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSession(id string) *session.Session {
	return &session.Session{
		ID:       id,
		Wishlist: store.NewWishlist(storage.WishlistKey(id), discardScheduler{}, newTestLogger()),
		Cart:     store.NewCart(storage.CartKey(id), discardScheduler{}, newTestLogger()),
	}
}

func intPtr(v int) *int { return &v }
