package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/lifestyle/storefront/internal/domain"
	pkgkafka "github.com/lifestyle/storefront/pkg/kafka"
)

// Kafka topics for storefront domain events.
var (
	TopicCartUpdated     = pkgkafka.Topic("cart", "updated")
	TopicCartCleared     = pkgkafka.Topic("cart", "cleared")
	TopicWishlistUpdated = pkgkafka.Topic("wishlist", "updated")
	TopicOrderPlaced     = pkgkafka.Topic("order", "placed")
)

// Aggregate type constants.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeWishlist = "wishlist"
	AggregateTypeOrder    = "order"
)

// SourceStorefront identifies events originating from this service.
const SourceStorefront = "storefront"

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	SessionID string          `json:"session_id"`
	Items     []CartItemData  `json:"items"`
	Count     int             `json:"count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartItemData is the item payload within cart events.
type CartItemData struct {
	Key       string          `json:"key"`
	ProductID string          `json:"product_id"`
	Size      string          `json:"size,omitempty"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
}

// CartClearedData is the payload for a cart.cleared event.
type CartClearedData struct {
	SessionID string `json:"session_id"`
}

// WishlistUpdatedData is the payload for a wishlist.updated event.
type WishlistUpdatedData struct {
	SessionID  string   `json:"session_id"`
	ProductIDs []string `json:"product_ids"`
	Count      int      `json:"count"`
}

// OrderPlacedData is the payload for an order.placed event.
type OrderPlacedData struct {
	SessionID string          `json:"session_id"`
	OrderID   string          `json:"order_id"`
	Total     decimal.Decimal `json:"total"`
	Count     int             `json:"count"`
	City      string          `json:"city"`
	Pincode   string          `json:"pincode"`
	Items     []CartItemData  `json:"items"`
}

// Publisher publishes storefront domain events.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, sessionID string, cart domain.CartSummary) error
	PublishCartCleared(ctx context.Context, sessionID string) error
	PublishWishlistUpdated(ctx context.Context, sessionID string, wishlist domain.WishlistSummary) error
	PublishOrderPlaced(ctx context.Context, sessionID string, order domain.Order) error
}

// kafkaPublisher is satisfied by *pkgkafka.Producer.
type kafkaPublisher interface {
	Publish(ctx context.Context, topic string, event *pkgkafka.Event) error
}

// Producer publishes storefront domain events to Kafka.
type Producer struct {
	kafka  kafkaPublisher
	logger *slog.Logger
}

// NewProducer creates a new event producer.
func NewProducer(kafka kafkaPublisher, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event.
func (p *Producer) PublishCartUpdated(ctx context.Context, sessionID string, cart domain.CartSummary) error {
	data := CartUpdatedData{
		SessionID: sessionID,
		Items:     itemData(cart.Items),
		Count:     cart.Count,
		Subtotal:  cart.Subtotal,
	}
	if err := p.publish(ctx, TopicCartUpdated, sessionID, AggregateTypeCart, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.updated event",
		slog.String("session_id", sessionID),
		slog.Int("count", cart.Count),
	)
	return nil
}

// PublishCartCleared publishes a cart.cleared event.
func (p *Producer) PublishCartCleared(ctx context.Context, sessionID string) error {
	if err := p.publish(ctx, TopicCartCleared, sessionID, AggregateTypeCart, CartClearedData{SessionID: sessionID}); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published cart.cleared event",
		slog.String("session_id", sessionID),
	)
	return nil
}

// PublishWishlistUpdated publishes a wishlist.updated event.
func (p *Producer) PublishWishlistUpdated(ctx context.Context, sessionID string, wishlist domain.WishlistSummary) error {
	ids := make([]string, len(wishlist.Items))
	for i, item := range wishlist.Items {
		ids[i] = item.ID
	}
	data := WishlistUpdatedData{SessionID: sessionID, ProductIDs: ids, Count: wishlist.Count}

	if err := p.publish(ctx, TopicWishlistUpdated, sessionID, AggregateTypeWishlist, data); err != nil {
		return err
	}

	p.logger.DebugContext(ctx, "published wishlist.updated event",
		slog.String("session_id", sessionID),
		slog.Int("count", wishlist.Count),
	)
	return nil
}

// PublishOrderPlaced publishes an order.placed event. Only the city and
// pincode of the delivery address leave the service.
func (p *Producer) PublishOrderPlaced(ctx context.Context, sessionID string, order domain.Order) error {
	data := OrderPlacedData{
		SessionID: sessionID,
		OrderID:   order.OrderID,
		Total:     order.Total,
		Count:     order.Count,
		City:      order.Customer.City,
		Pincode:   order.Customer.Pincode,
		Items:     itemData(order.Items),
	}

	// Orders are keyed by session so they follow the session's cart events.
	if err := p.publish(ctx, TopicOrderPlaced, sessionID, AggregateTypeOrder, data); err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "published order.placed event",
		slog.String("session_id", sessionID),
		slog.String("order_id", order.OrderID),
	)
	return nil
}

func (p *Producer) publish(ctx context.Context, topic, aggregateID, aggregateType string, data any) error {
	event, err := pkgkafka.NewEvent(ctx, topic, aggregateID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}
	return nil
}

func itemData(items []domain.LineItem) []CartItemData {
	out := make([]CartItemData, len(items))
	for i, li := range items {
		out[i] = CartItemData{
			Key:       li.Key,
			ProductID: li.ProductID,
			Size:      li.SizeOrEmpty(),
			Name:      li.Product.Name,
			Price:     li.Product.Price,
			Qty:       li.Qty,
		}
	}
	return out
}

// Noop discards every event. It is used when no brokers are configured.
type Noop struct{}

func (Noop) PublishCartUpdated(context.Context, string, domain.CartSummary) error { return nil }
func (Noop) PublishCartCleared(context.Context, string) error { return nil }
func (Noop) PublishWishlistUpdated(context.Context, string, domain.WishlistSummary) error { return nil }
func (Noop) PublishOrderPlaced(context.Context, string, domain.Order) error { return nil }

var (
	_ Publisher = (*Producer)(nil)
	_ Publisher = Noop{}
)
