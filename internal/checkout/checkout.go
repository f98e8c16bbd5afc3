// Package checkout computes the order summary for a cart and places
// placeholder orders. No payment is processed.
package checkout

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lifestyle/storefront/internal/domain"
	apperrors "github.com/lifestyle/storefront/pkg/errors"
	"github.com/lifestyle/storefront/pkg/validator"
)

// OrderIDPrefix starts every order id.
const OrderIDPrefix = "LS-"

var (
	// FreeShippingThreshold is the subtotal from which shipping is free.
	FreeShippingThreshold = decimal.NewFromInt(999)
	// ShippingFee is charged below FreeShippingThreshold.
	ShippingFee = decimal.NewFromInt(99)
)

// Cart is the part of a cart store checkout needs.
type Cart interface {
	Items() []domain.LineItem
	Drain() []domain.LineItem
}

// Summarize computes count, subtotal, shipping and total for items. Shipping
// is free for an empty cart and from FreeShippingThreshold upwards.
func Summarize(items []domain.LineItem) domain.OrderSummary {
	s := domain.OrderSummary{
		Subtotal:              decimal.Zero,
		Shipping:              decimal.Zero,
		FreeShippingRemaining: decimal.Zero,
	}
	for _, li := range items {
		s.Count += li.Qty
		s.Subtotal = s.Subtotal.Add(li.LineTotal())
	}

	if !s.Subtotal.IsZero() && s.Subtotal.LessThan(FreeShippingThreshold) {
		s.Shipping = ShippingFee
		s.FreeShippingRemaining = FreeShippingThreshold.Sub(s.Subtotal)
	}
	s.Total = s.Subtotal.Add(s.Shipping)
	return s
}

// Checkout places orders against a cart.
type Checkout struct {
	now     func() time.Time
	orderID func() string
}

// New creates a Checkout using the wall clock and random order ids.
func New() *Checkout {
	return &Checkout{now: time.Now, orderID: NewOrderID}
}

// NewOrderID returns OrderIDPrefix followed by six random digits.
func NewOrderID() string {
	return fmt.Sprintf("%s%d", OrderIDPrefix, 100000+rand.IntN(900000))
}

// Summary returns the order summary for the cart's current contents.
func (c *Checkout) Summary(cart Cart) domain.OrderSummary {
	return Summarize(cart.Items())
}

// PlaceOrder validates the delivery details, empties the cart and returns the
// confirmation. The cart is left untouched when validation fails or when
// there is nothing to pay for.
func (c *Checkout) PlaceOrder(ctx context.Context, cart Cart, details domain.DeliveryDetails) (domain.Order, error) {
	if err := ctx.Err(); err != nil {
		return domain.Order{}, err
	}

	details = trimDetails(details)
	if err := validator.Validate(details); err != nil {
		return domain.Order{}, err
	}
	if !Summarize(cart.Items()).Total.IsPositive() {
		return domain.Order{}, apperrors.InvalidInput("cart is empty")
	}

	items := cart.Drain()
	summary := Summarize(items)
	if len(items) == 0 {
		// Emptied concurrently after the check above.
		return domain.Order{}, apperrors.InvalidInput("cart is empty")
	}

	return domain.Order{
		OrderID:   c.orderID(),
		Paid:      true,
		Total:     summary.Total,
		Count:     summary.Count,
		Customer:  details,
		Items:     items,
		CreatedAt: c.now().UTC(),
	}, nil
}

func trimDetails(d domain.DeliveryDetails) domain.DeliveryDetails {
	return domain.DeliveryDetails{
		Name:    strings.TrimSpace(d.Name),
		Phone:   strings.TrimSpace(d.Phone),
		Address: strings.TrimSpace(d.Address),
		City:    strings.TrimSpace(d.City),
		Pincode: strings.TrimSpace(d.Pincode),
	}
}
