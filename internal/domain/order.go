package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryDetails is the shipping address captured at checkout. Lengths are
// checked after trimming surrounding whitespace.
type DeliveryDetails struct {
	Name    string `json:"name" validate:"trimmin=2"`
	Phone   string `json:"phone" validate:"trimmin=8"`
	Address string `json:"address" validate:"trimmin=8"`
	City    string `json:"city" validate:"trimmin=2"`
	Pincode string `json:"pincode" validate:"trimmin=5"`
}

// OrderSummary is the checkout breakdown for the current cart.
type OrderSummary struct {
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`

	// FreeShippingRemaining is how much more must be added to qualify for
	// free shipping; zero once shipping is free.
	FreeShippingRemaining decimal.Decimal `json:"free_shipping_remaining"`
}

// Order is a placed order confirmation. No payment is taken; Paid is always
// true for orders produced by the placeholder checkout.
type Order struct {
	OrderID   string          `json:"order_id"`
	Paid      bool            `json:"paid"`
	Total     decimal.Decimal `json:"total"`
	Count     int             `json:"count"`
	Customer  DeliveryDetails `json:"customer"`
	Items     []LineItem      `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
}
