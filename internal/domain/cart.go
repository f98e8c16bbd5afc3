package domain

import "github.com/shopspring/decimal"

// NoSize is the key component used for products sold without size variants.
const NoSize = "NA"

// KeySeparator joins the product id and size in a line item key.
const KeySeparator = "__"

// MakeKey builds the composite line item key for a product and size.
func MakeKey(productID, size string) string {
	if size == "" {
		size = NoSize
	}
	return productID + KeySeparator + size
}

// LineItem is one cart row: a product in one size with a quantity of at least 1.
type LineItem struct {
	Key       string  `json:"key"`
	ProductID string  `json:"product_id"`
	Size      *string `json:"size"`
	Product   Product `json:"product"`
	Qty       int     `json:"qty"`
}

// LineTotal returns price × quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Product.Price.Mul(decimal.NewFromInt(int64(li.Qty)))
}

// SizeOrEmpty returns the item's size, or "" for the no-size variant.
func (li LineItem) SizeOrEmpty() string {
	if li.Size == nil {
		return ""
	}
	return *li.Size
}

// CartSummary is the cart as rendered to clients. Count and Subtotal are
// recomputed from Items on every read.
type CartSummary struct {
	Items    []LineItem      `json:"items"`
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// WishlistSummary is the wishlist as rendered to clients.
type WishlistSummary struct {
	Items []Product `json:"items"`
	Count int       `json:"count"`
}
