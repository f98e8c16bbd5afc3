package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, both to clients and in persisted snapshots.
	decimal.MarshalJSONWithoutQuotes = true
}

// PlaceholderImage is shown for products without any image.
const PlaceholderImage = "https://via.placeholder.com/600x750?text=Product"

// Product is the canonical product reference shared by the catalog, the
// wishlist and the cart. Only ID and Price carry meaning to the stores; the
// remaining fields are display data passed through unchanged.
type Product struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Image        string           `json:"image"`
	Images       []string         `json:"images,omitempty"`
	Price        decimal.Decimal  `json:"price"`
	MRP          *decimal.Decimal `json:"mrp"`
	Discount     int              `json:"discount"`
	Sizes        []string         `json:"sizes,omitempty"`
	Season       []string         `json:"season,omitempty"`
	Occasion     []string         `json:"occasion,omitempty"`
	Pattern      string           `json:"pattern,omitempty"`
	Collections  []string         `json:"collections,omitempty"`
	Description  string           `json:"description,omitempty"`
	Material     string           `json:"material,omitempty"`
	Color        string           `json:"color,omitempty"`
	Sleeve       string           `json:"sleeve,omitempty"`
	Availability string           `json:"availability,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// HasCollection reports whether the product belongs to any of names.
func (p Product) HasCollection(names ...string) bool {
	return anyIn(p.Collections, names)
}

// HasSize reports whether the product is offered in any of sizes.
func (p Product) HasSize(sizes ...string) bool {
	return anyIn(p.Sizes, sizes)
}

func anyIn(have, want []string) bool {
	for _, h := range have {
		for _, w := range want {
			if h == w {
				return true
			}
		}
	}
	return false
}

// RawProduct is a product record as returned by the upstream product API.
type RawProduct struct {
	ID              string              `json:"_id"`
	ProductName     string              `json:"productname"`
	ProductPrice    decimal.NullDecimal `json:"productprice"`
	OfferPrice      decimal.NullDecimal `json:"offerprice"`
	ProductImages   []RawImage          `json:"productImages"`
	ProductSizes    []string            `json:"productsizes"`
	Season          string              `json:"season"`
	ProductOccasion string              `json:"productoccasion"`
	ProductPattern  string              `json:"productpattern"`
	Collections     []string            `json:"collections"`
	Description     string              `json:"productdescription"`
	Material        string              `json:"productmaterial"`
	Color           string              `json:"productcolor"`
	Sleeve          string              `json:"productsleeve"`
	Availability    string              `json:"availability"`
	CreatedAt       string              `json:"createdAt"`
	UpdatedAt       string              `json:"updatedAt"`
}

// RawImage is one entry of RawProduct.ProductImages.
type RawImage struct {
	URL string `json:"url"`
}
