package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lifestyle/storefront/internal/domain"
)

// DefaultProductName is used for upstream records without a name.
const DefaultProductName = "Product"

var hundred = decimal.NewFromInt(100)

// Normalize maps an upstream record onto the canonical product. now stands in
// for the creation time when the record carries neither createdAt nor
// updatedAt.
func Normalize(raw domain.RawProduct, now time.Time) domain.Product {
	p := domain.Product{
		ID:           raw.ID,
		Name:         raw.ProductName,
		Sizes:        nonNil(raw.ProductSizes),
		Season:       wrap(raw.Season),
		Occasion:     wrap(raw.ProductOccasion),
		Pattern:      raw.ProductPattern,
		Collections:  nonNil(raw.Collections),
		Description:  raw.Description,
		Material:     raw.Material,
		Color:        raw.Color,
		Sleeve:       raw.Sleeve,
		Availability: raw.Availability,
		CreatedAt:    createdAt(raw, now),
	}
	if p.Name == "" {
		p.Name = DefaultProductName
	}

	listPrice := decimal.Zero
	if raw.ProductPrice.Valid {
		listPrice = raw.ProductPrice.Decimal
	}

	if raw.OfferPrice.Valid && raw.OfferPrice.Decimal.IsPositive() {
		p.Price = raw.OfferPrice.Decimal
		mrp := listPrice
		p.MRP = &mrp
	} else {
		p.Price = listPrice
	}
	p.Discount = discount(p.MRP, p.Price)

	for _, img := range raw.ProductImages {
		if img.URL != "" {
			p.Images = append(p.Images, img.URL)
		}
	}
	if len(p.Images) > 0 {
		p.Image = p.Images[0]
	} else {
		p.Image = domain.PlaceholderImage
	}

	return p
}

// NormalizeAll normalizes every record, dropping those without an id since
// they cannot be liked or added to a cart.
func NormalizeAll(raws []domain.RawProduct, now time.Time) []domain.Product {
	out := make([]domain.Product, 0, len(raws))
	for _, raw := range raws {
		if raw.ID == "" {
			continue
		}
		out = append(out, Normalize(raw, now))
	}
	return out
}

// discount is the rounded percentage off mrp, or 0 when there is no markdown.
func discount(mrp *decimal.Decimal, price decimal.Decimal) int {
	if mrp == nil || !mrp.IsPositive() || !mrp.GreaterThan(price) {
		return 0
	}
	pct := mrp.Sub(price).Div(*mrp).Mul(hundred).Round(0)
	return int(pct.IntPart())
}

func createdAt(raw domain.RawProduct, now time.Time) time.Time {
	for _, s := range []string{raw.CreatedAt, raw.UpdatedAt} {
		if s == "" {
			continue
		}
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			return t
		}
	}
	return now
}

func wrap(s string) []string {
	if s == "" {
		return []string{}
	}
	return []string{s}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
