package catalog

import "github.com/lifestyle/storefront/internal/domain"

// DefaultCategories is offered in the category filter when the catalog
// has no collections of its own.
var DefaultCategories = []string{
	"Shirts",
	"T-Shirts",
	"Pants",
	"Jackets & Hoodies",
	"Innerwear",
	"Shorts",
	"Tanktops",
	"Accessories",
	"Sportswear",
}

// PriceOption is one entry of the price filter.
type PriceOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Facets lists the values offered by each filter group.
type Facets struct {
	Categories []string      `json:"categories"`
	Prices     []PriceOption `json:"prices"`
	Sizes      []string      `json:"sizes"`
	Seasons    []string      `json:"seasons"`
	Discounts  []int         `json:"discounts"`
	Occasions  []string      `json:"occasions"`
	Patterns   []string      `json:"patterns"`
	Sorts      []string      `json:"sorts"`
}

// StaticFacets returns the fixed filter values with the given categories.
func StaticFacets(categories []string) Facets {
	return Facets{
		Categories: categories,
		Prices: []PriceOption{
			{Key: PriceUnder500, Label: "Under ₹500"},
			{Key: Price500To1000, Label: "₹500 - ₹1000"},
			{Key: Price1000To1500, Label: "₹1000 - ₹1500"},
			{Key: PriceAbove1500, Label: "Above ₹1500"},
		},
		Sizes: []string{"XS", "S", "M", "L", "XL", "XXL", "3XL", "4XL", "5XL", "6XL", "7XL"},
		Seasons: []string{
			"Summer Collection",
			"Winter Collection",
			"Monsoon Collection",
			"Spring Collection",
			"Autumn Collection",
			"Festive Specials",
		},
		Discounts: []int{10, 20, 30, 50},
		Occasions: []string{"Casual", "Formal", "Office", "Party", "Sports", "Travel", "Wedding"},
		Patterns:  []string{"Solid", "Striped", "Checked", "Printed", "Plain", "Textured"},
		Sorts:     []string{SortPopular, SortLow, SortHigh, SortNew},
	}
}

// CollectionsOf returns the distinct collections of products in first-seen
// order, or DefaultCategories when there are none.
func CollectionsOf(products []domain.Product) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range products {
		for _, c := range p.Collections {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), DefaultCategories...)
	}
	return out
}
