package catalog

import (
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/lifestyle/storefront/internal/domain"
)

// Price bucket keys.
const (
	PriceUnder500   = "under500"
	Price500To1000  = "500-1000"
	Price1000To1500 = "1000-1500"
	PriceAbove1500  = "above1500"
)

// Sort modes. Anything else keeps the catalog order.
const (
	SortPopular = "popular"
	SortLow     = "low"
	SortHigh    = "high"
	SortNew     = "new"
)

var (
	price500  = decimal.NewFromInt(500)
	price1000 = decimal.NewFromInt(1000)
	price1500 = decimal.NewFromInt(1500)
)

// Criteria selects and orders products. Empty groups do not constrain the
// result; a product must satisfy every non-empty group and any one value
// within a group.
type Criteria struct {
	Query      string
	Categories []string
	Prices     []string
	Sizes      []string
	Seasons    []string
	Discounts  []int
	Occasions  []string
	Patterns   []string
	Sort       string
}

// ParseCriteria reads criteria from query parameters. Multi-valued groups
// accept repeated parameters and comma-separated lists; discount values that
// are not integers are ignored.
func ParseCriteria(q url.Values) Criteria {
	c := Criteria{
		Query:      strings.TrimSpace(q.Get("q")),
		Categories: multi(q, "category"),
		Prices:     multi(q, "price"),
		Sizes:      multi(q, "size"),
		Seasons:    multi(q, "season"),
		Occasions:  multi(q, "occasion"),
		Patterns:   multi(q, "pattern"),
		Sort:       q.Get("sort"),
	}
	for _, v := range multi(q, "discount") {
		if d, err := strconv.Atoi(v); err == nil {
			c.Discounts = append(c.Discounts, d)
		}
	}
	return c
}

func multi(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// Filter returns the products matching c, sorted by c.Sort. The input slice
// is not modified.
func Filter(products []domain.Product, c Criteria) []domain.Product {
	query := strings.ToLower(c.Query)

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matches(p, c, query) {
			out = append(out, p)
		}
	}

	sortProducts(out, c.Sort)
	return out
}

func matches(p domain.Product, c Criteria, query string) bool {
	if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
		return false
	}
	if len(c.Categories) > 0 && !p.HasCollection(c.Categories...) {
		return false
	}
	if len(c.Prices) > 0 && !inAnyBucket(p.Price, c.Prices) {
		return false
	}
	if len(c.Sizes) > 0 && !p.HasSize(c.Sizes...) {
		return false
	}
	if len(c.Seasons) > 0 && !overlaps(p.Season, c.Seasons) {
		return false
	}
	if len(c.Discounts) > 0 && !meetsDiscount(p.Discount, c.Discounts) {
		return false
	}
	if len(c.Occasions) > 0 && !overlaps(p.Occasion, c.Occasions) {
		return false
	}
	if len(c.Patterns) > 0 && !contains(c.Patterns, p.Pattern) {
		return false
	}
	return true
}

// MatchPriceBucket reports whether price falls in the named bucket. Unknown
// bucket keys match every price.
func MatchPriceBucket(price decimal.Decimal, bucket string) bool {
	switch bucket {
	case PriceUnder500:
		return price.LessThan(price500)
	case Price500To1000:
		return price.GreaterThanOrEqual(price500) && price.LessThanOrEqual(price1000)
	case Price1000To1500:
		return price.GreaterThan(price1000) && price.LessThanOrEqual(price1500)
	case PriceAbove1500:
		return price.GreaterThan(price1500)
	default:
		return true
	}
}

func inAnyBucket(price decimal.Decimal, buckets []string) bool {
	for _, b := range buckets {
		if MatchPriceBucket(price, b) {
			return true
		}
	}
	return false
}

func meetsDiscount(discount int, thresholds []int) bool {
	for _, d := range thresholds {
		if discount >= d {
			return true
		}
	}
	return false
}

func overlaps(have, want []string) bool {
	for _, h := range have {
		if contains(want, h) {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortProducts(products []domain.Product, mode string) {
	switch mode {
	case SortLow:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.LessThan(products[j].Price)
		})
	case SortHigh:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].Price.GreaterThan(products[j].Price)
		})
	case SortNew:
		sort.SliceStable(products, func(i, j int) bool {
			return products[i].CreatedAt.After(products[j].CreatedAt)
		})
	default:
		// SortPopular or unknown: keep catalog order.
	}
}
