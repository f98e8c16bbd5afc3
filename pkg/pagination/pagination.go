package pagination

import (
	"net/http"
	"strconv"
)

const (
	// DefaultPerPage matches the storefront's product grid size.
	DefaultPerPage = 24
	// MaxPerPage caps per_page; larger values fall back to the default.
	MaxPerPage = 100
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Offset  int `json:"-"`
}

// DefaultParams returns the first page with DefaultPerPage items.
func DefaultParams() Params {
	return Params{
		Page:    1,
		PerPage: DefaultPerPage,
		Offset:  0,
	}
}

// FromRequest reads page and per_page from the query string. Missing or
// out-of-range values fall back to the defaults.
func FromRequest(r *http.Request) Params {
	p := DefaultParams()
	q := r.URL.Query()

	if v, err := strconv.Atoi(q.Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(q.Get("per_page")); err == nil && v > 0 && v <= MaxPerPage {
		p.PerPage = v
	}

	p.Offset = (p.Page - 1) * p.PerPage
	return p
}

// Result wraps a paginated response.
type Result[T any] struct {
	Data       []T  `json:"data"`
	TotalCount int  `json:"total_count"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewResult creates a paginated result. A nil data slice renders as [].
func NewResult[T any](data []T, totalCount int, params Params) Result[T] {
	totalPages := 0
	if params.PerPage > 0 {
		totalPages = totalCount / params.PerPage
		if totalCount%params.PerPage > 0 {
			totalPages++
		}
	}
	if data == nil {
		data = []T{}
	}

	return Result[T]{
		Data:       data,
		TotalCount: totalCount,
		Page:       params.Page,
		PerPage:    params.PerPage,
		TotalPages: totalPages,
		HasNext:    params.Page < totalPages,
		HasPrev:    params.Page > 1,
	}
}

// Slice returns the page of items selected by params. Pages past the end are
// empty; the total always reflects len(items).
func Slice[T any](items []T, params Params) Result[T] {
	start := params.Offset
	if start > len(items) {
		start = len(items)
	}
	end := start + params.PerPage
	if end > len(items) {
		end = len(items)
	}

	page := make([]T, end-start)
	copy(page, items[start:end])
	return NewResult(page, len(items), params)
}
