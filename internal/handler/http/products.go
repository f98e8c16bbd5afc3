package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lifestyle/storefront/internal/catalog"
	"github.com/lifestyle/storefront/pkg/httputil"
	"github.com/lifestyle/storefront/pkg/pagination"
)

// ProductHandler handles HTTP requests for catalog endpoints.
type ProductHandler struct {
	catalog *catalog.Catalog
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(c *catalog.Catalog, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: c,
		logger:  logger,
	}
}

// collectionsResponse lists the category filter values.
type collectionsResponse struct {
	Collections []string `json:"collections"`
}

// ListProducts handles GET /api/v1/products
//
// Query parameters: q, category, price, size, season, discount, occasion,
// pattern (repeatable or comma separated), sort, page, per_page.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	criteria := catalog.ParseCriteria(r.URL.Query())
	page := pagination.FromRequest(r)

	result, err := h.catalog.List(r.Context(), criteria, page)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// GetProduct handles GET /api/v1/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, product)
}

// ListCollections handles GET /api/v1/products/collections
func (h *ProductHandler) ListCollections(w http.ResponseWriter, r *http.Request) {
	collections, err := h.catalog.Collections(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, collectionsResponse{Collections: collections})
}

// GetFilters handles GET /api/v1/products/filters
func (h *ProductHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	facets, err := h.catalog.Facets(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, facets)
}
