package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/lifestyle/storefront/internal/service"
	"github.com/lifestyle/storefront/pkg/httputil"
	"github.com/lifestyle/storefront/pkg/validator"
)

// CartHandler handles HTTP requests for the session cart.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart HTTP handler.
func NewCartHandler(svc *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{service: svc, logger: logger}
}

// containsResponse reports whether a product in a size is in the cart.
type containsResponse struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size,omitempty"`
	InCart    bool   `json:"in_cart"`
}

// GetCart handles GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	httputil.WriteData(w, http.StatusOK, h.service.Get(r.Context(), sess))
}

// Contains handles GET /api/v1/cart/contains?product_id=&size=
func (h *CartHandler) Contains(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	productID := r.URL.Query().Get("product_id")
	size := r.URL.Query().Get("size")

	httputil.WriteData(w, http.StatusOK, containsResponse{
		ProductID: productID,
		Size:      size,
		InCart:    h.service.Contains(r.Context(), sess, productID, size),
	})
}

// AddItem handles POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req service.AddItemInput
	if err := validator.DecodeAndValidate(limitBody(w, r), &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.AddItem(r.Context(), sess, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, cart)
}

// UpdateItemQuantity handles PUT /api/v1/cart/items/{key}
func (h *CartHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req service.UpdateQuantityInput
	if err := validator.DecodeAndValidate(limitBody(w, r), &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	cart, err := h.service.UpdateQuantity(r.Context(), sess, lineKey(r), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, cart)
}

// RemoveItem handles DELETE /api/v1/cart/items/{key}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	httputil.WriteData(w, http.StatusOK, h.service.RemoveItem(r.Context(), sess, lineKey(r)))
}

// ClearCart handles DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	httputil.WriteData(w, http.StatusOK, h.service.Clear(r.Context(), sess))
}

// lineKey returns the unescaped {key} path parameter.
func lineKey(r *http.Request) string {
	key := chi.URLParam(r, "key")
	if unescaped, err := url.PathUnescape(key); err == nil {
		return unescaped
	}
	return key
}
