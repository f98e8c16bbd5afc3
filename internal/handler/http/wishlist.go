package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lifestyle/storefront/internal/service"
	"github.com/lifestyle/storefront/pkg/httputil"
	"github.com/lifestyle/storefront/pkg/validator"
)

// WishlistHandler handles HTTP requests for the session wishlist.
type WishlistHandler struct {
	service *service.WishlistService
	logger  *slog.Logger
}

// NewWishlistHandler creates a new wishlist HTTP handler.
func NewWishlistHandler(svc *service.WishlistService, logger *slog.Logger) *WishlistHandler {
	return &WishlistHandler{service: svc, logger: logger}
}

// likedResponse reports whether a single product is in the wishlist.
type likedResponse struct {
	ProductID string `json:"product_id"`
	Liked     bool   `json:"liked"`
}

// GetWishlist handles GET /api/v1/wishlist
func (h *WishlistHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	httputil.WriteData(w, http.StatusOK, h.service.Get(r.Context(), sess))
}

// AddItem handles POST /api/v1/wishlist/items
func (h *WishlistHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req service.WishlistItemInput
	if err := validator.DecodeAndValidate(limitBody(w, r), &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	wishlist, err := h.service.Add(r.Context(), sess, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, wishlist)
}

// Toggle handles POST /api/v1/wishlist/toggle
func (h *WishlistHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req service.WishlistItemInput
	if err := validator.DecodeAndValidate(limitBody(w, r), &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.service.Toggle(r.Context(), sess, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, result)
}

// IsLiked handles GET /api/v1/wishlist/items/{productId}
func (h *WishlistHandler) IsLiked(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	productID := chi.URLParam(r, "productId")

	httputil.WriteData(w, http.StatusOK, likedResponse{
		ProductID: productID,
		Liked:     h.service.IsLiked(r.Context(), sess, productID),
	})
}

// RemoveItem handles DELETE /api/v1/wishlist/items/{productId}
func (h *WishlistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	productID := chi.URLParam(r, "productId")

	httputil.WriteData(w, http.StatusOK, h.service.Remove(r.Context(), sess, productID))
}

// ClearWishlist handles DELETE /api/v1/wishlist
func (h *WishlistHandler) ClearWishlist(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	httputil.WriteData(w, http.StatusOK, h.service.Clear(r.Context(), sess))
}
