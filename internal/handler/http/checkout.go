package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/lifestyle/storefront/internal/domain"
	"github.com/lifestyle/storefront/internal/service"
	"github.com/lifestyle/storefront/pkg/httputil"
	"github.com/lifestyle/storefront/pkg/validator"
)

// CheckoutHandler handles HTTP requests for the placeholder checkout.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *slog.Logger
}

// NewCheckoutHandler creates a new checkout HTTP handler.
func NewCheckoutHandler(svc *service.CheckoutService, logger *slog.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: svc, logger: logger}
}

// GetSummary handles GET /api/v1/checkout/summary
func (h *CheckoutHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	httputil.WriteData(w, http.StatusOK, h.service.Summary(r.Context(), sess))
}

// PlaceOrder handles POST /api/v1/checkout/orders
//
// Delivery details are validated after trimming by the checkout itself, so the
// body is only decoded here.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())

	var req domain.DeliveryDetails
	if err := json.NewDecoder(limitBody(w, r).Body).Decode(&req); err != nil {
		httputil.WriteValidationError(w, fmt.Errorf("decode request body: %w", err))
		return
	}

	order, err := h.service.PlaceOrder(r.Context(), sess, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	httputil.WriteData(w, http.StatusCreated, order)
}

// writeError renders field-level validation failures with their fields and
// everything else through the shared error mapping.
func (h *CheckoutHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		httputil.WriteValidationError(w, err)
		return
	}
	httputil.WriteError(w, r, err, h.logger)
}
