// Package api exposes the trade order HTTP surface. Handlers decode requests,
// delegate to the order service, and map domain errors to HTTP status codes.
package api

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/mallcraft/trade-service/internal/domain/address"
	"github.com/mallcraft/trade-service/internal/domain/order"
	"github.com/mallcraft/trade-service/internal/domain/pricing"
)

// OrderService is the slice of the order service the API depends on.
type OrderService interface {
	CreateOrder(ctx context.Context, req order.CreateRequest) (*order.Order, error)
}

// Handler implements the HTTP endpoints, delegating business logic to the
// injected order service and repository.
type Handler struct {
	service OrderService
	orders  order.Repository
}

// NewHandler constructs a Handler with the required dependencies.
func NewHandler(service OrderService, orders order.Repository) *Handler {
	return &Handler{
		service: service,
		orders:  orders,
	}
}

// Routes returns the mux with all API endpoints registered.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders", h.CreateOrder)
	mux.HandleFunc("GET /api/orders/{orderNo}", h.GetOrder)
	return mux
}

// writeError renders the error body and status for a failed request.
func writeError(w http.ResponseWriter, status int, message string) {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("code")
	e.Int(status)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeDomainError maps domain errors to HTTP responses. Unknown errors are
// logged and reported as an opaque 500.
func writeDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	var (
		invalidQty *order.InvalidQuantityError
		dupVariant *order.DuplicateVariantError
		mismatch   *order.CatalogMismatchError
		rejected   *pricing.RejectedError
		couponErr  *order.CouponConsumptionError
	)
	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.As(err, &invalidQty),
		errors.As(err, &dupVariant):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, address.ErrNotFound):
		writeError(w, http.StatusNotFound, "address not found")
	case errors.As(err, &mismatch):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &rejected):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, pricing.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "pricing unavailable")
	case errors.As(err, &couponErr):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zctx.From(ctx).Error("Create order", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
