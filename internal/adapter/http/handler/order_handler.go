package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ramphq/rampcore/internal/adapter/http/dto"
	"github.com/ramphq/rampcore/internal/domain"
)

// OrderService defines the behavior needed by OrderHandler.
type OrderService interface {
	GetOrder(ctx context.Context, orderID string) (*domain.OfframpOrder, error)
	PollOrder(ctx context.Context, orderID string) (*domain.OfframpOrder, error)
	FinalizeOrder(ctx context.Context, orderID string) (*domain.SpendingLimit, error)
}

// OrderHandler handles offramp-order HTTP requests.
type OrderHandler struct {
	settlementUC OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(settlementUC OrderService) *OrderHandler {
	return &OrderHandler{settlementUC: settlementUC}
}

// Get retrieves an order by its provider order ID.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing order ID", "")
		return
	}

	order, err := h.settlementUC.GetOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get order", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

// Poll drives the order to a terminal status against the provider and, on
// successful settlement, funds the spending limit. Polling that runs out of
// budget returns the latest known order with 202 so the caller can retry.
func (h *OrderHandler) Poll(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		writeError(w, http.StatusBadRequest, "missing order ID", "")
		return
	}

	// The poll can hold the connection far longer than the server-wide
	// write deadline, lift it for this request so a slow settlement can
	// still be reported. Not every ResponseWriter supports deadlines.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	order, err := h.settlementUC.PollOrder(r.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrPollingExhausted) && order != nil {
			writeJSON(w, http.StatusAccepted, dto.OrderFromDomain(order))
			return
		}
		writeError(w, mapDomainError(err), "failed to poll order", err.Error())

		return
	}

	if order.Status.Success() {
		if _, err := h.settlementUC.FinalizeOrder(r.Context(), orderID); err != nil {
			writeError(w, mapDomainError(err), "failed to finalize order", err.Error())
			return
		}
		order, err = h.settlementUC.GetOrder(r.Context(), orderID)
		if err != nil {
			writeError(w, mapDomainError(err), "failed to get order", err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}
