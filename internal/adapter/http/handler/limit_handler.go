package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/adapter/http/dto"
	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
)

// LimitService defines the settlement-side behavior needed by LimitHandler.
type LimitService interface {
	CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*domain.OfframpOrder, error)
}

// BalanceService defines the read-side behavior needed by LimitHandler.
type BalanceService interface {
	AggregateBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	ListLimits(ctx context.Context, userID string, limit, offset int) ([]*domain.SpendingLimit, error)
}

// LimitHandler handles spending-limit HTTP requests.
type LimitHandler struct {
	settlementUC LimitService
	balanceUC    BalanceService
}

// NewLimitHandler creates a new LimitHandler.
func NewLimitHandler(settlementUC LimitService, balanceUC BalanceService) *LimitHandler {
	return &LimitHandler{settlementUC: settlementUC, balanceUC: balanceUC}
}

// Create opens a settlement order that will fund a new spending limit once
// the provider settles. The limit itself is created by order finalization,
// so the response is the pending order.
func (h *LimitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	order, err := h.settlementUC.CreateOrder(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to create order", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, dto.OrderFromDomain(order))
}

// List lists a user's spending limits, oldest first.
func (h *LimitHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user_id", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	limits, err := h.balanceUC.ListLimits(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list limits", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LimitsFromDomain(limits))
}

// Balance returns the aggregate USD balance across a user's limits.
func (h *LimitHandler) Balance(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user_id", "")
		return
	}

	balance, err := h.balanceUC.AggregateBalance(r.Context(), userID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to compute balance", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		UserID:     userID,
		USDBalance: balance,
	})
}
