package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ramphq/rampcore/internal/adapter/http/dto"
	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
)

// WithdrawalService defines the behavior needed by WithdrawalHandler.
type WithdrawalService interface {
	AllocateForTransaction(ctx context.Context, input usecase.AllocateInput) (*domain.Transaction, *usecase.AllocationResult, error)
}

// WithdrawalHandler handles fiat withdrawal HTTP requests.
type WithdrawalHandler struct {
	allocationUC WithdrawalService
}

// NewWithdrawalHandler creates a new WithdrawalHandler.
func NewWithdrawalHandler(allocationUC WithdrawalService) *WithdrawalHandler {
	return &WithdrawalHandler{allocationUC: allocationUC}
}

// Create allocates a withdrawal across the user's spending limits. The
// request reference is the idempotency key: replaying a reference returns
// 200 with the previously recorded transaction instead of allocating again.
func (h *WithdrawalHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	txn, result, err := h.allocationUC.AllocateForTransaction(r.Context(), usecase.AllocateInput{
		UserID:    req.UserID,
		Reference: req.Reference,
		Amount:    req.Amount,
		Type:      domain.TransactionTypeWithdrawal,
		Token:     req.Token,
		Metadata:  req.Metadata,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateWebhook) && txn != nil {
			writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
			return
		}
		writeError(w, mapDomainError(err), "failed to allocate withdrawal", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.AllocationFromDomain(txn, result))
}
