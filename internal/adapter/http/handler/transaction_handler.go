package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ramphq/rampcore/internal/adapter/http/dto"
	"github.com/ramphq/rampcore/internal/domain"
)

// TransactionService defines the behavior needed by TransactionHandler.
type TransactionService interface {
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error)
	GetChunks(ctx context.Context, transactionID string) ([]*domain.TransactionChunk, error)
}

// TransactionHandler handles ledger-transaction HTTP requests.
type TransactionHandler struct {
	allocationUC TransactionService
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(allocationUC TransactionService) *TransactionHandler {
	return &TransactionHandler{allocationUC: allocationUC}
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	txn, err := h.allocationUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// List lists a user's transactions, newest first.
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user_id", "")
		return
	}

	limit := parseIntQuery(r, "limit", 20)
	offset := parseIntQuery(r, "offset", 0)

	txns, err := h.allocationUC.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transactions", err.Error())
		return
	}

	resp := make([]*dto.TransactionResponse, len(txns))
	for i, txn := range txns {
		resp[i] = dto.TransactionFromDomain(txn)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Chunks lists the per-limit chunks of a transaction.
func (h *TransactionHandler) Chunks(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	chunks, err := h.allocationUC.GetChunks(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list chunks", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.ChunksFromDomain(chunks))
}
