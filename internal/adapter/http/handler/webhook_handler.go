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

// SettlementWebhookService defines the order-callback behavior needed by
// WebhookHandler.
type SettlementWebhookService interface {
	RefreshOrder(ctx context.Context, orderID string) (*domain.OfframpOrder, error)
	FinalizeOrder(ctx context.Context, orderID string) (*domain.SpendingLimit, error)
}

// WalletWebhookService defines the wallet-event behavior needed by
// WebhookHandler.
type WalletWebhookService interface {
	ApplyDeposit(ctx context.Context, event usecase.DepositEvent) (*domain.Transaction, error)
	ApplySwap(ctx context.Context, event usecase.SwapEvent) (*domain.Transaction, error)
	ApplyAuthorization(ctx context.Context, event usecase.AuthorizationEvent) (*domain.Transaction, error)
}

// WebhookHandler handles provider callback HTTP requests.
type WebhookHandler struct {
	settlementUC SettlementWebhookService
	webhookUC    WalletWebhookService
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(settlementUC SettlementWebhookService, webhookUC WalletWebhookService) *WebhookHandler {
	return &WebhookHandler{settlementUC: settlementUC, webhookUC: webhookUC}
}

// Settlement handles an offramp order status callback: it refreshes the
// projection from the provider and, if the order settled, funds the limit.
// Callbacks always get a 2xx once recorded so the provider stops retrying.
func (h *WebhookHandler) Settlement(w http.ResponseWriter, r *http.Request) {
	var req dto.SettlementWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.OrderID == "" {
		writeError(w, http.StatusBadRequest, "missing order_id", "")
		return
	}

	order, err := h.settlementUC.RefreshOrder(r.Context(), req.OrderID)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to refresh order", err.Error())
		return
	}

	if order.Status.Success() {
		if _, err := h.settlementUC.FinalizeOrder(r.Context(), req.OrderID); err != nil {
			writeError(w, mapDomainError(err), "failed to finalize order", err.Error())
			return
		}
	}

	writeJSON(w, http.StatusOK, dto.OrderFromDomain(order))
}

// Wallet handles wallet provider events. Deposits, swap completions and
// just-in-time authorizations share the endpoint, discriminated by the
// event field. Duplicate deliveries return the previously recorded
// transaction with 200.
func (h *WebhookHandler) Wallet(w http.ResponseWriter, r *http.Request) {
	var req dto.WalletWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	var (
		txn *domain.Transaction
		err error
	)

	switch req.Event {
	case "deposit.success":
		txn, err = h.webhookUC.ApplyDeposit(r.Context(), usecase.DepositEvent{
			Reference:   req.Reference,
			UserID:      req.UserID,
			FiatAmount:  req.Amount,
			TokenSymbol: req.Token,
			TxHash:      req.TxHash,
		})
	case "swap.completed":
		success := true
		if req.Success != nil {
			success = *req.Success
		}
		txn, err = h.webhookUC.ApplySwap(r.Context(), usecase.SwapEvent{
			Reference:  req.Reference,
			UserID:     req.UserID,
			FiatAmount: req.Amount,
			FromToken:  req.FromToken,
			ToToken:    req.ToToken,
			TxHash:     req.TxHash,
			Success:    success,
		})
	case "authorization.request":
		txn, err = h.webhookUC.ApplyAuthorization(r.Context(), usecase.AuthorizationEvent{
			Reference:  req.Reference,
			UserID:     req.UserID,
			FiatAmount: req.Amount,
		})
	default:
		writeError(w, http.StatusBadRequest, "unknown event", req.Event)
		return
	}

	if err != nil {
		if errors.Is(err, domain.ErrDuplicateWebhook) && txn != nil {
			writeJSON(w, http.StatusOK, dto.TransactionFromDomain(txn))
			return
		}
		writeError(w, mapDomainError(err), "failed to apply webhook", err.Error())

		return
	}

	writeJSON(w, http.StatusCreated, dto.TransactionFromDomain(txn))
}
