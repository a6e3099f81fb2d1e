package dto

import (
	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/usecase"
)

// CreateLimitRequest opens a settlement order whose proceeds will fund a
// spending limit.
type CreateLimitRequest struct {
	UserID    string          `json:"user_id"`
	USDAmount decimal.Decimal `json:"usd_amount"`
	Token     string          `json:"token"`
	Network   string          `json:"network"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateLimitRequest) ToUseCaseInput() usecase.CreateOrderInput {
	return usecase.CreateOrderInput{
		UserID:    r.UserID,
		USDAmount: r.USDAmount,
		Token:     r.Token,
		Network:   r.Network,
	}
}

// CreateWithdrawalRequest allocates a fiat withdrawal across the user's
// spending limits. Reference is the caller's idempotency key.
type CreateWithdrawalRequest struct {
	UserID    string          `json:"user_id"`
	Reference string          `json:"reference"`
	Amount    decimal.Decimal `json:"amount"`
	Token     string          `json:"token,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
}

// SettlementWebhookRequest is the provider's order status callback.
type SettlementWebhookRequest struct {
	OrderID string `json:"order_id"`
}

// WalletWebhookRequest is a wallet provider event: deposits, swaps and
// just-in-time spend authorizations share one endpoint, discriminated by
// event type.
type WalletWebhookRequest struct {
	Event     string          `json:"event"`
	Reference string          `json:"reference"`
	UserID    string          `json:"user_id"`
	Amount    decimal.Decimal `json:"amount"`
	Token     string          `json:"token,omitempty"`
	FromToken string          `json:"from_token,omitempty"`
	ToToken   string          `json:"to_token,omitempty"`
	TxHash    string          `json:"tx_hash,omitempty"`
	Success   *bool           `json:"success,omitempty"`
}

// PaginationRequest represents pagination parameters.
type PaginationRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}
