package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
)

// LimitResponse represents a spending limit in API responses.
type LimitResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	OrderID       string          `json:"order_id"`
	USDAmount     decimal.Decimal `json:"usd_amount"`
	FxRate        decimal.Decimal `json:"fx_rate"`
	FiatAmount    decimal.Decimal `json:"fiat_amount"`
	FiatRemaining decimal.Decimal `json:"fiat_remaining"`
	TokenSymbol   string          `json:"token_symbol"`
	Network       string          `json:"network"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// LimitFromDomain converts a domain limit to a response.
func LimitFromDomain(l *domain.SpendingLimit) *LimitResponse {
	return &LimitResponse{
		ID:            l.ID,
		UserID:        l.UserID,
		OrderID:       l.OrderID,
		USDAmount:     l.USDAmount,
		FxRate:        l.FxRate,
		FiatAmount:    l.FiatAmount,
		FiatRemaining: l.FiatRemaining,
		TokenSymbol:   l.TokenSymbol,
		Network:       l.Network,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}

// LimitsFromDomain converts domain limits to responses.
func LimitsFromDomain(limits []*domain.SpendingLimit) []*LimitResponse {
	result := make([]*LimitResponse, len(limits))
	for i, l := range limits {
		result[i] = LimitFromDomain(l)
	}
	return result
}

// BalanceResponse is the aggregate USD balance across a user's limits.
type BalanceResponse struct {
	UserID     string          `json:"user_id"`
	USDBalance decimal.Decimal `json:"usd_balance"`
}

// SettlementResponse represents one partial settlement.
type SettlementResponse struct {
	Amount decimal.Decimal `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
}

// OrderResponse represents an offramp order in API responses.
type OrderResponse struct {
	OrderID     string               `json:"order_id"`
	UserID      string               `json:"user_id"`
	USDAmount   decimal.Decimal      `json:"usd_amount"`
	FxRate      decimal.Decimal      `json:"fx_rate"`
	Token       string               `json:"token"`
	Network     string               `json:"network"`
	Status      string               `json:"status"`
	TxHash      string               `json:"tx_hash,omitempty"`
	Settlements []SettlementResponse `json:"settlements,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}

// OrderFromDomain converts a domain order to a response.
func OrderFromDomain(o *domain.OfframpOrder) *OrderResponse {
	resp := &OrderResponse{
		OrderID:   o.OrderID,
		UserID:    o.UserID,
		USDAmount: o.USDAmount,
		FxRate:    o.FxRate,
		Token:     o.Token,
		Network:   o.Network,
		Status:    string(o.Status),
		TxHash:    o.TxHash,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}

	for _, s := range o.Settlements {
		resp.Settlements = append(resp.Settlements, SettlementResponse{Amount: s.Amount, Rate: s.Rate})
	}

	return resp
}

// TransactionResponse represents a ledger transaction in API responses.
type TransactionResponse struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Reference     string          `json:"reference"`
	Type          string          `json:"type"`
	Status        string          `json:"status"`
	FiatAmount    decimal.Decimal `json:"fiat_amount"`
	USDEquivalent decimal.Decimal `json:"usd_equivalent"`
	EffectiveRate decimal.Decimal `json:"effective_rate"`
	TokenSymbol   string          `json:"token_symbol,omitempty"`
	TxHash        string          `json:"tx_hash,omitempty"`
	Metadata      map[string]any  `json:"metadata,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:            t.ID,
		UserID:        t.UserID,
		Reference:     t.Reference,
		Type:          string(t.Type),
		Status:        string(t.Status),
		FiatAmount:    t.FiatAmount,
		USDEquivalent: t.USDEquivalent,
		EffectiveRate: t.EffectiveRate,
		TokenSymbol:   t.TokenSymbol,
		TxHash:        t.TxHash,
		Metadata:      t.Metadata,
		CreatedAt:     t.CreatedAt,
	}
}

// ChunkResponse represents a transaction chunk in API responses.
type ChunkResponse struct {
	ID              string          `json:"id"`
	TransactionID   string          `json:"transaction_id"`
	SpendingLimitID string          `json:"spending_limit_id"`
	FiatUsed        decimal.Decimal `json:"fiat_used"`
	USDEquivalent   decimal.Decimal `json:"usd_equivalent"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ChunksFromDomain converts domain chunks to responses.
func ChunksFromDomain(chunks []*domain.TransactionChunk) []*ChunkResponse {
	result := make([]*ChunkResponse, len(chunks))
	for i, c := range chunks {
		result[i] = &ChunkResponse{
			ID:              c.ID,
			TransactionID:   c.TransactionID,
			SpendingLimitID: c.SpendingLimitID,
			FiatUsed:        c.FiatUsed,
			USDEquivalent:   c.USDEquivalent,
			CreatedAt:       c.CreatedAt,
		}
	}
	return result
}

// AllocationResponse reports the outcome of a withdrawal allocation.
type AllocationResponse struct {
	Transaction *TransactionResponse `json:"transaction"`
	Chunks      []*ChunkResponse     `json:"chunks"`
	Degraded    bool                 `json:"degraded,omitempty"`
}

// AllocationFromDomain converts an allocation result to a response.
func AllocationFromDomain(txn *domain.Transaction, result *usecase.AllocationResult) *AllocationResponse {
	return &AllocationResponse{
		Transaction: TransactionFromDomain(txn),
		Chunks:      ChunksFromDomain(result.Chunks),
		Degraded:    result.Degraded,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
