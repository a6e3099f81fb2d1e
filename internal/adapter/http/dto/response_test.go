package dto

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
)

func TestLimitFromDomain(t *testing.T) {
	now := time.Now()
	limit := &domain.SpendingLimit{
		ID:            "lim-1",
		UserID:        "user-1",
		OrderID:       "ord-1",
		USDAmount:     decimal.RequireFromString("100"),
		FxRate:        decimal.RequireFromString("1500"),
		FiatAmount:    decimal.RequireFromString("150000"),
		FiatRemaining: decimal.RequireFromString("120000"),
		TokenSymbol:   "USDC",
		Network:       "base",
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	resp := LimitFromDomain(limit)
	if resp.ID != limit.ID || !resp.FiatRemaining.Equal(limit.FiatRemaining) {
		t.Fatalf("unexpected limit response: %+v", resp)
	}

	list := LimitsFromDomain([]*domain.SpendingLimit{limit})
	if len(list) != 1 || list[0].ID != limit.ID {
		t.Fatalf("LimitsFromDomain returned %+v", list)
	}
}

func TestOrderFromDomain(t *testing.T) {
	order := &domain.OfframpOrder{
		ID:        "id-1",
		OrderID:   "ord-1",
		UserID:    "user-1",
		USDAmount: decimal.RequireFromString("100"),
		FxRate:    decimal.RequireFromString("1500"),
		Token:     "USDC",
		Network:   "base",
		Status:    domain.OrderStatusSettled,
		TxHash:    "0xabc",
		Settlements: []domain.Settlement{
			{Amount: decimal.RequireFromString("60"), Rate: decimal.RequireFromString("1500")},
			{Amount: decimal.RequireFromString("40"), Rate: decimal.RequireFromString("1510")},
		},
	}

	resp := OrderFromDomain(order)
	if resp.OrderID != "ord-1" || resp.Status != "settled" {
		t.Fatalf("unexpected order response: %+v", resp)
	}
	if len(resp.Settlements) != 2 || !resp.Settlements[1].Rate.Equal(decimal.RequireFromString("1510")) {
		t.Fatalf("settlements not carried over: %+v", resp.Settlements)
	}
}

func TestAllocationFromDomain(t *testing.T) {
	txn := &domain.Transaction{
		ID:         "txn-1",
		UserID:     "user-1",
		Reference:  "wd-1",
		Type:       domain.TransactionTypeWithdrawal,
		Status:     domain.TransactionStatusCompleted,
		FiatAmount: decimal.RequireFromString("1000"),
	}
	result := &usecase.AllocationResult{
		Chunks: []*domain.TransactionChunk{
			{ID: "chk-1", TransactionID: "txn-1", SpendingLimitID: "lim-1", FiatUsed: decimal.RequireFromString("1000")},
		},
		Degraded: true,
	}

	resp := AllocationFromDomain(txn, result)
	if resp.Transaction.ID != "txn-1" || len(resp.Chunks) != 1 || !resp.Degraded {
		t.Fatalf("unexpected allocation response: %+v", resp)
	}
}
