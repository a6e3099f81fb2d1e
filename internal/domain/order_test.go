package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestOrderStatus_Terminal(t *testing.T) {
	terminal := []OrderStatus{OrderStatusValidated, OrderStatusSettled, OrderStatusRefunded, OrderStatusFailed}
	for _, s := range terminal {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	nonTerminal := []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusFulfilled, OrderStatus("stuck")}
	for _, s := range nonTerminal {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestOrderStatus_Retryable(t *testing.T) {
	retryable := []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusFulfilled}
	for _, s := range retryable {
		if !s.Retryable() {
			t.Errorf("expected %s to be retryable", s)
		}
	}

	// Unknown statuses stop polling; they are surfaced as-is, never retried.
	if OrderStatus("weird_provider_state").Retryable() {
		t.Error("unknown status must not be retryable")
	}
	if OrderStatusSettled.Retryable() {
		t.Error("terminal status must not be retryable")
	}
}

func TestOfframpOrder_CanTransition(t *testing.T) {
	tests := []struct {
		name string
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{name: "pending to processing", from: OrderStatusPending, to: OrderStatusProcessing, want: true},
		{name: "pending straight to settled", from: OrderStatusPending, to: OrderStatusSettled, want: true},
		{name: "processing to validated", from: OrderStatusProcessing, to: OrderStatusValidated, want: true},
		{name: "fulfilled back to pending", from: OrderStatusFulfilled, to: OrderStatusPending, want: false},
		{name: "settled stays settled", from: OrderStatusSettled, to: OrderStatusSettled, want: true},
		{name: "settled to refunded", from: OrderStatusSettled, to: OrderStatusRefunded, want: false},
		{name: "refunded to settled", from: OrderStatusRefunded, to: OrderStatusSettled, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &OfframpOrder{Status: tt.from}
			if got := order.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestOfframpOrder_EffectiveRate(t *testing.T) {
	t.Run("weighted across settlements", func(t *testing.T) {
		order := &OfframpOrder{
			FxRate: decimal.NewFromInt(9999),
			Settlements: []Settlement{
				{Amount: decimal.NewFromInt(60), Rate: decimal.NewFromInt(1500)},
				{Amount: decimal.NewFromInt(40), Rate: decimal.NewFromInt(1510)},
			},
		}
		if got := order.EffectiveRate(); got.String() != "1504" {
			t.Errorf("expected 1504, got %s", got.String())
		}
	})

	t.Run("falls back to order rate", func(t *testing.T) {
		order := &OfframpOrder{FxRate: decimal.NewFromInt(1500)}
		if got := order.EffectiveRate(); got.String() != "1500" {
			t.Errorf("expected 1500, got %s", got.String())
		}
	})
}
