package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is the externally driven lifecycle state of an offramp order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusFulfilled  OrderStatus = "fulfilled"
	OrderStatusValidated  OrderStatus = "validated"
	OrderStatusSettled    OrderStatus = "settled"
	OrderStatusRefunded   OrderStatus = "refunded"
	OrderStatusFailed     OrderStatus = "failed"
)

// Terminal reports whether no further status transition is expected.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusValidated, OrderStatusSettled, OrderStatusRefunded, OrderStatusFailed:
		return true
	}

	return false
}

// Retryable reports whether polling should continue for this status.
// Unrecognized non-terminal statuses are not retryable and must be surfaced
// as-is rather than treated as success.
func (s OrderStatus) Retryable() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusFulfilled:
		return true
	}

	return false
}

// Success reports whether the terminal status funds a spending limit.
func (s OrderStatus) Success() bool {
	return s == OrderStatusValidated || s == OrderStatusSettled
}

// statusRank orders statuses for monotonic transition checks. Terminal
// states share the highest rank so the only move out of one is no move.
func (s OrderStatus) rank() int {
	switch s {
	case OrderStatusPending:
		return 0
	case OrderStatusProcessing:
		return 1
	case OrderStatusFulfilled:
		return 2
	case OrderStatusValidated, OrderStatusSettled, OrderStatusRefunded, OrderStatusFailed:
		return 3
	}

	return 1
}

// OfframpOrder is the local projection of an external settlement order.
// Once a terminal status is recorded the row is immutable except for the
// one-time creation of the spending limit tied to it.
type OfframpOrder struct {
	ID          string
	OrderID     string
	UserID      string
	USDAmount   decimal.Decimal
	FxRate      decimal.Decimal
	Token       string
	Network     string
	Status      OrderStatus
	TxHash      string
	Settlements []Settlement
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CanTransition reports whether moving from the current status to the given
// one respects monotonic progress toward a terminal state.
func (o *OfframpOrder) CanTransition(to OrderStatus) bool {
	if o.Status.Terminal() {
		return o.Status == to
	}

	return to.rank() >= o.Status.rank()
}

// EffectiveRate is the amount-weighted rate across partial settlements,
// falling back to the order-level rate when no settlement data is present.
// Partial settlement can occur before a terminal state, so this is valid to
// compute at any status.
func (o *OfframpOrder) EffectiveRate() decimal.Decimal {
	if rate := WeightedRate(o.Settlements); !rate.IsZero() {
		return rate
	}

	return o.FxRate
}
