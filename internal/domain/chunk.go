package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionChunk is an immutable record of fiat drawn from one specific
// spending limit for one transaction. Chunks are append-only, a transaction
// that spans several limits owns one chunk per limit.
type TransactionChunk struct {
	ID              string
	TransactionID   string
	SpendingLimitID string
	FiatUsed        decimal.Decimal
	USDEquivalent   decimal.Decimal
	CreatedAt       time.Time
}

// NewChunk builds a chunk for fiatUsed drawn from limit. The USD equivalent
// is converted through the limit's own funding-time rate.
func NewChunk(id, transactionID string, limit *SpendingLimit, fiatUsed decimal.Decimal, now time.Time) *TransactionChunk {
	return &TransactionChunk{
		ID:              id,
		TransactionID:   transactionID,
		SpendingLimitID: limit.ID,
		FiatUsed:        fiatUsed,
		USDEquivalent:   limit.USDEquivalent(fiatUsed),
		CreatedAt:       now,
	}
}

// Validate checks chunk invariants before persistence.
func (c *TransactionChunk) Validate() error {
	if c.FiatUsed.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}
