package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a ledger transaction.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeSwap       TransactionType = "swap"
	TransactionTypeSpend      TransactionType = "spend"
)

// TransactionStatus is the state of a ledger transaction.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// Terminal reports whether the transaction can no longer change state.
// A duplicate webhook for a terminal transaction must be a no-op.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusFailed
}

// Transaction is the ledger projection of a completed money movement.
// Reference is the provider-supplied idempotency key: at most one
// transaction row exists per reference.
type Transaction struct {
	ID            string
	UserID        string
	Reference     string
	Type          TransactionType
	Status        TransactionStatus
	FiatAmount    decimal.Decimal
	USDEquivalent decimal.Decimal
	EffectiveRate decimal.Decimal
	TokenSymbol   string
	TxHash        string
	Metadata      map[string]any
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks ledger invariants before persistence.
func (t *Transaction) Validate() error {
	if t.Reference == "" {
		return ErrInvalidReference
	}

	if t.FiatAmount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	return nil
}
