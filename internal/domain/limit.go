package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SpendingLimit is one funding event's remaining spendable fiat balance.
// It is created when an offramp settlement order reaches a terminal success
// state and is only ever spent down, never deleted.
type SpendingLimit struct {
	ID            string
	UserID        string
	OrderID       string
	USDAmount     decimal.Decimal
	FxRate        decimal.Decimal
	FiatAmount    decimal.Decimal
	FiatRemaining decimal.Decimal
	ChainType     string
	TokenSymbol   string
	Network       string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the funding invariants before a limit is persisted.
func (l *SpendingLimit) Validate() error {
	if l.USDAmount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	if l.FxRate.LessThanOrEqual(decimal.Zero) {
		return ErrRateUnavailable
	}

	if l.FiatRemaining.IsNegative() || l.FiatRemaining.GreaterThan(l.FiatAmount) {
		return ErrInvalidAmount
	}

	return nil
}

// Drawable reports whether the limit still has fiat to allocate from.
func (l *SpendingLimit) Drawable() bool {
	return l.FiatRemaining.GreaterThan(decimal.Zero)
}

// ConvertsToUSD reports whether the limit's funding-time rate can be used
// for USD-equivalent conversion. A limit with a non-positive rate must never
// be converted through.
func (l *SpendingLimit) ConvertsToUSD() bool {
	return l.FxRate.GreaterThan(decimal.Zero)
}

// ApplyDraw returns the remaining balance after drawing fiatUsed, floored at
// zero to absorb rounding.
func (l *SpendingLimit) ApplyDraw(fiatUsed decimal.Decimal) decimal.Decimal {
	remaining := l.FiatRemaining.Sub(fiatUsed)
	if remaining.IsNegative() {
		return decimal.Zero
	}

	return remaining
}

// USDEquivalent converts a fiat amount through the limit's funding-time rate.
// Returns zero for limits whose rate cannot be used for conversion.
func (l *SpendingLimit) USDEquivalent(fiat decimal.Decimal) decimal.Decimal {
	if !l.ConvertsToUSD() {
		return decimal.Zero
	}

	return fiat.Div(l.FxRate)
}
