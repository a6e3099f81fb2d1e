package domain

import (
	"github.com/shopspring/decimal"
)

// Settlement is one partial fill of an offramp order, carrying its own
// executed rate.
type Settlement struct {
	Amount decimal.Decimal
	Rate   decimal.Decimal
}

// CalculateRate derives an exchange rate from a base and a quote amount:
// rate = quote / base. Both amounts must be non-zero, a rate of zero is
// never a valid answer here.
func CalculateRate(baseAmount, quoteAmount decimal.Decimal) (decimal.Decimal, error) {
	if baseAmount.IsZero() || quoteAmount.IsZero() {
		return decimal.Zero, ErrInvalidRateInput
	}

	return quoteAmount.Div(baseAmount), nil
}

// WeightedRate computes the amount-weighted average rate across partial
// settlements: sum(amount_i * rate_i) / sum(amount_i). Returns zero when
// there are no settlements or their amounts sum to zero.
func WeightedRate(settlements []Settlement) decimal.Decimal {
	if len(settlements) == 0 {
		return decimal.Zero
	}

	totalAmount := decimal.Zero
	weighted := decimal.Zero

	for _, s := range settlements {
		totalAmount = totalAmount.Add(s.Amount)
		weighted = weighted.Add(s.Amount.Mul(s.Rate))
	}

	if totalAmount.IsZero() {
		return decimal.Zero
	}

	return weighted.Div(totalAmount)
}
