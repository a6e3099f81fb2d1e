package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal places used when formatting values for API responses.
const (
	FiatPlaces = 2
	RatePlaces = 6
)

// ToDecimal converts user-supplied input into a decimal, rejecting anything
// that does not parse as a finite number. Currency math must never pass
// through float64.
func ToDecimal(input any) (decimal.Decimal, error) {
	switch v := input.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidAmount, v)
		}
		return d, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type %T", ErrInvalidAmount, input)
	}
}

// SafeDiv divides a by b, rejecting a zero divisor instead of panicking.
func SafeDiv(a, b decimal.Decimal) (decimal.Decimal, error) {
	if b.IsZero() {
		return decimal.Zero, ErrDivisionByZero
	}

	return a.Div(b), nil
}

// MinDecimal returns the smaller of a and b.
func MinDecimal(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}

	return b
}

// FormatFiat renders a fiat amount with two decimal places.
func FormatFiat(d decimal.Decimal) string {
	return d.StringFixed(FiatPlaces)
}

// FormatRate renders an exchange rate with six decimal places.
func FormatRate(d decimal.Decimal) string {
	return d.StringFixed(RatePlaces)
}
