package domain

import "errors"

var (
	// Money errors
	ErrInvalidAmount  = errors.New("amount must be a positive decimal")
	ErrDivisionByZero = errors.New("division by zero")

	// Rate errors
	ErrInvalidRateInput = errors.New("rate is undefined for zero amounts")
	ErrRateUnavailable  = errors.New("settlement rate unavailable")

	// Limit errors
	ErrLimitNotFound     = errors.New("spending limit not found")
	ErrInsufficientFunds = errors.New("insufficient funds across spending limits")

	// Order errors
	ErrOrderNotFound     = errors.New("offramp order not found")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrSettlementFailed  = errors.New("settlement order was refunded or failed")
	ErrPollingExhausted  = errors.New("polling budget exhausted before terminal status")

	// Ledger errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDuplicateWebhook    = errors.New("webhook already applied for this reference")
	ErrUserNotFound        = errors.New("user not found")

	// Webhook errors
	ErrInvalidSignature = errors.New("webhook signature mismatch")
)
