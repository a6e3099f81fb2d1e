package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultPollAttempts bounds the synchronous settlement poll loop.
	// 23 attempts at 6.5s apart gives a ceiling of roughly 150 seconds.
	DefaultPollAttempts = 23

	// DefaultPollInterval is the fixed wait between poll attempts.
	DefaultPollInterval = 6500 * time.Millisecond

	// DefaultPollRequestTimeout bounds each individual provider status call,
	// independent of the overall poll budget.
	DefaultPollRequestTimeout = 3 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
