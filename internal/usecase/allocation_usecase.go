package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/infrastructure/metrics"
)

// AllocationUseCase splits a spend or withdrawal amount across a user's
// spending limits and persists the result atomically.
type AllocationUseCase struct {
	txManager       TransactionManager
	limitRepo       LimitRepository
	chunkRepo       ChunkRepository
	transactionRepo TransactionRepository
	outboxRepo      OutboxRepository
	idGen           IDGenerator
	retrier         Retrier
	logger          zerolog.Logger
	metrics         *metrics.Metrics
}

// NewAllocationUseCase creates a new AllocationUseCase. The retrier is
// optional; when set, deadlocks and serialization failures re-run the whole
// allocation transaction.
func NewAllocationUseCase(
	txManager TransactionManager,
	limitRepo LimitRepository,
	chunkRepo ChunkRepository,
	transactionRepo TransactionRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *AllocationUseCase {
	return &AllocationUseCase{
		txManager:       txManager,
		limitRepo:       limitRepo,
		chunkRepo:       chunkRepo,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		idGen:           idGen,
		retrier:         retrier,
		logger:          logger,
		metrics:         metrics,
	}
}

// AllocationResult is the outcome of splitting an amount across limits.
type AllocationResult struct {
	Chunks               []*domain.TransactionChunk
	UpdatedLimits        []*domain.SpendingLimit
	TotalUSDEquivalent   decimal.Decimal
	EffectiveRate        decimal.Decimal
	AmountAllocated      decimal.Decimal
	RemainingUnallocated decimal.Decimal
	// Degraded is set when fiat was drawn from a limit whose rate could not
	// be used for USD conversion, understating TotalUSDEquivalent. Such
	// transactions are flagged for review rather than rejected.
	Degraded bool
}

// Allocate greedily consumes balance from each limit, in the exact order
// supplied by the caller, until the amount is fully allocated or the limits
// are exhausted. It performs no I/O; the caller persists chunks and updated
// limits in one transaction.
func (uc *AllocationUseCase) Allocate(
	transactionID string,
	amount decimal.Decimal,
	limits []*domain.SpendingLimit,
	now time.Time,
) (*AllocationResult, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	result := &AllocationResult{
		TotalUSDEquivalent:   decimal.Zero,
		EffectiveRate:        decimal.Zero,
		AmountAllocated:      decimal.Zero,
		RemainingUnallocated: amount,
	}

	for _, limit := range limits {
		if result.RemainingUnallocated.IsZero() {
			break
		}

		if !limit.Drawable() {
			continue
		}

		fiatUsed := domain.MinDecimal(result.RemainingUnallocated, limit.FiatRemaining)

		chunk := domain.NewChunk(uc.idGen.Generate(), transactionID, limit, fiatUsed, now)
		if err := chunk.Validate(); err != nil {
			return nil, err
		}

		if !limit.ConvertsToUSD() {
			// Fiat is still drawn but contributes nothing to the USD total.
			result.Degraded = true
		}

		limit.FiatRemaining = limit.ApplyDraw(fiatUsed)
		limit.UpdatedAt = now

		result.Chunks = append(result.Chunks, chunk)
		result.UpdatedLimits = append(result.UpdatedLimits, limit)
		result.TotalUSDEquivalent = result.TotalUSDEquivalent.Add(chunk.USDEquivalent)
		result.RemainingUnallocated = result.RemainingUnallocated.Sub(fiatUsed)
	}

	result.AmountAllocated = amount.Sub(result.RemainingUnallocated)

	// Zero is a sentinel here, not an error: nothing allocated or nothing
	// convertible means no meaningful rate exists.
	if result.TotalUSDEquivalent.GreaterThan(decimal.Zero) && result.AmountAllocated.GreaterThan(decimal.Zero) {
		rate, err := domain.CalculateRate(result.TotalUSDEquivalent, result.AmountAllocated)
		if err != nil {
			return nil, err
		}
		result.EffectiveRate = rate
	}

	return result, nil
}

// AllocateInput describes a spend or withdrawal to allocate and persist.
type AllocateInput struct {
	UserID    string
	Reference string
	Amount    decimal.Decimal
	Type      domain.TransactionType
	Token     string
	Metadata  map[string]any
}

// AllocateForTransaction locks the user's limits oldest-first, allocates the
// amount across them, and persists the ledger transaction, chunks and limit
// decrements as one atomic unit. The reference acts as an idempotency key:
// replaying the same reference is a no-op.
func (uc *AllocationUseCase) AllocateForTransaction(ctx context.Context, input AllocateInput) (*domain.Transaction, *AllocationResult, error) {
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, nil, err
	}

	if err := domain.ValidateReference(input.Reference); err != nil {
		return nil, nil, err
	}

	if err := domain.ValidateMetadata(input.Metadata); err != nil {
		return nil, nil, err
	}

	if uc.retrier != nil {
		var (
			txn    *domain.Transaction
			result *AllocationResult
		)
		err := uc.retrier.Retry(ctx, func() error {
			var opErr error
			txn, result, opErr = uc.allocateOnce(ctx, input)
			return opErr
		})
		return txn, result, err
	}

	return uc.allocateOnce(ctx, input)
}

// allocateOnce runs one attempt of the transactional allocation.
func (uc *AllocationUseCase) allocateOnce(ctx context.Context, input AllocateInput) (*domain.Transaction, *AllocationResult, error) {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Idempotency guard: a transaction already recorded for this reference
	// means a duplicate delivery, never a second balance movement.
	existing, err := uc.transactionRepo.GetByReference(txCtx, tx, input.Reference)
	if err != nil && !errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, nil, err
	}
	if existing != nil && existing.Status.Terminal() {
		uc.logger.Info().
			Str("reference", input.Reference).
			Str("transaction_id", existing.ID).
			Msg("duplicate allocation request, skipping")

		if uc.metrics != nil {
			uc.metrics.DuplicateWebhooks.Inc()
		}

		return existing, nil, domain.ErrDuplicateWebhook
	}

	limits, err := uc.limitRepo.ListByUserForUpdate(txCtx, tx, input.UserID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	transactionID := uc.idGen.Generate()

	result, err := uc.Allocate(transactionID, input.Amount, limits, now)
	if err != nil {
		return nil, nil, err
	}

	if result.RemainingUnallocated.GreaterThan(decimal.Zero) {
		return nil, nil, domain.ErrInsufficientFunds
	}

	txn := &domain.Transaction{
		ID:            transactionID,
		UserID:        input.UserID,
		Reference:     input.Reference,
		Type:          input.Type,
		Status:        domain.TransactionStatusCompleted,
		FiatAmount:    result.AmountAllocated,
		USDEquivalent: result.TotalUSDEquivalent,
		EffectiveRate: result.EffectiveRate,
		TokenSymbol:   input.Token,
		Metadata:      input.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := txn.Validate(); err != nil {
		return nil, nil, err
	}

	if err := uc.transactionRepo.Create(txCtx, tx, txn); err != nil {
		return nil, nil, err
	}

	for _, chunk := range result.Chunks {
		if err := uc.chunkRepo.Create(txCtx, tx, chunk); err != nil {
			return nil, nil, err
		}
	}

	for _, limit := range result.UpdatedLimits {
		if err := uc.limitRepo.UpdateRemaining(txCtx, tx, limit.ID, limit.FiatRemaining, now); err != nil {
			return nil, nil, err
		}
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   txn.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     domain.EventTypeWithdrawalAllocated,
		Payload: map[string]any{
			"transaction_id": txn.ID,
			"user_id":        txn.UserID,
			"fiat_amount":    domain.FormatFiat(txn.FiatAmount),
			"usd_equivalent": domain.FormatFiat(txn.USDEquivalent),
			"effective_rate": domain.FormatRate(txn.EffectiveRate),
			"chunk_count":    len(result.Chunks),
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, nil, err
	}

	if result.Degraded {
		uc.logger.Warn().
			Str("transaction_id", txn.ID).
			Str("user_id", txn.UserID).
			Msg("allocation drew from limit with unusable rate, flagged for review")
	}

	if uc.metrics != nil {
		uc.metrics.AllocationsCompleted.Inc()
		uc.metrics.AllocationChunks.Observe(float64(len(result.Chunks)))
	}

	return txn, result, nil
}

// GetTransaction fetches a single ledger transaction by ID.
func (uc *AllocationUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// ListTransactions lists a user's ledger transactions, newest first.
func (uc *AllocationUseCase) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	return uc.transactionRepo.ListByUser(ctx, userID, limit, offset)
}

// GetChunks lists the chunks recorded for a transaction.
func (uc *AllocationUseCase) GetChunks(ctx context.Context, transactionID string) ([]*domain.TransactionChunk, error) {
	return uc.chunkRepo.ListByTransaction(ctx, transactionID)
}
