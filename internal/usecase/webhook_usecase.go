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

// WebhookUseCase applies money-moving effects from inbound provider
// callbacks, deduplicated on the provider's unique reference. Signature
// verification happens in the HTTP layer before any of this runs.
type WebhookUseCase struct {
	txManager       TransactionManager
	transactionRepo TransactionRepository
	outboxRepo      OutboxRepository
	allocationUC    *AllocationUseCase
	idGen           IDGenerator
	logger          zerolog.Logger
	metrics         *metrics.Metrics
}

// NewWebhookUseCase creates a new WebhookUseCase.
func NewWebhookUseCase(
	txManager TransactionManager,
	transactionRepo TransactionRepository,
	outboxRepo OutboxRepository,
	allocationUC *AllocationUseCase,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
) *WebhookUseCase {
	return &WebhookUseCase{
		txManager:       txManager,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		allocationUC:    allocationUC,
		idGen:           idGen,
		logger:          logger,
		metrics:         metrics,
	}
}

// DepositEvent is a deposit-success callback from the wallet provider.
type DepositEvent struct {
	Reference   string
	UserID      string
	FiatAmount  decimal.Decimal
	TokenSymbol string
	TxHash      string
}

// SwapEvent is a swap-completion callback from the wallet provider.
type SwapEvent struct {
	Reference   string
	UserID      string
	FiatAmount  decimal.Decimal
	FromToken   string
	ToToken     string
	TxHash      string
	Success     bool
}

// AuthorizationEvent is a just-in-time card authorization callback.
type AuthorizationEvent struct {
	Reference  string
	UserID     string
	FiatAmount decimal.Decimal
}

// ApplyDeposit records a deposit exactly once per reference.
func (uc *WebhookUseCase) ApplyDeposit(ctx context.Context, event DepositEvent) (*domain.Transaction, error) {
	return uc.recordOnce(ctx, recordInput{
		reference:   event.Reference,
		userID:      event.UserID,
		fiatAmount:  event.FiatAmount,
		tokenSymbol: event.TokenSymbol,
		txHash:      event.TxHash,
		txType:      domain.TransactionTypeDeposit,
		status:      domain.TransactionStatusCompleted,
		eventType:   domain.EventTypeDepositRecorded,
	})
}

// ApplySwap records a swap result exactly once per reference. Failed swaps
// are recorded as failed transactions so retries of the same reference stay
// no-ops.
func (uc *WebhookUseCase) ApplySwap(ctx context.Context, event SwapEvent) (*domain.Transaction, error) {
	status := domain.TransactionStatusCompleted
	if !event.Success {
		status = domain.TransactionStatusFailed
	}

	return uc.recordOnce(ctx, recordInput{
		reference:   event.Reference,
		userID:      event.UserID,
		fiatAmount:  event.FiatAmount,
		tokenSymbol: event.ToToken,
		txHash:      event.TxHash,
		txType:      domain.TransactionTypeSwap,
		status:      status,
		eventType:   domain.EventTypeSwapRecorded,
		metadata: map[string]any{
			"from_token": event.FromToken,
			"to_token":   event.ToToken,
		},
	})
}

// ApplyAuthorization allocates a just-in-time spend across the user's
// limits. Deduplication rides on the allocation path's reference guard.
func (uc *WebhookUseCase) ApplyAuthorization(ctx context.Context, event AuthorizationEvent) (*domain.Transaction, error) {
	txn, _, err := uc.allocationUC.AllocateForTransaction(ctx, AllocateInput{
		UserID:    event.UserID,
		Reference: event.Reference,
		Amount:    event.FiatAmount,
		Type:      domain.TransactionTypeSpend,
	})

	return txn, err
}

type recordInput struct {
	reference   string
	userID      string
	fiatAmount  decimal.Decimal
	tokenSymbol string
	txHash      string
	txType      domain.TransactionType
	status      domain.TransactionStatus
	eventType   string
	metadata    map[string]any
}

// recordOnce writes one ledger transaction per reference, inside a single
// database transaction with the lookup that guards it.
func (uc *WebhookUseCase) recordOnce(ctx context.Context, input recordInput) (*domain.Transaction, error) {
	if err := domain.ValidateReference(input.reference); err != nil {
		return nil, err
	}

	if input.fiatAmount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	existing, err := uc.transactionRepo.GetByReference(txCtx, tx, input.reference)
	if err != nil && !errors.Is(err, domain.ErrTransactionNotFound) {
		return nil, err
	}
	if existing != nil && existing.Status.Terminal() {
		uc.logger.Info().
			Str("reference", input.reference).
			Str("transaction_id", existing.ID).
			Str("type", string(input.txType)).
			Msg("duplicate webhook, skipping")

		if uc.metrics != nil {
			uc.metrics.DuplicateWebhooks.Inc()
		}

		return existing, domain.ErrDuplicateWebhook
	}

	now := time.Now().UTC()
	txn := &domain.Transaction{
		ID:          uc.idGen.Generate(),
		UserID:      input.userID,
		Reference:   input.reference,
		Type:        input.txType,
		Status:      input.status,
		FiatAmount:  input.fiatAmount,
		TokenSymbol: input.tokenSymbol,
		TxHash:      input.txHash,
		Metadata:    input.metadata,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := uc.transactionRepo.Create(txCtx, tx, txn); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   txn.ID,
		AggregateType: domain.AggregateTypeTransaction,
		EventType:     input.eventType,
		Payload: map[string]any{
			"transaction_id": txn.ID,
			"reference":      txn.Reference,
			"user_id":        txn.UserID,
			"fiat_amount":    domain.FormatFiat(txn.FiatAmount),
			"token_symbol":   txn.TokenSymbol,
			"status":         string(txn.Status),
		},
		CreatedAt: now,
		Published: false,
	}
	if err := uc.outboxRepo.Create(txCtx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(txCtx); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.WebhooksApplied.Inc()
	}

	return txn, nil
}
