package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/infrastructure/metrics"
)

// Poll loop sentinels, never surfaced to callers.
var (
	errOrderStillPending  = errors.New("order not terminal yet")
	errUnrecognizedStatus = errors.New("unrecognized non-terminal status")
)

// PollPolicy bounds the synchronous settlement poll loop.
type PollPolicy struct {
	Attempts       int
	Interval       time.Duration
	RequestTimeout time.Duration
}

// DefaultPollPolicy returns the production polling budget (~150s ceiling).
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		Attempts:       DefaultPollAttempts,
		Interval:       DefaultPollInterval,
		RequestTimeout: DefaultPollRequestTimeout,
	}
}

// SettlementUseCase drives an external settlement order through its
// lifecycle and creates the spending limit exactly once on terminal success.
type SettlementUseCase struct {
	txManager       TransactionManager
	limitRepo       LimitRepository
	orderRepo       OrderRepository
	transactionRepo TransactionRepository
	outboxRepo      OutboxRepository
	provider        SettlementProvider
	rateCache       RateCache
	idGen           IDGenerator
	logger          zerolog.Logger
	metrics         *metrics.Metrics
	poll            PollPolicy
}

// NewSettlementUseCase creates a new SettlementUseCase.
func NewSettlementUseCase(
	txManager TransactionManager,
	limitRepo LimitRepository,
	orderRepo OrderRepository,
	transactionRepo TransactionRepository,
	outboxRepo OutboxRepository,
	provider SettlementProvider,
	rateCache RateCache,
	idGen IDGenerator,
	logger zerolog.Logger,
	metrics *metrics.Metrics,
	poll PollPolicy,
) *SettlementUseCase {
	if poll.Attempts <= 0 {
		poll = DefaultPollPolicy()
	}

	return &SettlementUseCase{
		txManager:       txManager,
		limitRepo:       limitRepo,
		orderRepo:       orderRepo,
		transactionRepo: transactionRepo,
		outboxRepo:      outboxRepo,
		provider:        provider,
		rateCache:       rateCache,
		idGen:           idGen,
		logger:          logger,
		metrics:         metrics,
		poll:            poll,
	}
}

// CreateOrderInput describes a withdrawal/limit-funding request.
type CreateOrderInput struct {
	UserID    string
	USDAmount decimal.Decimal
	Token     string
	Network   string
}

// CreateOrder opens a settlement order with the provider and persists the
// pending projection. The recorded rate is indicative until settlement data
// arrives.
func (uc *SettlementUseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.OfframpOrder, error) {
	if input.USDAmount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	if err := domain.ValidateToken(input.Token); err != nil {
		return nil, err
	}

	if err := domain.ValidateNetwork(input.Network); err != nil {
		return nil, err
	}

	quote, err := uc.quote(ctx, input.Token)
	if err != nil {
		return nil, err
	}

	created, err := uc.provider.CreateOrder(ctx, CreateOrderParams{
		UserID:    input.UserID,
		USDAmount: input.USDAmount,
		Token:     input.Token,
		Network:   input.Network,
	})
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	order := &domain.OfframpOrder{
		ID:        uc.idGen.Generate(),
		OrderID:   created.OrderID,
		UserID:    input.UserID,
		USDAmount: input.USDAmount,
		FxRate:    quote,
		Token:     input.Token,
		Network:   input.Network,
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.OrdersCreated.Inc()
	}

	uc.logger.Info().
		Str("order_id", order.OrderID).
		Str("user_id", order.UserID).
		Str("usd_amount", domain.FormatFiat(order.USDAmount)).
		Msg("settlement order created")

	return order, nil
}

// quote returns the cached indicative rate for a token, falling through to
// the provider on a miss.
func (uc *SettlementUseCase) quote(ctx context.Context, token string) (decimal.Decimal, error) {
	if uc.rateCache != nil {
		rate, ok, err := uc.rateCache.Get(ctx, token)
		if err != nil {
			uc.logger.Warn().Err(err).Str("token", token).Msg("rate cache read failed")
		} else if ok {
			return rate, nil
		}
	}

	rate, err := uc.provider.Quote(ctx, token)
	if err != nil {
		return decimal.Zero, err
	}

	if uc.rateCache != nil {
		if err := uc.rateCache.Set(ctx, token, rate); err != nil {
			uc.logger.Warn().Err(err).Str("token", token).Msg("rate cache write failed")
		}
	}

	return rate, nil
}

// GetOrder returns the local projection of an order.
func (uc *SettlementUseCase) GetOrder(ctx context.Context, orderID string) (*domain.OfframpOrder, error) {
	return uc.orderRepo.GetByOrderID(ctx, orderID)
}

// RefreshOrder fetches the provider's view of an order once and merges it
// into the local projection. The weighted rate is recomputed whenever
// settlement data is present, partial fills can land before any terminal
// status.
func (uc *SettlementUseCase) RefreshOrder(ctx context.Context, orderID string) (*domain.OfframpOrder, error) {
	order, err := uc.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status.Terminal() {
		return order, nil
	}

	remote, err := uc.provider.GetOrderStatus(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.PollAttempts.Inc()
	}

	if !order.CanTransition(remote.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, remote.Status)
	}

	order.Status = remote.Status
	order.TxHash = remote.TxHash
	order.UpdatedAt = time.Now().UTC()

	if len(remote.Settlements) > 0 {
		order.Settlements = remote.Settlements
		order.FxRate = domain.WeightedRate(remote.Settlements)
	} else if !remote.Rate.IsZero() {
		order.FxRate = remote.Rate
	}

	if err := uc.orderRepo.Update(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// PollOrder polls the provider until the order reaches a terminal state or
// the bounded budget runs out. Each attempt carries its own request timeout.
// On exhaustion the last-known order is returned alongside
// ErrPollingExhausted; an unrecognized non-terminal status stops the loop
// and is returned as-is.
func (uc *SettlementUseCase) PollOrder(ctx context.Context, orderID string) (*domain.OfframpOrder, error) {
	var last *domain.OfframpOrder

	operation := func() error {
		reqCtx, cancel := context.WithTimeout(ctx, uc.poll.RequestTimeout)
		defer cancel()

		order, err := uc.RefreshOrder(reqCtx, orderID)
		if err != nil {
			// Provider/network errors are retried within the same budget.
			uc.logger.Warn().Err(err).Str("order_id", orderID).Msg("poll attempt failed")
			return err
		}

		last = order

		if order.Status.Terminal() {
			return nil
		}

		if !order.Status.Retryable() {
			return backoff.Permanent(fmt.Errorf("%w: %s", errUnrecognizedStatus, order.Status))
		}

		return errOrderStillPending
	}

	policy := backoff.WithMaxRetries(backoff.NewConstantBackOff(uc.poll.Interval), uint64(uc.poll.Attempts-1))
	err := backoff.Retry(operation, backoff.WithContext(policy, ctx))
	if err != nil {
		if errors.Is(err, errUnrecognizedStatus) {
			uc.logger.Warn().
				Str("order_id", orderID).
				Str("status", string(last.Status)).
				Msg("polling stopped on unrecognized status")
			return last, nil
		}

		if errors.Is(err, errOrderStillPending) {
			return last, domain.ErrPollingExhausted
		}

		return last, err
	}

	return last, nil
}

// FinalizeOrder applies an order's terminal state: on settled/validated it
// creates the spending limit and its funding transaction exactly once, on
// refunded/failed it surfaces the failure. Replaying a terminal notification
// for an already-finalized order returns the existing limit.
func (uc *SettlementUseCase) FinalizeOrder(ctx context.Context, orderID string) (*domain.SpendingLimit, error) {
	order, err := uc.orderRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.Terminal() {
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrInvalidTransition, orderID, order.Status)
	}

	if !order.Status.Success() {
		uc.emitRefunded(ctx, order)
		return nil, fmt.Errorf("%w: order %s is %s", domain.ErrSettlementFailed, orderID, order.Status)
	}

	rate := order.EffectiveRate()
	if rate.LessThanOrEqual(decimal.Zero) {
		// A settled order with no usable rate is a data inconsistency. A
		// limit with a bogus zero rate must never be created silently.
		return nil, fmt.Errorf("%w: order %s settled with zero rate", domain.ErrRateUnavailable, orderID)
	}

	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(txCtx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	// Idempotency against duplicate terminal notifications: at most one
	// limit per order, checked inside the same transaction as the write.
	existing, err := uc.limitRepo.GetByOrderID(txCtx, tx, orderID)
	if err != nil && !errors.Is(err, domain.ErrLimitNotFound) {
		return nil, err
	}
	if existing != nil {
		uc.logger.Info().
			Str("order_id", orderID).
			Str("limit_id", existing.ID).
			Msg("order already finalized, skipping")
		return existing, nil
	}

	now := time.Now().UTC()
	fiatAmount := order.USDAmount.Mul(rate)

	limit := &domain.SpendingLimit{
		ID:            uc.idGen.Generate(),
		UserID:        order.UserID,
		OrderID:       order.OrderID,
		USDAmount:     order.USDAmount,
		FxRate:        rate,
		FiatAmount:    fiatAmount,
		FiatRemaining: fiatAmount,
		TokenSymbol:   order.Token,
		Network:       order.Network,
		ChainType:     domain.ChainTypeForNetwork(order.Network),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := limit.Validate(); err != nil {
		return nil, err
	}

	if err := uc.limitRepo.Create(txCtx, tx, limit); err != nil {
		return nil, err
	}

	txn := &domain.Transaction{
		ID:            uc.idGen.Generate(),
		UserID:        order.UserID,
		Reference:     order.OrderID,
		Type:          domain.TransactionTypeWithdrawal,
		Status:        domain.TransactionStatusCompleted,
		FiatAmount:    fiatAmount,
		USDEquivalent: order.USDAmount,
		EffectiveRate: rate,
		TokenSymbol:   order.Token,
		TxHash:        order.TxHash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := txn.Validate(); err != nil {
		return nil, err
	}

	if err := uc.transactionRepo.Create(txCtx, tx, txn); err != nil {
		return nil, err
	}

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   limit.ID,
		AggregateType: domain.AggregateTypeLimit,
		EventType:     domain.EventTypeLimitFunded,
		Payload: map[string]any{
			"limit_id":    limit.ID,
			"order_id":    limit.OrderID,
			"user_id":     limit.UserID,
			"usd_amount":  domain.FormatFiat(limit.USDAmount),
			"fiat_amount": domain.FormatFiat(limit.FiatAmount),
			"fx_rate":     domain.FormatRate(limit.FxRate),
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
		uc.metrics.SettlementsFinalized.Inc()
	}

	uc.logger.Info().
		Str("order_id", orderID).
		Str("limit_id", limit.ID).
		Str("fx_rate", domain.FormatRate(rate)).
		Msg("spending limit funded from settlement")

	return limit, nil
}

// emitRefunded records a refund event outside the funding path.
func (uc *SettlementUseCase) emitRefunded(ctx context.Context, order *domain.OfframpOrder) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		uc.logger.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to record refund event")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   order.OrderID,
		AggregateType: domain.AggregateTypeOrder,
		EventType:     domain.EventTypeOrderRefunded,
		Payload: map[string]any{
			"order_id":   order.OrderID,
			"user_id":    order.UserID,
			"usd_amount": domain.FormatFiat(order.USDAmount),
		},
		CreatedAt: time.Now().UTC(),
		Published: false,
	}
	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		uc.logger.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to record refund event")
		return
	}

	if err := tx.Commit(ctx); err != nil {
		uc.logger.Error().Err(err).Str("order_id", order.OrderID).Msg("failed to record refund event")
	}

	if uc.metrics != nil {
		uc.metrics.OrdersRefunded.Inc()
	}
}
