package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/domain"
)

// LimitRepository defines data access for spending limits.
type LimitRepository interface {
	Create(ctx context.Context, tx Transaction, limit *domain.SpendingLimit) error
	GetByID(ctx context.Context, id string) (*domain.SpendingLimit, error)
	// GetByOrderID looks up the limit funded by an offramp order. Used as the
	// idempotency check before creating a limit, so it must run inside the
	// same transaction as the eventual write.
	GetByOrderID(ctx context.Context, tx Transaction, orderID string) (*domain.SpendingLimit, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.SpendingLimit, error)
	// ListByUserForUpdate returns the user's drawable limits oldest-first
	// with row locks held for the duration of the transaction.
	ListByUserForUpdate(ctx context.Context, tx Transaction, userID string) ([]*domain.SpendingLimit, error)
	UpdateRemaining(ctx context.Context, tx Transaction, id string, remaining decimal.Decimal, updatedAt time.Time) error
}

// ChunkRepository defines data access for transaction chunks.
type ChunkRepository interface {
	Create(ctx context.Context, tx Transaction, chunk *domain.TransactionChunk) error
	ListByTransaction(ctx context.Context, transactionID string) ([]*domain.TransactionChunk, error)
}

// OrderRepository defines data access for offramp order projections.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.OfframpOrder) error
	GetByOrderID(ctx context.Context, orderID string) (*domain.OfframpOrder, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.OfframpOrder, error)
	// Update persists a provider-observed state change. Implementations must
	// reject non-monotonic status transitions.
	Update(ctx context.Context, order *domain.OfframpOrder) error
}

// TransactionRepository defines data access for the ledger projection.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, txn *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	// GetByReference is the idempotency lookup, run inside the same
	// transaction as the write it guards.
	GetByReference(ctx context.Context, tx Transaction, reference string) (*domain.Transaction, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// UserDirectory resolves user existence. The full identity stack lives
// outside this service.
type UserDirectory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// CreateOrderParams are the inputs for a new settlement order.
type CreateOrderParams struct {
	UserID    string
	USDAmount decimal.Decimal
	Token     string
	Network   string
}

// ProviderOrder is the provider's view of a settlement order.
type ProviderOrder struct {
	OrderID     string
	Status      domain.OrderStatus
	Amount      decimal.Decimal
	Rate        decimal.Decimal
	TxHash      string
	Settlements []domain.Settlement
}

// SettlementProvider is the external offramp settlement client.
type SettlementProvider interface {
	CreateOrder(ctx context.Context, params CreateOrderParams) (*ProviderOrder, error)
	GetOrderStatus(ctx context.Context, orderID string) (*ProviderOrder, error)
	Quote(ctx context.Context, token string) (decimal.Decimal, error)
}

// RateCache caches indicative provider quotes. Entry lifetime is the
// cache's own concern.
type RateCache interface {
	Get(ctx context.Context, token string) (decimal.Decimal, bool, error)
	Set(ctx context.Context, token string, rate decimal.Decimal) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier retries an operation on transient database errors such as
// deadlocks and serialization failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore handles idempotency key storage for the HTTP layer.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
