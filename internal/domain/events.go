package domain

import "time"

// Event types
const (
	EventTypeLimitFunded         = "limit.funded"
	EventTypeWithdrawalAllocated = "withdrawal.allocated"
	EventTypeOrderRefunded       = "order.refunded"
	EventTypeDepositRecorded     = "deposit.recorded"
	EventTypeSwapRecorded        = "swap.recorded"
)

// Aggregate types
const (
	AggregateTypeLimit       = "spending_limit"
	AggregateTypeOrder       = "offramp_order"
	AggregateTypeTransaction = "transaction"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// LimitFundedEvent payload
type LimitFundedEvent struct {
	LimitID    string `json:"limit_id"`
	OrderID    string `json:"order_id"`
	UserID     string `json:"user_id"`
	USDAmount  string `json:"usd_amount"`
	FiatAmount string `json:"fiat_amount"`
	FxRate     string `json:"fx_rate"`
}

// WithdrawalAllocatedEvent payload
type WithdrawalAllocatedEvent struct {
	TransactionID string `json:"transaction_id"`
	UserID        string `json:"user_id"`
	FiatAmount    string `json:"fiat_amount"`
	USDEquivalent string `json:"usd_equivalent"`
	EffectiveRate string `json:"effective_rate"`
	ChunkCount    int    `json:"chunk_count"`
}

// OrderRefundedEvent payload
type OrderRefundedEvent struct {
	OrderID   string `json:"order_id"`
	UserID    string `json:"user_id"`
	USDAmount string `json:"usd_amount"`
}

// DepositRecordedEvent payload
type DepositRecordedEvent struct {
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"reference"`
	UserID        string `json:"user_id"`
	FiatAmount    string `json:"fiat_amount"`
	TokenSymbol   string `json:"token_symbol"`
}
