package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
)

// MockLimitRepository is a mock implementation of LimitRepository.
type MockLimitRepository struct {
	mu     sync.RWMutex
	limits map[string]*domain.SpendingLimit

	CreateFunc              func(ctx context.Context, tx usecase.Transaction, limit *domain.SpendingLimit) error
	GetByIDFunc             func(ctx context.Context, id string) (*domain.SpendingLimit, error)
	GetByOrderIDFunc        func(ctx context.Context, tx usecase.Transaction, orderID string) (*domain.SpendingLimit, error)
	ListByUserFunc          func(ctx context.Context, userID string, limit, offset int) ([]*domain.SpendingLimit, error)
	ListByUserForUpdateFunc func(ctx context.Context, tx usecase.Transaction, userID string) ([]*domain.SpendingLimit, error)
	UpdateRemainingFunc     func(ctx context.Context, tx usecase.Transaction, id string, remaining decimal.Decimal, updatedAt time.Time) error
}

func NewMockLimitRepository() *MockLimitRepository {
	return &MockLimitRepository{
		limits: make(map[string]*domain.SpendingLimit),
	}
}

func (m *MockLimitRepository) Create(ctx context.Context, tx usecase.Transaction, limit *domain.SpendingLimit) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, limit)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.limits[limit.ID] = limit
	return nil
}

func (m *MockLimitRepository) GetByID(ctx context.Context, id string) (*domain.SpendingLimit, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if l, ok := m.limits[id]; ok {
		return l, nil
	}
	return nil, domain.ErrLimitNotFound
}

func (m *MockLimitRepository) GetByOrderID(ctx context.Context, tx usecase.Transaction, orderID string) (*domain.SpendingLimit, error) {
	if m.GetByOrderIDFunc != nil {
		return m.GetByOrderIDFunc(ctx, tx, orderID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, l := range m.limits {
		if l.OrderID == orderID {
			return l, nil
		}
	}
	return nil, domain.ErrLimitNotFound
}

func (m *MockLimitRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.SpendingLimit, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.SpendingLimit
	for _, l := range m.limits {
		if l.UserID == userID {
			result = append(result, l)
		}
	}
	return result, nil
}

func (m *MockLimitRepository) ListByUserForUpdate(ctx context.Context, tx usecase.Transaction, userID string) ([]*domain.SpendingLimit, error) {
	if m.ListByUserForUpdateFunc != nil {
		return m.ListByUserForUpdateFunc(ctx, tx, userID)
	}
	return m.ListByUser(ctx, userID, 0, 0)
}

func (m *MockLimitRepository) UpdateRemaining(ctx context.Context, tx usecase.Transaction, id string, remaining decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateRemainingFunc != nil {
		return m.UpdateRemainingFunc(ctx, tx, id, remaining, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.limits[id]; ok {
		l.FiatRemaining = remaining
		l.UpdatedAt = updatedAt
	}
	return nil
}

// MockChunkRepository is a mock implementation of ChunkRepository.
type MockChunkRepository struct {
	mu     sync.RWMutex
	chunks []*domain.TransactionChunk

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, chunk *domain.TransactionChunk) error
	ListByTransactionFunc func(ctx context.Context, transactionID string) ([]*domain.TransactionChunk, error)
}

func NewMockChunkRepository() *MockChunkRepository {
	return &MockChunkRepository{}
}

func (m *MockChunkRepository) Create(ctx context.Context, tx usecase.Transaction, chunk *domain.TransactionChunk) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, chunk)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chunks = append(m.chunks, chunk)
	return nil
}

func (m *MockChunkRepository) ListByTransaction(ctx context.Context, transactionID string) ([]*domain.TransactionChunk, error) {
	if m.ListByTransactionFunc != nil {
		return m.ListByTransactionFunc(ctx, transactionID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.TransactionChunk
	for _, c := range m.chunks {
		if c.TransactionID == transactionID {
			result = append(result, c)
		}
	}
	return result, nil
}

// Chunks returns all created chunks.
func (m *MockChunkRepository) Chunks() []*domain.TransactionChunk {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.TransactionChunk(nil), m.chunks...)
}

// MockOrderRepository is a mock implementation of OrderRepository.
type MockOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.OfframpOrder

	CreateFunc       func(ctx context.Context, order *domain.OfframpOrder) error
	GetByOrderIDFunc func(ctx context.Context, orderID string) (*domain.OfframpOrder, error)
	ListByUserFunc   func(ctx context.Context, userID string, limit, offset int) ([]*domain.OfframpOrder, error)
	UpdateFunc       func(ctx context.Context, order *domain.OfframpOrder) error
}

func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{
		orders: make(map[string]*domain.OfframpOrder),
	}
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.OfframpOrder) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.OrderID] = order
	return nil
}

func (m *MockOrderRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.OfframpOrder, error) {
	if m.GetByOrderIDFunc != nil {
		return m.GetByOrderIDFunc(ctx, orderID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[orderID]; ok {
		return o, nil
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockOrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.OfframpOrder, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.OfframpOrder
	for _, o := range m.orders {
		if o.UserID == userID {
			result = append(result, o)
		}
	}
	return result, nil
}

func (m *MockOrderRepository) Update(ctx context.Context, order *domain.OfframpOrder) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, order)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.OrderID] = order
	return nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction

	CreateFunc         func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	GetByIDFunc        func(ctx context.Context, id string) (*domain.Transaction, error)
	GetByReferenceFunc func(ctx context.Context, tx usecase.Transaction, reference string) (*domain.Transaction, error)
	ListByUserFunc     func(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error)
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions[txn.ID] = txn
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByReference(ctx context.Context, tx usecase.Transaction, reference string) (*domain.Transaction, error) {
	if m.GetByReferenceFunc != nil {
		return m.GetByReferenceFunc(ctx, tx, reference)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.transactions {
		if t.Reference == reference {
			return t, nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Transaction
	for _, t := range m.transactions {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result, nil
}

// MockOutboxRepository is a mock implementation of OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events []*domain.OutboxEvent

	CreateFunc          func(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error
	GetUnpublishedFunc  func(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublishedFunc   func(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublishedFunc func(ctx context.Context, before time.Time) error
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if m.GetUnpublishedFunc != nil {
		return m.GetUnpublishedFunc(ctx, limit)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			result = append(result, e)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	if m.MarkPublishedFunc != nil {
		return m.MarkPublishedFunc(ctx, id, publishedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.Published = true
			e.PublishedAt = &publishedAt
		}
	}
	return nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	if m.DeletePublishedFunc != nil {
		return m.DeletePublishedFunc(ctx, before)
	}
	return nil
}

// Events returns all stored events.
func (m *MockOutboxRepository) Events() []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.OutboxEvent(nil), m.events...)
}

// MockUserDirectory is a mock implementation of UserDirectory.
type MockUserDirectory struct {
	mu    sync.RWMutex
	users map[string]bool

	ExistsFunc func(ctx context.Context, userID string) (bool, error)
}

func NewMockUserDirectory(userIDs ...string) *MockUserDirectory {
	users := make(map[string]bool)
	for _, id := range userIDs {
		users[id] = true
	}
	return &MockUserDirectory{users: users}
}

func (m *MockUserDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, userID)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[userID], nil
}

// MockSettlementProvider is a mock implementation of SettlementProvider.
type MockSettlementProvider struct {
	CreateOrderFunc    func(ctx context.Context, params usecase.CreateOrderParams) (*usecase.ProviderOrder, error)
	GetOrderStatusFunc func(ctx context.Context, orderID string) (*usecase.ProviderOrder, error)
	QuoteFunc          func(ctx context.Context, token string) (decimal.Decimal, error)
}

func NewMockSettlementProvider() *MockSettlementProvider {
	return &MockSettlementProvider{}
}

func (m *MockSettlementProvider) CreateOrder(ctx context.Context, params usecase.CreateOrderParams) (*usecase.ProviderOrder, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, params)
	}
	return &usecase.ProviderOrder{OrderID: "order-1", Status: domain.OrderStatusPending}, nil
}

func (m *MockSettlementProvider) GetOrderStatus(ctx context.Context, orderID string) (*usecase.ProviderOrder, error) {
	if m.GetOrderStatusFunc != nil {
		return m.GetOrderStatusFunc(ctx, orderID)
	}
	return &usecase.ProviderOrder{OrderID: orderID, Status: domain.OrderStatusPending}, nil
}

func (m *MockSettlementProvider) Quote(ctx context.Context, token string) (decimal.Decimal, error) {
	if m.QuoteFunc != nil {
		return m.QuoteFunc(ctx, token)
	}
	return decimal.NewFromInt(1500), nil
}

// MockRateCache is a mock implementation of RateCache.
type MockRateCache struct {
	mu    sync.RWMutex
	rates map[string]decimal.Decimal

	GetFunc func(ctx context.Context, token string) (decimal.Decimal, bool, error)
	SetFunc func(ctx context.Context, token string, rate decimal.Decimal) error
}

func NewMockRateCache() *MockRateCache {
	return &MockRateCache{rates: make(map[string]decimal.Decimal)}
}

func (m *MockRateCache) Get(ctx context.Context, token string) (decimal.Decimal, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, token)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	rate, ok := m.rates[token]
	return rate, ok, nil
}

func (m *MockRateCache) Set(ctx context.Context, token string, rate decimal.Decimal) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, token, rate)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rates[token] = rate
	return nil
}

// MockTransaction is a mock database transaction.
type MockTransaction struct {
	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error

	Committed  bool
	RolledBack bool
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		return m.CommitFunc(ctx)
	}
	m.Committed = true
	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	m.RolledBack = true
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockIDGenerator is a mock implementation of IDGenerator.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%04d", m.counter)
}
