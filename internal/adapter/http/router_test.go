package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/adapter/http/handler"
	apimiddleware "github.com/ramphq/rampcore/internal/adapter/http/middleware"
	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_MetricsEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /metrics to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_RateLimiterBlocksExcessRequests(t *testing.T) {
	rl := apimiddleware.NewRateLimiter(1, 1)
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.RateLimiter = rl
	}))

	req1 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req1.RemoteAddr = "1.2.3.4:1234"
	rec1 := httptest.NewRecorder()
	router.ServeHTTP(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/health", nil)
	req2.RemoteAddr = "1.2.3.4:1234"
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second request to be throttled, got %d", rec2.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"user_id":"user-1","reference":"wd-1","amount":"1000"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/withdrawals", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled {
		t.Fatalf("expected idempotency store to be used")
	}
}

func TestNewRouter_WebhookSignatureEnforced(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.SettlementWebhookSecret = "topsecret"
	}))

	body := `{"order_id":"ord-1"}`
	req := httptest.NewRequest(http.MethodPost, "/webhooks/settlement", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected unsigned webhook to be rejected, got %d", rec.Code)
	}
}

func TestNewRouter_WebhookSecretsArePerChannel(t *testing.T) {
	router := NewRouter(newRouterConfig(func(cfg *RouterConfig) {
		cfg.SettlementWebhookSecret = "settlement-secret"
		cfg.WalletWebhookSecret = "wallet-secret"
	}))

	body := `{"event":"deposit.success","user_id":"user-1","reference":"dep-1","amount":"1000"}`

	// A payload signed with the settlement secret must not pass the
	// wallet channel.
	req := httptest.NewRequest(http.MethodPost, "/webhooks/wallet", strings.NewReader(body))
	req.Header.Set(apimiddleware.SignatureHeader, signHMAC("settlement-secret", body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected cross-channel signature to be rejected, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/webhooks/wallet", strings.NewReader(body))
	req.Header.Set(apimiddleware.SignatureHeader, signHMAC("wallet-secret", body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected correctly signed wallet webhook to pass, got %d", rec.Code)
	}
}

func signHMAC(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig())

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"POST /api/v1/limits/",
		"GET /api/v1/limits/",
		"GET /api/v1/limits/balance",
		"POST /api/v1/withdrawals",
		"GET /api/v1/orders/{orderID}",
		"POST /api/v1/orders/{orderID}/poll",
		"GET /api/v1/transactions/{id}",
		"GET /api/v1/transactions/{id}/chunks",
		"POST /webhooks/settlement",
		"POST /webhooks/wallet",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func newRouterConfig(opts ...func(*RouterConfig)) RouterConfig {
	limitHandler := handler.NewLimitHandler(stubSettlementService{}, stubBalanceService{})
	withdrawalHandler := handler.NewWithdrawalHandler(stubAllocationService{})
	orderHandler := handler.NewOrderHandler(stubSettlementService{})
	transactionHandler := handler.NewTransactionHandler(stubAllocationService{})
	webhookHandler := handler.NewWebhookHandler(stubSettlementService{}, stubWalletService{})

	cfg := RouterConfig{
		LimitHandler:       limitHandler,
		WithdrawalHandler:  withdrawalHandler,
		OrderHandler:       orderHandler,
		TransactionHandler: transactionHandler,
		WebhookHandler:     webhookHandler,
		HealthHandler:      &handler.HealthHandler{},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubSettlementService struct{}

func (stubSettlementService) CreateOrder(ctx context.Context, input usecase.CreateOrderInput) (*domain.OfframpOrder, error) {
	return &domain.OfframpOrder{OrderID: "ord"}, nil
}

func (stubSettlementService) GetOrder(ctx context.Context, orderID string) (*domain.OfframpOrder, error) {
	return &domain.OfframpOrder{OrderID: orderID}, nil
}

func (stubSettlementService) PollOrder(ctx context.Context, orderID string) (*domain.OfframpOrder, error) {
	return &domain.OfframpOrder{OrderID: orderID, Status: domain.OrderStatusProcessing}, nil
}

func (stubSettlementService) RefreshOrder(ctx context.Context, orderID string) (*domain.OfframpOrder, error) {
	return &domain.OfframpOrder{OrderID: orderID, Status: domain.OrderStatusProcessing}, nil
}

func (stubSettlementService) FinalizeOrder(ctx context.Context, orderID string) (*domain.SpendingLimit, error) {
	return &domain.SpendingLimit{OrderID: orderID}, nil
}

type stubBalanceService struct{}

func (stubBalanceService) AggregateBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (stubBalanceService) ListLimits(ctx context.Context, userID string, limit, offset int) ([]*domain.SpendingLimit, error) {
	return []*domain.SpendingLimit{}, nil
}

type stubAllocationService struct{}

func (stubAllocationService) AllocateForTransaction(ctx context.Context, input usecase.AllocateInput) (*domain.Transaction, *usecase.AllocationResult, error) {
	return &domain.Transaction{ID: "txn"}, &usecase.AllocationResult{}, nil
}

func (stubAllocationService) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return &domain.Transaction{ID: id}, nil
}

func (stubAllocationService) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	return []*domain.Transaction{}, nil
}

func (stubAllocationService) GetChunks(ctx context.Context, transactionID string) ([]*domain.TransactionChunk, error) {
	return []*domain.TransactionChunk{}, nil
}

type stubWalletService struct{}

func (stubWalletService) ApplyDeposit(ctx context.Context, event usecase.DepositEvent) (*domain.Transaction, error) {
	return &domain.Transaction{ID: "txn"}, nil
}

func (stubWalletService) ApplySwap(ctx context.Context, event usecase.SwapEvent) (*domain.Transaction, error) {
	return &domain.Transaction{ID: "txn"}, nil
}

func (stubWalletService) ApplyAuthorization(ctx context.Context, event usecase.AuthorizationEvent) (*domain.Transaction, error) {
	return &domain.Transaction{ID: "txn"}, nil
}

type stubIdempotencyStore struct {
	checkCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	return nil
}
