package integration

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/adapter/provider"
	postgresrepo "github.com/ramphq/rampcore/internal/adapter/repository/postgres"
	redisrepo "github.com/ramphq/rampcore/internal/adapter/repository/redis"
	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
	"github.com/ramphq/rampcore/tests/testutil"
)

// providerStub serves the offramp provider API: a fixed quote plus an order
// whose status advances on every poll.
type providerStub struct {
	statuses []string
	calls    atomic.Int64
}

func (p *providerStub) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/v1/rates/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "USDC", "rate": "1500"})
	})

	mux.HandleFunc("/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"order_id": "ord-int-1", "status": "pending"})
	})

	mux.HandleFunc("/v1/orders/", func(w http.ResponseWriter, r *http.Request) {
		n := p.calls.Add(1)
		idx := int(n) - 1
		if idx >= len(p.statuses) {
			idx = len(p.statuses) - 1
		}

		resp := map[string]any{"order_id": "ord-int-1", "status": p.statuses[idx]}
		if p.statuses[idx] == "settled" {
			resp["tx_hash"] = "0xint"
			resp["settlements"] = []map[string]string{
				{"amount": "60", "rate": "1500"},
				{"amount": "40", "rate": "1510"},
			}
		}
		json.NewEncoder(w).Encode(resp)
	})

	return mux
}

func newSettlementUseCase(t *testing.T, db *testutil.TestDB, providerURL string) *usecase.SettlementUseCase {
	t.Helper()

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	pool := db.Pool

	return usecase.NewSettlementUseCase(
		postgresrepo.NewTxManager(pool),
		postgresrepo.NewLimitRepository(pool),
		postgresrepo.NewOrderRepository(pool),
		postgresrepo.NewTransactionRepository(pool),
		postgresrepo.NewOutboxRepository(pool),
		provider.NewClient(providerURL, "test-key", zerolog.Nop()),
		redisrepo.NewRateCache(redisClient, 0),
		postgresrepo.NewULIDGenerator(),
		zerolog.Nop(),
		nil,
		usecase.PollPolicy{Attempts: 5, Interval: 10 * time.Millisecond, RequestTimeout: time.Second},
	)
}

func TestSettlementLifecycle_FundsLimitOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	defer db.Cleanup()
	db.TruncateAll(ctx)

	userID := db.CreateTestUser(ctx)

	stub := &providerStub{statuses: []string{"pending", "processing", "settled"}}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	uc := newSettlementUseCase(t, db, server.URL)

	order, err := uc.CreateOrder(ctx, usecase.CreateOrderInput{
		UserID:    userID,
		USDAmount: decimal.NewFromInt(100),
		Token:     "USDC",
		Network:   "base",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Status != domain.OrderStatusPending {
		t.Fatalf("expected pending order, got %s", order.Status)
	}

	polled, err := uc.PollOrder(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if polled.Status != domain.OrderStatusSettled {
		t.Fatalf("expected settled, got %s", polled.Status)
	}

	limit, err := uc.FinalizeOrder(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	// Weighted settlement rate: (60*1500 + 40*1510) / 100 = 1504.
	if !limit.FxRate.Equal(decimal.NewFromInt(1504)) {
		t.Fatalf("expected weighted rate 1504, got %s", limit.FxRate)
	}
	if !limit.FiatAmount.Equal(decimal.NewFromInt(150400)) {
		t.Fatalf("expected fiat amount 150400, got %s", limit.FiatAmount)
	}

	// Replaying finalization must not fund a second limit.
	again, err := uc.FinalizeOrder(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("replayed finalize failed: %v", err)
	}
	if again.ID != limit.ID {
		t.Fatalf("expected same limit on replay, got %s and %s", limit.ID, again.ID)
	}

	limits, err := postgresrepo.NewLimitRepository(db.Pool).ListByUser(ctx, userID, 10, 0)
	if err != nil {
		t.Fatalf("failed to list limits: %v", err)
	}
	if len(limits) != 1 {
		t.Fatalf("expected exactly 1 limit, got %d", len(limits))
	}
}

func TestSettlementLifecycle_RefundedNeverFunds(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	defer db.Cleanup()
	db.TruncateAll(ctx)

	userID := db.CreateTestUser(ctx)

	stub := &providerStub{statuses: []string{"processing", "refunded"}}
	server := httptest.NewServer(stub.handler())
	defer server.Close()

	uc := newSettlementUseCase(t, db, server.URL)

	order, err := uc.CreateOrder(ctx, usecase.CreateOrderInput{
		UserID:    userID,
		USDAmount: decimal.NewFromInt(100),
		Token:     "USDC",
		Network:   "base",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	polled, err := uc.PollOrder(ctx, order.OrderID)
	if err != nil {
		t.Fatalf("poll failed: %v", err)
	}
	if polled.Status != domain.OrderStatusRefunded {
		t.Fatalf("expected refunded, got %s", polled.Status)
	}

	if _, err := uc.FinalizeOrder(ctx, order.OrderID); !errors.Is(err, domain.ErrSettlementFailed) {
		t.Fatalf("expected settlement failed, got %v", err)
	}

	limits, err := postgresrepo.NewLimitRepository(db.Pool).ListByUser(ctx, userID, 10, 0)
	if err != nil {
		t.Fatalf("failed to list limits: %v", err)
	}
	if len(limits) != 0 {
		t.Fatalf("expected no limits for refunded order, got %d", len(limits))
	}
}
