package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	postgresrepo "github.com/ramphq/rampcore/internal/adapter/repository/postgres"
	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
	"github.com/ramphq/rampcore/tests/testutil"
)

// Concurrent withdrawals against one user must serialize on the row locks:
// the limit can never be oversubscribed regardless of interleaving.
func TestConcurrentAllocations_NeverOversubscribe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	db := testutil.NewTestDB(t)
	defer db.Cleanup()
	db.TruncateAll(ctx)

	userID := db.CreateTestUser(ctx)
	limit := db.CreateTestLimit(ctx, userID, decimal.NewFromInt(100000), decimal.NewFromInt(1500), time.Now().UTC())

	uc := newAllocationUseCase(db)

	const workers = 10
	amount := decimal.NewFromInt(10000)

	var wg sync.WaitGroup
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, err := uc.AllocateForTransaction(ctx, usecase.AllocateInput{
				UserID:    userID,
				Reference: fmt.Sprintf("concurrent-%s-%d", limit.ID, i),
				Amount:    amount,
				Type:      domain.TransactionTypeWithdrawal,
			})
			errs <- err
		}(i)
	}

	wg.Wait()
	close(errs)

	succeeded := 0
	for err := range errs {
		if err == nil {
			succeeded++
		}
	}
	if succeeded != workers {
		t.Fatalf("expected all %d allocations to succeed, got %d", workers, succeeded)
	}

	got, err := postgresrepo.NewLimitRepository(db.Pool).GetByID(ctx, limit.ID)
	if err != nil {
		t.Fatalf("failed to reload limit: %v", err)
	}
	if !got.FiatRemaining.IsZero() {
		t.Fatalf("expected limit fully consumed, remaining %s", got.FiatRemaining)
	}

	txns, err := postgresrepo.NewTransactionRepository(db.Pool).ListByUser(ctx, userID, 50, 0)
	if err != nil {
		t.Fatalf("failed to list transactions: %v", err)
	}
	if len(txns) != workers {
		t.Fatalf("expected %d transactions, got %d", workers, len(txns))
	}
}
