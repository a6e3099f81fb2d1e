package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
	"github.com/ramphq/rampcore/internal/usecase/mocks"
)

func TestAggregateBalance_SumsAcrossRates(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	limits := mocks.NewMockLimitRepository()

	// 150,000 NGN at 1500 (= 100 USD) and 80,000 NGN at 1600 (= 50 USD).
	a := newTestLimit("lim-a", "user-1", 150000, 1500, now)
	b := newTestLimit("lim-b", "user-1", 80000, 1600, now)
	_ = limits.Create(ctx, nil, a)
	_ = limits.Create(ctx, nil, b)

	uc := usecase.NewBalanceUseCase(limits, mocks.NewMockUserDirectory("user-1"), zerolog.Nop())

	total, err := uc.AggregateBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("AggregateBalance() error = %v", err)
	}

	if !total.Equal(decimal.NewFromInt(150)) {
		t.Errorf("total = %s, want 150", total)
	}
}

func TestAggregateBalance_ExcludesUnusableRates(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	limits := mocks.NewMockLimitRepository()

	good := newTestLimit("lim-good", "user-1", 15000, 1500, now)
	broken := newTestLimit("lim-broken", "user-1", 99999, 1500, now)
	broken.FxRate = decimal.Zero
	_ = limits.Create(ctx, nil, good)
	_ = limits.Create(ctx, nil, broken)

	uc := usecase.NewBalanceUseCase(limits, mocks.NewMockUserDirectory("user-1"), zerolog.Nop())

	total, err := uc.AggregateBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("AggregateBalance() error = %v", err)
	}

	// The zero-rate limit is skipped rather than failing the read.
	if !total.Equal(decimal.NewFromInt(10)) {
		t.Errorf("total = %s, want 10", total)
	}
}

func TestAggregateBalance_SkipsExhaustedLimits(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()
	limits := mocks.NewMockLimitRepository()

	spent := newTestLimit("lim-spent", "user-1", 15000, 1500, now)
	spent.FiatRemaining = decimal.Zero
	_ = limits.Create(ctx, nil, spent)

	uc := usecase.NewBalanceUseCase(limits, mocks.NewMockUserDirectory("user-1"), zerolog.Nop())

	total, err := uc.AggregateBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("AggregateBalance() error = %v", err)
	}
	if !total.IsZero() {
		t.Errorf("total = %s, want 0", total)
	}
}

func TestAggregateBalance_WalksAllPages(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC()

	// 503 limits worth 1 USD each, more than one repository page. The
	// aggregate must not stop at the first page.
	var all []*domain.SpendingLimit
	for i := 0; i < 503; i++ {
		all = append(all, newTestLimit(fmt.Sprintf("lim-%03d", i), "user-1", 1500, 1500, now))
	}

	limits := mocks.NewMockLimitRepository()
	limits.ListByUserFunc = func(ctx context.Context, userID string, limit, offset int) ([]*domain.SpendingLimit, error) {
		if offset >= len(all) {
			return nil, nil
		}
		end := offset + limit
		if end > len(all) {
			end = len(all)
		}
		return all[offset:end], nil
	}

	uc := usecase.NewBalanceUseCase(limits, mocks.NewMockUserDirectory("user-1"), zerolog.Nop())

	total, err := uc.AggregateBalance(ctx, "user-1")
	if err != nil {
		t.Fatalf("AggregateBalance() error = %v", err)
	}
	if !total.Equal(decimal.NewFromInt(503)) {
		t.Errorf("total = %s, want 503", total)
	}
}

func TestAggregateBalance_UnknownUser(t *testing.T) {
	uc := usecase.NewBalanceUseCase(mocks.NewMockLimitRepository(), mocks.NewMockUserDirectory(), zerolog.Nop())

	_, err := uc.AggregateBalance(context.Background(), "nobody")
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("error = %v, want ErrUserNotFound", err)
	}
}
