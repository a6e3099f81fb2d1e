package usecase

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/domain"
)

// balancePageSize is the page size used when walking a user's limits for
// the aggregate. Kept under the repository's pagination clamp.
const balancePageSize = 500

// BalanceUseCase aggregates a user's remaining spendable balance in USD.
type BalanceUseCase struct {
	limitRepo LimitRepository
	users     UserDirectory
	logger    zerolog.Logger
}

// NewBalanceUseCase creates a new BalanceUseCase.
func NewBalanceUseCase(limitRepo LimitRepository, users UserDirectory, logger zerolog.Logger) *BalanceUseCase {
	return &BalanceUseCase{
		limitRepo: limitRepo,
		users:     users,
		logger:    logger,
	}
}

// AggregateBalance sums the remaining balances across a user's limits,
// converting each through its own funding-time rate. Limits with an unusable
// rate are excluded from the total, that is a data-quality issue to log, not
// a reason to fail the whole read.
func (uc *BalanceUseCase) AggregateBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	exists, err := uc.users.Exists(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	if !exists {
		return decimal.Zero, domain.ErrUserNotFound
	}

	total := decimal.Zero
	for offset := 0; ; offset += balancePageSize {
		limits, err := uc.limitRepo.ListByUser(ctx, userID, balancePageSize, offset)
		if err != nil {
			return decimal.Zero, err
		}

		for _, l := range limits {
			if !l.Drawable() {
				continue
			}

			if !l.ConvertsToUSD() {
				uc.logger.Warn().
					Str("limit_id", l.ID).
					Str("user_id", userID).
					Str("fx_rate", l.FxRate.String()).
					Msg("limit has unusable rate, excluded from balance aggregate")
				continue
			}

			usd, err := domain.SafeDiv(l.FiatRemaining, l.FxRate)
			if err != nil {
				return decimal.Zero, err
			}

			total = total.Add(usd)
		}

		// A short page means the walk is complete.
		if len(limits) < balancePageSize {
			break
		}
	}

	return total, nil
}

// ListLimits returns a user's limits, newest first.
func (uc *BalanceUseCase) ListLimits(ctx context.Context, userID string, limit, offset int) ([]*domain.SpendingLimit, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.limitRepo.ListByUser(ctx, userID, limit, offset)
}
