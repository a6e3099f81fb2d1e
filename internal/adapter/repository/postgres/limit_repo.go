package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
)

// LimitRepository implements usecase.LimitRepository.
type LimitRepository struct {
	pool *pgxpool.Pool
}

// NewLimitRepository creates a new LimitRepository.
func NewLimitRepository(pool *pgxpool.Pool) *LimitRepository {
	return &LimitRepository{pool: pool}
}

const limitColumns = `id, user_id, order_id, usd_amount, fx_rate, fiat_amount, fiat_remaining, chain_type, token_symbol, network, created_at, updated_at`

// Create inserts a spending limit within a transaction.
func (r *LimitRepository) Create(ctx context.Context, tx usecase.Transaction, limit *domain.SpendingLimit) error {
	pgxTx := pgxTxOf(tx)

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO spending_limits (`+limitColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		limit.ID,
		limit.UserID,
		limit.OrderID,
		decimalToNumeric(limit.USDAmount),
		decimalToNumeric(limit.FxRate),
		decimalToNumeric(limit.FiatAmount),
		decimalToNumeric(limit.FiatRemaining),
		limit.ChainType,
		limit.TokenSymbol,
		limit.Network,
		timeToPgTimestamptz(limit.CreatedAt),
		timeToPgTimestamptz(limit.UpdatedAt),
	)

	return err
}

// GetByID retrieves a spending limit by ID.
func (r *LimitRepository) GetByID(ctx context.Context, id string) (*domain.SpendingLimit, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+limitColumns+`
		FROM spending_limits
		WHERE id = $1`, id)

	limit, err := scanLimit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLimitNotFound
		}

		return nil, err
	}

	return limit, nil
}

// GetByOrderID retrieves the limit funded by a settlement order, inside the
// same transaction that would create it. This is the finalization
// idempotency check.
func (r *LimitRepository) GetByOrderID(ctx context.Context, tx usecase.Transaction, orderID string) (*domain.SpendingLimit, error) {
	pgxTx := pgxTxOf(tx)

	row := pgxTx.QueryRow(ctx, `
		SELECT `+limitColumns+`
		FROM spending_limits
		WHERE order_id = $1`, orderID)

	limit, err := scanLimit(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLimitNotFound
		}

		return nil, err
	}

	return limit, nil
}

// ListByUser lists a user's limits, oldest first, with pagination.
func (r *LimitRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.SpendingLimit, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+limitColumns+`
		FROM spending_limits
		WHERE user_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3`, userID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLimits(rows)
}

// ListByUserForUpdate locks and returns all of a user's limits, oldest
// first. The lock ordering is deterministic, concurrent allocations for the
// same user serialize instead of deadlocking.
func (r *LimitRepository) ListByUserForUpdate(ctx context.Context, tx usecase.Transaction, userID string) ([]*domain.SpendingLimit, error) {
	pgxTx := pgxTxOf(tx)

	rows, err := pgxTx.Query(ctx, `
		SELECT `+limitColumns+`
		FROM spending_limits
		WHERE user_id = $1
		ORDER BY created_at ASC
		FOR UPDATE`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLimits(rows)
}

// UpdateRemaining updates the remaining balance of a limit.
func (r *LimitRepository) UpdateRemaining(ctx context.Context, tx usecase.Transaction, id string, remaining decimal.Decimal, updatedAt time.Time) error {
	pgxTx := pgxTxOf(tx)

	_, err := pgxTx.Exec(ctx, `
		UPDATE spending_limits
		SET fiat_remaining = $2, updated_at = $3
		WHERE id = $1`,
		id,
		decimalToNumeric(remaining),
		timeToPgTimestamptz(updatedAt),
	)

	return err
}

func scanLimit(row pgx.Row) (*domain.SpendingLimit, error) {
	var (
		l                                            domain.SpendingLimit
		usdAmount, fxRate, fiatAmount, fiatRemaining pgtype.Numeric
		createdAt, updatedAt                         pgtype.Timestamptz
	)

	err := row.Scan(
		&l.ID,
		&l.UserID,
		&l.OrderID,
		&usdAmount,
		&fxRate,
		&fiatAmount,
		&fiatRemaining,
		&l.ChainType,
		&l.TokenSymbol,
		&l.Network,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.USDAmount = numericToDecimal(usdAmount)
	l.FxRate = numericToDecimal(fxRate)
	l.FiatAmount = numericToDecimal(fiatAmount)
	l.FiatRemaining = numericToDecimal(fiatRemaining)
	l.CreatedAt = createdAt.Time
	l.UpdatedAt = updatedAt.Time

	return &l, nil
}

func scanLimits(rows pgx.Rows) ([]*domain.SpendingLimit, error) {
	var limits []*domain.SpendingLimit
	for rows.Next() {
		limit, err := scanLimit(rows)
		if err != nil {
			return nil, err
		}
		limits = append(limits, limit)
	}

	return limits, rows.Err()
}

// Type conversion helpers.
func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
