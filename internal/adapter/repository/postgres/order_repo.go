package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/ramphq/rampcore/internal/domain"
)

// OrderRepository implements usecase.OrderRepository.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository creates a new OrderRepository.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

const orderColumns = `id, order_id, user_id, usd_amount, fx_rate, token, network, status, tx_hash, settlements, created_at, updated_at`

// settlementRow is the JSONB shape of one partial settlement.
type settlementRow struct {
	Amount string `json:"amount"`
	Rate   string `json:"rate"`
}

// Create inserts an order projection.
func (r *OrderRepository) Create(ctx context.Context, order *domain.OfframpOrder) error {
	settlements, err := marshalSettlements(order.Settlements)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO offramp_orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		order.ID,
		order.OrderID,
		order.UserID,
		decimalToNumeric(order.USDAmount),
		decimalToNumeric(order.FxRate),
		order.Token,
		order.Network,
		string(order.Status),
		order.TxHash,
		settlements,
		timeToPgTimestamptz(order.CreatedAt),
		timeToPgTimestamptz(order.UpdatedAt),
	)

	return err
}

// GetByOrderID retrieves an order by its provider order ID.
func (r *OrderRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.OfframpOrder, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+orderColumns+`
		FROM offramp_orders
		WHERE order_id = $1`, orderID)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}

		return nil, err
	}

	return order, nil
}

// ListByUser lists a user's orders, newest first, with pagination.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.OfframpOrder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM offramp_orders
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.OfframpOrder
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	return orders, rows.Err()
}

// Update persists an order projection. The status guard is repeated at the
// SQL level so a stale writer cannot regress a terminal row even if it read
// before another writer finished.
func (r *OrderRepository) Update(ctx context.Context, order *domain.OfframpOrder) error {
	settlements, err := marshalSettlements(order.Settlements)
	if err != nil {
		return err
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE offramp_orders
		SET usd_amount = $2, fx_rate = $3, status = $4, tx_hash = $5, settlements = $6, updated_at = $7
		WHERE order_id = $1
		  AND status NOT IN ('validated', 'settled', 'refunded', 'failed')`,
		order.OrderID,
		decimalToNumeric(order.USDAmount),
		decimalToNumeric(order.FxRate),
		string(order.Status),
		order.TxHash,
		settlements,
		timeToPgTimestamptz(order.UpdatedAt),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		// Either the row is gone or it already reached a terminal state.
		existing, err := r.GetByOrderID(ctx, order.OrderID)
		if err != nil {
			return err
		}
		if existing.Status == order.Status {
			return nil
		}

		return fmt.Errorf("%w: %s is already %s", domain.ErrInvalidTransition, order.OrderID, existing.Status)
	}

	return nil
}

func scanOrder(row pgx.Row) (*domain.OfframpOrder, error) {
	var (
		o                 domain.OfframpOrder
		usdAmount, fxRate pgtype.Numeric
		status            string
		settlements       []byte
		createdAt         pgtype.Timestamptz
		updatedAt         pgtype.Timestamptz
	)

	err := row.Scan(
		&o.ID,
		&o.OrderID,
		&o.UserID,
		&usdAmount,
		&fxRate,
		&o.Token,
		&o.Network,
		&status,
		&o.TxHash,
		&settlements,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	o.USDAmount = numericToDecimal(usdAmount)
	o.FxRate = numericToDecimal(fxRate)
	o.Status = domain.OrderStatus(status)
	o.CreatedAt = createdAt.Time
	o.UpdatedAt = updatedAt.Time

	if len(settlements) > 0 {
		parsed, err := unmarshalSettlements(settlements)
		if err != nil {
			return nil, err
		}
		o.Settlements = parsed
	}

	return &o, nil
}

func marshalSettlements(settlements []domain.Settlement) ([]byte, error) {
	if len(settlements) == 0 {
		return nil, nil
	}

	rows := make([]settlementRow, 0, len(settlements))
	for _, s := range settlements {
		rows = append(rows, settlementRow{
			Amount: s.Amount.String(),
			Rate:   s.Rate.String(),
		})
	}

	return json.Marshal(rows)
}

func unmarshalSettlements(data []byte) ([]domain.Settlement, error) {
	var rows []settlementRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}

	settlements := make([]domain.Settlement, 0, len(rows))
	for _, row := range rows {
		amount, err := decimal.NewFromString(row.Amount)
		if err != nil {
			return nil, err
		}
		rate, err := decimal.NewFromString(row.Rate)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, domain.Settlement{Amount: amount, Rate: rate})
	}

	return settlements, nil
}
