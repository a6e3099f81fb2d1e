package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, user_id, reference, type, status, fiat_amount, usd_equivalent, effective_rate, token_symbol, tx_hash, metadata, created_at, updated_at`

// Create inserts a ledger transaction within a database transaction.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	pgxTx := pgxTxOf(tx)

	var metadata []byte
	if txn.Metadata != nil {
		var err error
		metadata, err = json.Marshal(txn.Metadata)
		if err != nil {
			return err
		}
	}

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO transactions (`+transactionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		txn.ID,
		txn.UserID,
		txn.Reference,
		string(txn.Type),
		string(txn.Status),
		decimalToNumeric(txn.FiatAmount),
		decimalToNumeric(txn.USDEquivalent),
		decimalToNumeric(txn.EffectiveRate),
		txn.TokenSymbol,
		txn.TxHash,
		metadata,
		timeToPgTimestamptz(txn.CreatedAt),
		timeToPgTimestamptz(txn.UpdatedAt),
	)

	return err
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE id = $1`, id)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return txn, nil
}

// GetByReference retrieves a transaction by its provider reference, inside
// the caller's database transaction. The unique index on reference plus this
// in-transaction lookup is what makes webhook replay a no-op.
func (r *TransactionRepository) GetByReference(ctx context.Context, tx usecase.Transaction, reference string) (*domain.Transaction, error) {
	pgxTx := pgxTxOf(tx)

	row := pgxTx.QueryRow(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE reference = $1`, reference)

	txn, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}

		return nil, err
	}

	return txn, nil
}

// ListByUser lists a user's transactions, newest first, with pagination.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, int32(limit), int32(offset))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []*domain.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txns = append(txns, txn)
	}

	return txns, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t                                    domain.Transaction
		txType, status                       string
		fiatAmount, usdEquivalent, effective pgtype.Numeric
		metadata                             []byte
		createdAt, updatedAt                 pgtype.Timestamptz
	)

	err := row.Scan(
		&t.ID,
		&t.UserID,
		&t.Reference,
		&txType,
		&status,
		&fiatAmount,
		&usdEquivalent,
		&effective,
		&t.TokenSymbol,
		&t.TxHash,
		&metadata,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Type = domain.TransactionType(txType)
	t.Status = domain.TransactionStatus(status)
	t.FiatAmount = numericToDecimal(fiatAmount)
	t.USDEquivalent = numericToDecimal(usdEquivalent)
	t.EffectiveRate = numericToDecimal(effective)
	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time

	if len(metadata) > 0 {
		_ = json.Unmarshal(metadata, &t.Metadata)
	}

	return &t, nil
}
