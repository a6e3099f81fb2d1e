package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramphq/rampcore/internal/domain"
	"github.com/ramphq/rampcore/internal/usecase"
)

// ChunkRepository implements usecase.ChunkRepository. Chunks are append-only
// audit rows, there are no update or delete paths.
type ChunkRepository struct {
	pool *pgxpool.Pool
}

// NewChunkRepository creates a new ChunkRepository.
func NewChunkRepository(pool *pgxpool.Pool) *ChunkRepository {
	return &ChunkRepository{pool: pool}
}

// Create inserts a chunk within a transaction.
func (r *ChunkRepository) Create(ctx context.Context, tx usecase.Transaction, chunk *domain.TransactionChunk) error {
	pgxTx := pgxTxOf(tx)

	_, err := pgxTx.Exec(ctx, `
		INSERT INTO transaction_chunks (id, transaction_id, spending_limit_id, fiat_used, usd_equivalent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		chunk.ID,
		chunk.TransactionID,
		chunk.SpendingLimitID,
		decimalToNumeric(chunk.FiatUsed),
		decimalToNumeric(chunk.USDEquivalent),
		timeToPgTimestamptz(chunk.CreatedAt),
	)

	return err
}

// ListByTransaction lists the chunks of a transaction in insertion order.
func (r *ChunkRepository) ListByTransaction(ctx context.Context, transactionID string) ([]*domain.TransactionChunk, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, transaction_id, spending_limit_id, fiat_used, usd_equivalent, created_at
		FROM transaction_chunks
		WHERE transaction_id = $1
		ORDER BY created_at ASC, id ASC`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*domain.TransactionChunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	return chunks, rows.Err()
}

func scanChunk(row pgx.Row) (*domain.TransactionChunk, error) {
	var (
		c                       domain.TransactionChunk
		fiatUsed, usdEquivalent pgtype.Numeric
		createdAt               pgtype.Timestamptz
	)

	err := row.Scan(&c.ID, &c.TransactionID, &c.SpendingLimitID, &fiatUsed, &usdEquivalent, &createdAt)
	if err != nil {
		return nil, err
	}

	c.FiatUsed = numericToDecimal(fiatUsed)
	c.USDEquivalent = numericToDecimal(usdEquivalent)
	c.CreatedAt = createdAt.Time

	return &c, nil
}
