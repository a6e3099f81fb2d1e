package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ramphq/rampcore/internal/usecase"
)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager on top of a pgx pool. It
// hands out Tx wrappers so the use cases stay decoupled from pgx.
type TxManager struct {
	pool pgxPool
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool pgxPool) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

// Tx wraps a pgx transaction behind the usecase.Transaction interface.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls back the transaction.
func (t *Tx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}

// Unwrap exposes the underlying pgx.Tx for repositories in this package.
func (t *Tx) Unwrap() pgx.Tx {
	return t.tx
}

// pgxTxOf recovers the pgx transaction repositories run their statements on.
// Every transaction in this service originates from TxManager.Begin, so the
// assertion holds by construction.
func pgxTxOf(tx usecase.Transaction) pgx.Tx {
	return tx.(*Tx).Unwrap()
}
