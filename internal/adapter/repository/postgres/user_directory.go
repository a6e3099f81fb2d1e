package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// UserDirectory resolves user existence against the local users projection.
// User records are provisioned by the identity service; this service only
// reads them.
type UserDirectory struct {
	pool *pgxpool.Pool
}

// NewUserDirectory creates a new UserDirectory.
func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

// Exists reports whether the user is known and active.
func (d *UserDirectory) Exists(ctx context.Context, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND active)`

	var exists bool
	if err := d.pool.QueryRow(ctx, query, userID).Scan(&exists); err != nil {
		return false, err
	}

	return exists, nil
}
