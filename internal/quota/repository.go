package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

// Repository runs the ledger's aggregate queries.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a quota repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SumFileSizes aggregates declared file sizes for the user, optionally
// restricted to a MIME-type prefix.
func (r *Repository) SumFileSizes(ctx context.Context, userID uuid.UUID, mimePrefix string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var total int64
	var err error
	if mimePrefix == "" {
		err = r.pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(size), 0) FROM files WHERE user_id = $1;`,
			userID).Scan(&total)
	} else {
		err = r.pool.QueryRow(ctx,
			`SELECT COALESCE(SUM(size), 0) FROM files WHERE user_id = $1 AND mime_type LIKE $2 || '%';`,
			userID, mimePrefix).Scan(&total)
	}
	if err != nil {
		return 0, fmt.Errorf("sum file sizes: %w", err)
	}
	return total, nil
}

// UserQuota fetches the user's storage quota in bytes.
func (r *Repository) UserQuota(ctx context.Context, userID uuid.UUID) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	var quota int64
	err := r.pool.QueryRow(ctx,
		`SELECT storage_quota_bytes FROM users WHERE id = $1;`,
		userID).Scan(&quota)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("user quota: %w", err)
	}
	return quota, nil
}
