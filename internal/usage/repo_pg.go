package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepository is a Postgres-backed Repository.
type PGRepository struct {
	db *sql.DB
}

// NewPGRepository wraps the shared database handle.
func NewPGRepository(db *sql.DB) *PGRepository {
	return &PGRepository{db: db}
}

func (r *PGRepository) Get(ctx context.Context, userID string) (Quota, bool, error) {
	const q = `SELECT user_id, plan, max_units, used, resets_at FROM match_quotas WHERE user_id = $1`
	var quota Quota
	err := r.db.QueryRowContext(ctx, q, userID).Scan(
		&quota.UserID, &quota.Plan, &quota.MaxUnits, &quota.Used, &quota.ResetsAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Quota{}, false, nil
	}
	if err != nil {
		return Quota{}, false, fmt.Errorf("get quota: %w", err)
	}
	return quota, true, nil
}

func (r *PGRepository) Put(ctx context.Context, quota Quota) error {
	const q = `
		INSERT INTO match_quotas (user_id, plan, max_units, used, resets_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id)
		DO UPDATE SET plan = $2, max_units = $3, used = $4, resets_at = $5`
	_, err := r.db.ExecContext(ctx, q, quota.UserID, quota.Plan, quota.MaxUnits, quota.Used, quota.ResetsAt)
	if err != nil {
		return fmt.Errorf("put quota: %w", err)
	}
	return nil
}
