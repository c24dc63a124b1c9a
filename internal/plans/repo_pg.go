package plans

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

func (r *PGRepository) Insert(ctx context.Context, plan *PlanFile) error {
	const q = `
		INSERT INTO plan_files (id, user_id, file_name, mime_type, size_bytes, storage_key, overview, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, q,
		plan.ID, plan.UserID, plan.FileName, plan.MimeType, plan.SizeBytes,
		plan.StorageKey, nullString(plan.Overview), plan.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert plan file: %w", err)
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, userID, id string) (*PlanFile, error) {
	const q = `
		SELECT id, user_id, file_name, mime_type, size_bytes, storage_key, COALESCE(overview, ''), created_at, removed_at
		FROM plan_files
		WHERE id = $1 AND user_id = $2 AND removed_at IS NULL`
	row := r.db.QueryRowContext(ctx, q, id, userID)
	plan, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan file: %w", err)
	}
	return plan, nil
}

func (r *PGRepository) ListByUser(ctx context.Context, userID string) ([]*PlanFile, error) {
	const q = `
		SELECT id, user_id, file_name, mime_type, size_bytes, storage_key, COALESCE(overview, ''), created_at, removed_at
		FROM plan_files
		WHERE user_id = $1 AND removed_at IS NULL
		ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list plan files: %w", err)
	}
	defer rows.Close()

	var out []*PlanFile
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan plan file: %w", err)
		}
		out = append(out, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plan files: %w", err)
	}
	return out, nil
}

func (r *PGRepository) MarkRemoved(ctx context.Context, userID, id string) error {
	const q = `
		UPDATE plan_files SET removed_at = NOW()
		WHERE id = $1 AND user_id = $2 AND removed_at IS NULL`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("remove plan file: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove plan file rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (*PlanFile, error) {
	var plan PlanFile
	var removedAt sql.NullTime
	err := row.Scan(&plan.ID, &plan.UserID, &plan.FileName, &plan.MimeType, &plan.SizeBytes,
		&plan.StorageKey, &plan.Overview, &plan.CreatedAt, &removedAt)
	if err != nil {
		return nil, err
	}
	if removedAt.Valid {
		t := removedAt.Time
		plan.RemovedAt = &t
	}
	return &plan, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
