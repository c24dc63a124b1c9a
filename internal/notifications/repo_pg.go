package notifications

import (
	"context"
	"database/sql"
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

func (r *PGRepository) Insert(ctx context.Context, n *Notification) error {
	const q = `
		INSERT INTO notifications (id, user_id, title, message, kind, link, read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	link := sql.NullString{String: n.Link, Valid: n.Link != ""}
	_, err := r.db.ExecContext(ctx, q, n.ID, n.UserID, n.Title, n.Message, n.Kind, link, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

func (r *PGRepository) ListByUser(ctx context.Context, userID string) ([]*Notification, error) {
	const q = `
		SELECT id, user_id, title, message, kind, COALESCE(link, ''), read, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Kind, &n.Link, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notifications: %w", err)
	}
	return out, nil
}

func (r *PGRepository) MarkRead(ctx context.Context, userID, id string) error {
	const q = `UPDATE notifications SET read = TRUE WHERE id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, q, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
