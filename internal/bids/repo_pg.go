package bids

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

const bidColumns = `id, bid_request_id, contractor_id, contractor_name, amount_cents,
	timeline_estimate, COALESCE(notes, ''), status, submitted_at, updated_at`

func (r *PGRepository) Insert(ctx context.Context, b *Bid) error {
	const q = `
		INSERT INTO bids
			(id, bid_request_id, contractor_id, contractor_name, amount_cents,
			 timeline_estimate, notes, status, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	notes := sql.NullString{String: b.Notes, Valid: b.Notes != ""}
	_, err := r.db.ExecContext(ctx, q,
		b.ID, b.BidRequestID, b.ContractorID, b.ContractorName, b.AmountCents,
		b.TimelineEstimate, notes, string(b.Status), b.SubmittedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, b *Bid) error {
	const q = `UPDATE bids SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, q, string(b.Status), b.UpdatedAt, b.ID)
	if err != nil {
		return fmt.Errorf("update bid: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update bid rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*Bid, error) {
	q := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	row := r.db.QueryRowContext(ctx, q, id)
	b, err := scanBid(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bid: %w", err)
	}
	return b, nil
}

func (r *PGRepository) ListByRequest(ctx context.Context, bidRequestID string) ([]*Bid, error) {
	q := `SELECT ` + bidColumns + ` FROM bids WHERE bid_request_id = $1 ORDER BY submitted_at, id`
	return r.queryBids(ctx, q, bidRequestID)
}

func (r *PGRepository) ListByContractor(ctx context.Context, contractorID string) ([]*Bid, error) {
	q := `SELECT ` + bidColumns + ` FROM bids WHERE contractor_id = $1 ORDER BY submitted_at, id`
	return r.queryBids(ctx, q, contractorID)
}

func (r *PGRepository) queryBids(ctx context.Context, q string, args ...any) ([]*Bid, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	defer rows.Close()

	var out []*Bid
	for rows.Next() {
		b, err := scanBid(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bids: %w", err)
	}
	return out, nil
}

func scanBid(row interface{ Scan(dest ...any) error }) (*Bid, error) {
	var b Bid
	var status string
	err := row.Scan(&b.ID, &b.BidRequestID, &b.ContractorID, &b.ContractorName,
		&b.AmountCents, &b.TimelineEstimate, &b.Notes, &status, &b.SubmittedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = Status(status)
	return &b, nil
}
