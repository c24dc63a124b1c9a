package matching

import (
	"context"
	"database/sql"
	"encoding/json"
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

const attemptColumns = `id, user_id, plan_file_id, token, description, questions,
	provider, model, status, COALESCE(error_code, ''),
	COALESCE(error_message, ''), result, created_at, started_at, completed_at`

func (r *PGRepository) Insert(ctx context.Context, attempt *Attempt) error {
	result, err := marshalResult(attempt.Result)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO match_attempts
			(id, user_id, plan_file_id, token, description, questions, provider, model,
			 status, error_code, error_message, result, created_at, started_at, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err = r.db.ExecContext(ctx, q,
		attempt.ID, attempt.UserID, attempt.PlanFileID, attempt.Token,
		attempt.Description, attempt.Questions, attempt.Provider,
		attempt.Model, string(attempt.Status), nullIfEmpty(attempt.ErrorCode),
		nullIfEmpty(attempt.ErrorMessage), result, attempt.CreatedAt,
		attempt.StartedAt, attempt.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert match attempt: %w", err)
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, attempt *Attempt) error {
	result, err := marshalResult(attempt.Result)
	if err != nil {
		return err
	}
	const q = `
		UPDATE match_attempts
		SET status = $1, error_code = $2, error_message = $3, result = $4,
			started_at = $5, completed_at = $6
		WHERE id = $7 AND user_id = $8`
	res, err := r.db.ExecContext(ctx, q,
		string(attempt.Status), nullIfEmpty(attempt.ErrorCode), nullIfEmpty(attempt.ErrorMessage),
		result, attempt.StartedAt, attempt.CompletedAt, attempt.ID, attempt.UserID)
	if err != nil {
		return fmt.Errorf("update match attempt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update match attempt rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, userID, id string) (*Attempt, error) {
	q := `SELECT ` + attemptColumns + ` FROM match_attempts WHERE id = $1 AND user_id = $2`
	row := r.db.QueryRowContext(ctx, q, id, userID)
	attempt, err := scanAttempt(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match attempt: %w", err)
	}
	return attempt, nil
}

func (r *PGRepository) ListByUser(ctx context.Context, userID string) ([]*Attempt, error) {
	q := `SELECT ` + attemptColumns + ` FROM match_attempts WHERE user_id = $1 ORDER BY created_at DESC, id`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list match attempts: %w", err)
	}
	defer rows.Close()

	var out []*Attempt
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match attempt: %w", err)
		}
		out = append(out, attempt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate match attempts: %w", err)
	}
	return out, nil
}

func (r *PGRepository) NextToken(ctx context.Context, userID, planFileID string) (int64, error) {
	const q = `
		INSERT INTO match_tokens (user_id, plan_file_id, latest)
		VALUES ($1, $2, 1)
		ON CONFLICT (user_id, plan_file_id)
		DO UPDATE SET latest = match_tokens.latest + 1
		RETURNING latest`
	var token int64
	if err := r.db.QueryRowContext(ctx, q, userID, planFileID).Scan(&token); err != nil {
		return 0, fmt.Errorf("next match token: %w", err)
	}
	return token, nil
}

func (r *PGRepository) LatestToken(ctx context.Context, userID, planFileID string) (int64, error) {
	const q = `SELECT latest FROM match_tokens WHERE user_id = $1 AND plan_file_id = $2`
	var token int64
	err := r.db.QueryRowContext(ctx, q, userID, planFileID).Scan(&token)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("latest match token: %w", err)
	}
	return token, nil
}

func scanAttempt(row interface{ Scan(dest ...any) error }) (*Attempt, error) {
	var (
		attempt     Attempt
		status      string
		result      []byte
		startedAt   sql.NullTime
		completedAt sql.NullTime
	)
	err := row.Scan(&attempt.ID, &attempt.UserID, &attempt.PlanFileID, &attempt.Token,
		&attempt.Description, &attempt.Questions, &attempt.Provider, &attempt.Model,
		&status, &attempt.ErrorCode, &attempt.ErrorMessage, &result,
		&attempt.CreatedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	attempt.Status = Status(status)
	if len(result) > 0 {
		if err := json.Unmarshal(result, &attempt.Result); err != nil {
			return nil, fmt.Errorf("decode attempt result: %w", err)
		}
	}
	if startedAt.Valid {
		t := startedAt.Time
		attempt.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		attempt.CompletedAt = &t
	}
	return &attempt, nil
}

func marshalResult(result []SuggestedContractor) (any, error) {
	if result == nil {
		return nil, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("encode attempt result: %w", err)
	}
	return data, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
