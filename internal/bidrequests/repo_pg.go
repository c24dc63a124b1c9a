package bidrequests

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

const requestColumns = `id, client_id, client_name, title, description, initial_questions, status,
	COALESCE(category, ''), COALESCE(location, ''), COALESCE(plan_overview, ''),
	posted_at, bidding_end_at, COALESCE(awarded_bid_id, ''), created_at`

func (r *PGRepository) Insert(ctx context.Context, b *BidRequest) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert bid request: %w", err)
	}
	defer tx.Rollback()

	const q = `
		INSERT INTO bid_requests
			(id, client_id, client_name, title, description, initial_questions, status,
			 category, location, plan_overview, posted_at, bidding_end_at, awarded_bid_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err = tx.ExecContext(ctx, q,
		b.ID, b.ClientID, b.ClientName, b.Title, b.Description, b.InitialQuestions,
		string(b.Status), nullIfEmpty(b.Category), nullIfEmpty(b.Location),
		nullIfEmpty(b.PlanOverview), b.PostedAt, b.BiddingEndAt,
		nullIfEmpty(b.AwardedBidID), b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert bid request: %w", err)
	}

	for _, planID := range b.PlanFileIDs {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO bid_request_plans (bid_request_id, plan_file_id) VALUES ($1, $2)`,
			b.ID, planID)
		if err != nil {
			return fmt.Errorf("link plan file: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit bid request: %w", err)
	}
	return nil
}

func (r *PGRepository) Update(ctx context.Context, b *BidRequest) error {
	const q = `
		UPDATE bid_requests
		SET status = $1, awarded_bid_id = $2, category = $3, location = $4, plan_overview = $5
		WHERE id = $6`
	res, err := r.db.ExecContext(ctx, q,
		string(b.Status), nullIfEmpty(b.AwardedBidID), nullIfEmpty(b.Category),
		nullIfEmpty(b.Location), nullIfEmpty(b.PlanOverview), b.ID)
	if err != nil {
		return fmt.Errorf("update bid request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update bid request rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*BidRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM bid_requests WHERE id = $1`
	row := r.db.QueryRowContext(ctx, q, id)
	b, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bid request: %w", err)
	}

	planIDs, err := r.planIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	b.PlanFileIDs = planIDs
	return b, nil
}

func (r *PGRepository) List(ctx context.Context) ([]*BidRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM bid_requests ORDER BY posted_at DESC, id`
	return r.queryRequests(ctx, q)
}

func (r *PGRepository) ListByClient(ctx context.Context, clientID string) ([]*BidRequest, error) {
	q := `SELECT ` + requestColumns + ` FROM bid_requests WHERE client_id = $1 ORDER BY posted_at DESC, id`
	return r.queryRequests(ctx, q, clientID)
}

func (r *PGRepository) queryRequests(ctx context.Context, q string, args ...any) ([]*BidRequest, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list bid requests: %w", err)
	}
	defer rows.Close()

	var out []*BidRequest
	for rows.Next() {
		b, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bid request: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bid requests: %w", err)
	}
	return out, nil
}

func (r *PGRepository) planIDs(ctx context.Context, bidRequestID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT plan_file_id FROM bid_request_plans WHERE bid_request_id = $1`, bidRequestID)
	if err != nil {
		return nil, fmt.Errorf("list request plans: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan request plan: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *PGRepository) InsertQuestion(ctx context.Context, q *Question) error {
	const stmt = `
		INSERT INTO clarifying_questions (id, bid_request_id, asked_by, asked_by_role, asker_name, body, resolved, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, stmt,
		q.ID, q.BidRequestID, q.AskedBy, q.AskedByRole, q.AskerName, q.Body, q.Resolved, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}
	return nil
}

func (r *PGRepository) GetQuestion(ctx context.Context, id string) (*Question, error) {
	const q = `
		SELECT id, bid_request_id, asked_by, asked_by_role, asker_name, body, resolved, created_at
		FROM clarifying_questions WHERE id = $1`
	var question Question
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&question.ID, &question.BidRequestID, &question.AskedBy, &question.AskedByRole,
		&question.AskerName, &question.Body, &question.Resolved, &question.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get question: %w", err)
	}
	return &question, nil
}

func (r *PGRepository) ListQuestions(ctx context.Context, bidRequestID string) ([]*Question, error) {
	const q = `
		SELECT id, bid_request_id, asked_by, asked_by_role, asker_name, body, resolved, created_at
		FROM clarifying_questions
		WHERE bid_request_id = $1
		ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, q, bidRequestID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []*Question
	for rows.Next() {
		var question Question
		err := rows.Scan(&question.ID, &question.BidRequestID, &question.AskedBy, &question.AskedByRole,
			&question.AskerName, &question.Body, &question.Resolved, &question.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, &question)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (r *PGRepository) InsertAnswer(ctx context.Context, a *Answer) error {
	const q = `
		INSERT INTO question_answers (id, question_id, answered_by, answered_role, answerer_name, body, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.db.ExecContext(ctx, q,
		a.ID, a.QuestionID, a.AnsweredBy, a.AnsweredRole, a.AnswererName, a.Body, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert answer: %w", err)
	}
	return nil
}

func (r *PGRepository) ListAnswersByRequest(ctx context.Context, bidRequestID string) ([]*Answer, error) {
	const q = `
		SELECT a.id, a.question_id, a.answered_by, a.answered_role, a.answerer_name, a.body, a.created_at
		FROM question_answers a
		JOIN clarifying_questions q ON q.id = a.question_id
		WHERE q.bid_request_id = $1
		ORDER BY a.created_at, a.id`
	rows, err := r.db.QueryContext(ctx, q, bidRequestID)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []*Answer
	for rows.Next() {
		var a Answer
		err := rows.Scan(&a.ID, &a.QuestionID, &a.AnsweredBy, &a.AnsweredRole, &a.AnswererName, &a.Body, &a.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return out, nil
}

func scanRequest(row interface{ Scan(dest ...any) error }) (*BidRequest, error) {
	var (
		b      BidRequest
		status string
	)
	err := row.Scan(&b.ID, &b.ClientID, &b.ClientName, &b.Title, &b.Description,
		&b.InitialQuestions, &status, &b.Category, &b.Location, &b.PlanOverview,
		&b.PostedAt, &b.BiddingEndAt, &b.AwardedBidID, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	b.Status = Status(status)
	return &b, nil
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
