package users

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

const userColumns = `id, email, full_name, role, COALESCE(company_name, ''), COALESCE(picture_url, ''), created_at, updated_at`

func (r *PGRepository) Upsert(ctx context.Context, u *User) error {
	const q = `
		INSERT INTO users (id, email, full_name, role, company_name, picture_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id)
		DO UPDATE SET email = $2, full_name = $3, role = $4, company_name = $5, picture_url = $6, updated_at = $8`
	company := sql.NullString{String: u.CompanyName, Valid: u.CompanyName != ""}
	picture := sql.NullString{String: u.PictureURL, Valid: u.PictureURL != ""}
	_, err := r.db.ExecContext(ctx, q, u.ID, u.Email, u.FullName, u.Role, company, picture, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getOne(ctx, q, id)
}

func (r *PGRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return r.getOne(ctx, q, email)
}

func (r *PGRepository) getOne(ctx context.Context, q string, arg any) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&u.ID, &u.Email, &u.FullName, &u.Role, &u.CompanyName, &u.PictureURL, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
