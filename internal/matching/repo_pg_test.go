package matching

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepositoryInsertNullsEmptyErrorFields(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPGRepository(db)
	attempt := &Attempt{
		ID:          "attempt-1",
		UserID:      "guest:u1",
		PlanFileID:  "plan-1",
		Token:       3,
		Description: "kitchen remodel",
		Questions:   "budget: 20k",
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		Status:      StatusQueued,
		CreatedAt:   time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO match_attempts").
		WithArgs(
			attempt.ID,
			attempt.UserID,
			attempt.PlanFileID,
			attempt.Token,
			attempt.Description,
			attempt.Questions,
			attempt.Provider,
			attempt.Model,
			string(StatusQueued),
			nil, // error_code
			nil, // error_message
			nil, // result
			sqlmock.AnyArg(),
			nil, // started_at
			nil, // completed_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Insert(context.Background(), attempt); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepositoryNextTokenUpserts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPGRepository(db)

	mock.ExpectQuery("INSERT INTO match_tokens").
		WithArgs("guest:u1", "plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"latest"}).AddRow(int64(4)))

	token, err := repo.NextToken(context.Background(), "guest:u1", "plan-1")
	if err != nil {
		t.Fatalf("NextToken: %v", err)
	}
	if token != 4 {
		t.Fatalf("token = %d, want 4", token)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepositoryUpdateMissingAttempt(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPGRepository(db)
	now := time.Now().UTC()
	attempt := &Attempt{
		ID:          "missing",
		UserID:      "guest:u1",
		Status:      StatusCompleted,
		StartedAt:   &now,
		CompletedAt: &now,
	}

	mock.ExpectExec("UPDATE match_attempts").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Update(context.Background(), attempt); err != ErrNotFound {
		t.Fatalf("Update error = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
