package bidrequests

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func requestRows(b *BidRequest) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "client_id", "client_name", "title", "description", "initial_questions",
		"status", "category", "location", "plan_overview",
		"posted_at", "bidding_end_at", "awarded_bid_id", "created_at",
	}).AddRow(
		b.ID, b.ClientID, b.ClientName, b.Title, b.Description, b.InitialQuestions,
		string(b.Status), b.Category, b.Location, b.PlanOverview,
		b.PostedAt, b.BiddingEndAt, b.AwardedBidID, b.CreatedAt,
	)
}

func TestPGRepositoryGetByIDScansAllColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPGRepository(db)
	now := time.Now().UTC().Truncate(time.Second)
	want := &BidRequest{
		ID:               "req-1",
		ClientID:         "client-1",
		ClientName:       "Pat",
		Title:            "Kitchen Remodel",
		Description:      "Full remodel",
		InitialQuestions: "budget?",
		Status:           StatusOpen,
		Category:         CategoryRenovation,
		Location:         "Springfield",
		PlanOverview:     "two-story plan",
		PostedAt:         now,
		BiddingEndAt:     now.Add(7 * 24 * time.Hour),
		CreatedAt:        now,
	}

	mock.ExpectQuery("SELECT (.+) FROM bid_requests WHERE id").
		WithArgs(want.ID).
		WillReturnRows(requestRows(want))
	mock.ExpectQuery("SELECT plan_file_id FROM bid_request_plans").
		WithArgs(want.ID).
		WillReturnRows(sqlmock.NewRows([]string{"plan_file_id"}).AddRow("plan-1"))

	got, err := repo.GetByID(context.Background(), want.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Title != want.Title || got.Status != StatusOpen || got.Category != CategoryRenovation {
		t.Fatalf("scanned request = %+v", got)
	}
	if !got.BiddingEndAt.Equal(want.BiddingEndAt) {
		t.Fatalf("bidding_end_at = %v, want %v", got.BiddingEndAt, want.BiddingEndAt)
	}
	if len(got.PlanFileIDs) != 1 || got.PlanFileIDs[0] != "plan-1" {
		t.Fatalf("plan file ids = %v", got.PlanFileIDs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepositoryGetByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPGRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM bid_requests WHERE id").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if _, err := repo.GetByID(context.Background(), "missing"); err != ErrNotFound {
		t.Fatalf("GetByID error = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepositoryListScansAllRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPGRepository(db)
	now := time.Now().UTC().Truncate(time.Second)

	rows := sqlmock.NewRows([]string{
		"id", "client_id", "client_name", "title", "description", "initial_questions",
		"status", "category", "location", "plan_overview",
		"posted_at", "bidding_end_at", "awarded_bid_id", "created_at",
	}).
		AddRow("req-1", "client-1", "Pat", "A", "d", "", "open", "", "", "", now, now.Add(time.Hour), "", now).
		AddRow("req-2", "client-2", "Sam", "B", "d", "", "awarded", "", "", "", now, now.Add(time.Hour), "bid-9", now)

	mock.ExpectQuery("SELECT (.+) FROM bid_requests ORDER BY posted_at").
		WillReturnRows(rows)

	out, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[1].Status != StatusAwarded || out[1].AwardedBidID != "bid-9" {
		t.Fatalf("second row = %+v", out[1])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
