package notifications

import (
	"context"
	"time"

	"github.com/google/uuid"

	"planmatch-backend/internal/shared/telemetry"
)

// Service creates and serves notifications.
type Service struct {
	repo Repository
}

// NewService wires the notification service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Push records a notification for the user. Delivery failures are logged and
// swallowed: a missed notification never fails the action that caused it.
func (s *Service) Push(ctx context.Context, userID, title, message, kind, link string) {
	n := &Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		Link:      link,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		telemetry.Error("notification insert failed", map[string]any{
			"user_id": userID,
			"kind":    kind,
			"error":   err.Error(),
		})
	}
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*Notification, error) {
	return s.repo.ListByUser(ctx, userID)
}

// MarkRead marks one notification as read.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	return s.repo.MarkRead(ctx, userID, id)
}
