package notifications

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a notification does not exist.
var ErrNotFound = errors.New("notification not found")

// Repository persists notifications.
type Repository interface {
	Insert(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID string) ([]*Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}
