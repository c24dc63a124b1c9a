package plans

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a plan file does not exist or is removed.
var ErrNotFound = errors.New("plan file not found")

// Repository persists plan files.
type Repository interface {
	Insert(ctx context.Context, plan *PlanFile) error
	GetByID(ctx context.Context, userID, id string) (*PlanFile, error)
	ListByUser(ctx context.Context, userID string) ([]*PlanFile, error)
	MarkRemoved(ctx context.Context, userID, id string) error
}
