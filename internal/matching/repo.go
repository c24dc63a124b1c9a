package matching

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a match attempt does not exist.
var ErrNotFound = errors.New("match attempt not found")

// Repository persists match attempts and their per-(user, plan) tokens.
type Repository interface {
	Insert(ctx context.Context, attempt *Attempt) error
	Update(ctx context.Context, attempt *Attempt) error
	GetByID(ctx context.Context, userID, id string) (*Attempt, error)
	ListByUser(ctx context.Context, userID string) ([]*Attempt, error)

	// NextToken issues the next attempt token for the (user, plan) pair.
	// Tokens increase monotonically; the attempt holding the highest token
	// is the only one allowed to resolve as completed.
	NextToken(ctx context.Context, userID, planFileID string) (int64, error)
	// LatestToken returns the highest token issued for the pair, 0 if none.
	LatestToken(ctx context.Context, userID, planFileID string) (int64, error)
}
