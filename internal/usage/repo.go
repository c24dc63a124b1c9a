package usage

import "context"

// Repository persists per-user match quotas.
type Repository interface {
	Get(ctx context.Context, userID string) (Quota, bool, error)
	Put(ctx context.Context, q Quota) error
}
