package usage

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Repository used in dev and tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	quotas map[string]Quota
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{quotas: make(map[string]Quota)}
}

func (r *MemoryRepository) Get(ctx context.Context, userID string) (Quota, bool, error) {
	if err := ctx.Err(); err != nil {
		return Quota{}, false, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.quotas[userID]
	return q, ok, nil
}

func (r *MemoryRepository) Put(ctx context.Context, q Quota) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quotas[q.UserID] = q
	return nil
}
