package plans

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepository is an in-memory Repository used in dev and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	plans map[string]*PlanFile
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{plans: make(map[string]*PlanFile)}
}

func (r *MemoryRepository) Insert(ctx context.Context, plan *PlanFile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *plan
	r.plans[plan.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, userID, id string) (*PlanFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	plan, ok := r.plans[id]
	if !ok || plan.UserID != userID || plan.RemovedAt != nil {
		return nil, ErrNotFound
	}
	cp := *plan
	return &cp, nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string) ([]*PlanFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*PlanFile
	for _, plan := range r.plans {
		if plan.UserID != userID || plan.RemovedAt != nil {
			continue
		}
		cp := *plan
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) MarkRemoved(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	plan, ok := r.plans[id]
	if !ok || plan.UserID != userID || plan.RemovedAt != nil {
		return ErrNotFound
	}
	now := time.Now().UTC()
	plan.RemovedAt = &now
	return nil
}
