package notifications

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository used in dev and tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	items map[string]*Notification
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{items: make(map[string]*Notification)}
}

func (r *MemoryRepository) Insert(ctx context.Context, n *Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *n
	r.items[n.ID] = &cp
	return nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string) ([]*Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Notification
	for _, n := range r.items {
		if n.UserID != userID {
			continue
		}
		cp := *n
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

func (r *MemoryRepository) MarkRead(ctx context.Context, userID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.items[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.Read = true
	return nil
}
