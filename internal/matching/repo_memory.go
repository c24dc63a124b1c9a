package matching

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository used in dev and tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	attempts map[string]*Attempt
	tokens   map[string]int64
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		attempts: make(map[string]*Attempt),
		tokens:   make(map[string]int64),
	}
}

func tokenKey(userID, planFileID string) string {
	return userID + "\x00" + planFileID
}

func (r *MemoryRepository) Insert(ctx context.Context, attempt *Attempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := cloneAttempt(attempt)
	r.attempts[attempt.ID] = cp
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, attempt *Attempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.attempts[attempt.ID]; !ok {
		return ErrNotFound
	}
	r.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, userID, id string) (*Attempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	attempt, ok := r.attempts[id]
	if !ok || attempt.UserID != userID {
		return nil, ErrNotFound
	}
	return cloneAttempt(attempt), nil
}

func (r *MemoryRepository) ListByUser(ctx context.Context, userID string) ([]*Attempt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Attempt
	for _, attempt := range r.attempts {
		if attempt.UserID != userID {
			continue
		}
		out = append(out, cloneAttempt(attempt))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) NextToken(ctx context.Context, userID, planFileID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := tokenKey(userID, planFileID)
	r.tokens[key]++
	return r.tokens[key], nil
}

func (r *MemoryRepository) LatestToken(ctx context.Context, userID, planFileID string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.tokens[tokenKey(userID, planFileID)], nil
}

func cloneAttempt(a *Attempt) *Attempt {
	cp := *a
	if a.Result != nil {
		cp.Result = make([]SuggestedContractor, len(a.Result))
		copy(cp.Result, a.Result)
	}
	if a.StartedAt != nil {
		t := *a.StartedAt
		cp.StartedAt = &t
	}
	if a.CompletedAt != nil {
		t := *a.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
