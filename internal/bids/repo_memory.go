package bids

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository used in dev and tests.
type MemoryRepository struct {
	mu   sync.RWMutex
	bids map[string]*Bid
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{bids: make(map[string]*Bid)}
}

func (r *MemoryRepository) Insert(ctx context.Context, b *Bid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	r.bids[b.ID] = &cp
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, b *Bid) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bids[b.ID]; !ok {
		return ErrNotFound
	}
	cp := *b
	r.bids[b.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*Bid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bids[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *MemoryRepository) ListByRequest(ctx context.Context, bidRequestID string) ([]*Bid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Bid
	for _, b := range r.bids {
		if b.BidRequestID != bidRequestID {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sortBids(out)
	return out, nil
}

func (r *MemoryRepository) ListByContractor(ctx context.Context, contractorID string) ([]*Bid, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Bid
	for _, b := range r.bids {
		if b.ContractorID != contractorID {
			continue
		}
		cp := *b
		out = append(out, &cp)
	}
	sortBids(out)
	return out, nil
}

func sortBids(out []*Bid) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
}
