package bidrequests

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is an in-memory Repository used in dev and tests.
type MemoryRepository struct {
	mu        sync.RWMutex
	requests  map[string]*BidRequest
	questions map[string]*Question
	answers   map[string]*Answer
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		requests:  make(map[string]*BidRequest),
		questions: make(map[string]*Question),
		answers:   make(map[string]*Answer),
	}
}

func cloneRequest(b *BidRequest) *BidRequest {
	cp := *b
	if b.PlanFileIDs != nil {
		cp.PlanFileIDs = append([]string(nil), b.PlanFileIDs...)
	}
	return &cp
}

func (r *MemoryRepository) Insert(ctx context.Context, b *BidRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[b.ID] = cloneRequest(b)
	return nil
}

func (r *MemoryRepository) Update(ctx context.Context, b *BidRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[b.ID]; !ok {
		return ErrNotFound
	}
	r.requests[b.ID] = cloneRequest(b)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*BidRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.requests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRequest(b), nil
}

func (r *MemoryRepository) List(ctx context.Context) ([]*BidRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*BidRequest, 0, len(r.requests))
	for _, b := range r.requests {
		out = append(out, cloneRequest(b))
	}
	sortRequests(out)
	return out, nil
}

func (r *MemoryRepository) ListByClient(ctx context.Context, clientID string) ([]*BidRequest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*BidRequest
	for _, b := range r.requests {
		if b.ClientID != clientID {
			continue
		}
		out = append(out, cloneRequest(b))
	}
	sortRequests(out)
	return out, nil
}

func sortRequests(out []*BidRequest) {
	sort.Slice(out, func(i, j int) bool {
		if out[i].PostedAt.Equal(out[j].PostedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].PostedAt.After(out[j].PostedAt)
	})
}

func (r *MemoryRepository) InsertQuestion(ctx context.Context, q *Question) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.requests[q.BidRequestID]; !ok {
		return ErrNotFound
	}
	cp := *q
	cp.Answers = nil
	r.questions[q.ID] = &cp
	return nil
}

func (r *MemoryRepository) GetQuestion(ctx context.Context, id string) (*Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, ErrQuestionNotFound
	}
	cp := *q
	return &cp, nil
}

func (r *MemoryRepository) ListQuestions(ctx context.Context, bidRequestID string) ([]*Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Question
	for _, q := range r.questions {
		if q.BidRequestID != bidRequestID {
			continue
		}
		cp := *q
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepository) InsertAnswer(ctx context.Context, a *Answer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[a.QuestionID]; !ok {
		return ErrQuestionNotFound
	}
	cp := *a
	r.answers[a.ID] = &cp
	return nil
}

func (r *MemoryRepository) ListAnswersByRequest(ctx context.Context, bidRequestID string) ([]*Answer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Answer
	for _, a := range r.answers {
		q, ok := r.questions[a.QuestionID]
		if !ok || q.BidRequestID != bidRequestID {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
