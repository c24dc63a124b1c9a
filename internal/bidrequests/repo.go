package bidrequests

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a bid request does not exist.
	ErrNotFound = errors.New("bid request not found")
	// ErrQuestionNotFound is returned when a clarifying question does not exist.
	ErrQuestionNotFound = errors.New("question not found")
)

// Repository persists bid requests and their question threads.
type Repository interface {
	Insert(ctx context.Context, b *BidRequest) error
	Update(ctx context.Context, b *BidRequest) error
	GetByID(ctx context.Context, id string) (*BidRequest, error)
	List(ctx context.Context) ([]*BidRequest, error)
	ListByClient(ctx context.Context, clientID string) ([]*BidRequest, error)

	InsertQuestion(ctx context.Context, q *Question) error
	GetQuestion(ctx context.Context, id string) (*Question, error)
	ListQuestions(ctx context.Context, bidRequestID string) ([]*Question, error)
	InsertAnswer(ctx context.Context, a *Answer) error
	ListAnswersByRequest(ctx context.Context, bidRequestID string) ([]*Answer, error)
}
