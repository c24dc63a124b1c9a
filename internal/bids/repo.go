package bids

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a bid does not exist.
var ErrNotFound = errors.New("bid not found")

// Repository persists bids.
type Repository interface {
	Insert(ctx context.Context, b *Bid) error
	Update(ctx context.Context, b *Bid) error
	GetByID(ctx context.Context, id string) (*Bid, error)
	ListByRequest(ctx context.Context, bidRequestID string) ([]*Bid, error)
	ListByContractor(ctx context.Context, contractorID string) ([]*Bid, error)
}
