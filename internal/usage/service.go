package usage

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrQuotaExceeded is returned when a user has no match attempts left.
var ErrQuotaExceeded = errors.New("match quota exceeded")

// Service manages match-attempt quotas.
type Service struct {
	repo Repository
	now  func() time.Time
}

// NewService wires the quota service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Get returns the user's quota, creating the default one on first use and
// rolling it over when the cycle has lapsed.
func (s *Service) Get(ctx context.Context, userID string) (Quota, error) {
	quota, found, err := s.repo.Get(ctx, userID)
	if err != nil {
		return Quota{}, err
	}
	now := s.now()
	if !found {
		quota = newQuota(userID, now)
		if err := s.repo.Put(ctx, quota); err != nil {
			return Quota{}, fmt.Errorf("init quota: %w", err)
		}
		return quota, nil
	}
	if !now.Before(quota.ResetsAt) {
		quota.Used = 0
		quota.ResetsAt = nextReset(now)
		if err := s.repo.Put(ctx, quota); err != nil {
			return Quota{}, fmt.Errorf("reset quota: %w", err)
		}
	}
	return quota, nil
}

// Consume spends one unit of the user's quota, or fails with ErrQuotaExceeded.
func (s *Service) Consume(ctx context.Context, userID string) error {
	quota, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if quota.Remaining() <= 0 {
		return ErrQuotaExceeded
	}
	quota.Used++
	return s.repo.Put(ctx, quota)
}
