package bids

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"planmatch-backend/internal/bidrequests"
	"planmatch-backend/internal/notifications"
	"planmatch-backend/internal/shared/metrics"
	"planmatch-backend/internal/shared/server/middleware"
	"planmatch-backend/internal/shared/telemetry"
)

var (
	// ErrInvalidAmount is returned for non-positive bid amounts.
	ErrInvalidAmount = errors.New("bid amount must be positive")
	// ErrMissingTimeline is returned when the timeline estimate is empty.
	ErrMissingTimeline = errors.New("a timeline estimate is required")
	// ErrBiddingClosed is returned when the request no longer accepts bids.
	ErrBiddingClosed = errors.New("bidding is closed for this request")
	// ErrOwnRequest is returned when a contractor bids on their own request.
	ErrOwnRequest = errors.New("cannot bid on your own request")
	// ErrAlreadyBid is returned when the contractor already has an active bid.
	ErrAlreadyBid = errors.New("an active bid already exists for this request")
	// ErrNotYours is returned when acting on someone else's bid.
	ErrNotYours = errors.New("bid belongs to another contractor")
	// ErrNotWithdrawable is returned when a bid is past withdrawing.
	ErrNotWithdrawable = errors.New("only submitted bids can be withdrawn")
	// ErrWrongRequest is returned when awarding a bid from another request.
	ErrWrongRequest = errors.New("bid does not belong to this request")
)

// SubmitInput is the payload for placing a bid.
type SubmitInput struct {
	AmountCents      int64  `json:"amountCents"`
	TimelineEstimate string `json:"timelineEstimate"`
	Notes            string `json:"notes"`
}

// Service manages bids and the award flow.
type Service struct {
	repo     Repository
	requests *bidrequests.Service
	notify   *notifications.Service
	now      func() time.Time
}

// NewService wires the bid service.
func NewService(repo Repository, requests *bidrequests.Service, notify *notifications.Service) *Service {
	return &Service{repo: repo, requests: requests, notify: notify, now: time.Now}
}

// Submit places a bid on an open request. A contractor holds at most one
// active bid per request; withdrawing frees the slot.
func (s *Service) Submit(ctx context.Context, contractorID, contractorName, bidRequestID string, input SubmitInput) (*Bid, error) {
	if input.AmountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	timeline := strings.TrimSpace(input.TimelineEstimate)
	if timeline == "" {
		return nil, ErrMissingTimeline
	}

	request, err := s.requests.Get(ctx, bidRequestID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	if request.Status != bidrequests.StatusOpen || !now.Before(request.BiddingEndAt) {
		return nil, ErrBiddingClosed
	}
	if request.ClientID == contractorID {
		return nil, ErrOwnRequest
	}

	existing, err := s.repo.ListByRequest(ctx, bidRequestID)
	if err != nil {
		return nil, err
	}
	for _, b := range existing {
		if b.ContractorID == contractorID && b.Status == StatusSubmitted {
			return nil, ErrAlreadyBid
		}
	}

	bid := &Bid{
		ID:               uuid.NewString(),
		BidRequestID:     bidRequestID,
		ContractorID:     contractorID,
		ContractorName:   contractorName,
		AmountCents:      input.AmountCents,
		TimelineEstimate: timeline,
		Notes:            strings.TrimSpace(input.Notes),
		Status:           StatusSubmitted,
		SubmittedAt:      now,
		UpdatedAt:        now,
	}
	if err := s.repo.Insert(ctx, bid); err != nil {
		return nil, fmt.Errorf("persist bid: %w", err)
	}

	metrics.IncBidSubmitted()
	telemetry.Info("bid submitted", map[string]any{
		"bid_id":         bid.ID,
		"bid_request_id": bidRequestID,
		"contractor_id":  contractorID,
		"amount_cents":   bid.AmountCents,
	})

	s.notify.Push(ctx, request.ClientID,
		"New bid on "+request.Title,
		fmt.Sprintf("%s bid $%.2f", displayName(contractorName), float64(bid.AmountCents)/100),
		notifications.KindBid,
		"/bid-requests/"+request.ID)

	return bid, nil
}

// ListByRequest returns bids on a request. The owning client and admins see
// every bid; a contractor sees only their own.
func (s *Service) ListByRequest(ctx context.Context, requesterID, requesterRole, bidRequestID string) ([]*Bid, error) {
	request, err := s.requests.Get(ctx, bidRequestID)
	if err != nil {
		return nil, err
	}

	all, err := s.repo.ListByRequest(ctx, bidRequestID)
	if err != nil {
		return nil, err
	}
	if requesterID == request.ClientID || requesterRole == middleware.RoleAdmin {
		return all, nil
	}

	var own []*Bid
	for _, b := range all {
		if b.ContractorID == requesterID {
			own = append(own, b)
		}
	}
	return own, nil
}

// ListMine returns the contractor's bids across all requests.
func (s *Service) ListMine(ctx context.Context, contractorID string) ([]*Bid, error) {
	return s.repo.ListByContractor(ctx, contractorID)
}

// Withdraw retracts a submitted bid.
func (s *Service) Withdraw(ctx context.Context, contractorID, bidID string) (*Bid, error) {
	bid, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.ContractorID != contractorID {
		return nil, ErrNotYours
	}
	if bid.Status != StatusSubmitted {
		return nil, ErrNotWithdrawable
	}

	bid.Status = StatusWithdrawn
	bid.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, bid); err != nil {
		return nil, fmt.Errorf("withdraw bid: %w", err)
	}
	return bid, nil
}

// Award accepts one bid on the client's request, rejects the remaining
// submitted bids, and notifies the contractors involved.
func (s *Service) Award(ctx context.Context, clientID, bidRequestID, bidID string) (*Bid, error) {
	bid, err := s.repo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.BidRequestID != bidRequestID {
		return nil, ErrWrongRequest
	}
	if bid.Status != StatusSubmitted {
		return nil, ErrNotWithdrawable
	}

	request, err := s.requests.Get(ctx, bidRequestID)
	if err != nil {
		return nil, err
	}
	if request.ClientID != clientID {
		return nil, bidrequests.ErrNotOwner
	}
	if request.Status != bidrequests.StatusOpen {
		return nil, bidrequests.ErrNotOpen
	}

	// Accept the winner before transitioning the request so a failed update
	// never leaves an awarded request pointing at a still-submitted bid.
	now := s.now().UTC()
	bid.Status = StatusAccepted
	bid.UpdatedAt = now
	if err := s.repo.Update(ctx, bid); err != nil {
		return nil, fmt.Errorf("accept bid: %w", err)
	}

	request, err = s.requests.MarkAwarded(ctx, clientID, bidRequestID, bidID)
	if err != nil {
		bid.Status = StatusSubmitted
		bid.UpdatedAt = s.now().UTC()
		if revertErr := s.repo.Update(ctx, bid); revertErr != nil {
			telemetry.Error("bid revert failed", map[string]any{
				"bid_id": bid.ID, "error": revertErr.Error(),
			})
		}
		return nil, err
	}

	s.notify.Push(ctx, bid.ContractorID,
		"Your bid on "+request.Title+" was accepted",
		"The client awarded you the project.",
		notifications.KindAward,
		"/bid-requests/"+request.ID)

	others, err := s.repo.ListByRequest(ctx, bidRequestID)
	if err != nil {
		return nil, err
	}
	for _, other := range others {
		if other.ID == bid.ID || other.Status != StatusSubmitted {
			continue
		}
		other.Status = StatusRejected
		other.UpdatedAt = now
		if err := s.repo.Update(ctx, other); err != nil {
			telemetry.Error("bid reject failed", map[string]any{
				"bid_id": other.ID, "error": err.Error(),
			})
			continue
		}
		s.notify.Push(ctx, other.ContractorID,
			"Bid on "+request.Title+" was not selected",
			"The client chose another contractor.",
			notifications.KindAward,
			"/bid-requests/"+request.ID)
	}

	return bid, nil
}

func displayName(name string) string {
	if strings.TrimSpace(name) == "" {
		return "A contractor"
	}
	return name
}
