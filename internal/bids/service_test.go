package bids

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planmatch-backend/internal/bidrequests"
	"planmatch-backend/internal/notifications"
	"planmatch-backend/internal/plans"
	"planmatch-backend/internal/shared/storage/object/local"
)

type fixture struct {
	bids     *Service
	requests *bidrequests.Service
	notify   *notifications.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	planSvc := plans.NewService(plans.NewMemoryRepository(), local.New(t.TempDir()), plans.IngestConfig{
		MaxFiles: 5, MaxFileSizeBytes: 10 << 20, AllowedTypes: []string{".pdf"},
	})
	notify := notifications.NewService(notifications.NewMemoryRepository())
	requests := bidrequests.NewService(bidrequests.NewMemoryRepository(), planSvc, notify, 7*24*time.Hour)
	return &fixture{
		bids:     NewService(NewMemoryRepository(), requests, notify),
		requests: requests,
		notify:   notify,
	}
}

func (f *fixture) postRequest(t *testing.T, clientID string) *bidrequests.BidRequest {
	t.Helper()
	request, err := f.requests.Create(context.Background(), clientID, "Pat", bidrequests.CreateInput{
		Title:       "Kitchen Remodel",
		Description: "Full remodel of a 200 sq ft kitchen",
		Category:    "Renovation",
	})
	require.NoError(t, err)
	return request
}

func TestSubmitValidation(t *testing.T) {
	f := newFixture(t)
	request := f.postRequest(t, "client-1")

	_, err := f.bids.Submit(context.Background(), "con-1", "Ana", request.ID, SubmitInput{AmountCents: 0, TimelineEstimate: "6 weeks"})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.bids.Submit(context.Background(), "con-1", "Ana", request.ID, SubmitInput{AmountCents: 100000, TimelineEstimate: "  "})
	assert.ErrorIs(t, err, ErrMissingTimeline)

	_, err = f.bids.Submit(context.Background(), "client-1", "Pat", request.ID, SubmitInput{AmountCents: 100000, TimelineEstimate: "6 weeks"})
	assert.ErrorIs(t, err, ErrOwnRequest)

	_, err = f.bids.Submit(context.Background(), "con-1", "Ana", "missing", SubmitInput{AmountCents: 100000, TimelineEstimate: "6 weeks"})
	assert.ErrorIs(t, err, bidrequests.ErrNotFound)
}

func TestSubmitOneActiveBidPerContractor(t *testing.T) {
	f := newFixture(t)
	request := f.postRequest(t, "client-1")

	first, err := f.bids.Submit(context.Background(), "con-1", "Ana", request.ID, SubmitInput{AmountCents: 100000, TimelineEstimate: "6 weeks"})
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, first.Status)

	_, err = f.bids.Submit(context.Background(), "con-1", "Ana", request.ID, SubmitInput{AmountCents: 90000, TimelineEstimate: "5 weeks"})
	assert.ErrorIs(t, err, ErrAlreadyBid)

	// Withdrawing frees the slot.
	_, err = f.bids.Withdraw(context.Background(), "con-1", first.ID)
	require.NoError(t, err)

	_, err = f.bids.Submit(context.Background(), "con-1", "Ana", request.ID, SubmitInput{AmountCents: 90000, TimelineEstimate: "5 weeks"})
	assert.NoError(t, err)
}

func TestSubmitNotifiesClient(t *testing.T) {
	f := newFixture(t)
	request := f.postRequest(t, "client-1")

	_, err := f.bids.Submit(context.Background(), "con-1", "Ana", request.ID, SubmitInput{AmountCents: 123456, TimelineEstimate: "6 weeks"})
	require.NoError(t, err)

	items, err := f.notify.List(context.Background(), "client-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, notifications.KindBid, items[0].Kind)
	assert.Contains(t, items[0].Message, "$1234.56")
}

func TestWithdrawRules(t *testing.T) {
	f := newFixture(t)
	request := f.postRequest(t, "client-1")

	bid, err := f.bids.Submit(context.Background(), "con-1", "Ana", request.ID, SubmitInput{AmountCents: 100000, TimelineEstimate: "6 weeks"})
	require.NoError(t, err)

	_, err = f.bids.Withdraw(context.Background(), "con-2", bid.ID)
	assert.ErrorIs(t, err, ErrNotYours)

	withdrawn, err := f.bids.Withdraw(context.Background(), "con-1", bid.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusWithdrawn, withdrawn.Status)

	_, err = f.bids.Withdraw(context.Background(), "con-1", bid.ID)
	assert.ErrorIs(t, err, ErrNotWithdrawable)
}

func TestAwardAcceptsOneAndRejectsRest(t *testing.T) {
	f := newFixture(t)
	request := f.postRequest(t, "client-1")

	winner, err := f.bids.Submit(context.Background(), "con-1", "Ana", request.ID, SubmitInput{AmountCents: 100000, TimelineEstimate: "6 weeks"})
	require.NoError(t, err)
	_, err = f.bids.Submit(context.Background(), "con-2", "Bo", request.ID, SubmitInput{AmountCents: 110000, TimelineEstimate: "5 weeks"})
	require.NoError(t, err)

	_, err = f.bids.Award(context.Background(), "someone-else", request.ID, winner.ID)
	assert.ErrorIs(t, err, bidrequests.ErrNotOwner)

	awarded, err := f.bids.Award(context.Background(), "client-1", request.ID, winner.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, awarded.Status)

	updatedLoser, err := f.bids.ListMine(context.Background(), "con-2")
	require.NoError(t, err)
	require.Len(t, updatedLoser, 1)
	assert.Equal(t, StatusRejected, updatedLoser[0].Status)

	updatedRequest, err := f.requests.Get(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, bidrequests.StatusAwarded, updatedRequest.Status)
	assert.Equal(t, winner.ID, updatedRequest.AwardedBidID)

	// Awarded requests accept no further bids or awards.
	_, err = f.bids.Submit(context.Background(), "con-3", "Cy", request.ID, SubmitInput{AmountCents: 90000, TimelineEstimate: "4 weeks"})
	assert.ErrorIs(t, err, ErrBiddingClosed)

	winnerNotes, err := f.notify.List(context.Background(), "con-1")
	require.NoError(t, err)
	require.Len(t, winnerNotes, 1)
	assert.Equal(t, notifications.KindAward, winnerNotes[0].Kind)
}

// failingUpdateRepo fails Update for one bid ID and delegates everything else.
type failingUpdateRepo struct {
	Repository
	failID string
}

func (r *failingUpdateRepo) Update(ctx context.Context, b *Bid) error {
	if b.ID == r.failID {
		return errors.New("storage unavailable")
	}
	return r.Repository.Update(ctx, b)
}

func TestAwardLeavesRequestOpenWhenAcceptFails(t *testing.T) {
	planSvc := plans.NewService(plans.NewMemoryRepository(), local.New(t.TempDir()), plans.IngestConfig{
		MaxFiles: 5, MaxFileSizeBytes: 10 << 20, AllowedTypes: []string{".pdf"},
	})
	notify := notifications.NewService(notifications.NewMemoryRepository())
	requests := bidrequests.NewService(bidrequests.NewMemoryRepository(), planSvc, notify, 7*24*time.Hour)
	repo := &failingUpdateRepo{Repository: NewMemoryRepository()}
	svc := NewService(repo, requests, notify)

	request, err := requests.Create(context.Background(), "client-1", "Pat", bidrequests.CreateInput{
		Title:       "Kitchen Remodel",
		Description: "Full remodel of a 200 sq ft kitchen",
		Category:    "Renovation",
	})
	require.NoError(t, err)

	bid, err := svc.Submit(context.Background(), "con-1", "Ana", request.ID, SubmitInput{
		AmountCents: 100000, TimelineEstimate: "6 weeks",
	})
	require.NoError(t, err)
	repo.failID = bid.ID

	_, err = svc.Award(context.Background(), "client-1", request.ID, bid.ID)
	require.Error(t, err)

	// The request stays open and unawarded.
	got, err := requests.Get(context.Background(), request.ID)
	require.NoError(t, err)
	assert.Equal(t, bidrequests.StatusOpen, got.Status)
	assert.Empty(t, got.AwardedBidID)

	// The bid stays submitted.
	stored, err := repo.GetByID(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusSubmitted, stored.Status)
}
