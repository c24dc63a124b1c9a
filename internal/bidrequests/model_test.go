package bidrequests

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBidRequestEnforcesWindow(t *testing.T) {
	posted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_, err := NewBidRequest("b1", "c1", "Pat", "Remodel", "desc", posted, posted)
	assert.ErrorIs(t, err, ErrInvalidWindow)

	_, err = NewBidRequest("b1", "c1", "Pat", "Remodel", "desc", posted, posted.Add(-time.Hour))
	assert.ErrorIs(t, err, ErrInvalidWindow)

	request, err := NewBidRequest("b1", "c1", "Pat", "Remodel", "desc", posted, posted.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, StatusOpen, request.Status)
}

func TestSummarizeDerivesStatus(t *testing.T) {
	posted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	request, err := NewBidRequest("b1", "c1", "Pat", "Remodel", "desc", posted, posted.AddDate(0, 0, 7))
	require.NoError(t, err)

	// Just posted: new.
	assert.Equal(t, DisplayNew, request.Summarize(posted.Add(time.Hour)).Status)

	// Mid-window: open.
	assert.Equal(t, string(StatusOpen), request.Summarize(posted.AddDate(0, 0, 4)).Status)

	// Near the end: expiring soon.
	assert.Equal(t, DisplayExpiringSoon, request.Summarize(posted.AddDate(0, 0, 6)).Status)

	// Expiring soon wins when a short window makes both conditions hold.
	short, err := NewBidRequest("b2", "c1", "Pat", "Remodel", "desc", posted, posted.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, DisplayExpiringSoon, short.Summarize(posted.Add(time.Hour)).Status)

	// Awarded sticks regardless of timing.
	request.Status = StatusAwarded
	assert.Equal(t, string(StatusAwarded), request.Summarize(posted.Add(time.Hour)).Status)
}
