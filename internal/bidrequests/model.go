package bidrequests

import (
	"errors"
	"time"
)

// Status is the lifecycle state of a bid request.
type Status string

const (
	StatusOpen    Status = "open"
	StatusAwarded Status = "awarded"
	StatusClosed  Status = "closed"
)

// Display statuses derived for listings, in addition to the stored ones.
const (
	DisplayNew          = "new"
	DisplayExpiringSoon = "expiring_soon"
)

// Categories recognized by the listing tabs.
const (
	CategoryResidential = "Residential"
	CategoryCommercial  = "Commercial"
	CategoryRenovation  = "Renovation"
	CategoryNewBuild    = "New Build"
)

// ErrInvalidWindow is returned when a bid request's bidding window would not
// end after it was posted.
var ErrInvalidWindow = errors.New("bidding end date must be after the posted date")

// BidRequest is a client's posted project seeking contractor bids.
type BidRequest struct {
	ID               string    `json:"id"`
	ClientID         string    `json:"clientId"`
	ClientName       string    `json:"clientName"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	InitialQuestions string    `json:"initialClarifyingQuestions,omitempty"`
	Status           Status    `json:"status"`
	Category         string    `json:"category,omitempty"`
	Location         string    `json:"location,omitempty"`
	PlanOverview     string    `json:"planOverview,omitempty"`
	PlanFileIDs      []string  `json:"planFileIds,omitempty"`
	PostedAt         time.Time `json:"postedDate"`
	BiddingEndAt     time.Time `json:"biddingEndDate"`
	AwardedBidID     string    `json:"awardedBidId,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// NewBidRequest constructs a bid request, enforcing that the bidding window
// ends strictly after the posted date.
func NewBidRequest(id, clientID, clientName, title, description string, postedAt, biddingEndAt time.Time) (*BidRequest, error) {
	if !biddingEndAt.After(postedAt) {
		return nil, ErrInvalidWindow
	}
	return &BidRequest{
		ID:           id,
		ClientID:     clientID,
		ClientName:   clientName,
		Title:        title,
		Description:  description,
		Status:       StatusOpen,
		PostedAt:     postedAt,
		BiddingEndAt: biddingEndAt,
		CreatedAt:    postedAt,
	}, nil
}

// Summary is the denormalized record the listing pipeline operates on.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ClientName   string    `json:"clientName"`
	PostedAt     time.Time `json:"postedDate"`
	BiddingEndAt time.Time `json:"biddingEndDate"`
	Status       string    `json:"status"`
	PlanOverview string    `json:"planOverview,omitempty"`
	Location     string    `json:"location,omitempty"`
	Category     string    `json:"category,omitempty"`
}

// recencyWindow bounds how long a request counts as "new" and how close to
// its end date it counts as "expiring soon".
const recencyWindow = 72 * time.Hour

// Summarize derives the listing view of a bid request at the given instant.
// Awarded and closed requests keep their stored status; open ones display as
// expiring_soon near the deadline, new shortly after posting, open otherwise.
func (b *BidRequest) Summarize(now time.Time) Summary {
	status := string(b.Status)
	if b.Status == StatusOpen {
		switch {
		case b.BiddingEndAt.Sub(now) <= recencyWindow:
			status = DisplayExpiringSoon
		case now.Sub(b.PostedAt) <= recencyWindow:
			status = DisplayNew
		}
	}
	return Summary{
		ID:           b.ID,
		Title:        b.Title,
		ClientName:   b.ClientName,
		PostedAt:     b.PostedAt,
		BiddingEndAt: b.BiddingEndAt,
		Status:       status,
		PlanOverview: b.PlanOverview,
		Location:     b.Location,
		Category:     b.Category,
	}
}

// Question is a clarifying question asked on a bid request.
type Question struct {
	ID           string    `json:"id"`
	BidRequestID string    `json:"bidRequestId"`
	AskedBy      string    `json:"askedBy"`
	AskedByRole  string    `json:"askedByRole"`
	AskerName    string    `json:"askerName,omitempty"`
	Body         string    `json:"body"`
	Resolved     bool      `json:"resolved"`
	CreatedAt    time.Time `json:"createdAt"`
	Answers      []*Answer `json:"answers,omitempty"`
}

// Answer is a reply to a clarifying question.
type Answer struct {
	ID           string    `json:"id"`
	QuestionID   string    `json:"questionId"`
	AnsweredBy   string    `json:"answeredBy"`
	AnsweredRole string    `json:"answeredRole"`
	AnswererName string    `json:"answererName,omitempty"`
	Body         string    `json:"body"`
	CreatedAt    time.Time `json:"createdAt"`
}
