package bids

import "time"

// Status is the lifecycle state of a bid.
type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusWithdrawn Status = "withdrawn"
)

// Bid is a contractor's offer on a bid request.
type Bid struct {
	ID               string    `json:"id"`
	BidRequestID     string    `json:"bidRequestId"`
	ContractorID     string    `json:"contractorId"`
	ContractorName   string    `json:"contractorName,omitempty"`
	AmountCents      int64     `json:"amountCents"`
	TimelineEstimate string    `json:"timelineEstimate"`
	Notes            string    `json:"notes,omitempty"`
	Status           Status    `json:"status"`
	SubmittedAt      time.Time `json:"submittedAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
