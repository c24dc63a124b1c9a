package notifications

import "time"

// Notification is a short in-app message for a user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	Link      string    `json:"link,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

// Notification kinds.
const (
	KindInfo     = "info"
	KindQuestion = "question"
	KindAnswer   = "answer"
	KindBid      = "bid"
	KindAward    = "award"
)
