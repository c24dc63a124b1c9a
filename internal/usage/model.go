package usage

import "time"

// Quota tracks how many match attempts a user may run in the current cycle.
type Quota struct {
	UserID   string    `json:"userId"`
	Plan     string    `json:"plan"`
	MaxUnits int       `json:"maxUnits"`
	Used     int       `json:"used"`
	ResetsAt time.Time `json:"resetsAt"`
}

// Remaining returns how many attempts are left in the cycle.
func (q Quota) Remaining() int {
	if q.Used >= q.MaxUnits {
		return 0
	}
	return q.MaxUnits - q.Used
}

const (
	defaultPlan     = "Starter"
	defaultMaxUnits = 10
)

func newQuota(userID string, now time.Time) Quota {
	return Quota{
		UserID:   userID,
		Plan:     defaultPlan,
		MaxUnits: defaultMaxUnits,
		Used:     0,
		ResetsAt: nextReset(now),
	}
}

// nextReset is the first day of the next month, UTC midnight.
func nextReset(now time.Time) time.Time {
	y, m, _ := now.UTC().Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
