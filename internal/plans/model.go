package plans

import "time"

// PlanFile represents one uploaded house-plan artifact.
type PlanFile struct {
	ID         string     `json:"id"`
	UserID     string     `json:"userId"`
	FileName   string     `json:"fileName"`
	MimeType   string     `json:"mimeType"`
	SizeBytes  int64      `json:"sizeBytes"`
	StorageKey string     `json:"-"`
	Overview   string     `json:"overview,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	RemovedAt  *time.Time `json:"removedAt,omitempty"`
}
