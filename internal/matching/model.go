package matching

import "time"

// Status is the lifecycle state of a match attempt.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusNoMatches  Status = "no_matches"
	StatusFailed     Status = "failed"
	StatusSuperseded Status = "superseded"
)

// Error codes attached to failed attempts.
const (
	ErrCodeExternalCall   = "EXTERNAL_CALL_ERROR"
	ErrCodeTimeout        = "LLM_TIMEOUT"
	ErrCodeSchemaMismatch = "LLM_SCHEMA_MISMATCH"
)

// ContractorTag is a named skill-relevance axis scored 0-100.
type ContractorTag struct {
	TagName string  `json:"tagName"`
	Score   float64 `json:"score"`
}

// RawSuggestion is one tuple as returned by the matching capability,
// before enrichment.
type RawSuggestion struct {
	ContractorID string          `json:"contractorId"`
	Tags         []ContractorTag `json:"tags"`
	OverallScore float64         `json:"overallScore"`
}

// suggestionPayload is the top-level JSON shape the capability must return.
type suggestionPayload struct {
	SuggestedContractors []RawSuggestion `json:"suggestedContractors"`
}

// SuggestedContractor is a display-ready candidate. Enrichment only adds the
// optional display fields; contractorId, tags, and overallScore pass through
// untouched.
type SuggestedContractor struct {
	ContractorID string          `json:"contractorId"`
	Tags         []ContractorTag `json:"tags"`
	OverallScore float64         `json:"overallScore"`
	Name         string          `json:"name,omitempty"`
	Specialties  []string        `json:"specialties,omitempty"`
	Location     string          `json:"location,omitempty"`
	AvatarURL    string          `json:"avatarUrl,omitempty"`
	Description  string          `json:"description,omitempty"`
}

// Attempt is one execution of the build-invoke-enrich sequence for a single
// plan/description pair. The token orders attempts per (user, plan): a
// resolving attempt whose token is no longer the latest ends as superseded.
type Attempt struct {
	ID           string                `json:"id"`
	UserID       string                `json:"userId"`
	PlanFileID   string                `json:"planFileId"`
	Token        int64                 `json:"-"`
	Description  string                `json:"description"`
	Questions    string                `json:"clarifyingQuestions,omitempty"`
	Provider     string                `json:"provider,omitempty"`
	Model        string                `json:"model,omitempty"`
	Status       Status                `json:"status"`
	ErrorCode    string                `json:"errorCode,omitempty"`
	ErrorMessage string                `json:"errorMessage,omitempty"`
	Result       []SuggestedContractor `json:"suggestedContractors,omitempty"`
	CreatedAt    time.Time             `json:"createdAt"`
	StartedAt    *time.Time            `json:"startedAt,omitempty"`
	CompletedAt  *time.Time            `json:"completedAt,omitempty"`
}

// Terminal reports whether the attempt has reached a final state.
func (a *Attempt) Terminal() bool {
	switch a.Status {
	case StatusCompleted, StatusNoMatches, StatusFailed, StatusSuperseded:
		return true
	default:
		return false
	}
}
