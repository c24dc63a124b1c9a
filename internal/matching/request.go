package matching

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"planmatch-backend/internal/plans"
)

var (
	// ErrMissingPlan is returned when no plan file is supplied.
	ErrMissingPlan = errors.New("a plan file is required")
	// ErrMissingDescription is returned when the project description is
	// empty or whitespace-only.
	ErrMissingDescription = errors.New("a project description is required")
)

// MatchRequest is the immutable input to one matching call.
type MatchRequest struct {
	PlanDataURI         string
	PlanOverview        string
	ProjectDescription  string
	ClarifyingQuestions string
}

// BuildRequest turns one staged plan plus free text into a MatchRequest.
// The plan content is embedded as a data URI carrying its MIME type.
func BuildRequest(plan *plans.PlanFile, content []byte, description, questions string) (*MatchRequest, error) {
	if plan == nil || len(content) == 0 {
		return nil, ErrMissingPlan
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, ErrMissingDescription
	}

	return &MatchRequest{
		PlanDataURI:         EncodeDataURI(plan.MimeType, content),
		PlanOverview:        plan.Overview,
		ProjectDescription:  description,
		ClarifyingQuestions: strings.TrimSpace(questions),
	}, nil
}

// EncodeDataURI encodes bytes as data:<mime>;base64,<payload>.
func EncodeDataURI(mimeType string, content []byte) string {
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(content))
}
