package matching

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planmatch-backend/internal/plans"
)

func TestBuildRequestMissingPlan(t *testing.T) {
	_, err := BuildRequest(nil, nil, "remodel the kitchen", "")
	assert.ErrorIs(t, err, ErrMissingPlan)

	_, err = BuildRequest(&plans.PlanFile{ID: "p1"}, nil, "remodel the kitchen", "")
	assert.ErrorIs(t, err, ErrMissingPlan)
}

func TestBuildRequestMissingDescription(t *testing.T) {
	plan := &plans.PlanFile{ID: "p1", MimeType: "application/pdf"}
	content := []byte("%PDF-1.4")

	_, err := BuildRequest(plan, content, "", "")
	assert.ErrorIs(t, err, ErrMissingDescription)

	_, err = BuildRequest(plan, content, "   \t\n", "")
	assert.ErrorIs(t, err, ErrMissingDescription)
}

func TestBuildRequestEncodesDataURI(t *testing.T) {
	plan := &plans.PlanFile{ID: "p1", MimeType: "application/pdf", Overview: "two story"}
	content := []byte("%PDF-1.4 fake")

	req, err := BuildRequest(plan, content, "  Remodel the kitchen  ", "  timeline?  ")
	require.NoError(t, err)

	want := "data:application/pdf;base64," + base64.StdEncoding.EncodeToString(content)
	assert.Equal(t, want, req.PlanDataURI)
	assert.Equal(t, "Remodel the kitchen", req.ProjectDescription)
	assert.Equal(t, "timeline?", req.ClarifyingQuestions)
	assert.Equal(t, "two story", req.PlanOverview)
}

func TestEncodeDataURIDefaultsMime(t *testing.T) {
	uri := EncodeDataURI("", []byte{0x1})
	assert.Contains(t, uri, "data:application/octet-stream;base64,")
}
