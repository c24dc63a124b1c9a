package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichAddsDisplayFieldsOnly(t *testing.T) {
	raw := []RawSuggestion{
		{
			ContractorID: "c-1",
			Tags: []ContractorTag{
				{TagName: "plumbing", Score: 40},
				{TagName: "framing", Score: 95},
				{TagName: "roofing", Score: 80},
			},
			OverallScore: 88,
		},
		{ContractorID: "c-2", Tags: []ContractorTag{}, OverallScore: 61},
	}

	out := Enrich(raw)
	require.Len(t, out, 2)

	assert.Equal(t, "c-1", out[0].ContractorID)
	assert.Equal(t, raw[0].Tags, out[0].Tags)
	assert.Equal(t, 88.0, out[0].OverallScore)
	assert.Equal(t, "Contractor A (AI Matched)", out[0].Name)
	assert.Equal(t, []string{"framing", "roofing"}, out[0].Specialties)
	assert.Equal(t, "Local Area (Mock)", out[0].Location)
	assert.Equal(t, "https://placehold.co/100x100.png?text=A", out[0].AvatarURL)

	assert.Equal(t, "Contractor B (AI Matched)", out[1].Name)
	assert.Empty(t, out[1].Specialties)
	assert.Equal(t, "https://placehold.co/100x100.png?text=B", out[1].AvatarURL)
}

func TestEnrichEmptyInput(t *testing.T) {
	out := Enrich(nil)
	require.NotNil(t, out)
	assert.Empty(t, out)
}

func TestEnrichDoesNotShareTagSlices(t *testing.T) {
	raw := []RawSuggestion{{ContractorID: "c-1", Tags: []ContractorTag{{TagName: "tiling", Score: 50}}, OverallScore: 50}}
	out := Enrich(raw)
	out[0].Tags[0].Score = 99
	assert.Equal(t, 50.0, raw[0].Tags[0].Score)
}

func TestEnrichSpecialtiesTieKeepsInputOrder(t *testing.T) {
	raw := []RawSuggestion{{
		ContractorID: "c-1",
		Tags: []ContractorTag{
			{TagName: "electrical", Score: 70},
			{TagName: "hvac", Score: 70},
			{TagName: "paint", Score: 10},
		},
		OverallScore: 70,
	}}
	out := Enrich(raw)
	assert.Equal(t, []string{"electrical", "hvac"}, out[0].Specialties)
}

func TestPositionLetter(t *testing.T) {
	assert.Equal(t, "A", positionLetter(0))
	assert.Equal(t, "Z", positionLetter(25))
	assert.Equal(t, "AA", positionLetter(26))
	assert.Equal(t, "AB", positionLetter(27))
}
