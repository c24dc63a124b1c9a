package plans

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() IngestConfig {
	return IngestConfig{
		MaxFiles:         5,
		MaxFileSizeBytes: 10 << 20,
		AllowedTypes:     []string{".pdf", ".docx", "image/*", "application/pdf"},
	}
}

func TestValidateTooLarge(t *testing.T) {
	cfg := testConfig()
	rej := Validate(Candidate{FileName: "huge.pdf", MimeType: "application/pdf", SizeBytes: cfg.MaxFileSizeBytes + 1}, nil, cfg)
	require.NotNil(t, rej)
	assert.Equal(t, RejectTooLarge, rej.Reason)
}

func TestValidateTypePolicy(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name     string
		file     Candidate
		accepted bool
	}{
		{"extension match", Candidate{FileName: "plan.pdf", MimeType: "application/x-unknown", SizeBytes: 100}, true},
		{"extension match is case-insensitive", Candidate{FileName: "PLAN.PDF", MimeType: "", SizeBytes: 100}, true},
		{"wildcard mime match", Candidate{FileName: "site.heic", MimeType: "image/heic", SizeBytes: 100}, true},
		{"exact mime match", Candidate{FileName: "plan.bin", MimeType: "application/pdf", SizeBytes: 100}, true},
		{"mime with parameters", Candidate{FileName: "site.bin", MimeType: "IMAGE/PNG; charset=binary", SizeBytes: 100}, true},
		{"no match", Candidate{FileName: "notes.csv", MimeType: "text/csv", SizeBytes: 100}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rej := Validate(tc.file, nil, cfg)
			if tc.accepted {
				assert.Nil(t, rej)
			} else {
				require.NotNil(t, rej)
				assert.Equal(t, RejectUnsupportedType, rej.Reason)
			}
		})
	}
}

func TestValidateDuplicateNameAndSize(t *testing.T) {
	cfg := testConfig()
	staged := []Candidate{{FileName: "plan.pdf", MimeType: "application/pdf", SizeBytes: 2048}}

	rej := Validate(Candidate{FileName: "Plan.PDF", MimeType: "application/pdf", SizeBytes: 2048}, staged, cfg)
	require.NotNil(t, rej)
	assert.Equal(t, RejectDuplicate, rej.Reason)

	// Same name, different size is a distinct file.
	assert.Nil(t, Validate(Candidate{FileName: "plan.pdf", MimeType: "application/pdf", SizeBytes: 4096}, staged, cfg))
}

func TestStageQuotaRejectsOnlyExcess(t *testing.T) {
	cfg := testConfig()
	cfg.MaxFiles = 2

	incoming := []Candidate{
		{FileName: "a.pdf", MimeType: "application/pdf", SizeBytes: 1},
		{FileName: "b.pdf", MimeType: "application/pdf", SizeBytes: 2},
		{FileName: "c.pdf", MimeType: "application/pdf", SizeBytes: 3},
		{FileName: "d.pdf", MimeType: "application/pdf", SizeBytes: 4},
	}

	staged, rejections := Stage(nil, incoming, cfg)
	require.Len(t, staged, 2)
	assert.Equal(t, "a.pdf", staged[0].FileName)
	assert.Equal(t, "b.pdf", staged[1].FileName)

	require.Len(t, rejections, 2)
	for _, rej := range rejections {
		assert.Equal(t, RejectQuotaExceeded, rej.Reason)
	}
}

func TestStageBadFileDoesNotBlockBatch(t *testing.T) {
	cfg := testConfig()

	incoming := []Candidate{
		{FileName: "notes.csv", MimeType: "text/csv", SizeBytes: 1},
		{FileName: "plan.pdf", MimeType: "application/pdf", SizeBytes: 2},
	}

	staged, rejections := Stage(nil, incoming, cfg)
	require.Len(t, staged, 1)
	assert.Equal(t, "plan.pdf", staged[0].FileName)
	require.Len(t, rejections, 1)
	assert.Equal(t, RejectUnsupportedType, rejections[0].Reason)
	assert.Equal(t, "notes.csv", rejections[0].FileName)
}

func TestStagePreservesExistingAndOrder(t *testing.T) {
	cfg := testConfig()
	existing := []Candidate{{FileName: "first.pdf", MimeType: "application/pdf", SizeBytes: 10}}

	staged, rejections := Stage(existing, []Candidate{
		{FileName: "second.pdf", MimeType: "application/pdf", SizeBytes: 20},
	}, cfg)

	require.Empty(t, rejections)
	require.Len(t, staged, 2)
	assert.Equal(t, "first.pdf", staged[0].FileName)
	assert.Equal(t, "second.pdf", staged[1].FileName)
}
