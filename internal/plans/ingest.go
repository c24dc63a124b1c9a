package plans

import (
	"fmt"
	"path/filepath"
	"strings"
)

// RejectReason classifies why a candidate file was not staged.
type RejectReason string

const (
	RejectTooLarge        RejectReason = "too_large"
	RejectUnsupportedType RejectReason = "unsupported_type"
	RejectDuplicate       RejectReason = "duplicate"
	RejectQuotaExceeded   RejectReason = "quota_exceeded"
)

// Candidate describes a file offered for staging, before any bytes are read.
type Candidate struct {
	FileName  string
	MimeType  string
	SizeBytes int64
}

// Rejection reports one candidate that did not make it into the staged set.
type Rejection struct {
	FileName string       `json:"fileName"`
	Reason   RejectReason `json:"reason"`
	Message  string       `json:"message"`
}

// IngestConfig bounds what the ingestor accepts.
type IngestConfig struct {
	MaxFiles         int
	MaxFileSizeBytes int64
	AllowedTypes     []string
}

// Validate checks one candidate against the config and the already-staged set.
// It returns nil when the candidate is acceptable. The check is pure: nothing
// is staged here.
func Validate(c Candidate, staged []Candidate, cfg IngestConfig) *Rejection {
	if cfg.MaxFileSizeBytes > 0 && c.SizeBytes > cfg.MaxFileSizeBytes {
		return &Rejection{
			FileName: c.FileName,
			Reason:   RejectTooLarge,
			Message:  fmt.Sprintf("%s exceeds the %d MB size limit", c.FileName, cfg.MaxFileSizeBytes/(1<<20)),
		}
	}
	if !typeAllowed(c.FileName, c.MimeType, cfg.AllowedTypes) {
		return &Rejection{
			FileName: c.FileName,
			Reason:   RejectUnsupportedType,
			Message:  fmt.Sprintf("%s has an unsupported file type", c.FileName),
		}
	}
	for _, existing := range staged {
		if strings.EqualFold(existing.FileName, c.FileName) && existing.SizeBytes == c.SizeBytes {
			return &Rejection{
				FileName: c.FileName,
				Reason:   RejectDuplicate,
				Message:  fmt.Sprintf("%s is already staged", c.FileName),
			}
		}
	}
	if cfg.MaxFiles > 0 && len(staged) >= cfg.MaxFiles {
		return &Rejection{
			FileName: c.FileName,
			Reason:   RejectQuotaExceeded,
			Message:  fmt.Sprintf("at most %d plan files may be staged", cfg.MaxFiles),
		}
	}
	return nil
}

// Stage merges incoming candidates into the existing staged set, first
// accepted first, never exceeding MaxFiles. Rejected candidates are reported
// alongside the updated set; one bad file never sinks the batch.
func Stage(existing, incoming []Candidate, cfg IngestConfig) ([]Candidate, []Rejection) {
	staged := make([]Candidate, len(existing))
	copy(staged, existing)

	var rejections []Rejection
	for _, c := range incoming {
		if rej := Validate(c, staged, cfg); rej != nil {
			rejections = append(rejections, *rej)
			continue
		}
		staged = append(staged, c)
	}
	return staged, rejections
}

// typeAllowed applies the allow-list policy: a ".ext" entry matches the file
// extension, a "type/*" entry matches the MIME prefix, and any other entry
// must equal the MIME type. First match wins, case-insensitive throughout.
func typeAllowed(fileName, mimeType string, allowed []string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	mt := strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.Index(mt, ";"); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}

	for _, entry := range allowed {
		e := strings.ToLower(strings.TrimSpace(entry))
		switch {
		case e == "":
			continue
		case strings.HasPrefix(e, "."):
			if ext == e {
				return true
			}
		case strings.HasSuffix(e, "/*"):
			if strings.HasPrefix(mt, strings.TrimSuffix(e, "*")) {
				return true
			}
		default:
			if mt == e {
				return true
			}
		}
	}
	return false
}
