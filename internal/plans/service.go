package plans

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"planmatch-backend/internal/extract"
	"planmatch-backend/internal/shared/storage/object"
	"planmatch-backend/internal/shared/telemetry"
)

// Upload is one incoming file in an upload batch.
type Upload struct {
	FileName  string
	MimeType  string
	SizeBytes int64
	Content   io.Reader
}

// UploadResult reports what happened to each file in a batch.
type UploadResult struct {
	Accepted   []*PlanFile `json:"accepted"`
	Rejections []Rejection `json:"rejections"`
}

// Service stages, stores, and serves plan files.
type Service struct {
	repo  Repository
	store object.ObjectStore
	cfg   IngestConfig
}

// NewService wires the plan service.
func NewService(repo Repository, store object.ObjectStore, cfg IngestConfig) *Service {
	return &Service{repo: repo, store: store, cfg: cfg}
}

// IngestConfig exposes the staging limits, for callers that validate early.
func (s *Service) IngestConfig() IngestConfig { return s.cfg }

// UploadBatch validates each file against the staging rules, persists the
// accepted ones, and reports rejections per file. A rejected file never
// blocks the rest of the batch.
func (s *Service) UploadBatch(ctx context.Context, userID string, uploads []Upload) (*UploadResult, error) {
	existing, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list existing plans: %w", err)
	}

	staged := make([]Candidate, 0, len(existing))
	for _, p := range existing {
		staged = append(staged, Candidate{FileName: p.FileName, MimeType: p.MimeType, SizeBytes: p.SizeBytes})
	}

	result := &UploadResult{}
	for _, up := range uploads {
		candidate := Candidate{FileName: up.FileName, MimeType: up.MimeType, SizeBytes: up.SizeBytes}
		if rej := Validate(candidate, staged, s.cfg); rej != nil {
			result.Rejections = append(result.Rejections, *rej)
			continue
		}

		plan, err := s.storeOne(ctx, userID, up)
		if err != nil {
			telemetry.Error("plan upload failed", map[string]any{
				"user_id":   userID,
				"file_name": up.FileName,
				"error":     err.Error(),
			})
			result.Rejections = append(result.Rejections, Rejection{
				FileName: up.FileName,
				Reason:   RejectUnsupportedType,
				Message:  fmt.Sprintf("%s could not be stored", up.FileName),
			})
			continue
		}

		staged = append(staged, candidate)
		result.Accepted = append(result.Accepted, plan)
	}
	return result, nil
}

func (s *Service) storeOne(ctx context.Context, userID string, up Upload) (*PlanFile, error) {
	// Bound the read by the configured limit plus one byte so oversized
	// streams that lied about their size are still caught.
	limit := s.cfg.MaxFileSizeBytes
	if limit <= 0 {
		limit = 64 << 20
	}
	data, err := io.ReadAll(io.LimitReader(up.Content, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("upload exceeds %d bytes", limit)
	}

	storageKey, size, sniffedMime, err := s.store.Save(ctx, userID, up.FileName, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("store plan: %w", err)
	}

	mimeType := up.MimeType
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = sniffedMime
	}

	overview, err := extract.PlanOverview(data, mimeType, up.FileName)
	if err != nil {
		// Extraction is best effort: a plan with no readable text still uploads.
		telemetry.Warn("plan overview extraction failed", map[string]any{
			"user_id":   userID,
			"file_name": up.FileName,
			"error":     err.Error(),
		})
		overview = ""
	}

	plan := &PlanFile{
		ID:         uuid.NewString(),
		UserID:     userID,
		FileName:   up.FileName,
		MimeType:   mimeType,
		SizeBytes:  size,
		StorageKey: storageKey,
		Overview:   overview,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, plan); err != nil {
		return nil, fmt.Errorf("persist plan: %w", err)
	}

	telemetry.Info("plan uploaded", map[string]any{
		"user_id":    userID,
		"plan_id":    plan.ID,
		"file_name":  plan.FileName,
		"mime_type":  plan.MimeType,
		"size_bytes": plan.SizeBytes,
	})
	return plan, nil
}

// List returns the user's active plan files, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*PlanFile, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one active plan file owned by the user.
func (s *Service) Get(ctx context.Context, userID, id string) (*PlanFile, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Remove soft-deletes a plan file. The stored object is kept; match attempts
// may still reference it.
func (s *Service) Remove(ctx context.Context, userID, id string) error {
	return s.repo.MarkRemoved(ctx, userID, id)
}

// ReadAll loads the full stored content of a plan file.
func (s *Service) ReadAll(ctx context.Context, plan *PlanFile) ([]byte, error) {
	rc, err := s.store.Open(ctx, plan.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("open plan object: %w", err)
	}
	defer rc.Close()

	limit := s.cfg.MaxFileSizeBytes
	if limit <= 0 {
		limit = 64 << 20
	}
	data, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read plan object: %w", err)
	}
	return data, nil
}
