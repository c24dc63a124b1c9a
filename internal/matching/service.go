package matching

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"planmatch-backend/internal/llm"
	"planmatch-backend/internal/plans"
	"planmatch-backend/internal/shared/metrics"
	"planmatch-backend/internal/shared/telemetry"
	"planmatch-backend/internal/usage"
)

const (
	defaultPromptVersion = "v2"
	attemptTimeout       = 2 * time.Minute
)

// errSchemaMismatch marks capability output that does not match the expected
// suggestion schema.
var errSchemaMismatch = errors.New("capability response does not match the suggestion schema")

// Quota gates how many attempts a user may start.
type Quota interface {
	Consume(ctx context.Context, userID string) error
}

// StartInput is the request body for starting a match attempt.
type StartInput struct {
	PlanFileID          string   `json:"planFileId"`
	PlanFileIDs         []string `json:"planFileIds"`
	Description         string   `json:"description"`
	ClarifyingQuestions string   `json:"clarifyingQuestions"`
}

// Service runs the build-invoke-enrich pipeline for match attempts.
type Service struct {
	repo     Repository
	plans    *plans.Service
	client   llm.Client
	quota    Quota
	delay    time.Duration
	provider string
	model    string
}

// NewService wires the matching service. quota may be nil to disable limits.
func NewService(repo Repository, planSvc *plans.Service, client llm.Client, quota Quota, delay time.Duration, provider, model string) *Service {
	return &Service{
		repo:     repo,
		plans:    planSvc,
		client:   client,
		quota:    quota,
		delay:    delay,
		provider: provider,
		model:    model,
	}
}

// Start validates the input, records a queued attempt, and resolves it in the
// background. When several plan files are supplied only the first is used.
func (s *Service) Start(ctx context.Context, userID string, input StartInput) (*Attempt, error) {
	planID := strings.TrimSpace(input.PlanFileID)
	if planID == "" && len(input.PlanFileIDs) > 0 {
		planID = strings.TrimSpace(input.PlanFileIDs[0])
	}
	if planID == "" {
		return nil, ErrMissingPlan
	}

	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, ErrMissingDescription
	}

	plan, err := s.plans.Get(ctx, userID, planID)
	if err != nil {
		return nil, err
	}

	if s.quota != nil {
		if err := s.quota.Consume(ctx, userID); err != nil {
			return nil, err
		}
	}

	token, err := s.repo.NextToken(ctx, userID, plan.ID)
	if err != nil {
		return nil, fmt.Errorf("issue attempt token: %w", err)
	}

	attempt := &Attempt{
		ID:          uuid.NewString(),
		UserID:      userID,
		PlanFileID:  plan.ID,
		Token:       token,
		Description: description,
		Questions:   strings.TrimSpace(input.ClarifyingQuestions),
		Provider:    s.provider,
		Model:       s.model,
		Status:      StatusQueued,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Insert(ctx, attempt); err != nil {
		return nil, fmt.Errorf("record attempt: %w", err)
	}

	metrics.IncMatchStarted()
	telemetry.Info("match attempt queued", map[string]any{
		"user_id":      userID,
		"attempt_id":   attempt.ID,
		"plan_file_id": plan.ID,
		"token":        token,
	})

	go s.resolveAsync(attempt, plan)

	return attempt, nil
}

// Get returns one attempt owned by the user.
func (s *Service) Get(ctx context.Context, userID, id string) (*Attempt, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// List returns the user's attempts, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]*Attempt, error) {
	return s.repo.ListByUser(ctx, userID)
}

// resolveAsync runs one attempt to a terminal state. It owns the attempt's
// copy exclusively; the handler only ever reads via the repository.
func (s *Service) resolveAsync(attempt *Attempt, plan *plans.PlanFile) {
	ctx, cancel := context.WithTimeout(context.Background(), attemptTimeout)
	defer cancel()

	started := time.Now().UTC()
	attempt.Status = StatusProcessing
	attempt.StartedAt = &started
	if err := s.repo.Update(ctx, attempt); err != nil {
		telemetry.Error("attempt update failed", map[string]any{
			"attempt_id": attempt.ID, "error": err.Error(),
		})
		return
	}

	// Fixed smoothing delay before the call. This is interactive pacing,
	// not a timeout or backoff policy.
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			s.fail(attempt, started, ctx.Err())
			return
		}
	}

	suggestions, err := s.invoke(ctx, attempt, plan)
	if err != nil {
		s.fail(attempt, started, err)
		return
	}

	// A stale attempt never resolves as completed: if a newer token was
	// issued for this (user, plan) while we were in flight, end superseded.
	latest, err := s.repo.LatestToken(ctx, attempt.UserID, attempt.PlanFileID)
	if err == nil && latest > attempt.Token {
		s.finish(attempt, started, StatusSuperseded, nil)
		metrics.IncMatchSuperseded()
		return
	}

	if len(suggestions) == 0 {
		s.finish(attempt, started, StatusNoMatches, []SuggestedContractor{})
		metrics.IncMatchNoMatches()
		return
	}

	s.finish(attempt, started, StatusCompleted, Enrich(suggestions))
	metrics.IncMatchCompleted()
}

func (s *Service) invoke(ctx context.Context, attempt *Attempt, plan *plans.PlanFile) ([]RawSuggestion, error) {
	content, err := s.plans.ReadAll(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("load plan content: %w", err)
	}

	req, err := BuildRequest(plan, content, attempt.Description, attempt.Questions)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.SuggestContractors(ctx, llm.MatchInput{
		PlanDataURI:         req.PlanDataURI,
		PlanOverview:        req.PlanOverview,
		ProjectDescription:  req.ProjectDescription,
		ClarifyingQuestions: req.ClarifyingQuestions,
		PromptVersion:       defaultPromptVersion,
	})
	if err != nil {
		return nil, err
	}

	return parseSuggestions(raw)
}

func (s *Service) finish(attempt *Attempt, started time.Time, status Status, result []SuggestedContractor) {
	completed := time.Now().UTC()
	attempt.Status = status
	attempt.Result = result
	attempt.CompletedAt = &completed

	durationMs := float64(completed.Sub(started).Milliseconds())
	metrics.ObserveMatchDurationMs(durationMs)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.repo.Update(ctx, attempt); err != nil {
		telemetry.Error("attempt update failed", map[string]any{
			"attempt_id": attempt.ID, "error": err.Error(),
		})
		return
	}

	telemetry.Info("match attempt resolved", map[string]any{
		"user_id":      attempt.UserID,
		"attempt_id":   attempt.ID,
		"plan_file_id": attempt.PlanFileID,
		"status":       string(status),
		"results":      len(result),
		"duration_ms":  durationMs,
	})
}

func (s *Service) fail(attempt *Attempt, started time.Time, cause error) {
	completed := time.Now().UTC()
	attempt.Status = StatusFailed
	attempt.ErrorCode = classifyFailure(cause)
	attempt.ErrorMessage = sanitizeError(cause)
	attempt.CompletedAt = &completed

	durationMs := float64(completed.Sub(started).Milliseconds())
	metrics.ObserveMatchDurationMs(durationMs)
	metrics.IncMatchFailed()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.repo.Update(ctx, attempt); err != nil {
		telemetry.Error("attempt update failed", map[string]any{
			"attempt_id": attempt.ID, "error": err.Error(),
		})
		return
	}

	telemetry.Error("match attempt failed", map[string]any{
		"user_id":      attempt.UserID,
		"attempt_id":   attempt.ID,
		"plan_file_id": attempt.PlanFileID,
		"error_code":   attempt.ErrorCode,
		"error":        attempt.ErrorMessage,
		"duration_ms":  durationMs,
	})
}

// parseSuggestions validates the capability's payload shape. The
// suggestedContractors key must be present; an empty array is a legitimate
// zero-match result, not an error.
func parseSuggestions(raw json.RawMessage) ([]RawSuggestion, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", errSchemaMismatch, err)
	}
	if _, ok := probe["suggestedContractors"]; !ok {
		return nil, fmt.Errorf("%w: missing suggestedContractors", errSchemaMismatch)
	}

	var payload suggestionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", errSchemaMismatch, err)
	}
	if payload.SuggestedContractors == nil {
		payload.SuggestedContractors = []RawSuggestion{}
	}
	for _, sug := range payload.SuggestedContractors {
		if strings.TrimSpace(sug.ContractorID) == "" {
			return nil, fmt.Errorf("%w: suggestion missing contractorId", errSchemaMismatch)
		}
	}
	return payload.SuggestedContractors, nil
}

func classifyFailure(err error) string {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return ErrCodeTimeout
	case errors.Is(err, errSchemaMismatch):
		return ErrCodeSchemaMismatch
	default:
		return ErrCodeExternalCall
	}
}

// sanitizeError trims the failure message to something safe to store and show.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.Join(strings.Fields(err.Error()), " ")
	if len(msg) > 300 {
		msg = msg[:300]
		for !utf8.ValidString(msg) && len(msg) > 0 {
			msg = msg[:len(msg)-1]
		}
	}
	return msg
}

var _ Quota = (*usage.Service)(nil)
