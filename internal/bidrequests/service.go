package bidrequests

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"planmatch-backend/internal/notifications"
	"planmatch-backend/internal/plans"
	"planmatch-backend/internal/shared/metrics"
	"planmatch-backend/internal/shared/server/middleware"
	"planmatch-backend/internal/shared/telemetry"
)

var (
	// ErrMissingTitle is returned when a bid request has no title.
	ErrMissingTitle = errors.New("a title is required")
	// ErrMissingDescription is returned when a bid request has no description.
	ErrMissingDescription = errors.New("a description is required")
	// ErrInvalidCategory is returned for a category outside the known set.
	ErrInvalidCategory = errors.New("unknown project category")
	// ErrEmptyBody is returned when a question or answer has no text.
	ErrEmptyBody = errors.New("a message body is required")
	// ErrNotOwner is returned when a non-owner acts on a bid request.
	ErrNotOwner = errors.New("bid request belongs to another client")
	// ErrNotOpen is returned when the bid request no longer accepts changes.
	ErrNotOpen = errors.New("bid request is not open")
)

// CreateInput is the payload for posting a bid request.
type CreateInput struct {
	Title                      string   `json:"title"`
	Description                string   `json:"description"`
	InitialClarifyingQuestions string   `json:"initialClarifyingQuestions"`
	Category                   string   `json:"category"`
	Location                   string   `json:"location"`
	PlanFileIDs                []string `json:"planFileIds"`
	BiddingEndDate             string   `json:"biddingEndDate"` // RFC 3339, optional
}

// Service manages bid requests and their clarifying-question threads.
type Service struct {
	repo   Repository
	plans  *plans.Service
	notify *notifications.Service
	window time.Duration
	now    func() time.Time
}

// NewService wires the bid request service. window is the default bidding
// window applied when the client does not pick an end date.
func NewService(repo Repository, planSvc *plans.Service, notify *notifications.Service, window time.Duration) *Service {
	return &Service{repo: repo, plans: planSvc, notify: notify, window: window, now: time.Now}
}

// Create posts a new bid request for the client. The bidding window must end
// strictly after the posted date; this is enforced at construction, not left
// to callers.
func (s *Service) Create(ctx context.Context, clientID, clientName string, input CreateInput) (*BidRequest, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrMissingTitle
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, ErrMissingDescription
	}
	category, err := normalizeCategory(input.Category)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	endAt := now.Add(s.window)
	if raw := strings.TrimSpace(input.BiddingEndDate); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: bad biddingEndDate", ErrInvalidWindow)
		}
		endAt = parsed.UTC()
	}

	request, err := NewBidRequest(uuid.NewString(), clientID, clientName, title, description, now, endAt)
	if err != nil {
		return nil, err
	}
	request.InitialQuestions = strings.TrimSpace(input.InitialClarifyingQuestions)
	request.Category = category
	request.Location = strings.TrimSpace(input.Location)

	// Attach owned plan files; the first readable overview becomes the
	// request's plan overview shown in listings.
	for _, planID := range input.PlanFileIDs {
		plan, err := s.plans.Get(ctx, clientID, planID)
		if err != nil {
			return nil, err
		}
		request.PlanFileIDs = append(request.PlanFileIDs, plan.ID)
		if request.PlanOverview == "" && plan.Overview != "" {
			request.PlanOverview = shorten(plan.Overview, 280)
		}
	}

	if err := s.repo.Insert(ctx, request); err != nil {
		return nil, fmt.Errorf("persist bid request: %w", err)
	}

	metrics.IncBidRequestCreated()
	telemetry.Info("bid request created", map[string]any{
		"bid_request_id": request.ID,
		"client_id":      clientID,
		"plan_files":     len(request.PlanFileIDs),
		"bidding_end_at": request.BiddingEndAt,
	})
	return request, nil
}

// Browse runs the listing pipeline over all bid requests: title filter, then
// tab partition, then sort, in exactly that order.
func (s *Service) Browse(ctx context.Context, term, tab, sortKey string) ([]Summary, error) {
	requests, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	summaries := make([]Summary, 0, len(requests))
	for _, b := range requests {
		summaries = append(summaries, b.Summarize(now))
	}
	return ApplyListing(summaries, term, tab, sortKey), nil
}

// ListMine returns the client's own bid requests, newest first.
func (s *Service) ListMine(ctx context.Context, clientID string) ([]*BidRequest, error) {
	return s.repo.ListByClient(ctx, clientID)
}

// Get returns one bid request.
func (s *Service) Get(ctx context.Context, id string) (*BidRequest, error) {
	return s.repo.GetByID(ctx, id)
}

// AskQuestion posts a clarifying question and notifies the request owner.
func (s *Service) AskQuestion(ctx context.Context, bidRequestID, userID, role, name, body string) (*Question, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	request, err := s.repo.GetByID(ctx, bidRequestID)
	if err != nil {
		return nil, err
	}
	if request.Status != StatusOpen {
		return nil, ErrNotOpen
	}

	question := &Question{
		ID:           uuid.NewString(),
		BidRequestID: bidRequestID,
		AskedBy:      userID,
		AskedByRole:  role,
		AskerName:    name,
		Body:         body,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.InsertQuestion(ctx, question); err != nil {
		return nil, fmt.Errorf("persist question: %w", err)
	}

	if userID != request.ClientID {
		s.notify.Push(ctx, request.ClientID,
			"New question on "+request.Title,
			shorten(body, 140),
			notifications.KindQuestion,
			"/bid-requests/"+request.ID)
	}
	return question, nil
}

// AnswerQuestion posts an answer. Only the request owner or an admin may
// answer; an owner answer marks the question resolved.
func (s *Service) AnswerQuestion(ctx context.Context, questionID, userID, role, name, body string) (*Answer, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyBody
	}
	question, err := s.repo.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	request, err := s.repo.GetByID(ctx, question.BidRequestID)
	if err != nil {
		return nil, err
	}
	if userID != request.ClientID && role != middleware.RoleAdmin {
		return nil, ErrNotOwner
	}

	answer := &Answer{
		ID:           uuid.NewString(),
		QuestionID:   questionID,
		AnsweredBy:   userID,
		AnsweredRole: role,
		AnswererName: name,
		Body:         body,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.repo.InsertAnswer(ctx, answer); err != nil {
		return nil, fmt.Errorf("persist answer: %w", err)
	}

	if question.AskedBy != userID {
		s.notify.Push(ctx, question.AskedBy,
			"Your question on "+request.Title+" was answered",
			shorten(body, 140),
			notifications.KindAnswer,
			"/bid-requests/"+request.ID)
	}
	return answer, nil
}

// Questions returns the request's question thread with answers attached,
// oldest first.
func (s *Service) Questions(ctx context.Context, bidRequestID string) ([]*Question, error) {
	if _, err := s.repo.GetByID(ctx, bidRequestID); err != nil {
		return nil, err
	}
	questions, err := s.repo.ListQuestions(ctx, bidRequestID)
	if err != nil {
		return nil, err
	}
	answers, err := s.repo.ListAnswersByRequest(ctx, bidRequestID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[string][]*Answer, len(questions))
	for _, a := range answers {
		byQuestion[a.QuestionID] = append(byQuestion[a.QuestionID], a)
	}
	for _, q := range questions {
		q.Answers = byQuestion[q.ID]
		q.Resolved = q.Resolved || len(q.Answers) > 0
	}
	return questions, nil
}

// MarkAwarded transitions the request to awarded. Only the owning client may
// award, and only while the request is open.
func (s *Service) MarkAwarded(ctx context.Context, clientID, bidRequestID, bidID string) (*BidRequest, error) {
	request, err := s.repo.GetByID(ctx, bidRequestID)
	if err != nil {
		return nil, err
	}
	if request.ClientID != clientID {
		return nil, ErrNotOwner
	}
	if request.Status != StatusOpen {
		return nil, ErrNotOpen
	}

	request.Status = StatusAwarded
	request.AwardedBidID = bidID
	if err := s.repo.Update(ctx, request); err != nil {
		return nil, fmt.Errorf("award bid request: %w", err)
	}

	telemetry.Info("bid request awarded", map[string]any{
		"bid_request_id": request.ID,
		"client_id":      clientID,
		"bid_id":         bidID,
	})
	return request, nil
}

func normalizeCategory(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	for _, c := range []string{CategoryResidential, CategoryCommercial, CategoryRenovation, CategoryNewBuild} {
		if strings.EqualFold(raw, c) {
			return c, nil
		}
	}
	return "", ErrInvalidCategory
}

func shorten(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := s[:limit]
	for !utf8.ValidString(cut) && len(cut) > 0 {
		cut = cut[:len(cut)-1]
	}
	return cut
}
