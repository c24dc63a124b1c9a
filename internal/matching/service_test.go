package matching

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"planmatch-backend/internal/llm"
	"planmatch-backend/internal/plans"
	"planmatch-backend/internal/shared/storage/object/local"
	"planmatch-backend/internal/usage"
)

type stubClient struct {
	fn func(ctx context.Context, input llm.MatchInput) (json.RawMessage, error)
}

func (s stubClient) SuggestContractors(ctx context.Context, input llm.MatchInput) (json.RawMessage, error) {
	return s.fn(ctx, input)
}

func newTestPlans(t *testing.T) *plans.Service {
	t.Helper()
	return plans.NewService(plans.NewMemoryRepository(), local.New(t.TempDir()), plans.IngestConfig{
		MaxFiles:         5,
		MaxFileSizeBytes: 10 << 20,
		AllowedTypes:     []string{".pdf", "application/pdf"},
	})
}

func uploadTestPlan(t *testing.T, svc *plans.Service, userID string) *plans.PlanFile {
	t.Helper()
	result, err := svc.UploadBatch(context.Background(), userID, []plans.Upload{{
		FileName:  "plan.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 13,
		Content:   strings.NewReader("%PDF-1.4 fake"),
	}})
	require.NoError(t, err)
	require.Len(t, result.Accepted, 1)
	return result.Accepted[0]
}

func waitForTerminal(t *testing.T, svc *Service, userID, id string) *Attempt {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		attempt, err := svc.Get(context.Background(), userID, id)
		require.NoError(t, err)
		if attempt.Terminal() {
			return attempt
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("attempt did not reach a terminal state")
	return nil
}

func newTestService(t *testing.T, planSvc *plans.Service, client llm.Client, quota Quota) *Service {
	t.Helper()
	return NewService(NewMemoryRepository(), planSvc, client, quota, 0, "openai", "gpt-test")
}

func TestStartValidation(t *testing.T) {
	planSvc := newTestPlans(t)
	svc := newTestService(t, planSvc, stubClient{}, nil)

	_, err := svc.Start(context.Background(), "u1", StartInput{Description: "remodel"})
	assert.ErrorIs(t, err, ErrMissingPlan)

	_, err = svc.Start(context.Background(), "u1", StartInput{PlanFileID: "p1", Description: "   "})
	assert.ErrorIs(t, err, ErrMissingDescription)

	_, err = svc.Start(context.Background(), "u1", StartInput{PlanFileID: "missing", Description: "remodel"})
	assert.ErrorIs(t, err, plans.ErrNotFound)
}

func TestAttemptCompletesWithEnrichedResults(t *testing.T) {
	planSvc := newTestPlans(t)
	plan := uploadTestPlan(t, planSvc, "u1")

	var gotInput llm.MatchInput
	client := stubClient{fn: func(ctx context.Context, input llm.MatchInput) (json.RawMessage, error) {
		gotInput = input
		return json.RawMessage(`{"suggestedContractors":[
			{"contractorId":"c-1","tags":[{"tagName":"framing","score":90}],"overallScore":85},
			{"contractorId":"c-2","tags":[],"overallScore":70}
		]}`), nil
	}}
	svc := newTestService(t, planSvc, client, nil)

	attempt, err := svc.Start(context.Background(), "u1", StartInput{
		PlanFileIDs: []string{plan.ID, "ignored-second"},
		Description: "Remodel the kitchen",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, attempt.Status)

	final := waitForTerminal(t, svc, "u1", attempt.ID)
	assert.Equal(t, StatusCompleted, final.Status)
	require.Len(t, final.Result, 2)
	assert.Equal(t, "Contractor A (AI Matched)", final.Result[0].Name)
	assert.Equal(t, "Contractor B (AI Matched)", final.Result[1].Name)
	assert.Equal(t, "c-1", final.Result[0].ContractorID)
	assert.NotNil(t, final.CompletedAt)

	assert.True(t, strings.HasPrefix(gotInput.PlanDataURI, "data:application/pdf;base64,"))
	assert.Equal(t, "Remodel the kitchen", gotInput.ProjectDescription)
}

func TestAttemptNoMatchesIsDistinctFromFailure(t *testing.T) {
	planSvc := newTestPlans(t)
	plan := uploadTestPlan(t, planSvc, "u1")

	client := stubClient{fn: func(ctx context.Context, input llm.MatchInput) (json.RawMessage, error) {
		return json.RawMessage(`{"suggestedContractors":[]}`), nil
	}}
	svc := newTestService(t, planSvc, client, nil)

	attempt, err := svc.Start(context.Background(), "u1", StartInput{PlanFileID: plan.ID, Description: "remodel"})
	require.NoError(t, err)

	final := waitForTerminal(t, svc, "u1", attempt.ID)
	assert.Equal(t, StatusNoMatches, final.Status)
	assert.Empty(t, final.Result)
	assert.Empty(t, final.ErrorCode)
}

func TestAttemptFailureClassification(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(ctx context.Context, input llm.MatchInput) (json.RawMessage, error)
		wantCode string
	}{
		{
			name: "capability error",
			fn: func(ctx context.Context, input llm.MatchInput) (json.RawMessage, error) {
				return nil, assert.AnError
			},
			wantCode: ErrCodeExternalCall,
		},
		{
			name: "schema mismatch",
			fn: func(ctx context.Context, input llm.MatchInput) (json.RawMessage, error) {
				return json.RawMessage(`{"somethingElse":true}`), nil
			},
			wantCode: ErrCodeSchemaMismatch,
		},
		{
			name: "timeout",
			fn: func(ctx context.Context, input llm.MatchInput) (json.RawMessage, error) {
				return nil, context.DeadlineExceeded
			},
			wantCode: ErrCodeTimeout,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			planSvc := newTestPlans(t)
			plan := uploadTestPlan(t, planSvc, "u1")
			svc := newTestService(t, planSvc, stubClient{fn: tc.fn}, nil)

			attempt, err := svc.Start(context.Background(), "u1", StartInput{PlanFileID: plan.ID, Description: "remodel"})
			require.NoError(t, err)

			final := waitForTerminal(t, svc, "u1", attempt.ID)
			assert.Equal(t, StatusFailed, final.Status)
			assert.Equal(t, tc.wantCode, final.ErrorCode)
			assert.NotEmpty(t, final.ErrorMessage)
		})
	}
}

func TestStaleAttemptEndsSuperseded(t *testing.T) {
	planSvc := newTestPlans(t)
	plan := uploadTestPlan(t, planSvc, "u1")

	release := make(chan struct{})
	firstCall := make(chan struct{}, 1)
	var calls atomic.Int32
	client := stubClient{fn: func(ctx context.Context, input llm.MatchInput) (json.RawMessage, error) {
		if calls.Add(1) == 1 {
			firstCall <- struct{}{}
			<-release
		}
		return json.RawMessage(`{"suggestedContractors":[{"contractorId":"c-1","tags":[],"overallScore":50}]}`), nil
	}}
	svc := newTestService(t, planSvc, client, nil)

	stale, err := svc.Start(context.Background(), "u1", StartInput{PlanFileID: plan.ID, Description: "remodel"})
	require.NoError(t, err)

	// Wait until the first attempt is inside the capability call, then
	// start a newer one for the same plan.
	select {
	case <-firstCall:
	case <-time.After(2 * time.Second):
		t.Fatal("first attempt never invoked the capability")
	}

	fresh, err := svc.Start(context.Background(), "u1", StartInput{PlanFileID: plan.ID, Description: "remodel"})
	require.NoError(t, err)

	freshFinal := waitForTerminal(t, svc, "u1", fresh.ID)
	assert.Equal(t, StatusCompleted, freshFinal.Status)

	close(release)
	staleFinal := waitForTerminal(t, svc, "u1", stale.ID)
	assert.Equal(t, StatusSuperseded, staleFinal.Status)
	assert.Empty(t, staleFinal.Result)
}

func TestStartConsumesQuota(t *testing.T) {
	planSvc := newTestPlans(t)
	plan := uploadTestPlan(t, planSvc, "u1")

	quotaSvc := usage.NewService(usage.NewMemoryRepository())
	client := stubClient{fn: func(ctx context.Context, input llm.MatchInput) (json.RawMessage, error) {
		return json.RawMessage(`{"suggestedContractors":[]}`), nil
	}}
	svc := newTestService(t, planSvc, client, quotaSvc)

	for i := 0; i < 10; i++ {
		attempt, err := svc.Start(context.Background(), "u1", StartInput{PlanFileID: plan.ID, Description: "remodel"})
		require.NoError(t, err)
		waitForTerminal(t, svc, "u1", attempt.ID)
	}

	_, err := svc.Start(context.Background(), "u1", StartInput{PlanFileID: plan.ID, Description: "remodel"})
	assert.ErrorIs(t, err, usage.ErrQuotaExceeded)
}

func TestParseSuggestionsRequiresContractorID(t *testing.T) {
	_, err := parseSuggestions(json.RawMessage(`{"suggestedContractors":[{"contractorId":"","tags":[],"overallScore":10}]}`))
	assert.ErrorIs(t, err, errSchemaMismatch)
}

func TestSanitizeErrorKeepsValidUTF8(t *testing.T) {
	long := strings.Repeat("é", 200) // 400 bytes; the cap lands mid-rune
	msg := sanitizeError(errors.New(long))

	assert.True(t, utf8.ValidString(msg))
	assert.LessOrEqual(t, len(msg), 300)
	assert.NotEmpty(t, msg)
}
