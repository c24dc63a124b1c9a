package bootstrap

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"planmatch-backend/internal/shared/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Port:             "0",
		Env:              "dev",
		ObjectStoreType:  "local",
		LocalStoreDir:    t.TempDir(),
		LLMProvider:      "none",
		MatchDelay:       0,
		MaxPlanFiles:     5,
		MaxPlanFileMB:    10,
		AllowedPlanTypes: []string{".pdf", "application/pdf", "image/*"},
		BiddingWindow:    7 * 24 * time.Hour,
	}
}

func buildTestApp(t *testing.T) *App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	app, err := Build(testConfig(t))
	require.NoError(t, err)
	require.Nil(t, app.DB)
	return app
}

func doJSON(t *testing.T, app *App, method, path, guestID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if guestID != "" {
		req.Header.Set("X-Guest-Id", guestID)
	}
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	return resp
}

func TestHealthAndMetricsNeedNoAuth(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/health", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "match_attempts_started_total")
}

func TestAPIRejectsAnonymousRequests(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/plans", "", nil)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestGuestCanStagePlansAndPostBidRequest(t *testing.T) {
	app := buildTestApp(t)
	guestID := "11111111-1111-1111-1111-111111111111"

	// Stage a plan file.
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", "floorplan.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plans", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Guest-Id", guestID)
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var uploaded struct {
		Accepted []struct {
			ID       string `json:"id"`
			FileName string `json:"fileName"`
		} `json:"accepted"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	require.Len(t, uploaded.Accepted, 1)

	// Post a bid request referencing the staged plan. Guests act as clients.
	resp := doJSON(t, app, http.MethodPost, "/api/v1/bid-requests", guestID, map[string]any{
		"title":       "Kitchen Remodel",
		"description": "Full kitchen gut and rebuild",
		"category":    "Renovation",
		"planFileIds": []string{uploaded.Accepted[0].ID},
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created struct {
		Success      bool   `json:"success"`
		BidRequestID string `json:"bidRequestId"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))
	require.True(t, created.Success)
	require.NotEmpty(t, created.BidRequestID)

	// The new request shows up in the browse listing.
	listResp := doJSON(t, app, http.MethodGet, "/api/v1/bid-requests?tab=All+Projects", guestID, nil)
	require.Equal(t, http.StatusOK, listResp.Code)
	require.Contains(t, listResp.Body.String(), "Kitchen Remodel")
}

func TestGuestProfileComesFromSession(t *testing.T) {
	app := buildTestApp(t)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/me", "22222222-2222-2222-2222-222222222222", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var profile struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &profile))
	require.True(t, strings.HasPrefix(profile.ID, "guest:"))
	require.Equal(t, "client", profile.Role)
}
