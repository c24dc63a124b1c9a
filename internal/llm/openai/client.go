package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"planmatch-backend/internal/llm"
	"planmatch-backend/internal/shared/telemetry"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 60 * time.Second
)

// Client calls the OpenAI chat completions API to suggest contractors.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

// New builds a client from the environment. OPENAI_API_KEY is required.
func New(model string) (*Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	baseURL := strings.TrimSpace(os.Getenv("OPENAI_BASE_URL"))
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}

	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// SuggestContractors asks the model for contractor suggestions and returns the raw JSON payload.
func (c *Client) SuggestContractors(ctx context.Context, input llm.MatchInput) (json.RawMessage, error) {
	messages := c.buildMessages(input)

	raw, err := c.complete(ctx, messages)
	if err != nil {
		return nil, err
	}

	cleaned := stripCodeFence(raw)
	if json.Valid([]byte(cleaned)) {
		return json.RawMessage(cleaned), nil
	}

	// One repair round: feed the invalid output back and ask for valid JSON.
	fixed, err := c.complete(llm.WithFixJSON(ctx, cleaned), messages)
	if err != nil {
		return nil, err
	}
	fixed = stripCodeFence(fixed)
	if !json.Valid([]byte(fixed)) {
		return nil, fmt.Errorf("model returned invalid JSON after repair")
	}
	return json.RawMessage(fixed), nil
}

func (c *Client) buildMessages(input llm.MatchInput) []chatMessage {
	version := input.PromptVersion
	template, known := llm.PromptTemplate(version)
	if !known {
		telemetry.Warn("unknown prompt version, using default", map[string]any{"version": version})
	}

	system := strings.NewReplacer(
		"{{PROMPT_VERSION}}", version,
		"{{MODEL}}", c.model,
		"{{QUESTIONS_PROVIDED}}", fmt.Sprintf("%t", input.ClarifyingQuestions != ""),
	).Replace(template)

	var user strings.Builder
	user.WriteString("Project description:\n")
	user.WriteString(input.ProjectDescription)
	if input.PlanOverview != "" {
		user.WriteString("\n\nPlan overview (extracted):\n")
		user.WriteString(input.PlanOverview)
	}
	if input.ClarifyingQuestions != "" {
		user.WriteString("\n\nClarifying questions from prospective bidders:\n")
		user.WriteString(input.ClarifyingQuestions)
	}
	user.WriteString("\n\nHouse plan document (data URI):\n")
	user.WriteString(input.PlanDataURI)

	return []chatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: user.String()},
	}
}

func (c *Client) complete(ctx context.Context, messages []chatMessage) (string, error) {
	if raw, ok := llm.FixJSONFromContext(ctx); ok {
		messages = []chatMessage{
			{Role: "system", Content: "You fix malformed JSON. Return only the corrected JSON document, no commentary."},
			{Role: "user", Content: raw},
		}
	}

	body, err := json.Marshal(chatRequest{
		Model:          c.model,
		Messages:       messages,
		Temperature:    0.2,
		ResponseFormat: &responseFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := "unknown error"
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		return "", fmt.Errorf("openai status %d: %s", resp.StatusCode, msg)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}

	telemetry.Info("openai completion", map[string]any{
		"model":             c.model,
		"duration_ms":       time.Since(start).Milliseconds(),
		"prompt_tokens":     parsed.Usage.PromptTokens,
		"completion_tokens": parsed.Usage.CompletionTokens,
	})

	return parsed.Choices[0].Message.Content, nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
