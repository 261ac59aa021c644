/*
Package ai wraps the language-model API behind a narrow "ask for JSON"
capability. Callers describe what they want and receive the raw JSON the
model produced; schema validation belongs to the caller, transport and
prompting live here.

The HTTP implementation talks to an OpenAI-compatible chat-completions
endpoint. There is deliberately no streaming, no tool calling, and no
retry: interview question generation is a low-volume admin action and the
HTTP layer surfaces failures directly.
*/
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
)

var (
	// ErrMissingAPIKey means the client was constructed without credentials.
	ErrMissingAPIKey = errors.New("ai: missing API key")

	// ErrEmptyCompletion means the model returned no content.
	ErrEmptyCompletion = errors.New("ai: empty completion")
)

// Request describes one completion call.
type Request struct {
	Model       string
	System      string
	Prompt      string
	Temperature float64
}

// Client asks a language model for JSON output.
type Client interface {
	// CompleteJSON returns the model's raw response content, trimmed.
	// The content is expected to be valid JSON but is not validated here.
	CompleteJSON(ctx context.Context, req Request) ([]byte, error)
}

// =============================================================================
// HTTP CLIENT (OpenAI-compatible chat completions)
// =============================================================================

type HTTPClient struct {
	APIKey  string
	BaseURL string
	Model   string
	HTTP    *http.Client
}

// NewFromEnv builds a client from OPENAI_API_KEY / OPENAI_BASE_URL /
// OPENAI_MODEL. The key may be empty; calls then fail with ErrMissingAPIKey,
// which lets feature flags treat "no key" as "feature disabled".
func NewFromEnv() *HTTPClient {
	return &HTTPClient{
		APIKey:  os.Getenv("OPENAI_API_KEY"),
		BaseURL: os.Getenv("OPENAI_BASE_URL"),
		Model:   os.Getenv("OPENAI_MODEL"),
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

// Enabled reports whether the client has credentials.
func (c *HTTPClient) Enabled() bool { return c.APIKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func (c *HTTPClient) CompleteJSON(ctx context.Context, req Request) ([]byte, error) {
	if c.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := req.Model
	if model == "" {
		model = c.Model
	}
	if model == "" {
		model = defaultModel
	}
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ai: completion request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("ai: read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("ai: decode response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("ai: api error (%s): %s", parsed.Error.Type, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai: unexpected status %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return nil, ErrEmptyCompletion
	}
	return []byte(content), nil
}
