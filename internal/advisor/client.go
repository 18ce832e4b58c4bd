// Package advisor produces LLM-backed second opinions for a contract:
// a scored narrative, a middle-risk plan and three decision routes. The
// model output is advisory only; the rule engine still owns the score.
package advisor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Defaults for the chat completion calls.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"

	OpinionTemperature = 0.4
	OpinionMaxTokens   = 900
	PlanTemperature    = 0.7
	RoutesTemperature  = 0.7
)

// Common errors returned by the advisory client.
var (
	ErrNoAPIKey     = errors.New("advisor: API key not configured")
	ErrRateLimit    = errors.New("advisor: rate limit exceeded")
	ErrProviderDown = errors.New("advisor: provider unavailable")
)

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one chat completion call.
type Request struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Messages    []Message
	StrictJSON  bool
}

// Provider is the LLM surface the engine depends on. Implementations
// return the raw assistant text.
type Provider interface {
	Chat(ctx context.Context, req Request) (string, error)
}

// Client talks to an OpenAI-compatible Chat Completions endpoint.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithBaseURL points the client at a proxy or compatible endpoint.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithModel sets the default model.
func WithModel(model string) ClientOption {
	return func(c *Client) { c.model = model }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.client = hc }
}

// NewClient creates an advisory client.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
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
}

type apiErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error"`
}

// Chat sends one completion request and returns the assistant text.
// Callers that need JSON should set StrictJSON and be prepared to retry
// without it: some proxies reject response_format outright.
func (c *Client) Chat(ctx context.Context, req Request) (string, error) {
	body := chatRequest{
		Model:    req.Model,
		Messages: req.Messages,
	}
	if body.Model == "" {
		body.Model = c.model
	}
	if req.Temperature > 0 {
		body.Temperature = &req.Temperature
	}
	if req.MaxTokens > 0 {
		body.MaxTokens = &req.MaxTokens
	}
	if req.StrictJSON {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("advisor: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderDown, err)
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return "", err
	}

	var result chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("advisor: decode response: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("advisor: empty response")
	}
	return result.Choices[0].Message.Content, nil
}

// ChatJSON asks for strict JSON first and falls back to a plain call
// when the endpoint rejects the response_format parameter.
func ChatJSON(ctx context.Context, p Provider, req Request) (string, error) {
	req.StrictJSON = true
	out, err := p.Chat(ctx, req)
	if err == nil {
		return out, nil
	}
	if errors.Is(err, ErrRateLimit) || errors.Is(err, ErrNoAPIKey) {
		return "", err
	}
	req.StrictJSON = false
	return p.Chat(ctx, req)
}

func checkError(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var apiErr apiErrorResponse
	if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrNoAPIKey, apiErr.Error.Message)
		case http.StatusTooManyRequests, 529:
			return fmt.Errorf("%w: %s", ErrRateLimit, apiErr.Error.Message)
		}
		return fmt.Errorf("advisor: API error (%d): %s", resp.StatusCode, apiErr.Error.Message)
	}
	return fmt.Errorf("advisor: HTTP %d: %s", resp.StatusCode, string(body))
}
