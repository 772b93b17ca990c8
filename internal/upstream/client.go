// Package upstream talks to the chat-completion API that expands a rendered
// request into a structured prompt. Clients issue exactly one request per
// call; retry policy belongs to the caller.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	ChatClientName   = "chat"
	OpenAIClientName = "openai"

	// DefaultModel is the vendor model used when no override is configured.
	DefaultModel = "gpt-4o-mini"

	defaultBaseURL = "https://api.openai.com/v1"
	defaultTimeout = 120 * time.Second
)

// Client is the contract for one-shot completion calls.
type Client interface {
	// Complete sends one chat request and returns the raw text reply.
	Complete(ctx context.Context, system, user string) (string, error)

	// Name returns the client identifier.
	Name() string
}

// UpstreamError reports a transport failure or non-2xx reply from the model
// API. StatusCode is zero for transport-level failures; Err then carries the
// underlying error so timeout and connection failures stay classifiable.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("upstream request failed: %s", e.Message)
	}
	return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap exposes the underlying transport error, if any.
func (e *UpstreamError) Unwrap() error { return e.Err }

// HTTPStatus exposes the status code for transient-failure classification.
func (e *UpstreamError) HTTPStatus() int { return e.StatusCode }

// Config holds settings shared by both client implementations.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration

	// HTTPClient overrides the transport (tests).
	HTTPClient *http.Client
}

func (c *Config) applyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.Timeout}
	}
}

// ChatClient speaks the OpenAI-compatible /chat/completions wire format
// directly over HTTP.
type ChatClient struct {
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewChatClient creates a raw HTTP chat-completion client.
func NewChatClient(cfg Config) *ChatClient {
	cfg.applyDefaults()
	return &ChatClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  cfg.HTTPClient,
	}
}

// Name returns the client identifier.
func (c *ChatClient) Name() string { return ChatClientName }

// Model returns the configured model identifier.
func (c *ChatClient) Model() string { return c.model }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type respFormat struct {
	Type string `json:"type"` // "json_object"
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends one request asking for a JSON-formatted reply and returns
// the raw assistant text. Any transport or non-2xx failure is an
// *UpstreamError; no retries happen here.
func (c *ChatClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &UpstreamError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &UpstreamError{Message: "failed to read response: " + err.Error(), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	var cr chatResponse
	if err := json.Unmarshal(respBody, &cr); err != nil {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Message: "failed to unmarshal response: " + err.Error()}
	}
	if cr.Error != nil {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Message: cr.Error.Message}
	}
	if len(cr.Choices) == 0 {
		return "", &UpstreamError{StatusCode: resp.StatusCode, Message: "no choices in response"}
	}

	return cr.Choices[0].Message.Content, nil
}
