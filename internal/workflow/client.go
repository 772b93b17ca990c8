package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/promptweaver/weaver/internal/schema"
)

// Error codes in webhook client responses. Parallel to but distinct from the
// assistant taxonomy.
const (
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeNoCredits     = "NO_CREDITS"
	CodeConfigMissing = "CONFIG_MISSING"
	CodeRequestFailed = "REQUEST_FAILED"
	CodeParseError    = "PARSE_ERROR"
	CodeNetworkError  = "NETWORK_ERROR"
)

// PromptPackage is the finished prompt pair the engine produces at the end
// of a conversation.
type PromptPackage struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
}

// Response is the normalized reply from the workflow engine. On failure,
// Success is false and Code carries the classification; nothing from this
// client escapes as an unhandled fault.
type Response struct {
	Success          bool           `json:"success"`
	Ready            bool           `json:"ready,omitempty"`
	Questions        []string       `json:"questions,omitempty"`
	Final            map[string]any `json:"final,omitempty"`
	PromptPackage    *PromptPackage `json:"prompt_package,omitempty"`
	RemainingCredits *int           `json:"remaining_credits,omitempty"`
	Message          string         `json:"message,omitempty"`

	Code string `json:"code,omitempty"`
	Err  string `json:"error,omitempty"`
}

// Client forwards chat messages to the engine. The caller's session token is
// an explicit parameter on every call, never ambient state.
type Client struct {
	table  *Table
	client *http.Client
	logger *slog.Logger
}

// NewClient creates a webhook client over the given table. A nil httpClient
// gets a 60s-timeout default.
func NewClient(table *Table, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{table: table, client: httpClient, logger: logger}
}

// Send forwards one chat message for the given kind and normalizes the reply.
func (c *Client) Send(ctx context.Context, kind schema.Kind, token, message string) *Response {
	wf, ok := c.table.Get(kind)
	if !ok || wf.WebhookURL == "" {
		return failure(CodeConfigMissing, fmt.Sprintf("no webhook configured for %q", kind))
	}
	if token == "" {
		return failure(CodeUnauthorized, "no active session")
	}

	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return failure(CodeRequestFailed, "failed to encode message: "+err.Error())
	}

	raw, resp := c.post(ctx, wf.WebhookURL, token, body)
	if resp != nil {
		return resp
	}
	return normalize(raw)
}

// RunStatus is one status check of an in-flight workflow run.
type RunStatus struct {
	Status  string         `json:"status"`
	Final   map[string]any `json:"final,omitempty"`
	Message string         `json:"message,omitempty"`

	Code string `json:"code,omitempty"`
	Err  string `json:"error,omitempty"`
}

// Terminal reports whether the run has finished either way.
func (s *RunStatus) Terminal() bool {
	return s.Status == "succeeded" || s.Status == "failed"
}

// Status issues one status check for a run.
func (c *Client) Status(ctx context.Context, kind schema.Kind, token, runID string) *RunStatus {
	wf, ok := c.table.Get(kind)
	if !ok || wf.WebhookURL == "" {
		return &RunStatus{Code: CodeConfigMissing, Err: fmt.Sprintf("no webhook configured for %q", kind)}
	}
	if token == "" {
		return &RunStatus{Code: CodeUnauthorized, Err: "no active session"}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wf.WebhookURL+"/runs/"+runID, nil)
	if err != nil {
		return &RunStatus{Code: CodeRequestFailed, Err: err.Error()}
	}
	req.Header.Set("Authorization", "Bearer "+token)

	httpResp, err := c.client.Do(req)
	if err != nil {
		return &RunStatus{Code: CodeNetworkError, Err: err.Error()}
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return &RunStatus{Code: CodeNetworkError, Err: err.Error()}
	}

	if code, msg := classifyStatus(httpResp.StatusCode, raw); code != "" {
		return &RunStatus{Code: code, Err: msg}
	}

	payload, err := unwrap(raw)
	if err != nil {
		return &RunStatus{Code: CodeParseError, Err: err.Error()}
	}

	status := &RunStatus{}
	if v, ok := payload["status"].(string); ok {
		status.Status = v
	}
	if v, ok := payload["final"].(map[string]any); ok {
		status.Final = v
	}
	if v, ok := payload["message"].(string); ok {
		status.Message = v
	}
	return status
}

// post does the webhook POST and classifies failures. Returns the raw body
// on success, or a ready-made failure response.
func (c *Client) post(ctx context.Context, url, token string, body []byte) ([]byte, *Response) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, failure(CodeRequestFailed, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	httpResp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("webhook request failed", "url", url, "error", err)
		return nil, failure(CodeNetworkError, err.Error())
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, failure(CodeNetworkError, "failed to read reply: "+err.Error())
	}

	if code, msg := classifyStatus(httpResp.StatusCode, raw); code != "" {
		return nil, failure(code, msg)
	}
	return raw, nil
}

// classifyStatus maps a webhook HTTP status to an error code; "" means 2xx.
// The failure message comes from the reply body when it carries one.
func classifyStatus(statusCode int, raw []byte) (code, msg string) {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "", ""
	case statusCode == http.StatusUnauthorized:
		return CodeUnauthorized, bodyMessage(raw, "session expired or invalid")
	case statusCode == http.StatusPaymentRequired:
		return CodeNoCredits, bodyMessage(raw, "insufficient credits")
	default:
		return CodeRequestFailed, bodyMessage(raw, fmt.Sprintf("webhook returned status %d", statusCode))
	}
}

// bodyMessage pulls a message out of an error reply body, falling back when
// the body has none.
func bodyMessage(raw []byte, fallback string) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Message != "" {
			return body.Message
		}
		if body.Error != "" {
			return body.Error
		}
	}
	return fallback
}

// unwrap decodes a reply body, tolerating either a bare payload or one
// wrapped under a "data" key.
func unwrap(raw []byte) (map[string]any, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("reply is not a JSON object: %w", err)
	}
	if inner, ok := payload["data"].(map[string]any); ok {
		return inner, nil
	}
	return payload, nil
}

// normalize maps a decoded success payload onto the client response shape.
func normalize(raw []byte) *Response {
	payload, err := unwrap(raw)
	if err != nil {
		return failure(CodeParseError, err.Error())
	}

	resp := &Response{Success: true}
	if v, ok := payload["ready"].(bool); ok {
		resp.Ready = v
	}
	if v, ok := payload["questions"].([]any); ok {
		for _, q := range v {
			if s, ok := q.(string); ok {
				resp.Questions = append(resp.Questions, s)
			}
		}
	}
	if v, ok := payload["final"].(map[string]any); ok {
		resp.Final = v
	}
	if v, ok := payload["prompt_package"].(map[string]any); ok {
		pkg := &PromptPackage{}
		if s, ok := v["prompt"].(string); ok {
			pkg.Prompt = s
		}
		if s, ok := v["negative_prompt"].(string); ok {
			pkg.NegativePrompt = s
		}
		resp.PromptPackage = pkg
	}
	if v, ok := payload["remaining_credits"].(float64); ok {
		credits := int(v)
		resp.RemainingCredits = &credits
	}
	if v, ok := payload["message"].(string); ok {
		resp.Message = v
	}
	return resp
}

func failure(code, message string) *Response {
	return &Response{Success: false, Code: code, Err: message}
}
