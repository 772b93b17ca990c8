package upstream

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// OpenAIClient implements Client using the official OpenAI SDK. Selected with
// upstream type "openai"; the raw ChatClient stays the default because it
// works against any OpenAI-compatible endpoint.
type OpenAIClient struct {
	model  string
	client openai.Client
}

// NewOpenAIClient creates an SDK-backed completion client. SDK-level retries
// are disabled; the caller owns retry policy.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	cfg.applyDefaults()

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(cfg.HTTPClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != defaultBaseURL {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		model:  cfg.Model,
		client: openai.NewClient(opts...),
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string { return OpenAIClientName }

// Complete sends one chat request and returns the raw assistant text.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		var apierr *openai.Error
		if errors.As(err, &apierr) {
			return "", &UpstreamError{StatusCode: apierr.StatusCode, Message: err.Error(), Err: err}
		}
		return "", &UpstreamError{Message: err.Error(), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &UpstreamError{Message: "no choices in response"}
	}
	return resp.Choices[0].Message.Content, nil
}
