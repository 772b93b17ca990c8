// Package assistant orchestrates one prompt generation: validate the request,
// render the prompt, call the upstream model, and check the reply against the
// response contract. Per request the flow is linear; every failure
// short-circuits into a uniform error envelope.
package assistant

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/promptweaver/weaver/internal/prompt"
	"github.com/promptweaver/weaver/internal/retry"
	"github.com/promptweaver/weaver/internal/schema"
	"github.com/promptweaver/weaver/internal/upstream"
)

// Error codes surfaced to callers. The UI branches on these, never on
// message text.
const (
	CodeValidation       = "validation_error"
	CodeAIService        = "ai_service_error"
	CodeParsing          = "parsing_error"
	CodeSchemaValidation = "schema_validation_error"
	CodeServer           = "server_error"
	CodeRateLimited      = "rate_limited"
)

// Service runs the generation flow against one upstream client.
type Service struct {
	client upstream.Client
	logger *slog.Logger

	// Transient upstream failures are retried here rather than inside the
	// client, keeping the client one-shot.
	retryOpts retry.Options
}

// New creates a Service. A nil logger falls back to slog.Default.
func New(client upstream.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		client:    client,
		logger:    logger,
		retryOpts: retry.Options{},
	}
}

// Generate processes one raw request body and always returns a complete
// response envelope: either the success payload or a coded failure. Invalid
// input never reaches the upstream client.
func (s *Service) Generate(ctx context.Context, raw []byte) *schema.GenerateResponse {
	requestID := uuid.New().String()
	log := s.logger.With("request_id", requestID)
	start := time.Now()

	log.Info("generation request received", "bytes", len(raw))

	req, err := schema.ValidateRequest(raw)
	if err != nil {
		log.Error("request validation failed", "error", err)
		return fail(requestID, CodeValidation, err.Error())
	}
	log.Info("request validated", "type", req.Type)

	userMsg := prompt.Build(req)
	log.Info("prompt built", "chars", len(userMsg))

	text, err := retry.Do(ctx, func(ctx context.Context) (string, error) {
		return s.client.Complete(ctx, prompt.SystemInstruction, userMsg)
	}, s.retryOpts)
	if err != nil {
		log.Error("upstream call failed", "client", s.client.Name(), "error", err)
		return fail(requestID, CodeAIService, err.Error())
	}
	log.Info("upstream call complete", "client", s.client.Name(), "elapsed", time.Since(start))

	rawJSON, err := upstream.ExtractJSON(text)
	if err != nil {
		log.Error("reply parsing failed", "error", err)
		return fail(requestID, CodeParsing, err.Error())
	}
	log.Info("reply parsed")

	jsonPrompt, humanReadable, err := schema.ValidateResponse(rawJSON)
	if err != nil {
		log.Error("reply schema check failed", "error", err)
		return fail(requestID, CodeSchemaValidation, err.Error())
	}
	log.Info("reply schema checked", "elapsed", time.Since(start))

	return &schema.GenerateResponse{
		RequestID:     requestID,
		Status:        schema.StatusSucceeded,
		JSONPrompt:    jsonPrompt,
		HumanReadable: humanReadable,
	}
}

func fail(requestID, code, message string) *schema.GenerateResponse {
	return &schema.GenerateResponse{
		RequestID: requestID,
		Status:    schema.StatusFailed,
		Error:     &schema.ResponseError{Code: code, Message: message},
	}
}

// HTTPStatus maps an error code to the response status line.
func HTTPStatus(code string) int {
	switch code {
	case CodeValidation:
		return 400
	case CodeRateLimited:
		return 429
	default:
		return 500
	}
}
