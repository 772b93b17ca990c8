package endpoints

import (
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/promptweaver/weaver/internal/api"
	"github.com/promptweaver/weaver/internal/assistant"
	"github.com/promptweaver/weaver/internal/ratelimit"
	"github.com/promptweaver/weaver/internal/schema"
	"github.com/promptweaver/weaver/internal/svcctx"
)

// maxGenerateBody bounds the request body; the schema caps individual
// fields well below this.
const maxGenerateBody = 64 << 10

// GenerateEndpoint handles POST /api/prompt-assistant.
type GenerateEndpoint struct{}

func (e *GenerateEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/prompt-assistant", e.handler
}

func (e *GenerateEndpoint) RequiresInit() bool { return false }

func (e *GenerateEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	svc := svcctx.AssistantFrom(r.Context())
	if svc == nil {
		writeError(w, http.StatusServiceUnavailable, "assistant not initialized")
		return
	}

	if limiter := svcctx.LimiterFrom(r.Context()); limiter != nil {
		if !limiter.Allow(ratelimit.ClientKey(r)) {
			writeJSON(w, http.StatusTooManyRequests, &schema.GenerateResponse{
				RequestID: uuid.New().String(),
				Status:    schema.StatusFailed,
				Error: &schema.ResponseError{
					Code:    assistant.CodeRateLimited,
					Message: "rate limit exceeded, try again shortly",
				},
			})
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxGenerateBody))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, &schema.GenerateResponse{
			RequestID: uuid.New().String(),
			Status:    schema.StatusFailed,
			Error: &schema.ResponseError{
				Code:    assistant.CodeValidation,
				Message: "failed to read request body: " + err.Error(),
			},
		})
		return
	}

	resp := svc.Generate(r.Context(), body)
	status := http.StatusOK
	if resp.Status == schema.StatusFailed {
		status = assistant.HTTPStatus(resp.Error.Code)
	}
	writeJSON(w, status, resp)
}

func (e *GenerateEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		kind        string
		text        string
		aspectRatio string
		style       string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a structured prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind == "" || text == "" {
				return fmt.Errorf("--type and --text are required")
			}
			req := schema.GenerateRequest{
				Type:        schema.Kind(kind),
				UserText:    text,
				AspectRatio: aspectRatio,
				Style:       style,
			}
			client := api.NewClient(getServerURL())
			var resp schema.GenerateResponse
			if err := client.Post(cmd.Context(), "/api/prompt-assistant", req, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "Generator kind: image, video, website, banner (required)")
	cmd.Flags().StringVar(&text, "text", "", "What to generate a prompt for (required)")
	cmd.Flags().StringVar(&aspectRatio, "aspect-ratio", "", "Aspect ratio, e.g. 1:1 or 16:9")
	cmd.Flags().StringVar(&style, "style", "", "Visual style")
	return cmd
}
