package endpoints

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/promptweaver/weaver/internal/api"
	"github.com/promptweaver/weaver/internal/forms"
	"github.com/promptweaver/weaver/internal/schema"
	"github.com/promptweaver/weaver/internal/svcctx"
	"github.com/promptweaver/weaver/internal/workflow"
)

// formFields flattens a final payload into the kind's logical form fields so
// callers never have to know the engine's key aliases. Nil when the payload
// resolves nothing.
func formFields(kind schema.Kind, final map[string]any) map[string]string {
	if final == nil {
		return nil
	}
	fields := make(map[string]string)
	forms.Apply(kind, final, func(field, value string) {
		fields[field] = value
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// ListWorkflowsEndpoint handles GET /api/workflows.
type ListWorkflowsEndpoint struct{}

func (e *ListWorkflowsEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/workflows", e.handler
}

func (e *ListWorkflowsEndpoint) RequiresInit() bool { return false }

func (e *ListWorkflowsEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	table := svcctx.TableFrom(r.Context())
	if table == nil {
		writeError(w, http.StatusServiceUnavailable, "workflow table not initialized")
		return
	}
	// Workflow marshalling omits webhook URLs; they are secrets.
	writeJSON(w, http.StatusOK, table.All())
}

func (e *ListWorkflowsEndpoint) Command(getServerURL func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "workflows",
		Short: "List configured generator workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp []workflow.Workflow
			if err := client.Get(cmd.Context(), "/api/workflows", &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
}

// ChatRequest is the request body for a workflow chat message.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatReply is the engine reply augmented with the flattened form fields
// resolved from its final payload.
type ChatReply struct {
	*workflow.Response
	FormFields map[string]string `json:"formFields,omitempty"`
}

// RunReply is a run status augmented the same way.
type RunReply struct {
	*workflow.RunStatus
	FormFields map[string]string `json:"formFields,omitempty"`
}

// WorkflowChatEndpoint handles POST /api/workflows/{kind}/chat. It forwards
// one chat message to the external engine, carrying the caller's bearer
// token.
type WorkflowChatEndpoint struct{}

func (e *WorkflowChatEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/workflows/{kind}/chat", e.handler
}

func (e *WorkflowChatEndpoint) RequiresInit() bool { return false }

func (e *WorkflowChatEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	client := svcctx.WorkflowsFrom(r.Context())
	if client == nil {
		writeError(w, http.StatusServiceUnavailable, "workflow client not initialized")
		return
	}

	kind := schema.Kind(r.PathValue("kind"))
	if !kind.Valid() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown generator kind %q", kind))
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp := client.Send(r.Context(), kind, bearerToken(r), req.Message)
	writeJSON(w, webhookHTTPStatus(resp.Code), ChatReply{
		Response:   resp,
		FormFields: formFields(kind, resp.Final),
	})
}

func (e *WorkflowChatEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		kind    string
		message string
		token   string
	)
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Send a chat message to a generator workflow",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind == "" || message == "" {
				return fmt.Errorf("--type and --message are required")
			}
			client := api.NewClient(getServerURL()).WithToken(token)
			var resp ChatReply
			path := fmt.Sprintf("/api/workflows/%s/chat", kind)
			if err := client.Post(cmd.Context(), path, ChatRequest{Message: message}, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "Generator kind (required)")
	cmd.Flags().StringVar(&message, "message", "", "Chat message (required)")
	cmd.Flags().StringVar(&token, "token", "", "Session bearer token")
	return cmd
}

// WorkflowRunEndpoint handles GET /api/workflows/{kind}/runs/{id}. With
// ?wait=1 it polls until the run completes or the poll budget elapses.
type WorkflowRunEndpoint struct{}

func (e *WorkflowRunEndpoint) Route() (string, string, http.HandlerFunc) {
	return "GET", "/api/workflows/{kind}/runs/{id}", e.handler
}

func (e *WorkflowRunEndpoint) RequiresInit() bool { return false }

func (e *WorkflowRunEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	client := svcctx.WorkflowsFrom(r.Context())
	if client == nil {
		writeError(w, http.StatusServiceUnavailable, "workflow client not initialized")
		return
	}

	kind := schema.Kind(r.PathValue("kind"))
	if !kind.Valid() {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown generator kind %q", kind))
		return
	}
	runID := r.PathValue("id")
	token := bearerToken(r)

	if r.URL.Query().Get("wait") == "1" {
		status, err := client.PollUntilComplete(r.Context(), kind, token, runID, workflow.DefaultPollInterval, workflow.DefaultPollTimeout)
		if err == workflow.ErrPollTimeout {
			writeError(w, http.StatusGatewayTimeout, err.Error())
			return
		}
		if err != nil && status == nil {
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}
		writeJSON(w, webhookHTTPStatus(status.Code), RunReply{
			RunStatus:  status,
			FormFields: formFields(kind, status.Final),
		})
		return
	}

	status := client.Status(r.Context(), kind, token, runID)
	writeJSON(w, webhookHTTPStatus(status.Code), RunReply{
		RunStatus:  status,
		FormFields: formFields(kind, status.Final),
	})
}

func (e *WorkflowRunEndpoint) Command(getServerURL func() string) *cobra.Command {
	var (
		kind  string
		runID string
		token string
		wait  bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Check a workflow run's status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if kind == "" || runID == "" {
				return fmt.Errorf("--type and --id are required")
			}
			client := api.NewClient(getServerURL()).WithToken(token)
			path := fmt.Sprintf("/api/workflows/%s/runs/%s", kind, runID)
			if wait {
				path += "?wait=1"
			}
			ctx := cmd.Context()
			if wait {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, workflow.DefaultPollTimeout+10*time.Second)
				defer cancel()
			}
			var resp RunReply
			if err := client.Get(ctx, path, &resp); err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringVar(&kind, "type", "", "Generator kind (required)")
	cmd.Flags().StringVar(&runID, "id", "", "Run identifier (required)")
	cmd.Flags().StringVar(&token, "token", "", "Session bearer token")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the run completes")
	return cmd
}

// webhookHTTPStatus maps webhook client codes onto response status lines.
func webhookHTTPStatus(code string) int {
	switch code {
	case "":
		return http.StatusOK
	case workflow.CodeUnauthorized:
		return http.StatusUnauthorized
	case workflow.CodeNoCredits:
		return http.StatusPaymentRequired
	case workflow.CodeConfigMissing:
		return http.StatusInternalServerError
	default:
		return http.StatusBadGateway
	}
}
