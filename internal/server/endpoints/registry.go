package endpoints

import (
	"github.com/promptweaver/weaver/internal/api"
)

// Config holds dependencies needed by some endpoints. Weaver endpoints pull
// their services from the request context, so this stays small.
type Config struct{}

// All returns all endpoint instances.
func All(cfg Config) []api.Endpoint {
	return []api.Endpoint{
		// Health endpoints
		&HealthEndpoint{},
		&ReadyEndpoint{},

		// Prompt assistant
		&GenerateEndpoint{},

		// Workflow endpoints
		&ListWorkflowsEndpoint{},
		&WorkflowChatEndpoint{},
		&WorkflowRunEndpoint{},

		// Account endpoints (database-backed; gated by requireInit)
		&ProvisionEndpoint{},
		&ProfileEventsEndpoint{},
	}
}
