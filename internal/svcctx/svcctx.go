// Package svcctx provides service context for dependency injection via context.
// This package is separate from server to avoid import cycles with endpoints.
package svcctx

import (
	"context"
	"log/slog"

	"github.com/promptweaver/weaver/internal/account"
	"github.com/promptweaver/weaver/internal/assistant"
	"github.com/promptweaver/weaver/internal/profile"
	"github.com/promptweaver/weaver/internal/ratelimit"
	"github.com/promptweaver/weaver/internal/workflow"
)

// Services holds all core services that flow through context.
// Components extract what they need via the individual extractors.
type Services struct {
	Assistant   *assistant.Service
	Workflows   *workflow.Client
	Table       *workflow.Table
	Limiter     *ratelimit.Limiter
	Verifier    *account.Verifier
	Accounts    *account.Store
	ProfileFeed *profile.Feed
	Logger      *slog.Logger
}

type servicesKey struct{}

// WithServices returns a new context with services attached.
func WithServices(ctx context.Context, s *Services) context.Context {
	return context.WithValue(ctx, servicesKey{}, s)
}

// ServicesFrom extracts the full Services struct from context.
// Returns nil if not present.
func ServicesFrom(ctx context.Context) *Services {
	s, _ := ctx.Value(servicesKey{}).(*Services)
	return s
}

// AssistantFrom extracts the assistant service from context.
func AssistantFrom(ctx context.Context) *assistant.Service {
	if s := ServicesFrom(ctx); s != nil {
		return s.Assistant
	}
	return nil
}

// WorkflowsFrom extracts the webhook client from context.
func WorkflowsFrom(ctx context.Context) *workflow.Client {
	if s := ServicesFrom(ctx); s != nil {
		return s.Workflows
	}
	return nil
}

// TableFrom extracts the workflow config table from context.
func TableFrom(ctx context.Context) *workflow.Table {
	if s := ServicesFrom(ctx); s != nil {
		return s.Table
	}
	return nil
}

// LimiterFrom extracts the inbound rate limiter from context.
func LimiterFrom(ctx context.Context) *ratelimit.Limiter {
	if s := ServicesFrom(ctx); s != nil {
		return s.Limiter
	}
	return nil
}

// VerifierFrom extracts the session-token verifier from context.
func VerifierFrom(ctx context.Context) *account.Verifier {
	if s := ServicesFrom(ctx); s != nil {
		return s.Verifier
	}
	return nil
}

// AccountsFrom extracts the provisioning store from context.
func AccountsFrom(ctx context.Context) *account.Store {
	if s := ServicesFrom(ctx); s != nil {
		return s.Accounts
	}
	return nil
}

// ProfileFeedFrom extracts the profile update feed from context.
func ProfileFeedFrom(ctx context.Context) *profile.Feed {
	if s := ServicesFrom(ctx); s != nil {
		return s.ProfileFeed
	}
	return nil
}

// LoggerFrom extracts the logger from context.
func LoggerFrom(ctx context.Context) *slog.Logger {
	if s := ServicesFrom(ctx); s != nil {
		return s.Logger
	}
	return nil
}
