package config

import (
	"time"

	"github.com/promptweaver/weaver/internal/schema"
	"github.com/promptweaver/weaver/internal/upstream"
	"github.com/promptweaver/weaver/internal/workflow"
)

// Config holds weaver configuration.
// Loaded from ./config.yaml or ~/.weaver/config.yaml, env prefix WEAVER_.
type Config struct {
	Server    ServerCfg              `mapstructure:"server" yaml:"server"`
	Upstream  UpstreamCfg            `mapstructure:"upstream" yaml:"upstream"`
	Workflows map[string]WorkflowCfg `mapstructure:"workflows" yaml:"workflows"`
	Auth      AuthCfg                `mapstructure:"auth" yaml:"auth"`
	Database  DatabaseCfg            `mapstructure:"database" yaml:"database"`
}

// ServerCfg configures the HTTP listener.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
	// RateLimitPerMinute caps /api/prompt-assistant calls per client IP.
	RateLimitPerMinute int `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
}

// UpstreamCfg configures the chat-completion client.
type UpstreamCfg struct {
	Type           string `mapstructure:"type" yaml:"type"`       // "chat" (raw HTTP) or "openai" (SDK)
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	APIKey         string `mapstructure:"api_key" yaml:"api_key"` // supports ${ENV_VAR} syntax
	Model          string `mapstructure:"model" yaml:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// WorkflowCfg configures one generator kind's workflow.
type WorkflowCfg struct {
	ID         string `mapstructure:"id" yaml:"id"`
	Title      string `mapstructure:"title" yaml:"title"`
	WebhookURL string `mapstructure:"webhook_url" yaml:"webhook_url"` // supports ${ENV_VAR} syntax
	CreditCost int    `mapstructure:"credit_cost" yaml:"credit_cost"`
	RoutePath  string `mapstructure:"route_path" yaml:"route_path"`
}

// AuthCfg points at the hosted auth backend.
type AuthCfg struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	ServiceRoleKey string `mapstructure:"service_role_key" yaml:"service_role_key"` // supports ${ENV_VAR} syntax
}

// DatabaseCfg points at the backend's Postgres. An empty DSN disables the
// account-provisioning and profile-feed endpoints.
type DatabaseCfg struct {
	DSN string `mapstructure:"dsn" yaml:"dsn"` // supports ${ENV_VAR} syntax
}

// DefaultConfig returns configuration with documented defaults. The two
// secrets (upstream API key, service-role key) have no fallback values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:               "127.0.0.1",
			Port:               "8080",
			RateLimitPerMinute: 10,
		},
		Upstream: UpstreamCfg{
			Type:           "chat",
			BaseURL:        "https://api.openai.com/v1",
			APIKey:         "${OPENAI_API_KEY}",
			Model:          upstream.DefaultModel,
			TimeoutSeconds: 120,
		},
		Workflows: map[string]WorkflowCfg{
			"image": {
				ID:         "wf-image",
				Title:      "Image Prompt Assistant",
				WebhookURL: "${WEAVER_IMAGE_WEBHOOK_URL}",
				CreditCost: 1,
				RoutePath:  "/generators/image",
			},
			"video": {
				ID:         "wf-video",
				Title:      "Video Prompt Assistant",
				WebhookURL: "${WEAVER_VIDEO_WEBHOOK_URL}",
				CreditCost: 5,
				RoutePath:  "/generators/video",
			},
			"website": {
				ID:         "wf-website",
				Title:      "Website Prompt Assistant",
				WebhookURL: "${WEAVER_WEBSITE_WEBHOOK_URL}",
				CreditCost: 2,
				RoutePath:  "/generators/website",
			},
			"banner": {
				ID:         "wf-banner",
				Title:      "Banner Prompt Assistant",
				WebhookURL: "${WEAVER_BANNER_WEBHOOK_URL}",
				CreditCost: 1,
				RoutePath:  "/generators/banner",
			},
		},
		Auth: AuthCfg{
			BaseURL:        "http://127.0.0.1:9999",
			ServiceRoleKey: "${WEAVER_SERVICE_ROLE_KEY}",
		},
		Database: DatabaseCfg{
			DSN: "${DATABASE_URL}",
		},
	}
}

// ToUpstreamConfig resolves env references and returns client settings plus
// the configured client type.
func (c *Config) ToUpstreamConfig() (string, upstream.Config) {
	return c.Upstream.Type, upstream.Config{
		APIKey:  ResolveEnvVars(c.Upstream.APIKey),
		BaseURL: c.Upstream.BaseURL,
		Model:   c.Upstream.Model,
		Timeout: time.Duration(c.Upstream.TimeoutSeconds) * time.Second,
	}
}

// ToWorkflowTable builds the immutable kind table, resolving env references
// in webhook URLs. Unknown kinds in config are skipped.
func (c *Config) ToWorkflowTable() *workflow.Table {
	workflows := make(map[schema.Kind]workflow.Workflow, len(c.Workflows))
	for name, wf := range c.Workflows {
		kind := schema.Kind(name)
		if !kind.Valid() {
			continue
		}
		workflows[kind] = workflow.Workflow{
			ID:         wf.ID,
			Title:      wf.Title,
			WebhookURL: ResolveEnvVars(wf.WebhookURL),
			CreditCost: wf.CreditCost,
			RoutePath:  wf.RoutePath,
		}
	}
	return workflow.NewTable(workflows)
}

// ResolvedDSN returns the database DSN with env references expanded.
func (c *Config) ResolvedDSN() string {
	return ResolveEnvVars(c.Database.DSN)
}

// ResolvedServiceRoleKey returns the service-role key with env references
// expanded.
func (c *Config) ResolvedServiceRoleKey() string {
	return ResolveEnvVars(c.Auth.ServiceRoleKey)
}
