package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/promptweaver/weaver/internal/schema"
)

func TestResolveEnvVars(t *testing.T) {
	t.Setenv("WEAVER_TEST_KEY", "secret-value")

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "no-refs-here", "no-refs-here"},
		{"empty", "", ""},
		{"single_ref", "${WEAVER_TEST_KEY}", "secret-value"},
		{"embedded", "prefix-${WEAVER_TEST_KEY}-suffix", "prefix-secret-value-suffix"},
		{"unset_ref", "${WEAVER_TEST_UNSET_VAR}", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ResolveEnvVars(tc.in); got != tc.want {
				t.Errorf("ResolveEnvVars(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("api_key_required", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Upstream.APIKey = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error without api key")
		}
	})

	t.Run("service_role_key_required_with_database", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Upstream.APIKey = "sk-test"
		cfg.Database.DSN = "postgres://localhost/weaver"
		cfg.Auth.ServiceRoleKey = ""
		if err := cfg.Validate(); err == nil {
			t.Error("Validate() = nil, want error without service role key")
		}
	})

	t.Run("service_role_key_optional_without_database", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Upstream.APIKey = "sk-test"
		cfg.Database.DSN = ""
		cfg.Auth.ServiceRoleKey = ""
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil without database", err)
		}
	})

	t.Run("complete_config_valid", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Upstream.APIKey = "sk-test"
		cfg.Database.DSN = "postgres://localhost/weaver"
		cfg.Auth.ServiceRoleKey = "srk-test"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Server.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Server.RateLimitPerMinute != 10 {
		t.Errorf("RateLimitPerMinute = %d, want 10", cfg.Server.RateLimitPerMinute)
	}

	for _, kind := range schema.Kinds {
		wf, ok := cfg.Workflows[string(kind)]
		if !ok {
			t.Errorf("no default workflow for kind %q", kind)
			continue
		}
		if wf.ID == "" || wf.Title == "" || wf.RoutePath == "" {
			t.Errorf("workflow %q incomplete: %+v", kind, wf)
		}
		if wf.CreditCost <= 0 {
			t.Errorf("workflow %q credit cost = %d, want positive", kind, wf.CreditCost)
		}
	}

	// Secrets stay as env references, never literals.
	if !strings.HasPrefix(cfg.Upstream.APIKey, "${") {
		t.Errorf("APIKey = %q, want env reference", cfg.Upstream.APIKey)
	}
	if !strings.HasPrefix(cfg.Auth.ServiceRoleKey, "${") {
		t.Errorf("ServiceRoleKey = %q, want env reference", cfg.Auth.ServiceRoleKey)
	}
}

func TestToWorkflowTable(t *testing.T) {
	t.Setenv("WEAVER_TEST_HOOK", "https://engine.test/hook")

	cfg := DefaultConfig()
	cfg.Workflows = map[string]WorkflowCfg{
		"image":   {ID: "wf-image", Title: "Image", WebhookURL: "${WEAVER_TEST_HOOK}", CreditCost: 1, RoutePath: "/generators/image"},
		"invalid": {ID: "wf-x", Title: "X"},
	}

	table := cfg.ToWorkflowTable()
	all := table.All()
	if len(all) != 1 {
		t.Fatalf("len(All()) = %d, want 1 (invalid kind skipped)", len(all))
	}

	wf, ok := table.Get(schema.KindImage)
	if !ok {
		t.Fatal("image workflow missing")
	}
	if wf.WebhookURL != "https://engine.test/hook" {
		t.Errorf("WebhookURL = %q, want env-resolved URL", wf.WebhookURL)
	}
	if wf.Kind != schema.KindImage {
		t.Errorf("Kind = %q, want image", wf.Kind)
	}
}

func TestToUpstreamConfig(t *testing.T) {
	t.Setenv("WEAVER_TEST_API_KEY", "sk-resolved")

	cfg := DefaultConfig()
	cfg.Upstream.Type = "openai"
	cfg.Upstream.APIKey = "${WEAVER_TEST_API_KEY}"

	clientType, ucfg := cfg.ToUpstreamConfig()
	if clientType != "openai" {
		t.Errorf("type = %q, want openai", clientType)
	}
	if ucfg.APIKey != "sk-resolved" {
		t.Errorf("APIKey = %q, want resolved secret", ucfg.APIKey)
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	content := string(data)
	if !strings.Contains(content, "workflows:") {
		t.Error("written config missing workflows section")
	}
	if !strings.Contains(content, "${OPENAI_API_KEY}") {
		t.Error("written config should reference the API key env var, not a literal")
	}
}
