package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"

	"github.com/promptweaver/weaver/internal/retry"
)

func TestChatClientComplete(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var gotReq chatRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/chat/completions" {
				t.Errorf("path = %q, want /chat/completions", r.URL.Path)
			}
			if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
				t.Errorf("Authorization = %q, want bearer test-key", auth)
			}
			if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
		}))
		defer srv.Close()

		client := NewChatClient(Config{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})
		text, err := client.Complete(context.Background(), "sys", "user")
		if err != nil {
			t.Fatalf("Complete() error = %v", err)
		}
		if text != `{"ok":true}` {
			t.Errorf("Complete() = %q, want %q", text, `{"ok":true}`)
		}

		if gotReq.Model != "test-model" {
			t.Errorf("request model = %q, want %q", gotReq.Model, "test-model")
		}
		if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
			t.Errorf("messages = %+v, want system then user", gotReq.Messages)
		}
		if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
			t.Errorf("response_format = %+v, want json_object", gotReq.ResponseFormat)
		}
	})

	t.Run("non_200_is_upstream_error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`overloaded`))
		}))
		defer srv.Close()

		client := NewChatClient(Config{APIKey: "k", BaseURL: srv.URL})
		_, err := client.Complete(context.Background(), "sys", "user")
		var ue *UpstreamError
		if !errors.As(err, &ue) {
			t.Fatalf("error type = %T, want *UpstreamError", err)
		}
		if ue.HTTPStatus() != http.StatusServiceUnavailable {
			t.Errorf("HTTPStatus() = %d, want %d", ue.HTTPStatus(), http.StatusServiceUnavailable)
		}
	})

	t.Run("api_error_payload", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":{"message":"model not found"}}`))
		}))
		defer srv.Close()

		client := NewChatClient(Config{APIKey: "k", BaseURL: srv.URL})
		_, err := client.Complete(context.Background(), "sys", "user")
		var ue *UpstreamError
		if !errors.As(err, &ue) {
			t.Fatalf("error type = %T, want *UpstreamError", err)
		}
		if ue.Message != "model not found" {
			t.Errorf("Message = %q, want %q", ue.Message, "model not found")
		}
	})

	t.Run("no_choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"choices":[]}`))
		}))
		defer srv.Close()

		client := NewChatClient(Config{APIKey: "k", BaseURL: srv.URL})
		if _, err := client.Complete(context.Background(), "sys", "user"); err == nil {
			t.Error("Complete() = nil error, want failure on empty choices")
		}
	})

	t.Run("transport_failure_has_zero_status", func(t *testing.T) {
		client := NewChatClient(Config{APIKey: "k", BaseURL: "http://127.0.0.1:0"})
		_, err := client.Complete(context.Background(), "sys", "user")
		var ue *UpstreamError
		if !errors.As(err, &ue) {
			t.Fatalf("error type = %T, want *UpstreamError", err)
		}
		if ue.HTTPStatus() != 0 {
			t.Errorf("HTTPStatus() = %d, want 0 for transport failure", ue.HTTPStatus())
		}
	})

	t.Run("refused_connection_classifies_as_transient", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		url := srv.URL
		srv.Close()

		client := NewChatClient(Config{APIKey: "k", BaseURL: url})
		_, err := client.Complete(context.Background(), "sys", "user")
		if err == nil {
			t.Fatal("Complete() = nil error, want connection failure")
		}
		if !errors.Is(err, syscall.ECONNREFUSED) {
			t.Errorf("errors.Is(err, ECONNREFUSED) = false, cause not carried: %v", err)
		}
		if !retry.Transient(err) {
			t.Errorf("retry.Transient(%v) = false, want true", err)
		}
	})
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{APIKey: "k"}
	cfg.applyDefaults()
	if cfg.BaseURL != defaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.BaseURL, defaultBaseURL)
	}
	if cfg.Model != DefaultModel {
		t.Errorf("Model = %q, want %q", cfg.Model, DefaultModel)
	}
	if cfg.HTTPClient == nil {
		t.Error("HTTPClient not defaulted")
	}
}
