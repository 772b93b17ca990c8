package workflow

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/promptweaver/weaver/internal/schema"
)

func tableFor(url string) *Table {
	return NewTable(map[schema.Kind]Workflow{
		schema.KindImage: {ID: "wf-image", Title: "Image", WebhookURL: url, CreditCost: 1, RoutePath: "/generators/image"},
		schema.KindVideo: {ID: "wf-video", Title: "Video", CreditCost: 5, RoutePath: "/generators/video"},
	})
}

func TestClientSend(t *testing.T) {
	t.Run("questions_reply", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if auth := r.Header.Get("Authorization"); auth != "Bearer tok" {
				t.Errorf("Authorization = %q, want bearer tok", auth)
			}
			w.Write([]byte(`{"ready":false,"questions":["What mood?","What palette?"]}`))
		}))
		defer srv.Close()

		c := NewClient(tableFor(srv.URL), nil, nil)
		resp := c.Send(context.Background(), schema.KindImage, "tok", "make me a poster")
		if !resp.Success {
			t.Fatalf("Success = false, err = %s/%s", resp.Code, resp.Err)
		}
		if resp.Ready {
			t.Error("Ready = true, want false")
		}
		if len(resp.Questions) != 2 {
			t.Errorf("Questions = %v, want 2 entries", resp.Questions)
		}
	})

	t.Run("final_reply_with_data_wrapper", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":{"ready":true,"final":{"style":"noir"},"prompt_package":{"prompt":"p","negative_prompt":"n"},"remaining_credits":4}}`))
		}))
		defer srv.Close()

		c := NewClient(tableFor(srv.URL), nil, nil)
		resp := c.Send(context.Background(), schema.KindImage, "tok", "done")
		if !resp.Success || !resp.Ready {
			t.Fatalf("resp = %+v, want ready success", resp)
		}
		if resp.Final["style"] != "noir" {
			t.Errorf("Final = %v", resp.Final)
		}
		if resp.PromptPackage == nil || resp.PromptPackage.Prompt != "p" || resp.PromptPackage.NegativePrompt != "n" {
			t.Errorf("PromptPackage = %+v", resp.PromptPackage)
		}
		if resp.RemainingCredits == nil || *resp.RemainingCredits != 4 {
			t.Errorf("RemainingCredits = %v, want 4", resp.RemainingCredits)
		}
	})

	t.Run("status_classification", func(t *testing.T) {
		cases := []struct {
			name     string
			status   int
			body     string
			wantCode string
			wantMsg  string
		}{
			{"unauthorized", 401, `{}`, CodeUnauthorized, "session expired or invalid"},
			{"no_credits", 402, `{"message":"out of credits"}`, CodeNoCredits, "out of credits"},
			{"server_error", 500, `{"message":"boom"}`, CodeRequestFailed, "boom"},
			{"error_key", 500, `{"error":"broken"}`, CodeRequestFailed, "broken"},
			{"bad_gateway_plain_body", 502, `oops`, CodeRequestFailed, "webhook returned status 502"},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tc.status)
					w.Write([]byte(tc.body))
				}))
				defer srv.Close()

				c := NewClient(tableFor(srv.URL), nil, nil)
				resp := c.Send(context.Background(), schema.KindImage, "tok", "hi")
				if resp.Success {
					t.Fatal("Success = true, want failure")
				}
				if resp.Code != tc.wantCode {
					t.Errorf("Code = %q, want %q", resp.Code, tc.wantCode)
				}
				if resp.Err != tc.wantMsg {
					t.Errorf("Err = %q, want %q", resp.Err, tc.wantMsg)
				}
			})
		}
	})

	t.Run("missing_webhook_config", func(t *testing.T) {
		c := NewClient(tableFor("http://unused"), nil, nil)
		resp := c.Send(context.Background(), schema.KindVideo, "tok", "hi")
		if resp.Code != CodeConfigMissing {
			t.Errorf("Code = %q, want %q", resp.Code, CodeConfigMissing)
		}
	})

	t.Run("missing_token", func(t *testing.T) {
		c := NewClient(tableFor("http://unused"), nil, nil)
		resp := c.Send(context.Background(), schema.KindImage, "", "hi")
		if resp.Code != CodeUnauthorized {
			t.Errorf("Code = %q, want %q", resp.Code, CodeUnauthorized)
		}
	})

	t.Run("network_failure", func(t *testing.T) {
		c := NewClient(tableFor("http://127.0.0.1:0"), nil, nil)
		resp := c.Send(context.Background(), schema.KindImage, "tok", "hi")
		if resp.Code != CodeNetworkError {
			t.Errorf("Code = %q, want %q", resp.Code, CodeNetworkError)
		}
	})

	t.Run("unparseable_reply", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		c := NewClient(tableFor(srv.URL), nil, nil)
		resp := c.Send(context.Background(), schema.KindImage, "tok", "hi")
		if resp.Code != CodeParseError {
			t.Errorf("Code = %q, want %q", resp.Code, CodeParseError)
		}
	})
}

func TestClientStatus(t *testing.T) {
	t.Run("running", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/runs/run-1" {
				t.Errorf("path = %q, want /runs/run-1", r.URL.Path)
			}
			w.Write([]byte(`{"status":"running"}`))
		}))
		defer srv.Close()

		c := NewClient(tableFor(srv.URL), nil, nil)
		status := c.Status(context.Background(), schema.KindImage, "tok", "run-1")
		if status.Code != "" {
			t.Fatalf("Code = %q, want success", status.Code)
		}
		if status.Status != "running" || status.Terminal() {
			t.Errorf("status = %+v, want non-terminal running", status)
		}
	})

	t.Run("terminal", func(t *testing.T) {
		for _, s := range []string{"succeeded", "failed"} {
			if !(&RunStatus{Status: s}).Terminal() {
				t.Errorf("Terminal(%q) = false, want true", s)
			}
		}
		for _, s := range []string{"", "running", "queued"} {
			if (&RunStatus{Status: s}).Terminal() {
				t.Errorf("Terminal(%q) = true, want false", s)
			}
		}
	})
}
