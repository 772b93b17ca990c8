package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"
)

func TestAllow(t *testing.T) {
	t.Run("budget_enforced", func(t *testing.T) {
		l := New(3, time.Hour)
		for i := 0; i < 3; i++ {
			if !l.Allow("client-a") {
				t.Fatalf("Allow() = false on request %d, want true", i+1)
			}
		}
		if l.Allow("client-a") {
			t.Error("Allow() = true over budget, want false")
		}
	})

	t.Run("keys_independent", func(t *testing.T) {
		l := New(1, time.Hour)
		if !l.Allow("client-a") {
			t.Fatal("first client-a request denied")
		}
		if l.Allow("client-a") {
			t.Error("second client-a request allowed over budget")
		}
		if !l.Allow("client-b") {
			t.Error("client-b denied despite fresh budget")
		}
	})

	t.Run("refills_over_time", func(t *testing.T) {
		l := New(100, 100*time.Millisecond)
		for i := 0; i < 100; i++ {
			l.Allow("client-a")
		}
		if l.Allow("client-a") {
			t.Fatal("budget not exhausted")
		}
		time.Sleep(20 * time.Millisecond)
		if !l.Allow("client-a") {
			t.Error("Allow() = false after refill window, want true")
		}
	})

	t.Run("defaults_on_bad_input", func(t *testing.T) {
		l := New(0, 0)
		if l.requestsPerWindow != 10 || l.window != time.Minute {
			t.Errorf("defaults = %d/%v, want 10/min", l.requestsPerWindow, l.window)
		}
	})
}

func TestClientKey(t *testing.T) {
	t.Run("remote_addr", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "203.0.113.9:51234"
		if got := ClientKey(r); got != "203.0.113.9" {
			t.Errorf("ClientKey() = %q, want host only", got)
		}
	})

	t.Run("forwarded_for_first_hop", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Forwarded-For", "198.51.100.7, 203.0.113.9")
		if got := ClientKey(r); got != "198.51.100.7" {
			t.Errorf("ClientKey() = %q, want first forwarded hop", got)
		}
	})

	t.Run("forwarded_for_single", func(t *testing.T) {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("X-Forwarded-For", "198.51.100.7")
		if got := ClientKey(r); got != "198.51.100.7" {
			t.Errorf("ClientKey() = %q", got)
		}
	})
}
