package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
	"testing"
	"time"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string   { return "status error" }
func (e *statusErr) HTTPStatus() int { return e.code }

// transportErr mirrors a client error for a request that never got an HTTP
// reply: zero status, underlying cause wrapped.
type transportErr struct{ err error }

func (e *transportErr) Error() string   { return "request failed: " + e.err.Error() }
func (e *transportErr) HTTPStatus() int { return 0 }
func (e *transportErr) Unwrap() error   { return e.err }

func TestTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"status_502", &statusErr{502}, true},
		{"status_503", &statusErr{503}, true},
		{"status_504", &statusErr{504}, true},
		{"status_400", &statusErr{400}, false},
		{"status_401", &statusErr{401}, false},
		{"status_429", &statusErr{429}, false},
		{"status_500", &statusErr{500}, false},
		{"conn_refused", syscall.ECONNREFUSED, true},
		{"conn_reset", syscall.ECONNRESET, true},
		{"wrapped_refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"status_zero_wrapping_refused", &transportErr{err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}}, true},
		{"status_zero_wrapping_plain", &transportErr{err: errors.New("boom")}, false},
		{"plain_error", errors.New("boom"), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Transient(tc.err); got != tc.want {
				t.Errorf("Transient(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestDo(t *testing.T) {
	fast := Options{Attempts: 3, BaseDelay: time.Millisecond}

	t.Run("first_try_succeeds", func(t *testing.T) {
		calls := 0
		got, err := Do(context.Background(), func(ctx context.Context) (string, error) {
			calls++
			return "ok", nil
		}, fast)
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if got != "ok" || calls != 1 {
			t.Errorf("got %q after %d calls, want ok after 1", got, calls)
		}
	})

	t.Run("transient_then_success", func(t *testing.T) {
		calls := 0
		got, err := Do(context.Background(), func(ctx context.Context) (string, error) {
			calls++
			if calls < 3 {
				return "", &statusErr{503}
			}
			return "ok", nil
		}, fast)
		if err != nil {
			t.Fatalf("Do() error = %v", err)
		}
		if got != "ok" || calls != 3 {
			t.Errorf("got %q after %d calls, want ok after 3", got, calls)
		}
	})

	t.Run("transient_exhausts_attempts", func(t *testing.T) {
		calls := 0
		_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
			calls++
			return 0, &statusErr{502}
		}, fast)
		if err == nil {
			t.Fatal("Do() = nil error, want failure")
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
		var se *statusErr
		if !errors.As(err, &se) {
			t.Errorf("error type = %T, want last *statusErr", err)
		}
	})

	t.Run("non_transient_fails_immediately", func(t *testing.T) {
		calls := 0
		_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
			calls++
			return 0, &statusErr{400}
		}, fast)
		if err == nil {
			t.Fatal("Do() = nil error, want failure")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1 (no retry on non-transient)", calls)
		}
	})

	t.Run("context_cancel_stops_retries", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		_, err := Do(ctx, func(ctx context.Context) (int, error) {
			calls++
			cancel()
			return 0, &statusErr{503}
		}, Options{Attempts: 5, BaseDelay: 50 * time.Millisecond})
		if err == nil {
			t.Fatal("Do() = nil error, want failure")
		}
		if calls != 1 {
			t.Errorf("calls = %d, want 1 after cancellation", calls)
		}
	})
}
