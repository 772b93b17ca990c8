// Package retry wraps retry-go with a fixed transient-failure policy: only
// failures that look like a passing network or gateway hiccup are retried,
// everything else surfaces immediately.
package retry

import (
	"context"
	"errors"
	"net"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	// DefaultAttempts is the total number of invocations, first try included.
	DefaultAttempts = 3
	// DefaultBaseDelay is the delay before the first retry; it doubles on
	// each subsequent retry.
	DefaultBaseDelay = time.Second
)

// Options tune one Do call.
type Options struct {
	Attempts  uint
	BaseDelay time.Duration
}

func (o *Options) applyDefaults() {
	if o.Attempts == 0 {
		o.Attempts = DefaultAttempts
	}
	if o.BaseDelay == 0 {
		o.BaseDelay = DefaultBaseDelay
	}
}

// statusCoder is implemented by errors carrying an upstream HTTP status.
type statusCoder interface {
	HTTPStatus() int
}

// TransientStatus reports whether an HTTP status signals a transient
// gateway failure.
func TransientStatus(code int) bool {
	switch code {
	case 502, 503, 504:
		return true
	}
	return false
}

// Transient reports whether err carries one of the allow-listed transient
// signatures: HTTP 502/503/504, a connection timeout, or connection refused.
func Transient(err error) bool {
	if err == nil {
		return false
	}

	// A zero status means the request never got an HTTP reply; the wrapped
	// transport error below decides then.
	var sc statusCoder
	if errors.As(err, &sc) && sc.HTTPStatus() != 0 {
		return TransientStatus(sc.HTTPStatus())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET)
}

// Do runs fn with exponential backoff, retrying only transient failures.
// Exhausting all attempts returns the last observed failure; a non-transient
// failure returns immediately after the first attempt that saw it.
func Do[T any](ctx context.Context, fn func(ctx context.Context) (T, error), opts Options) (T, error) {
	opts.applyDefaults()

	return retry.DoWithData(
		func() (T, error) { return fn(ctx) },
		retry.Context(ctx),
		retry.Attempts(opts.Attempts),
		retry.Delay(opts.BaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(Transient),
		retry.LastErrorOnly(true),
	)
}
