// Package ratelimit provides a keyed token-bucket limiter for inbound
// request throttling, one bucket per client key.
package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Limiter enforces a fixed request budget per key per window.
type Limiter struct {
	mu sync.Mutex

	requestsPerWindow int
	window            time.Duration

	buckets   map[string]*bucket
	lastPrune time.Time
}

type bucket struct {
	tokens     float64
	lastUpdate time.Time
}

// New creates a limiter allowing requestsPerWindow per key per window.
func New(requestsPerWindow int, window time.Duration) *Limiter {
	if requestsPerWindow <= 0 {
		requestsPerWindow = 10
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		requestsPerWindow: requestsPerWindow,
		window:            window,
		buckets:           make(map[string]*bucket),
		lastPrune:         time.Now(),
	}
}

// Allow consumes one token for key without blocking. Returns false when the
// key's budget for the current window is spent.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	l.pruneLocked(now)

	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: float64(l.requestsPerWindow), lastUpdate: now}
		l.buckets[key] = b
	}

	// Refill based on elapsed time, capped at the window budget.
	refillRate := float64(l.requestsPerWindow) / l.window.Seconds()
	b.tokens += now.Sub(b.lastUpdate).Seconds() * refillRate
	if b.tokens > float64(l.requestsPerWindow) {
		b.tokens = float64(l.requestsPerWindow)
	}
	b.lastUpdate = now

	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}
	return false
}

// pruneLocked drops buckets idle for two windows. Must be called with the
// lock held.
func (l *Limiter) pruneLocked(now time.Time) {
	if now.Sub(l.lastPrune) < l.window {
		return
	}
	l.lastPrune = now
	idle := 2 * l.window
	for key, b := range l.buckets {
		if now.Sub(b.lastUpdate) > idle {
			delete(l.buckets, key)
		}
	}
}

// ClientKey derives the limiter key for a request: the client IP, honoring
// X-Forwarded-For when present.
func ClientKey(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first, _, ok := strings.Cut(fwd, ","); ok {
			return strings.TrimSpace(first)
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
