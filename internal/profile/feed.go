// Package profile delivers push updates to a user's plan, status and credit
// balance. The hosted backend mutates those rows and emits a NOTIFY per
// change; subscribers receive the deltas for one user until they release the
// subscription.
package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lib/pq"
)

// channel is the Postgres NOTIFY channel the backend publishes on.
const channel = "profile_updates"

// Update is one delta to a user's profile. Exactly one of the plan/status
// pair or the balance is set per notification.
type Update struct {
	UserID  string  `json:"user_id"`
	Plan    *string `json:"plan,omitempty"`
	Status  *string `json:"status,omitempty"`
	Balance *int    `json:"balance,omitempty"`
}

// Feed creates per-user subscriptions over one database DSN.
type Feed struct {
	dsn    string
	logger *slog.Logger
}

// NewFeed creates a subscription factory.
func NewFeed(dsn string, logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	return &Feed{dsn: dsn, logger: logger}
}

// Subscription is a scoped resource: the consumer owns it and must Close it
// on teardown. Updates stops delivering after Close.
type Subscription struct {
	updates  chan Update
	listener *pq.Listener
	done     chan struct{}
	once     sync.Once
}

// Subscribe opens a change feed filtered to userID. Cancelling ctx or
// calling Close releases the underlying listener.
func (f *Feed) Subscribe(ctx context.Context, userID string) (*Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	listener := pq.NewListener(f.dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			f.logger.Error("profile listener event", "event", ev, "error", err)
		}
	})
	if err := listener.Listen(channel); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	sub := &Subscription{
		updates:  make(chan Update, 8),
		listener: listener,
		done:     make(chan struct{}),
	}

	go sub.run(ctx, userID, f.logger)
	return sub, nil
}

// Updates returns the delta channel. It is closed when the subscription
// ends.
func (s *Subscription) Updates() <-chan Update {
	return s.updates
}

// Close releases the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		close(s.done)
	})
}

func (s *Subscription) run(ctx context.Context, userID string, logger *slog.Logger) {
	defer close(s.updates)
	defer s.listener.Close()

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-ping.C:
			if err := s.listener.Ping(); err != nil {
				logger.Error("profile listener ping failed", "error", err)
				return
			}
		case n := <-s.listener.Notify:
			if n == nil {
				// Reconnect notification; the listener re-establishes itself.
				continue
			}
			var u Update
			if err := json.Unmarshal([]byte(n.Extra), &u); err != nil {
				logger.Error("bad profile notification payload", "error", err)
				continue
			}
			if u.UserID != userID {
				continue
			}
			select {
			case s.updates <- u:
			case <-s.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}
}
