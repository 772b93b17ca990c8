package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/promptweaver/weaver/internal/schema"
)

// Default polling cadence for PollUntilComplete.
const (
	DefaultPollInterval = 2 * time.Second
	DefaultPollTimeout  = 2 * time.Minute
)

// ErrPollTimeout is returned when a run does not reach a terminal status
// within the wall-clock budget.
var ErrPollTimeout = fmt.Errorf("workflow run did not complete in time")

// PollUntilComplete re-issues status checks on a fixed interval until the run
// reaches a terminal status or the timeout elapses. This is cooperative,
// caller-driven polling; cancelling ctx stops it between checks.
func (c *Client) PollUntilComplete(ctx context.Context, kind schema.Kind, token, runID string, interval, timeout time.Duration) (*RunStatus, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status := c.Status(ctx, kind, token, runID)
		if status.Code != "" {
			return status, fmt.Errorf("status check failed: %s: %s", status.Code, status.Err)
		}
		if status.Terminal() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			if ctx.Err() == context.DeadlineExceeded {
				return nil, ErrPollTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}
