package scheduler

import (
	"context"
	"time"

	"github.com/vnykmshr/wakeflow/pkg/scheduling/workerpool"
)

// BackoffTask wraps a task with retry logic. Delays double after each failed
// attempt, capped at MaxDelay.
type BackoffTask struct {
	Task         workerpool.Task
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// Execute implements workerpool.Task.
func (bt BackoffTask) Execute(ctx context.Context) error {
	var lastErr error
	delay := bt.InitialDelay

	for attempt := 0; attempt <= bt.MaxRetries; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}

			delay *= 2
			if bt.MaxDelay > 0 && delay > bt.MaxDelay {
				delay = bt.MaxDelay
			}
		}

		if lastErr = bt.Task.Execute(ctx); lastErr == nil {
			return nil
		}
	}
	return lastErr
}
