// Package schedule runs a task on a fixed interval with a bounded,
// growing-delay retry sub-schedule on failure. It is the generic form of
// the periodic refresh-with-retry behavior the application needs, with no
// coupling to any caller lifecycle beyond the context.
package schedule

import (
	"context"
	"log/slog"
	"time"
)

// Runner periodically invokes Task. When a run fails, up to MaxRetries
// retries are scheduled with a delay of RetryDelay × attempt before the
// runner reverts to the normal interval.
type Runner struct {
	Interval     time.Duration
	InitialDelay time.Duration
	RetryDelay   time.Duration
	MaxRetries   int
	Task         func(ctx context.Context) error
	Logger       *slog.Logger
}

// Start blocks until ctx is cancelled, running the task on schedule. The
// first run happens after InitialDelay.
func (r *Runner) Start(ctx context.Context) {
	r.Logger.Info("scheduler started", "interval", r.Interval)

	if !sleepCtx(ctx, r.InitialDelay) {
		return
	}
	r.runWithRetries(ctx)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Logger.Info("scheduler stopped")
			return
		case <-ticker.C:
			r.runWithRetries(ctx)
			// A retry window can outlast the interval, leaving a buffered
			// tick that would fire an immediate extra run. Drop it and
			// restart the interval from now.
			select {
			case <-ticker.C:
			default:
			}
			ticker.Reset(r.Interval)
		}
	}
}

// Go starts the runner in its own goroutine.
func (r *Runner) Go(ctx context.Context) {
	go r.Start(ctx)
}

func (r *Runner) runWithRetries(ctx context.Context) {
	err := r.Task(ctx)
	if err == nil {
		return
	}
	r.Logger.Error("scheduled task failed", "error", err)

	for attempt := 1; attempt <= r.MaxRetries; attempt++ {
		delay := time.Duration(attempt) * r.RetryDelay
		r.Logger.Info("scheduling retry", "attempt", attempt, "max", r.MaxRetries, "delay", delay)

		if !sleepCtx(ctx, delay) {
			return
		}

		if err = r.Task(ctx); err == nil {
			return
		}
		r.Logger.Error("retry failed", "attempt", attempt, "error", err)
	}

	r.Logger.Warn("maximum retries reached, waiting for next scheduled run", "max", r.MaxRetries)
}

// sleepCtx waits for d or until ctx is cancelled, reporting whether the
// full duration elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
