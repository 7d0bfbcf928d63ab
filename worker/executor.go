// Package worker runs jobs. An Executor invokes one job through the
// middleware chain and settles its state; a Pool runs executors on a set of
// goroutines that poll the store.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/jobstats"
	"github.com/xraph/jobstats/backoff"
	"github.com/xraph/jobstats/job"
	"github.com/xraph/jobstats/middleware"
)

// Executor runs a single job through middleware and the registered handler,
// then records the outcome in the store.
type Executor struct {
	registry *job.Registry
	store    job.Store
	backoff  backoff.Strategy
	mw       middleware.Middleware
	logger   *slog.Logger
	now      func() time.Time
}

// NewExecutor creates an Executor. Middleware runs in the order given.
func NewExecutor(
	registry *job.Registry,
	store job.Store,
	bo backoff.Strategy,
	logger *slog.Logger,
	mws ...middleware.Middleware,
) *Executor {
	if bo == nil {
		bo = backoff.DefaultStrategy()
	}
	return &Executor{
		registry: registry,
		store:    store,
		backoff:  bo,
		mw:       middleware.Chain(mws...),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Execute runs j and persists the result.
//
// On success the job is marked completed and nil is returned. On failure
// the job is scheduled for retry while RetryCount <= MaxRetries, otherwise
// marked failed; either way the handler error is returned (wrapped with the
// attempt for retries). A job whose name has no handler fails the same way
// with ErrNoHandler, without running the middleware.
func (e *Executor) Execute(ctx context.Context, j *job.Job) error {
	handler, ok := e.registry.Get(j.Name)
	if !ok {
		err := fmt.Errorf("%w: %q", jobstats.ErrNoHandler, j.Name)
		return e.handleFailure(ctx, j, err, e.now())
	}

	terminal := func(ctx context.Context) error {
		return handler(ctx, j.Payload)
	}

	err := e.mw(ctx, j, terminal)

	now := e.now()
	j.UpdatedAt = now

	if err != nil {
		return e.handleFailure(ctx, j, err, now)
	}
	return e.handleSuccess(ctx, j, now)
}

func (e *Executor) handleSuccess(ctx context.Context, j *job.Job, now time.Time) error {
	j.State = job.StateCompleted
	j.CompletedAt = &now
	j.LastError = ""

	if err := e.store.UpdateJob(ctx, j); err != nil {
		e.logger.Error("failed to update job after success",
			slog.String("job_id", j.ID.String()),
			slog.String("job_name", j.Name),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

func (e *Executor) handleFailure(ctx context.Context, j *job.Job, handlerErr error, now time.Time) error {
	j.RetryCount++
	j.LastError = handlerErr.Error()

	if j.RetryCount <= j.MaxRetries {
		return e.scheduleRetry(ctx, j, handlerErr, now)
	}
	return e.markFailed(ctx, j, handlerErr)
}

func (e *Executor) scheduleRetry(ctx context.Context, j *job.Job, handlerErr error, now time.Time) error {
	delay := e.backoff.Delay(j.RetryCount)
	j.RunAt = now.Add(delay)
	j.State = job.StateRetrying

	if err := e.store.UpdateJob(ctx, j); err != nil {
		e.logger.Error("failed to update job for retry",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
		return err
	}

	e.logger.Info("job scheduled for retry",
		slog.String("job_id", j.ID.String()),
		slog.String("job_name", j.Name),
		slog.Int("attempt", j.RetryCount),
		slog.Int("max_retries", j.MaxRetries),
		slog.Duration("delay", delay),
	)

	return fmt.Errorf("job %s retry %d/%d: %w", j.Name, j.RetryCount, j.MaxRetries, handlerErr)
}

func (e *Executor) markFailed(ctx context.Context, j *job.Job, handlerErr error) error {
	j.State = job.StateFailed

	if err := e.store.UpdateJob(ctx, j); err != nil {
		e.logger.Error("failed to update job as failed",
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
		return err
	}

	e.logger.Warn("job failed after exhausting retries",
		slog.String("job_id", j.ID.String()),
		slog.String("job_name", j.Name),
		slog.Int("retry_count", j.RetryCount),
		slog.String("error", handlerErr.Error()),
	)
	return handlerErr
}
