package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/jobstats/job"
	"github.com/xraph/jobstats/middleware"
)

// Counter returns middleware that maintains the processed and failed
// counters (lifetime and per day) for every job the worker runs. A
// panicking job counts as failed. Redis errors are logged; the job's result
// is returned unchanged.
func (s *Stats) Counter() middleware.Middleware {
	return func(ctx context.Context, j *job.Job, next middleware.Handler) error {
		failed := true
		defer func() { s.record(ctx, j, failed) }()

		err := next(ctx)
		failed = err != nil
		return err
	}
}

// record bumps the counters in one transaction. Day keys expire after five
// years, as Sidekiq's do. The write outlives cancellation of the job's ctx
// so that timed-out and shutdown-cancelled jobs are counted too.
func (s *Stats) record(ctx context.Context, j *job.Job, failed bool) {
	ctx = context.WithoutCancel(ctx)
	now := s.now()
	const dayTTL = 5 * 365 * 24 * time.Hour

	pipe := s.client.TxPipeline()
	pipe.Incr(ctx, s.keys.processed())
	pipe.Incr(ctx, s.keys.processedOn(now))
	pipe.Expire(ctx, s.keys.processedOn(now), dayTTL)
	if failed {
		pipe.Incr(ctx, s.keys.failed())
		pipe.Incr(ctx, s.keys.failedOn(now))
		pipe.Expire(ctx, s.keys.failedOn(now), dayTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("redis stats: record job outcome",
			slog.String("job_name", j.Name),
			slog.String("job_id", j.ID.String()),
			slog.String("error", err.Error()),
		)
	}
}
