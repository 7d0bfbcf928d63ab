package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/xraph/jobstats/job"
)

// Logging logs each execution at Debug on start, Info on success and Warn
// on failure. Retries are visible through the attempt attribute.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		attrs := []any{
			slog.String("job_name", j.Name),
			slog.String("job_id", j.ID.String()),
			slog.String("queue", j.Queue),
			slog.Int("attempt", j.RetryCount+1),
		}
		logger.DebugContext(ctx, "job started", attrs...)

		start := time.Now()
		err := next(ctx)
		attrs = append(attrs, slog.Duration("elapsed", time.Since(start)))

		if err != nil {
			logger.WarnContext(ctx, "job failed", append(attrs, slog.String("error", err.Error()))...)
			return err
		}
		logger.InfoContext(ctx, "job done", attrs...)
		return nil
	}
}
