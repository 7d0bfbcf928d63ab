package middleware

import (
	"context"

	"github.com/xraph/jobstats/job"
)

// Timeout derives a context bounded by the job's Timeout. A zero Timeout
// leaves the context alone. The handler is expected to honour ctx.
func Timeout() Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		if j.Timeout <= 0 {
			return next(ctx)
		}
		ctx, cancel := context.WithTimeout(ctx, j.Timeout)
		defer cancel()
		return next(ctx)
	}
}
