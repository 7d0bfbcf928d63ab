package middleware

import (
	"context"

	"github.com/xraph/jobstats/job"
)

// Handler is the terminal function that runs the job body.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic for job j.
type Middleware func(ctx context.Context, j *job.Job, next Handler) error

// Chain composes mws into one Middleware. Chain(a, b) runs as
// a → b → handler.
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw, inner := mws[i], h
			h = func(ctx context.Context) error {
				return mw(ctx, j, inner)
			}
		}
		return h(ctx)
	}
}
