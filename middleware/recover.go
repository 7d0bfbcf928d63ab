package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/xraph/jobstats/job"
)

// PanicError is returned by Recover when the handler panicked.
type PanicError struct {
	Job   string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in job %s: %v", e.Job, e.Value)
}

// Recover converts a handler panic into a *PanicError and logs the stack.
// Place it first in the chain so that every other middleware sees a plain
// error instead of an unwinding stack.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) (err error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			stack := debug.Stack()
			logger.ErrorContext(ctx, "job handler panicked",
				slog.String("job_name", j.Name),
				slog.String("job_id", j.ID.String()),
				slog.Any("panic", r),
				slog.String("stack", string(stack)),
			)
			err = &PanicError{Job: j.Name, Value: r, Stack: stack}
		}()
		return next(ctx)
	}
}
