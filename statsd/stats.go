package statsd

import (
	"context"
	"time"
)

// QueueStats exposes the global counts sampled into gauges.
type QueueStats interface {
	// Enqueued is the number of jobs waiting across all queues.
	Enqueued(ctx context.Context) (int64, error)
	// RetrySize is the number of jobs waiting to be retried.
	RetrySize(ctx context.Context) (int64, error)
	// Processed is the number of jobs that finished, successfully or not.
	Processed(ctx context.Context) (int64, error)
	// Failed is the number of jobs that failed.
	Failed(ctx context.Context) (int64, error)
}

// QueueInspector is optionally implemented by a QueueStats to report on a
// single queue.
type QueueInspector interface {
	QueueSize(ctx context.Context, queue string) (int64, error)
	// QueueLatency is how long the oldest waiting job has been due.
	QueueLatency(ctx context.Context, queue string) (time.Duration, error)
}
