package job

import "time"

// DefaultQueue is the queue used when none is given.
const DefaultQueue = "default"

// Options configures per-job behavior such as retries, queue and priority.
type Options struct {
	// MaxRetries is the number of retry attempts after the first failure.
	MaxRetries int

	// Queue is the queue the job is enqueued to.
	Queue string

	// Priority orders dequeueing. Higher values run first.
	Priority int

	// Timeout bounds a single execution. Zero means unlimited.
	Timeout time.Duration

	// RunAt delays the job until the given time. Zero means now.
	RunAt time.Time
}

// DefaultOptions returns the options applied before any Option.
func DefaultOptions() Options {
	return Options{
		MaxRetries: 25,
		Queue:      DefaultQueue,
		Timeout:    5 * time.Minute,
	}
}

// Option is a functional option for a job or job definition.
type Option func(*Options)

// WithMaxRetries sets the retry budget.
func WithMaxRetries(n int) Option {
	return func(o *Options) { o.MaxRetries = n }
}

// WithQueue sets the queue name.
func WithQueue(q string) Option {
	return func(o *Options) { o.Queue = q }
}

// WithPriority sets the dequeue priority.
func WithPriority(p int) Option {
	return func(o *Options) { o.Priority = p }
}

// WithTimeout sets the per-execution deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithRunAt schedules the job for a later time.
func WithRunAt(t time.Time) Option {
	return func(o *Options) { o.RunAt = t }
}
