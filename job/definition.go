package job

import "context"

// Definition is a typed job definition. T is the JSON-serializable payload.
type Definition[T any] struct {
	// Name is the job type. It appears in metric names.
	Name string

	// Handler processes one decoded payload.
	Handler func(ctx context.Context, payload T) error

	// Opts are the enqueue defaults for this job type.
	Opts []Option
}

// NewDefinition creates a typed job definition.
func NewDefinition[T any](name string, handler func(ctx context.Context, payload T) error, opts ...Option) *Definition[T] {
	return &Definition[T]{
		Name:    name,
		Handler: handler,
		Opts:    opts,
	}
}
