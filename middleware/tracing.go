package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/jobstats/job"
)

// TracerName is the instrumentation scope used by Tracing.
const TracerName = "github.com/xraph/jobstats"

// Tracing wraps each execution in a span from the global TracerProvider.
// Without a configured provider the noop tracer makes this a pass-through.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(TracerName))
}

// TracingWithTracer is Tracing with an explicit tracer.
//
// Span name is "job <name>". Attributes: job.id, job.name, job.queue,
// job.attempt. Failures record the error and set codes.Error.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, j *job.Job, next Handler) error {
		ctx, span := tracer.Start(ctx, "job "+j.Name,
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("job.id", j.ID.String()),
				attribute.String("job.name", j.Name),
				attribute.String("job.queue", j.Queue),
				attribute.Int("job.attempt", j.RetryCount+1),
			),
		)
		defer span.End()

		err := next(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		span.SetStatus(codes.Ok, "")
		return nil
	}
}
