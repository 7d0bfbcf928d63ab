package middleware_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	mw "github.com/xraph/jobstats/middleware"
)

func setupTestTracer() (*tracetest.SpanRecorder, trace.Tracer) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return sr, tp.Tracer("test")
}

func TestTracing_SpanNameAndAttributes(t *testing.T) {
	sr, tracer := setupTestTracer()
	j := newTestJob()

	if err := mw.TracingWithTracer(tracer)(context.Background(), j, func(_ context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Name() != "job Mailer::Welcome" {
		t.Errorf("span name = %q", spans[0].Name())
	}
	if spans[0].Status().Code != codes.Ok {
		t.Errorf("expected status Ok, got %v", spans[0].Status().Code)
	}

	got := make(map[string]any)
	for _, a := range spans[0].Attributes() {
		switch a.Value.Type() {
		case attribute.STRING:
			got[string(a.Key)] = a.Value.AsString()
		case attribute.INT64:
			got[string(a.Key)] = a.Value.AsInt64()
		}
	}
	want := map[string]any{
		"job.id":      j.ID.String(),
		"job.name":    "Mailer::Welcome",
		"job.queue":   "mailer",
		"job.attempt": int64(3),
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("attribute %q = %v, want %v", k, got[k], v)
		}
	}
}

func TestTracing_ErrorStatus(t *testing.T) {
	sr, tracer := setupTestTracer()
	handlerErr := errors.New("handler failed")

	err := mw.TracingWithTracer(tracer)(context.Background(), newTestJob(), func(_ context.Context) error {
		return handlerErr
	})
	if err != handlerErr {
		t.Fatalf("expected handler error unchanged, got %v", err)
	}

	span := sr.Ended()[0]
	if span.Status().Code != codes.Error || span.Status().Description != "handler failed" {
		t.Errorf("unexpected status %+v", span.Status())
	}
	found := false
	for _, ev := range span.Events() {
		if ev.Name == "exception" {
			found = true
		}
	}
	if !found {
		t.Error("expected exception event on span")
	}
}

func TestTracing_PropagatesContext(t *testing.T) {
	sr, tracer := setupTestTracer()

	var inner trace.SpanContext
	_ = mw.TracingWithTracer(tracer)(context.Background(), newTestJob(), func(ctx context.Context) error {
		inner = trace.SpanFromContext(ctx).SpanContext()
		return nil
	})

	if !inner.IsValid() || inner.TraceID() != sr.Ended()[0].SpanContext().TraceID() {
		t.Error("handler did not receive the middleware span context")
	}
}

func TestTracing_DefaultNoopSafe(t *testing.T) {
	called := false
	err := mw.Tracing()(context.Background(), newTestJob(), func(_ context.Context) error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Fatalf("err=%v called=%v", err, called)
	}
}
