package statsd_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/xraph/jobstats"
	"github.com/xraph/jobstats/job"
	"github.com/xraph/jobstats/middleware"
	"github.com/xraph/jobstats/statsd"
	"github.com/xraph/jobstats/statsd/statsdtest"
)

// fakeStats is a QueueStats and QueueInspector with fixed answers.
type fakeStats struct {
	reads      atomic.Int64
	enqueued   int64
	retry      int64
	processed  int64
	failed     int64
	queueSize  int64
	latency    time.Duration
	retryErr   error
	panicOnEnq bool
}

func (f *fakeStats) Enqueued(context.Context) (int64, error) {
	f.reads.Add(1)
	if f.panicOnEnq {
		panic("redis exploded")
	}
	return f.enqueued, nil
}

func (f *fakeStats) RetrySize(context.Context) (int64, error) {
	f.reads.Add(1)
	return f.retry, f.retryErr
}

func (f *fakeStats) Processed(context.Context) (int64, error) {
	f.reads.Add(1)
	return f.processed, nil
}

func (f *fakeStats) Failed(context.Context) (int64, error) {
	f.reads.Add(1)
	return f.failed, nil
}

func (f *fakeStats) QueueSize(context.Context, string) (int64, error) {
	f.reads.Add(1)
	return f.queueSize, nil
}

func (f *fakeStats) QueueLatency(context.Context, string) (time.Duration, error) {
	f.reads.Add(1)
	return f.latency, nil
}

// globalOnly hides the QueueInspector methods of fakeStats.
type globalOnly struct{ statsd.QueueStats }

func newMiddleware(t *testing.T, opts ...statsd.Option) (*statsd.Middleware, *statsdtest.Recorder) {
	t.Helper()
	t.Setenv("STATSD_ENV", "")
	t.Setenv("APP_ENV", "")

	rec := statsdtest.New()
	m, err := statsd.New(append([]statsd.Option{statsd.WithClient(rec)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m, rec
}

func dummyJob() *job.Job {
	return job.New("Dummy::Worker", nil, job.WithQueue("mailer"))
}

func cleanJob(context.Context) error { return nil }

var errBroken = errors.New("error")

func brokenJob(context.Context) error { return errBroken }

func TestNew_InjectedClientIsUsed(t *testing.T) {
	m, rec := newMiddleware(t)

	if m.Client() != statsd.Client(rec) {
		t.Fatal("expected the injected client to be used")
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if rec.Closed() {
		t.Error("Close must not close an injected client")
	}
}

func TestNew_Defaults(t *testing.T) {
	m, _ := newMiddleware(t)
	cfg := m.Config()

	if cfg.Host != "localhost" || cfg.Port != 8125 {
		t.Errorf("address = %s, want localhost:8125", cfg.Address())
	}
	if cfg.Prefix != "worker" {
		t.Errorf("Prefix = %q, want worker", cfg.Prefix)
	}
	if cfg.Env != "production" {
		t.Errorf("Env = %q, want production", cfg.Env)
	}
	if !cfg.GlobalStats {
		t.Error("GlobalStats should default to true")
	}
}

func TestNew_EnvFromEnvironment(t *testing.T) {
	t.Setenv("STATSD_ENV", "")
	t.Setenv("APP_ENV", "staging")
	m, err := statsd.New(statsd.WithClient(statsdtest.New()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.Config().Env != "staging" {
		t.Errorf("Env = %q, want staging", m.Config().Env)
	}

	t.Setenv("STATSD_ENV", "canary")
	m, _ = statsd.New(statsd.WithClient(statsdtest.New()))
	if m.Config().Env != "canary" {
		t.Errorf("Env = %q, want canary", m.Config().Env)
	}
}

func TestNew_CustomHostAndPort(t *testing.T) {
	m, _ := newMiddleware(t, statsd.WithHost("example.com"), statsd.WithPort(8126))
	if got := m.Config().Address(); got != "example.com:8126" {
		t.Errorf("Address = %q, want example.com:8126", got)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	for name, opt := range map[string]statsd.Option{
		"empty host": statsd.WithHost(""),
		"zero port":  statsd.WithPort(0),
		"high port":  statsd.WithPort(70000),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := statsd.New(statsd.WithClient(statsdtest.New()), opt)
			if !errors.Is(err, jobstats.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestCall_CustomPrefix(t *testing.T) {
	m, rec := newMiddleware(t,
		statsd.WithEnv("development"),
		statsd.WithPrefix("application.sidekiq"),
	)

	if err := m.Call(context.Background(), dummyJob(), cleanJob); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := rec.Count(statsdtest.KindTiming, "development.application.sidekiq.Dummy.Worker.processing_time"); n != 1 {
		t.Errorf("processing_time timings = %d, want 1; calls: %+v", n, rec.Calls())
	}
}

func TestCall_EmptyEnvDropsSegment(t *testing.T) {
	m, rec := newMiddleware(t, statsd.WithEnv(""))

	_ = m.Call(context.Background(), dummyJob(), cleanJob)
	if n := rec.Count(statsdtest.KindIncrement, "worker.Dummy.Worker.success"); n != 1 {
		t.Errorf("success increments = %d, want 1; calls: %+v", n, rec.Calls())
	}
}

func TestCall_Success(t *testing.T) {
	m, rec := newMiddleware(t)

	if err := m.Call(context.Background(), dummyJob(), cleanJob); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if n := rec.Count(statsdtest.KindIncrement, "production.worker.Dummy.Worker.success"); n != 1 {
		t.Errorf("success increments = %d, want 1", n)
	}
	if n := rec.Count(statsdtest.KindTiming, "production.worker.Dummy.Worker.processing_time"); n != 1 {
		t.Errorf("processing_time timings = %d, want 1", n)
	}
	if n := rec.Count(statsdtest.KindIncrement, "production.worker.Dummy.Worker.failure"); n != 0 {
		t.Errorf("failure increments = %d, want 0", n)
	}
}

func TestCall_Failure(t *testing.T) {
	m, rec := newMiddleware(t)

	err := m.Call(context.Background(), dummyJob(), brokenJob)
	if err != errBroken {
		t.Fatalf("expected the job's error unchanged, got %v", err)
	}

	if n := rec.Count(statsdtest.KindIncrement, "production.worker.Dummy.Worker.failure"); n != 1 {
		t.Errorf("failure increments = %d, want 1", n)
	}
	if n := rec.Count(statsdtest.KindTiming, "production.worker.Dummy.Worker.processing_time"); n != 1 {
		t.Errorf("processing_time timings = %d, want 1", n)
	}
	if n := rec.Count(statsdtest.KindIncrement, "production.worker.Dummy.Worker.success"); n != 0 {
		t.Errorf("success increments = %d, want 0", n)
	}
}

func TestCall_TimingWrapsTheJob(t *testing.T) {
	m, rec := newMiddleware(t)

	_ = m.Call(context.Background(), dummyJob(), func(context.Context) error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})

	for _, c := range rec.Calls() {
		if c.Kind == statsdtest.KindTiming && c.Duration < 20*time.Millisecond {
			t.Errorf("timing %v shorter than the job", c.Duration)
		}
	}
}

func TestCall_PanicCountsFailureAndRepanics(t *testing.T) {
	m, rec := newMiddleware(t)

	func() {
		defer func() {
			if r := recover(); r != "kaboom" {
				t.Errorf("recovered %v, want kaboom", r)
			}
		}()
		_ = m.Call(context.Background(), dummyJob(), func(context.Context) error {
			panic("kaboom")
		})
	}()

	if n := rec.Count(statsdtest.KindIncrement, "production.worker.Dummy.Worker.failure"); n != 1 {
		t.Errorf("failure increments = %d, want 1", n)
	}
	if n := rec.Count(statsdtest.KindTiming, "production.worker.Dummy.Worker.processing_time"); n != 1 {
		t.Errorf("processing_time timings = %d, want 1", n)
	}
}

func TestCall_ClientErrorsDoNotChangeOutcome(t *testing.T) {
	m, rec := newMiddleware(t)
	rec.Err = errors.New("socket closed")

	if err := m.Call(context.Background(), dummyJob(), cleanJob); err != nil {
		t.Fatalf("clean job: unexpected error %v", err)
	}
	if err := m.Call(context.Background(), dummyJob(), brokenJob); err != errBroken {
		t.Fatalf("broken job: expected errBroken, got %v", err)
	}
}

func TestGauges_Reported(t *testing.T) {
	stats := &fakeStats{enqueued: 7, retry: 2, processed: 100, failed: 3, queueSize: 4, latency: 1500 * time.Millisecond}
	m, rec := newMiddleware(t, statsd.WithQueueStats(stats))

	_ = m.Call(context.Background(), dummyJob(), cleanJob)

	want := map[string]int64{
		"production.worker.enqueued":               7,
		"production.worker.retry_set_size":         2,
		"production.worker.processed":              100,
		"production.worker.failed":                 3,
		"production.worker.queues.mailer.enqueued": 4,
		"production.worker.queues.mailer.latency":  1500,
	}
	got := rec.Gauges()
	if len(got) != len(want) {
		t.Errorf("got %d gauges, want %d: %v", len(got), len(want), got)
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("gauge %s = %d, want %d", name, got[name], v)
		}
	}
}

func TestGauges_WithoutGlobalStats(t *testing.T) {
	stats := &fakeStats{}
	m, rec := newMiddleware(t, statsd.WithQueueStats(stats), statsd.WithoutGlobalStats())

	if m.QueueStats() != nil {
		t.Error("expected no queue stats collaborator to be held")
	}

	_ = m.Call(context.Background(), dummyJob(), cleanJob)
	_ = m.Call(context.Background(), dummyJob(), brokenJob)

	if n := rec.CountKind(statsdtest.KindGauge); n != 0 {
		t.Errorf("gauge calls = %d, want 0", n)
	}
	if n := stats.reads.Load(); n != 0 {
		t.Errorf("queue stats reads = %d, want 0", n)
	}
}

func TestGauges_LazyCollaborator(t *testing.T) {
	built := 0
	build := func() statsd.QueueStats {
		built++
		return &fakeStats{}
	}

	newMiddleware(t, statsd.WithQueueStatsFunc(build), statsd.WithoutGlobalStats())
	if built != 0 {
		t.Errorf("collaborator built %d times with global stats off, want 0", built)
	}

	m, rec := newMiddleware(t, statsd.WithQueueStatsFunc(build))
	if built != 1 || m.QueueStats() == nil {
		t.Fatalf("collaborator built %d times, want 1", built)
	}
	_ = m.Call(context.Background(), dummyJob(), cleanJob)
	if n := rec.CountKind(statsdtest.KindGauge); n != 6 {
		t.Errorf("gauge calls = %d, want 6", n)
	}
}

func TestGauges_WithoutQueueStats(t *testing.T) {
	m, rec := newMiddleware(t, statsd.WithQueueStats(&fakeStats{}), statsd.WithoutQueueStats())

	_ = m.Call(context.Background(), dummyJob(), cleanJob)

	if n := rec.CountKind(statsdtest.KindGauge); n != 4 {
		t.Errorf("gauge calls = %d, want the 4 global gauges", n)
	}
}

func TestGauges_GlobalOnlyCollaborator(t *testing.T) {
	m, rec := newMiddleware(t, statsd.WithQueueStats(globalOnly{&fakeStats{}}))

	_ = m.Call(context.Background(), dummyJob(), cleanJob)

	if n := rec.CountKind(statsdtest.KindGauge); n != 4 {
		t.Errorf("gauge calls = %d, want 4", n)
	}
}

func TestGauges_Resilient(t *testing.T) {
	for name, next := range map[string]func(context.Context) error{
		"success": cleanJob,
		"failure": brokenJob,
	} {
		t.Run(name, func(t *testing.T) {
			stats := &fakeStats{retryErr: errors.New("redis timeout"), panicOnEnq: true, processed: 9}
			m, rec := newMiddleware(t, statsd.WithQueueStats(stats))

			err := m.Call(context.Background(), dummyJob(), next)
			wantErr := next(context.Background())
			if err != wantErr {
				t.Fatalf("job outcome changed: got %v, want %v", err, wantErr)
			}

			got := rec.Gauges()
			if _, ok := got["production.worker.enqueued"]; ok {
				t.Error("panicking gauge should be skipped")
			}
			if _, ok := got["production.worker.retry_set_size"]; ok {
				t.Error("failing gauge should be skipped")
			}
			if got["production.worker.processed"] != 9 {
				t.Errorf("processed gauge = %d, want 9", got["production.worker.processed"])
			}
		})
	}
}

func TestGauges_Interval(t *testing.T) {
	stats := &fakeStats{}
	m, rec := newMiddleware(t, statsd.WithQueueStats(stats), statsd.WithGaugeInterval(time.Hour))

	_ = m.Call(context.Background(), dummyJob(), cleanJob)
	_ = m.Call(context.Background(), dummyJob(), cleanJob)

	if n := rec.Count(statsdtest.KindGauge, "production.worker.enqueued"); n != 1 {
		t.Errorf("enqueued gauge sampled %d times, want 1", n)
	}
	if n := rec.Count(statsdtest.KindIncrement, "production.worker.Dummy.Worker.success"); n != 2 {
		t.Errorf("success increments = %d, want 2", n)
	}
}

func TestHandler_InChain(t *testing.T) {
	m, rec := newMiddleware(t)
	h := m.Handler()

	if err := h(context.Background(), dummyJob(), cleanJob); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.CountKind(statsdtest.KindIncrement) != 1 {
		t.Errorf("expected one increment through Handler, got %+v", rec.Calls())
	}
}

func TestTypeName(t *testing.T) {
	tests := map[string]string{
		"Mailer::Welcome":   "Mailer.Welcome",
		"billing/invoice":   "billing.invoice",
		"A::B::C":           "A.B.C",
		"send-email":        "send-email",
		"already.dotted.ok": "already.dotted.ok",
	}
	for in, want := range tests {
		if got := statsd.TypeName(in); got != want {
			t.Errorf("TypeName(%q) = %q, want %q", in, got, want)
		}
	}
}

// ctxStats fails every read whose context is already done.
type ctxStats struct{ fakeStats }

func (c *ctxStats) Enqueued(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.fakeStats.Enqueued(ctx)
}

func (c *ctxStats) QueueSize(ctx context.Context, queue string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return c.fakeStats.QueueSize(ctx, queue)
}

func TestGauges_ReadAfterJobTimeout(t *testing.T) {
	qs := &ctxStats{fakeStats{enqueued: 9, queueSize: 2}}
	m, rec := newMiddleware(t, statsd.WithQueueStats(qs))
	chain := middleware.Chain(middleware.Timeout(), m.Handler())

	j := job.New("Slow", nil, job.WithQueue("mailer"), job.WithTimeout(10*time.Millisecond))
	err := chain(context.Background(), j, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}

	got := rec.Gauges()
	if got["production.worker.enqueued"] != 9 {
		t.Errorf("enqueued gauge = %d, want 9 (gauges: %v)", got["production.worker.enqueued"], got)
	}
	if got["production.worker.queues.mailer.enqueued"] != 2 {
		t.Errorf("queue gauge = %d, want 2", got["production.worker.queues.mailer.enqueued"])
	}
	if n := rec.Count(statsdtest.KindIncrement, "production.worker.Slow.failure"); n != 1 {
		t.Errorf("failure count = %d, want 1", n)
	}
}
