package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/xraph/jobstats"
	"github.com/xraph/jobstats/backoff"
	"github.com/xraph/jobstats/job"
	mw "github.com/xraph/jobstats/middleware"
	"github.com/xraph/jobstats/stats"
	"github.com/xraph/jobstats/statsd"
	"github.com/xraph/jobstats/worker"
)

// Engine owns the registry, executor and pool for one store.
type Engine struct {
	config   jobstats.Config
	logger   *slog.Logger
	registry *job.Registry
	store    job.Store
	bo       backoff.Strategy
	pool     *worker.Pool
	mws      []mw.Middleware

	statsd       *statsd.Middleware
	statsdOpts   []statsd.Option
	ownsStatsd   bool
	statsdOff    bool
	statsdCustom bool

	tracerProvider trace.TracerProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig sets the pool configuration.
func WithConfig(cfg jobstats.Config) Option {
	return func(eng *Engine) { eng.config = cfg }
}

// WithLogger sets the logger shared by the engine and its middleware.
func WithLogger(l *slog.Logger) Option {
	return func(eng *Engine) {
		if l != nil {
			eng.logger = l
		}
	}
}

// WithMiddleware appends middleware after the default chain.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) { eng.mws = append(eng.mws, m) }
}

// WithBackoff sets the retry backoff strategy.
// If not set, backoff.DefaultStrategy() is used.
func WithBackoff(b backoff.Strategy) Option {
	return func(eng *Engine) { eng.bo = b }
}

// WithTracerProvider sets the OTel TracerProvider used by the tracing
// middleware. If not set, the global provider is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) { eng.tracerProvider = tp }
}

// WithStatsd passes options to the StatsD middleware the engine builds.
// Queue statistics default to counts from the engine's store; pass
// statsd.WithQueueStats to read them elsewhere.
func WithStatsd(opts ...statsd.Option) Option {
	return func(eng *Engine) { eng.statsdOpts = append(eng.statsdOpts, opts...) }
}

// WithStatsdMiddleware uses an existing StatsD middleware. The caller keeps
// ownership and closes it.
func WithStatsdMiddleware(m *statsd.Middleware) Option {
	return func(eng *Engine) {
		eng.statsd = m
		eng.statsdCustom = true
	}
}

// WithoutStatsd leaves the StatsD middleware out of the chain.
func WithoutStatsd() Option {
	return func(eng *Engine) { eng.statsdOff = true }
}

// New creates an Engine over store.
func New(store job.Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, jobstats.ErrNoStore
	}

	eng := &Engine{
		config:   jobstats.DefaultConfig(),
		logger:   slog.Default(),
		registry: job.NewRegistry(),
		store:    store,
	}
	for _, opt := range opts {
		opt(eng)
	}

	if err := eng.config.Validate(); err != nil {
		return nil, err
	}
	if eng.bo == nil {
		eng.bo = backoff.DefaultStrategy()
	}

	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracingMw = mw.TracingWithTracer(eng.tracerProvider.Tracer(mw.TracerName))
	} else {
		tracingMw = mw.Tracing()
	}

	chain := []mw.Middleware{
		mw.Recover(eng.logger),
		tracingMw,
	}

	if !eng.statsdOff {
		if !eng.statsdCustom {
			sopts := make([]statsd.Option, 0, len(eng.statsdOpts)+2)
			sopts = append(sopts, statsd.WithQueueStatsFunc(func() statsd.QueueStats { return stats.New(store) }), statsd.WithLogger(eng.logger))
			sopts = append(sopts, eng.statsdOpts...)

			m, err := statsd.New(sopts...)
			if err != nil {
				return nil, fmt.Errorf("build statsd middleware: %w", err)
			}
			eng.statsd = m
			eng.ownsStatsd = true
		}
		if eng.statsd != nil {
			chain = append(chain, eng.statsd.Handler())
		}
	}

	chain = append(chain, mw.Logging(eng.logger), mw.Timeout())
	chain = append(chain, eng.mws...)

	executor := worker.NewExecutor(eng.registry, eng.store, eng.bo, eng.logger, chain...)
	eng.pool = worker.NewPool(eng.store, executor, eng.logger,
		worker.WithPoolConcurrency(eng.config.Concurrency),
		worker.WithPoolQueues(eng.config.Queues),
		worker.WithPollInterval(eng.config.PollInterval),
	)

	return eng, nil
}

// Register registers a typed job definition with the engine.
func Register[T any](eng *Engine, def *job.Definition[T]) {
	job.RegisterDefinition(eng.registry, def)
}

// Enqueue marshals payload to JSON and enqueues a job.
func Enqueue[T any](ctx context.Context, eng *Engine, name string, payload T, opts ...job.Option) (*job.Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload for job %q: %w", name, err)
	}
	return eng.EnqueueRaw(ctx, name, data, opts...)
}

// EnqueueRaw enqueues a job with a pre-serialized payload. Options
// registered with the job's definition apply first, then opts.
func (eng *Engine) EnqueueRaw(ctx context.Context, name string, payload []byte, opts ...job.Option) (*job.Job, error) {
	defaults := eng.registry.Options(name)
	all := make([]job.Option, 0, len(defaults)+len(opts))
	all = append(all, defaults...)
	all = append(all, opts...)

	j := job.New(name, payload, all...)
	if err := eng.store.EnqueueJob(ctx, j); err != nil {
		return nil, fmt.Errorf("enqueue job %q: %w", name, err)
	}

	eng.logger.Debug("job enqueued",
		slog.String("job_id", j.ID.String()),
		slog.String("job_name", name),
		slog.String("queue", j.Queue),
	)
	return j, nil
}

// Start begins job processing.
func (eng *Engine) Start(ctx context.Context) error {
	return eng.pool.Start(ctx)
}

// Stop drains the worker pool, bounded by ShutdownTimeout, then closes the
// StatsD middleware if the engine built it.
func (eng *Engine) Stop(ctx context.Context) error {
	if eng.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, eng.config.ShutdownTimeout)
		defer cancel()
	}

	if err := eng.pool.Stop(ctx); err != nil {
		return err
	}

	if eng.ownsStatsd {
		if err := eng.statsd.Close(); err != nil {
			eng.logger.Warn("statsd close failed", slog.String("error", err.Error()))
		}
	}
	return nil
}

// Registry returns the job registry.
func (eng *Engine) Registry() *job.Registry { return eng.registry }

// Store returns the job store.
func (eng *Engine) Store() job.Store { return eng.store }

// Config returns the engine's configuration.
func (eng *Engine) Config() jobstats.Config { return eng.config }

// Statsd returns the StatsD middleware, or nil when disabled.
func (eng *Engine) Statsd() *statsd.Middleware { return eng.statsd }

// Pool returns the worker pool.
func (eng *Engine) Pool() *worker.Pool { return eng.pool }
