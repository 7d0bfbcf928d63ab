package statsd

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/xraph/jobstats/job"
	"github.com/xraph/jobstats/middleware"
)

// Option configures a Middleware before its configuration is resolved.
type Option func(*Middleware)

// WithConfig replaces the whole configuration. Later options still apply.
func WithConfig(cfg Config) Option {
	return func(m *Middleware) { m.cfg = cfg }
}

// WithClient injects a ready client. No client is dialled from host and
// port, and Close leaves the injected client open.
func WithClient(c Client) Option {
	return func(m *Middleware) { m.client = c }
}

// WithHost sets the StatsD host.
func WithHost(host string) Option {
	return func(m *Middleware) { m.cfg.Host = host }
}

// WithPort sets the StatsD port.
func WithPort(port int) Option {
	return func(m *Middleware) { m.cfg.Port = port }
}

// WithPrefix sets the metric prefix that follows the environment label.
// It may itself contain dots, e.g. "application.sidekiq".
func WithPrefix(prefix string) Option {
	return func(m *Middleware) { m.cfg.Prefix = prefix }
}

// WithEnv sets the environment label. An empty label drops the segment.
func WithEnv(label string) Option {
	return func(m *Middleware) { m.cfg.Env = label }
}

// WithQueueStats sets the collaborator sampled for gauges.
func WithQueueStats(s QueueStats) Option {
	return func(m *Middleware) { m.stats = s }
}

// WithQueueStatsFunc builds the collaborator lazily. fn is only called
// when global stats are enabled and no collaborator was set with
// WithQueueStats.
func WithQueueStatsFunc(fn func() QueueStats) Option {
	return func(m *Middleware) { m.statsFn = fn }
}

// WithoutGlobalStats turns gauge reporting off entirely.
func WithoutGlobalStats() Option {
	return func(m *Middleware) { m.cfg.GlobalStats = false }
}

// WithoutQueueStats keeps the global gauges but drops the per-queue ones.
func WithoutQueueStats() Option {
	return func(m *Middleware) { m.cfg.QueueStats = false }
}

// WithGaugeInterval samples gauges at most once per d.
func WithGaugeInterval(d time.Duration) Option {
	return func(m *Middleware) { m.cfg.GaugeInterval = d }
}

// WithLogger sets the logger for metric delivery problems.
func WithLogger(l *slog.Logger) Option {
	return func(m *Middleware) { m.logger = l }
}

// Middleware times and counts job executions. Create it with New; it is
// safe for concurrent use by every worker goroutine.
type Middleware struct {
	cfg        Config
	client     Client
	ownsClient bool
	stats      QueueStats
	statsFn    func() QueueStats
	limiter    *rate.Limiter
	logger     *slog.Logger
}

// New resolves the configuration once and connects a UDPClient unless one
// was injected with WithClient.
func New(opts ...Option) (*Middleware, error) {
	m := &Middleware{
		cfg:    DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.cfg.Validate(); err != nil {
		return nil, err
	}

	if !m.cfg.GlobalStats {
		m.stats = nil
	} else if m.stats == nil && m.statsFn != nil {
		m.stats = m.statsFn()
	}
	if m.cfg.GaugeInterval > 0 {
		m.limiter = rate.NewLimiter(rate.Every(m.cfg.GaugeInterval), 1)
	}

	if m.client == nil {
		c, err := NewUDPClient(m.cfg)
		if err != nil {
			return nil, err
		}
		m.client = c
		m.ownsClient = true
	}
	return m, nil
}

// Config returns the resolved configuration.
func (m *Middleware) Config() Config { return m.cfg }

// Client returns the client metrics are sent through.
func (m *Middleware) Client() Client { return m.client }

// QueueStats returns the gauge collaborator, or nil when global stats are
// disabled or none was given.
func (m *Middleware) QueueStats() QueueStats { return m.stats }

// MetricName prefixes parts with the environment label and prefix.
func (m *Middleware) MetricName(parts ...string) string {
	return joinName(append([]string{m.cfg.Env, m.cfg.Prefix}, parts...)...)
}

// Handler adapts the middleware to a middleware.Chain.
func (m *Middleware) Handler() middleware.Middleware {
	return m.Call
}

// Call runs next inside the processing_time timer, then counts the outcome
// and samples gauges. The error from next is returned unchanged. A panic in
// next is counted as a failure and then continues unwinding.
func (m *Middleware) Call(ctx context.Context, j *job.Job, next middleware.Handler) error {
	typ := TypeName(j.Name)

	// Gauges are still read when the job died of a cancelled or expired ctx.
	defer m.reportGauges(context.WithoutCancel(ctx), j.Queue)

	succeeded := false
	defer func() {
		if !succeeded {
			m.send("increment", m.MetricName(typ, "failure"), m.client.Increment)
		}
	}()

	var jobErr error
	timingErr := m.client.Time(m.MetricName(typ, "processing_time"), func() error {
		jobErr = next(ctx)
		return jobErr
	})
	if jobErr != nil {
		return jobErr
	}
	if timingErr != nil {
		m.warn("timing", m.MetricName(typ, "processing_time"), timingErr)
	}

	succeeded = true
	m.send("increment", m.MetricName(typ, "success"), m.client.Increment)
	return nil
}

// Close closes the client if New created it.
func (m *Middleware) Close() error {
	if !m.ownsClient {
		return nil
	}
	return m.client.Close()
}

func (m *Middleware) send(kind, name string, fn func(string) error) {
	if err := fn(name); err != nil {
		m.warn(kind, name, err)
	}
}

func (m *Middleware) warn(kind, name string, err error) {
	m.logger.Warn("statsd: send failed",
		slog.String("kind", kind),
		slog.String("metric", name),
		slog.String("error", err.Error()),
	)
}
