package statsd

import (
	"context"
	"fmt"
	"log/slog"
)

type gauge struct {
	name string
	read func(context.Context) (int64, error)
}

// reportGauges samples the queue statistics. It never fails the job: read
// and send errors are logged and the remaining gauges are still sent.
func (m *Middleware) reportGauges(ctx context.Context, queue string) {
	if m.stats == nil {
		return
	}
	if m.limiter != nil && !m.limiter.Allow() {
		return
	}

	gauges := []gauge{
		{m.MetricName("enqueued"), m.stats.Enqueued},
		{m.MetricName("retry_set_size"), m.stats.RetrySize},
		{m.MetricName("processed"), m.stats.Processed},
		{m.MetricName("failed"), m.stats.Failed},
	}

	if qi, ok := m.stats.(QueueInspector); ok && m.cfg.QueueStats && queue != "" {
		gauges = append(gauges,
			gauge{m.MetricName("queues", queue, "enqueued"), func(ctx context.Context) (int64, error) {
				return qi.QueueSize(ctx, queue)
			}},
			gauge{m.MetricName("queues", queue, "latency"), func(ctx context.Context) (int64, error) {
				d, err := qi.QueueLatency(ctx, queue)
				return d.Milliseconds(), err
			}},
		)
	}

	for _, g := range gauges {
		v, err := readGauge(ctx, g)
		if err != nil {
			m.logger.Warn("statsd: read queue stat",
				slog.String("metric", g.name),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := m.client.Gauge(g.name, v); err != nil {
			m.warn("gauge", g.name, fmt.Errorf("value %d: %w", v, err))
		}
	}
}

// readGauge turns a panicking collaborator into an error for one gauge.
func readGauge(ctx context.Context, g gauge) (v int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("queue stats panicked: %v", r)
		}
	}()
	return g.read(ctx)
}
