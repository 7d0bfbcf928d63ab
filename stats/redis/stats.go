// Package redis reads queue statistics from a Redis keyspace laid out the
// way Sidekiq lays it out, so Go workers can report the same gauges as the
// Ruby processes sharing the Redis instance:
//
//	stat:processed, stat:failed    lifetime counters (strings)
//	retry                          sorted set of retries
//	queues                         set of queue names
//	queue:<name>                   list of JSON jobs, newest first
//
// Usage:
//
//	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	qs := redisstats.New(client, redisstats.WithNamespace("myapp"))
//	m, _ := statsd.New(statsd.WithQueueStats(qs))
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xraph/jobstats/statsd"
)

var (
	_ statsd.QueueStats     = (*Stats)(nil)
	_ statsd.QueueInspector = (*Stats)(nil)
)

// Option configures Stats.
type Option func(*Stats)

// WithNamespace prefixes every key with "<ns>:".
func WithNamespace(ns string) Option {
	return func(s *Stats) { s.keys = keyspace{ns: ns} }
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stats) { s.logger = l }
}

// Stats implements statsd.QueueStats and statsd.QueueInspector over Redis.
type Stats struct {
	client redis.Cmdable
	keys   keyspace
	logger *slog.Logger
	now    func() time.Time
}

// New creates Stats. The caller owns the client's lifecycle.
func New(client redis.Cmdable, opts ...Option) *Stats {
	s := &Stats{client: client, logger: slog.Default(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ping verifies the Redis connection is alive.
func (s *Stats) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Enqueued sums the lengths of every queue listed in the queues set.
func (s *Stats) Enqueued(ctx context.Context) (int64, error) {
	names, err := s.client.SMembers(ctx, s.keys.queues()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis stats: list queues: %w", err)
	}
	if len(names) == 0 {
		return 0, nil
	}

	pipe := s.client.Pipeline()
	lens := make([]*redis.IntCmd, len(names))
	for i, name := range names {
		lens[i] = pipe.LLen(ctx, s.keys.queue(name))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis stats: queue lengths: %w", err)
	}

	var total int64
	for _, cmd := range lens {
		total += cmd.Val()
	}
	return total, nil
}

// RetrySize returns the size of the retry set.
func (s *Stats) RetrySize(ctx context.Context) (int64, error) {
	n, err := s.client.ZCard(ctx, s.keys.retry()).Result()
	if err != nil {
		return 0, fmt.Errorf("redis stats: retry size: %w", err)
	}
	return n, nil
}

// Processed returns the lifetime processed counter.
func (s *Stats) Processed(ctx context.Context) (int64, error) {
	return s.counter(ctx, s.keys.processed())
}

// Failed returns the lifetime failure counter.
func (s *Stats) Failed(ctx context.Context) (int64, error) {
	return s.counter(ctx, s.keys.failed())
}

func (s *Stats) counter(ctx context.Context, key string) (int64, error) {
	n, err := s.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis stats: read %s: %w", key, err)
	}
	return n, nil
}

// QueueSize returns the length of one queue.
func (s *Stats) QueueSize(ctx context.Context, queue string) (int64, error) {
	n, err := s.client.LLen(ctx, s.keys.queue(queue)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis stats: size of %q: %w", queue, err)
	}
	return n, nil
}

// queuedJob is the part of a queued job payload needed for latency.
type queuedJob struct {
	EnqueuedAt float64 `json:"enqueued_at"`
}

// millisThreshold separates the two enqueued_at encodings: fractional Unix
// seconds (Sidekiq up to 7) and integer Unix milliseconds (Sidekiq 8).
// 1e11 seconds is in the year 5138; 1e11 milliseconds is in 1973.
const millisThreshold = 1e11

func unixTime(v float64) time.Time {
	if v >= millisThreshold {
		return time.UnixMilli(int64(v))
	}
	sec, frac := math.Modf(v)
	return time.Unix(int64(sec), int64(frac*float64(time.Second)))
}

// QueueLatency returns how long the oldest job of queue has been waiting,
// from its enqueued_at field in either Unix seconds or Unix milliseconds.
func (s *Stats) QueueLatency(ctx context.Context, queue string) (time.Duration, error) {
	raw, err := s.client.LIndex(ctx, s.keys.queue(queue), -1).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis stats: oldest job in %q: %w", queue, err)
	}

	var qj queuedJob
	if err := json.Unmarshal([]byte(raw), &qj); err != nil {
		return 0, fmt.Errorf("redis stats: decode oldest job in %q: %w", queue, err)
	}
	if qj.EnqueuedAt <= 0 {
		return 0, nil
	}

	enqueuedAt := unixTime(qj.EnqueuedAt)
	if lag := s.now().Sub(enqueuedAt); lag > 0 {
		return lag, nil
	}
	return 0, nil
}
