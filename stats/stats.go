// Package stats provides statsd.QueueStats implementations backed by the
// engine's own job store. The redis subpackage reads the same numbers from
// a shared Redis keyspace.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/jobstats/job"
	"github.com/xraph/jobstats/statsd"
)

var (
	_ statsd.QueueStats     = (*Store)(nil)
	_ statsd.QueueInspector = (*Store)(nil)
)

// Store derives queue statistics from job states:
//
//	enqueued   pending jobs
//	retry size retrying jobs
//	processed  completed + failed jobs
//	failed     failed jobs
//
// Completed and failed jobs only count while the store keeps them.
type Store struct {
	store job.Store
	now   func() time.Time
}

// New wraps a job store.
func New(s job.Store) *Store {
	return &Store{store: s, now: time.Now}
}

func (s *Store) count(ctx context.Context, opts job.CountOpts) (int64, error) {
	n, err := s.store.CountJobs(ctx, opts)
	if err != nil {
		return 0, fmt.Errorf("stats: count %s jobs: %w", opts.State, err)
	}
	return n, nil
}

// Enqueued implements statsd.QueueStats. Jobs scheduled for later with
// job.WithRunAt are not counted until they are due.
func (s *Store) Enqueued(ctx context.Context) (int64, error) {
	return s.count(ctx, job.CountOpts{State: job.StatePending, DueBy: s.now()})
}

// RetrySize implements statsd.QueueStats.
func (s *Store) RetrySize(ctx context.Context) (int64, error) {
	return s.count(ctx, job.CountOpts{State: job.StateRetrying})
}

// Processed implements statsd.QueueStats.
func (s *Store) Processed(ctx context.Context) (int64, error) {
	done, err := s.count(ctx, job.CountOpts{State: job.StateCompleted})
	if err != nil {
		return 0, err
	}
	failed, err := s.Failed(ctx)
	if err != nil {
		return 0, err
	}
	return done + failed, nil
}

// Failed implements statsd.QueueStats.
func (s *Store) Failed(ctx context.Context) (int64, error) {
	return s.count(ctx, job.CountOpts{State: job.StateFailed})
}

// QueueSize implements statsd.QueueInspector. Like Enqueued it only counts
// due jobs.
func (s *Store) QueueSize(ctx context.Context, queue string) (int64, error) {
	return s.count(ctx, job.CountOpts{State: job.StatePending, Queue: queue, DueBy: s.now()})
}

// QueueLatency implements statsd.QueueInspector. It is zero for an empty
// queue or one whose oldest job is not due yet.
func (s *Store) QueueLatency(ctx context.Context, queue string) (time.Duration, error) {
	oldest, err := s.store.ListJobsByState(ctx, job.StatePending, job.ListOpts{Queue: queue, Limit: 1})
	if err != nil {
		return 0, fmt.Errorf("stats: oldest job in %q: %w", queue, err)
	}
	if len(oldest) == 0 {
		return 0, nil
	}
	if lag := s.now().Sub(oldest[0].RunAt); lag > 0 {
		return lag, nil
	}
	return 0, nil
}
