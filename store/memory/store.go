// Package memory provides an in-memory job.Store for tests and single
// process deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/jobstats"
	"github.com/xraph/jobstats/id"
	"github.com/xraph/jobstats/job"
)

var _ job.Store = (*Store)(nil)

// Store keeps jobs in a map guarded by a RWMutex. Jobs are copied on the
// way in and out so callers never share memory with the store.
type Store struct {
	mu     sync.RWMutex
	jobs   map[string]*job.Job
	closed bool
}

// New returns an empty Store.
func New() *Store {
	return &Store{jobs: make(map[string]*job.Job)}
}

// Ping reports ErrStoreClosed after Close.
func (m *Store) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return jobstats.ErrStoreClosed
	}
	return nil
}

// Close marks the store closed. Stored jobs are kept.
func (m *Store) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// EnqueueJob persists a new job.
func (m *Store) EnqueueJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, exists := m.jobs[key]; exists {
		return jobstats.ErrJobAlreadyExists
	}
	cp := *j
	m.jobs[key] = &cp
	return nil
}

// DequeueJobs claims up to limit due jobs from queues.
func (m *Store) DequeueJobs(_ context.Context, queues []string, limit int) ([]*job.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	queueSet := make(map[string]struct{}, len(queues))
	for _, q := range queues {
		queueSet[q] = struct{}{}
	}

	now := time.Now().UTC()

	candidates := make([]*job.Job, 0)
	for _, j := range m.jobs {
		if j.State != job.StatePending && j.State != job.StateRetrying {
			continue
		}
		if j.RunAt.After(now) {
			continue
		}
		if len(queueSet) > 0 {
			if _, ok := queueSet[j.Queue]; !ok {
				continue
			}
		}
		candidates = append(candidates, j)
	}

	sort.Slice(candidates, func(a, b int) bool {
		if candidates[a].Priority != candidates[b].Priority {
			return candidates[a].Priority > candidates[b].Priority
		}
		return candidates[a].RunAt.Before(candidates[b].RunAt)
	})

	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	result := make([]*job.Job, len(candidates))
	for i, j := range candidates {
		started := now
		j.State = job.StateRunning
		j.StartedAt = &started
		j.UpdatedAt = now
		cp := *j
		result[i] = &cp
	}
	return result, nil
}

// GetJob retrieves a job by ID.
func (m *Store) GetJob(_ context.Context, jobID id.JobID) (*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.jobs[jobID.String()]
	if !ok {
		return nil, jobstats.ErrJobNotFound
	}
	cp := *j
	return &cp, nil
}

// UpdateJob replaces a stored job.
func (m *Store) UpdateJob(_ context.Context, j *job.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := j.ID.String()
	if _, ok := m.jobs[key]; !ok {
		return jobstats.ErrJobNotFound
	}
	cp := *j
	cp.UpdatedAt = time.Now().UTC()
	m.jobs[key] = &cp
	return nil
}

// DeleteJob removes a job by ID.
func (m *Store) DeleteJob(_ context.Context, jobID id.JobID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := jobID.String()
	if _, ok := m.jobs[key]; !ok {
		return jobstats.ErrJobNotFound
	}
	delete(m.jobs, key)
	return nil
}

// ListJobsByState returns jobs in state, oldest RunAt first.
func (m *Store) ListJobsByState(_ context.Context, state job.State, opts job.ListOpts) ([]*job.Job, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matched := make([]*job.Job, 0)
	for _, j := range m.jobs {
		if j.State != state {
			continue
		}
		if opts.Queue != "" && j.Queue != opts.Queue {
			continue
		}
		cp := *j
		matched = append(matched, &cp)
	}

	sort.Slice(matched, func(a, b int) bool {
		return matched[a].RunAt.Before(matched[b].RunAt)
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []*job.Job{}, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && len(matched) > opts.Limit {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

// CountJobs returns the number of jobs matching opts.
func (m *Store) CountJobs(_ context.Context, opts job.CountOpts) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, j := range m.jobs {
		if opts.State != "" && j.State != opts.State {
			continue
		}
		if opts.Queue != "" && j.Queue != opts.Queue {
			continue
		}
		if !opts.DueBy.IsZero() && j.RunAt.After(opts.DueBy) {
			continue
		}
		n++
	}
	return n, nil
}
