package job

import (
	"time"

	"github.com/xraph/jobstats"
	"github.com/xraph/jobstats/id"
)

// State represents the lifecycle state of a job.
type State string

const (
	// StatePending means the job is waiting to be picked up by a worker.
	StatePending State = "pending"
	// StateRunning means a worker is currently executing the job.
	StateRunning State = "running"
	// StateCompleted means the job finished successfully.
	StateCompleted State = "completed"
	// StateFailed means the job failed and will not be retried.
	StateFailed State = "failed"
	// StateRetrying means the job failed and sits in the retry set.
	StateRetrying State = "retrying"
)

// Job represents a unit of work to be processed by a worker.
type Job struct {
	jobstats.Entity

	ID          id.JobID      `json:"id"`
	Name        string        `json:"name"`
	Queue       string        `json:"queue"`
	Payload     []byte        `json:"payload"`
	State       State         `json:"state"`
	Priority    int           `json:"priority"`
	MaxRetries  int           `json:"max_retries"`
	RetryCount  int           `json:"retry_count"`
	LastError   string        `json:"last_error,omitempty"`
	RunAt       time.Time     `json:"run_at"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	Timeout     time.Duration `json:"timeout,omitempty"`
}

// New builds a pending job from a name, payload and options.
func New(name string, payload []byte, opts ...Option) *Job {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	j := &Job{
		Entity:     jobstats.NewEntity(),
		ID:         id.NewJobID(),
		Name:       name,
		Queue:      o.Queue,
		Payload:    payload,
		State:      StatePending,
		Priority:   o.Priority,
		MaxRetries: o.MaxRetries,
		RunAt:      o.RunAt,
		Timeout:    o.Timeout,
	}
	if j.RunAt.IsZero() {
		j.RunAt = j.CreatedAt
	}
	return j
}
