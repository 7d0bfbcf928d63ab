package job

import (
	"context"
	"time"

	"github.com/xraph/jobstats/id"
)

// ListOpts controls pagination and filtering for job list queries.
type ListOpts struct {
	// Limit is the maximum number of jobs to return. Zero means no limit.
	Limit int
	// Offset is the number of jobs to skip.
	Offset int
	// Queue filters by queue name. Empty means all queues.
	Queue string
}

// CountOpts controls filtering for job count queries.
type CountOpts struct {
	// Queue filters by queue name. Empty means all queues.
	Queue string
	// State filters by job state. Empty means all states.
	State State
	// DueBy keeps only jobs whose RunAt is not after it. Zero means no
	// filter.
	DueBy time.Time
}

// Store defines the persistence contract for jobs.
type Store interface {
	// EnqueueJob persists a new job.
	EnqueueJob(ctx context.Context, j *Job) error

	// DequeueJobs claims up to limit due jobs from the given queues, marks
	// them running and returns copies. Jobs come out by priority
	// (descending) then RunAt (ascending).
	DequeueJobs(ctx context.Context, queues []string, limit int) ([]*Job, error)

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID id.JobID) (*Job, error)

	// UpdateJob persists changes to an existing job.
	UpdateJob(ctx context.Context, j *Job) error

	// DeleteJob removes a job by ID.
	DeleteJob(ctx context.Context, jobID id.JobID) error

	// ListJobsByState returns jobs in the given state, oldest RunAt first.
	ListJobsByState(ctx context.Context, state State, opts ListOpts) ([]*Job, error)

	// CountJobs returns the number of jobs matching opts.
	CountJobs(ctx context.Context, opts CountOpts) (int64, error)
}
