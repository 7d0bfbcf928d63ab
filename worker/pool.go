package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/jobstats/id"
	"github.com/xraph/jobstats/job"
)

// Pool runs a fixed number of goroutines that poll the store for due jobs
// and execute them one at a time.
type Pool struct {
	store        job.Store
	executor     *Executor
	concurrency  int
	queues       []string
	pollInterval time.Duration
	workerID     id.WorkerID
	logger       *slog.Logger

	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
	stopped    bool
	activeJobs map[string]context.CancelFunc
	activeMu   sync.Mutex
}

// PoolOption configures a Pool.
type PoolOption func(*Pool)

// WithPoolConcurrency sets the number of worker goroutines.
func WithPoolConcurrency(n int) PoolOption {
	return func(p *Pool) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithPoolQueues sets the queues the pool polls.
func WithPoolQueues(queues []string) PoolOption {
	return func(p *Pool) { p.queues = queues }
}

// WithPollInterval sets how long an idle worker sleeps between polls.
func WithPollInterval(d time.Duration) PoolOption {
	return func(p *Pool) {
		if d > 0 {
			p.pollInterval = d
		}
	}
}

// NewPool creates a worker pool.
func NewPool(store job.Store, executor *Executor, logger *slog.Logger, opts ...PoolOption) *Pool {
	p := &Pool{
		store:        store,
		executor:     executor,
		concurrency:  10,
		queues:       []string{job.DefaultQueue},
		pollInterval: time.Second,
		workerID:     id.NewWorkerID(),
		logger:       logger,
		stopCh:       make(chan struct{}),
		activeJobs:   make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WorkerID returns the pool's identifier.
func (p *Pool) WorkerID() id.WorkerID { return p.workerID }

// Active returns the number of jobs currently executing.
func (p *Pool) Active() int {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	return len(p.activeJobs)
}

// Start launches the worker goroutines and returns immediately. Starting a
// running pool is a no-op; a stopped pool cannot be restarted.
func (p *Pool) Start(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running || p.stopped {
		return nil
	}
	p.running = true

	p.logger.Info("worker pool starting",
		slog.String("worker_id", p.workerID.String()),
		slog.Int("concurrency", p.concurrency),
		slog.Any("queues", p.queues),
	)

	for range p.concurrency {
		p.wg.Add(1)
		go p.dequeueLoop()
	}
	return nil
}

// Stop signals the workers to stop and waits for in-flight jobs. When ctx
// is done first, in-flight jobs have their context cancelled and Stop
// waits for them to return.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	p.stopped = true
	p.mu.Unlock()

	p.logger.Info("worker pool stopping", slog.String("worker_id", p.workerID.String()))
	close(p.stopCh)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
	case <-ctx.Done():
		p.logger.Warn("worker pool shutdown timed out, cancelling active jobs")
		p.cancelActiveJobs()
		<-done
	}
	return nil
}

func (p *Pool) dequeueLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopCh:
			return
		default:
		}

		jobs, err := p.store.DequeueJobs(context.Background(), p.queues, 1)
		if err != nil {
			p.logger.Error("dequeue error", slog.String("error", err.Error()))
			p.sleep()
			continue
		}
		if len(jobs) == 0 {
			p.sleep()
			continue
		}

		p.run(jobs[0])
	}
}

func (p *Pool) run(j *job.Job) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	key := j.ID.String()
	p.trackJob(key, cancel)
	defer p.untrackJob(key)

	if err := p.executor.Execute(ctx, j); err != nil {
		p.logger.Debug("job execution failed",
			slog.String("job_id", key),
			slog.String("job_name", j.Name),
			slog.String("error", err.Error()),
		)
	}
}

func (p *Pool) sleep() {
	t := time.NewTimer(p.pollInterval)
	defer t.Stop()
	select {
	case <-t.C:
	case <-p.stopCh:
	}
}

func (p *Pool) trackJob(jobID string, cancel context.CancelFunc) {
	p.activeMu.Lock()
	p.activeJobs[jobID] = cancel
	p.activeMu.Unlock()
}

func (p *Pool) untrackJob(jobID string) {
	p.activeMu.Lock()
	delete(p.activeJobs, jobID)
	p.activeMu.Unlock()
}

func (p *Pool) cancelActiveJobs() {
	p.activeMu.Lock()
	defer p.activeMu.Unlock()
	for jobID, cancel := range p.activeJobs {
		p.logger.Warn("cancelling active job", slog.String("job_id", jobID))
		cancel()
	}
}
