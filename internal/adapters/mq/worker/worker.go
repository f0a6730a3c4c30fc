// Package worker runs queued transform jobs and records their outcome.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/types"
	"github.com/okian/gantt/internal/engine"
	"github.com/okian/gantt/pkg/logger"
	"github.com/okian/gantt/pkg/metrics"
)

// Default worker configuration constants.
const (
	metricsUpdateInterval = 5 * time.Second
	workerShutdownTimeout = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Job abstracts what workers read off the queue.
type Job = model.Job

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Store receives job state as a transform advances.
type Store interface {
	Start(ctx context.Context, id string) error
	UpdateProgress(ctx context.Context, id string, progress int) error
	Complete(ctx context.Context, id string, res types.TimelineResponse) error
	Fail(ctx context.Context, id string, err error, cancelled bool) error
}

// Engine prepares a transform for a job and observes how it ended.
type Engine interface {
	Plan(job Job) (*engine.Transformer, error)
	Observe(ctx context.Context, res *engine.Result, err error, elapsed time.Duration)
}

// Worker processes jobs from a queue.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker once its current job is done.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for processing jobs.
type InMemoryWorker struct {
	queue  Queue
	engine Engine
	store  Store
	name   string

	// active is shared by the workers of a pool.
	active *atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, eng Engine, store Store, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		engine:   eng,
		store:    store,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, job); err != nil {
				w.logger.Error(ctx, "error processing job", logger.String("jobID", job.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown signals the worker and waits for it to finish or ctx to expire.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.stop()
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stop() {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
}

// processJob steps one transform to completion. Cancellation of ctx is seen
// between chunks and leaves the job cancelled with no result.
func (w *InMemoryWorker) processJob(ctx context.Context, job Job) error { //nolint:gocritic // hugeParam: Job is passed by value for channel semantics
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()
	if w.active != nil {
		metrics.UpdateWorkerActiveCount(int(w.active.Add(1)))
		defer func() { metrics.UpdateWorkerActiveCount(int(w.active.Add(-1))) }()
	}

	// Job state is written even after ctx is cancelled.
	storeCtx := context.WithoutCancel(ctx)

	if err := w.store.Start(storeCtx, job.ID); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("start job %s: %w", job.ID, err)
	}

	tr, err := w.engine.Plan(job)
	if err != nil {
		return w.fail(storeCtx, job, err, start)
	}
	for {
		done, err := tr.Step(ctx)
		if err != nil {
			return w.fail(storeCtx, job, err, start)
		}
		if err := w.store.UpdateProgress(storeCtx, job.ID, tr.Progress()); err != nil {
			w.logger.Warn(ctx, "progress update failed", logger.String("jobID", job.ID), logger.Error(err))
		}
		if done {
			break
		}
	}

	res, err := tr.Result()
	if err != nil {
		return w.fail(storeCtx, job, err, start)
	}
	w.engine.Observe(ctx, res, nil, time.Since(start))
	if err := w.store.Complete(storeCtx, job.ID, types.FromResult(res)); err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("complete job %s: %w", job.ID, err)
	}
	w.logger.Debug(ctx, "job done",
		logger.String("jobID", job.ID),
		logger.Int("rows", len(res.Rows)),
		logger.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (w *InMemoryWorker) fail(ctx context.Context, job Job, cause error, start time.Time) error { //nolint:gocritic // hugeParam
	cancelled := errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded)
	w.engine.Observe(ctx, nil, cause, time.Since(start))
	if !cancelled {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "transform_error")
	}
	if err := w.store.Fail(ctx, job.ID, cause, cancelled); err != nil {
		return fmt.Errorf("fail job %s: %w", job.ID, err)
	}
	if cancelled {
		return nil
	}
	return fmt.Errorf("job %s: %w", job.ID, cause)
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	active  atomic.Int64

	shutdown     chan struct{}
	shutdownOnce sync.Once

	logger logger.Logger
}

// NewPool creates a new worker pool. A workerCount below one means one
// worker per CPU.
func NewPool(workerCount int, queue Queue, eng Engine, store Store) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		w := NewInMemoryWorker(queue, eng, store, WithName("worker-"+strconv.Itoa(i)))
		w.active = &pool.active
		pool.workers[i] = w
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)

	return pool
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers currently running a job.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.startMetricsUpdater(ctx)
}

func (p *Pool) startMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			metrics.UpdateWorkerCount(len(p.workers))
			metrics.UpdateWorkerActiveCount(p.Active())
		}
	}
}

// signal stops every worker. Safe to call more than once.
func (p *Pool) signal() {
	p.shutdownOnce.Do(func() {
		close(p.shutdown)
		for _, w := range p.workers {
			w.stop()
		}
	})
}

// Stop stops all workers after their current job, leaving queued jobs in place.
func (p *Pool) Stop() {
	p.signal()
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and lets the workers drain it. Workers still
// busy when ctx (capped at 30s) expires are signalled to stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			timedOut = true
		}
		if timedOut {
			break
		}
	}
	p.signal()
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
