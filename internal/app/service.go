// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the command line tools.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	jobqueue "github.com/okian/gantt/internal/adapters/mq/queue"
	workerpool "github.com/okian/gantt/internal/adapters/mq/worker"
	"github.com/okian/gantt/internal/adapters/repository"
	"github.com/okian/gantt/internal/domain/idempotency"
	"github.com/okian/gantt/internal/domain/layout"
	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/series"
	"github.com/okian/gantt/internal/domain/source"
	"github.com/okian/gantt/internal/domain/types"
	"github.com/okian/gantt/internal/domain/validate"
	"github.com/okian/gantt/internal/engine"
	"github.com/okian/gantt/pkg/logger"
	"github.com/okian/gantt/pkg/metrics"
)

// Service runs timeline transforms synchronously and as queued jobs.
type Service struct {
	mu sync.RWMutex

	// Core components, built by Start.
	jobs       *repository.JobStore
	keys       idempotency.Index
	jobQueue   *jobqueue.InMemoryQueue
	workerPool *workerpool.Pool

	// Configuration
	workerCount     int
	queueSize       int
	idempotencySize int
	maxJobs         int
	minRowHeight    float64
	minBarWidth     float64
	defaultColor    string
	timeFormat      string
	loc             *time.Location

	validator *validate.Validator

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       1000,
		idempotencySize: 10_000,
		maxJobs:         5000,
		minRowHeight:    layout.DefaultMinRowHeight,
		minBarWidth:     layout.DefaultMinBarWidth,
		defaultColor:    series.DefaultColor,
		timeFormat:      series.DefaultTimeFormat,
		loc:             time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.validator = validate.New(validate.WithLocation(s.loc))
	return s
}

func (s *Service) log() logger.Logger {
	if s.logger == nil {
		s.logger = logger.Get()
	}
	return s.logger
}

// Start builds the job store, idempotency index, queue and worker pool.
// Workers run until ctx is done or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	l := s.log()
	l.Info(ctx, "starting timeline service...")

	s.jobs = repository.NewJobStore(ctx, repository.WithMaxJobs(s.maxJobs))
	s.keys = idempotency.NewInMemoryIndex(idempotency.WithMaxSize(s.idempotencySize))
	s.jobQueue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
		jobqueue.WithBufferSize(s.queueSize),
	)
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, s, s.jobs)
	s.workerPool.Start(ctx)

	s.started = true
	l.Info(ctx, "timeline service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("idempotencySize", s.idempotencySize),
		logger.Int("maxJobs", s.maxJobs),
	)
	return nil
}

// Stop stops the workers and releases the job store. Jobs still queued are
// abandoned.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.log().Info(ctx, "stopping timeline service...")

	if s.workerPool != nil {
		s.workerPool.Stop()
	}
	if s.jobQueue != nil {
		_ = s.jobQueue.Close()
	}
	if s.jobs != nil {
		_ = s.jobs.Close()
	}

	s.started = false
	s.log().Info(ctx, "timeline service stopped")
}

// Render transforms req synchronously.
func (s *Service) Render(ctx context.Context, req types.TimelineRequest) (*engine.Result, error) {
	window, err := req.Window(s.validator)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := engine.Transform(ctx,
		source.FromRecords(req.Records, req.Sort),
		s.engineOptions(req.MinRowHeight, req.MinBarWidth, window)...,
	)
	s.Observe(ctx, res, err, time.Since(start))
	return res, err
}

// Submit queues req as a job. A non-empty key makes the submission
// idempotent: repeating it returns the first job's id with Duplicate set.
func (s *Service) Submit(ctx context.Context, req types.TimelineRequest, key string) (types.JobAccepted, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.JobAccepted{}, ErrNotStarted
	}

	window, err := req.Window(s.validator)
	if err != nil {
		return types.JobAccepted{}, err
	}

	id := uuid.NewString()
	if key != "" {
		bound, claimed := s.keys.Claim(ctx, key, id)
		if !claimed {
			metrics.RecordJobDuplicate()
			s.log().Debug(ctx, "idempotent job replay", logger.String("key", key), logger.String("jobID", bound))
			return types.JobAccepted{JobID: bound, Duplicate: true}, nil
		}
	}
	release := func() {
		if key != "" {
			s.keys.Release(ctx, key)
		}
	}

	if err := s.jobs.Create(ctx, id, time.Now()); err != nil {
		release()
		if errors.Is(err, repository.ErrFull) {
			return types.JobAccepted{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return types.JobAccepted{}, err
	}

	job := model.Job{
		ID:           id,
		Records:      req.Records,
		Sort:         req.Sort,
		Window:       window,
		MinRowHeight: req.MinRowHeight,
		MinBarWidth:  req.MinBarWidth,
		SubmittedAt:  time.Now(),
	}
	if !s.jobQueue.Enqueue(ctx, job) {
		release()
		_ = s.jobs.Fail(context.WithoutCancel(ctx), id, ErrBackpressure, false)
		return types.JobAccepted{}, ErrBackpressure
	}

	metrics.RecordJobSubmitted()
	s.log().Debug(ctx, "job queued", logger.String("jobID", id), logger.Int("records", len(req.Records)))
	return types.JobAccepted{JobID: id}, nil
}

// Job returns the status of a submitted job.
func (s *Service) Job(ctx context.Context, id string) (types.JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return types.JobStatus{}, ErrNotStarted
	}
	return s.jobs.Get(ctx, id)
}

// Plan prepares the transform for a queued job.
func (s *Service) Plan(job model.Job) (*engine.Transformer, error) { //nolint:gocritic // hugeParam: matches the worker contract
	return engine.New(
		source.FromRecords(job.Records, job.Sort),
		s.engineOptions(job.MinRowHeight, job.MinBarWidth, job.Window)...,
	)
}

// Observe records metrics and logs for a finished transform.
func (s *Service) Observe(ctx context.Context, res *engine.Result, err error, elapsed time.Duration) {
	latencyMs := float64(elapsed.Microseconds()) / 1000
	l := s.log()

	switch {
	case err == nil:
		metrics.RecordTransform(metrics.OutcomeOK, latencyMs)
		metrics.RecordRecordsProcessed(res.Total)
		metrics.RecordRowsEmitted(len(res.Rows))
		metrics.RecordIntervalsEmitted(len(res.Intervals))
		for reason, n := range res.Dropped {
			metrics.RecordRecordsDropped(string(reason), n)
		}
		for _, a := range res.Advisories {
			metrics.RecordAdvisory(a.Kind)
			l.Warn(ctx, "timeline advisory", logger.String("kind", a.Kind), logger.String("message", a.Message))
		}
		if dropped := res.DroppedTotal(); dropped > 0 {
			l.Debug(ctx, "records dropped", logger.Int("dropped", dropped), logger.Int("total", res.Total))
		}
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		metrics.RecordTransform(metrics.OutcomeCanceled, latencyMs)
		l.Info(ctx, "transform canceled", logger.Error(err))
	default:
		metrics.RecordTransform(metrics.OutcomeError, latencyMs)
		metrics.RecordErrorByComponent("engine", "render")
		l.Error(ctx, "transform failed", logger.Error(err))
	}
}

func (s *Service) engineOptions(minRowHeight, minBarWidth float64, window *model.Window) []engine.Option {
	opts := []engine.Option{
		engine.WithMinRowHeight(s.minRowHeight),
		engine.WithMinBarWidth(s.minBarWidth),
		engine.WithDefaultColor(s.defaultColor),
		engine.WithTimeFormat(s.timeFormat),
		engine.WithLocation(s.loc),
		// Request values win; non-positive ones are ignored by the options.
		engine.WithMinRowHeight(minRowHeight),
		engine.WithMinBarWidth(minBarWidth),
	}
	if window != nil {
		opts = append(opts, engine.WithWindow(window.Min, window.Max))
	}
	return opts
}

// Shutdown stops accepting jobs and waits for queued ones to finish, up to
// ctx's deadline. Afterwards the service is stopped.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	pool := s.workerPool
	started := s.started
	s.mu.Unlock()

	if !started {
		return nil
	}
	err := pool.Shutdown(ctx)
	if err != nil {
		s.log().Warn(ctx, "job drain incomplete", logger.Error(err))
	}
	s.Stop()
	return err
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"workerCount":     s.workerCount,
		"queueSize":       s.queueSize,
		"idempotencySize": s.idempotencySize,
		"maxJobs":         s.maxJobs,
	}

	if s.started {
		queueLen := s.jobQueue.Len(ctx)
		jobs := s.jobs.Count(ctx)

		stats["queueLength"] = queueLen
		stats["jobsStored"] = jobs
		stats["activeWorkers"] = s.workerPool.Active()
		stats["idempotencyKeys"] = s.keys.Size()

		metrics.UpdateJobsStored(jobs)
		metrics.UpdateWorkerCount(s.workerCount)
	}
	return stats
}
