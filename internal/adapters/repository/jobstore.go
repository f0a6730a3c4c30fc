package repository

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/gantt/internal/domain/types"
	"github.com/okian/gantt/pkg/metrics"
)

const (
	defaultMaxJobs               = 5000
	defaultMetricsUpdateInterval = 5 * time.Second
)

// JobStore is an in-memory Store. Jobs are kept in creation order; when the
// store is full the oldest finished job is evicted to make room.
type JobStore struct {
	mu    sync.RWMutex
	byID  map[string]*list.Element
	order *list.List // of *types.JobStatus, oldest first

	maxJobs               int
	metricsUpdateInterval time.Duration
	now                   func() time.Time

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

var _ Store = (*JobStore)(nil)

// NewJobStore creates a job store and starts its metrics updater, which runs
// until ctx is done or Close is called.
func NewJobStore(ctx context.Context, opts ...Option) *JobStore {
	s := &JobStore{
		byID:                  make(map[string]*list.Element),
		order:                 list.New(),
		maxJobs:               defaultMaxJobs,
		metricsUpdateInterval: defaultMetricsUpdateInterval,
		now:                   time.Now,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	metrics.UpdateJobsStored(0)
	s.startMetricsUpdater(ctx)
	return s
}

func (s *JobStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateJobsStored(s.Count(ctx))
			}
		}
	}()
}

// Close stops the metrics updater.
func (s *JobStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// Create implements Store.Create.
func (s *JobStore) Create(_ context.Context, id string, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; ok {
		return fmt.Errorf("%w: %s", ErrExists, id)
	}
	if s.maxJobs > 0 && s.order.Len() >= s.maxJobs && !s.evictFinishedLocked() {
		return ErrFull
	}
	s.byID[id] = s.order.PushBack(&types.JobStatus{
		ID:        id,
		State:     types.JobQueued,
		CreatedAt: createdAt,
	})
	metrics.UpdateJobsStored(s.order.Len())
	return nil
}

// evictFinishedLocked drops the oldest job in a terminal state.
func (s *JobStore) evictFinishedLocked() bool {
	for e := s.order.Front(); e != nil; e = e.Next() {
		job := e.Value.(*types.JobStatus)
		if job.Finished() {
			s.order.Remove(e)
			delete(s.byID, job.ID)
			metrics.RecordJobEvicted()
			return true
		}
	}
	return false
}

// Start implements Store.Start.
func (s *JobStore) Start(_ context.Context, id string) error {
	return s.update(id, func(j *types.JobStatus) error {
		if j.State != types.JobQueued {
			return fmt.Errorf("%w: %s -> %s", ErrTransition, j.State, types.JobRunning)
		}
		j.State = types.JobRunning
		return nil
	})
}

// UpdateProgress implements Store.UpdateProgress.
func (s *JobStore) UpdateProgress(_ context.Context, id string, progress int) error {
	return s.update(id, func(j *types.JobStatus) error {
		if j.Finished() {
			return nil
		}
		if progress > j.Progress {
			j.Progress = min(progress, 100)
		}
		return nil
	})
}

// Complete implements Store.Complete.
func (s *JobStore) Complete(_ context.Context, id string, res types.TimelineResponse) error {
	return s.update(id, func(j *types.JobStatus) error {
		if j.Finished() {
			return fmt.Errorf("%w: %s -> %s", ErrTransition, j.State, types.JobSucceeded)
		}
		finished := s.now()
		j.State = types.JobSucceeded
		j.Progress = 100
		j.Result = &res
		j.FinishedAt = &finished
		return nil
	})
}

// Fail implements Store.Fail.
func (s *JobStore) Fail(_ context.Context, id string, err error, cancelled bool) error {
	state := types.JobFailed
	if cancelled {
		state = types.JobCancelled
	}
	return s.update(id, func(j *types.JobStatus) error {
		if j.Finished() {
			return fmt.Errorf("%w: %s -> %s", ErrTransition, j.State, state)
		}
		finished := s.now()
		j.State = state
		j.FinishedAt = &finished
		if err != nil {
			j.Error = err.Error()
		}
		return nil
	})
}

// Get implements Store.Get. The returned status is a copy; its Result is
// shared and must not be modified.
func (s *JobStore) Get(_ context.Context, id string) (types.JobStatus, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.byID[id]
	if !ok {
		return types.JobStatus{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return *e.Value.(*types.JobStatus), nil
}

// Count implements Store.Count.
func (s *JobStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.order.Len()
}

func (s *JobStore) update(id string, fn func(*types.JobStatus) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return fn(e.Value.(*types.JobStatus))
}
