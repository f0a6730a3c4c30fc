package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/okian/gantt/internal/domain/types"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newStore(t *testing.T, opts ...Option) *JobStore {
	t.Helper()
	s := NewJobStore(context.Background(), opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestJobStore_Lifecycle(t *testing.T) {
	ctx := context.Background()
	finished := epoch.Add(time.Minute)
	store := newStore(t, WithClock(func() time.Time { return finished }))

	if err := store.Create(ctx, "job1", epoch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job, err := store.Get(ctx, "job1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.State != types.JobQueued || job.Progress != 0 || !job.CreatedAt.Equal(epoch) {
		t.Errorf("unexpected queued job: %+v", job)
	}

	if err := store.Start(ctx, "job1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.UpdateProgress(ctx, "job1", 40); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.UpdateProgress(ctx, "job1", 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job, _ = store.Get(ctx, "job1")
	if job.State != types.JobRunning || job.Progress != 40 {
		t.Errorf("expected running at 40, got %s at %d", job.State, job.Progress)
	}

	res := types.TimelineResponse{Total: 3}
	if err := store.Complete(ctx, "job1", res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	job, _ = store.Get(ctx, "job1")
	if job.State != types.JobSucceeded || job.Progress != 100 {
		t.Errorf("expected succeeded at 100, got %s at %d", job.State, job.Progress)
	}
	if job.Result == nil || job.Result.Total != 3 {
		t.Errorf("expected the result to be stored, got %+v", job.Result)
	}
	if job.FinishedAt == nil || !job.FinishedAt.Equal(finished) {
		t.Errorf("expected finish time %v, got %v", finished, job.FinishedAt)
	}

	if err := store.Fail(ctx, "job1", errors.New("late"), false); !errors.Is(err, ErrTransition) {
		t.Errorf("expected ErrTransition for a finished job, got %v", err)
	}
}

func TestJobStore_FailAndCancel(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, id := range []string{"failed", "cancelled"} {
		if err := store.Create(ctx, id, epoch); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := store.Fail(ctx, "failed", errors.New("timeline render error: boom"), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Fail(ctx, "cancelled", context.Canceled, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	job, _ := store.Get(ctx, "failed")
	if job.State != types.JobFailed || job.Error != "timeline render error: boom" || job.Result != nil {
		t.Errorf("unexpected failed job: %+v", job)
	}
	job, _ = store.Get(ctx, "cancelled")
	if job.State != types.JobCancelled {
		t.Errorf("expected cancelled, got %s", job.State)
	}
	if err := store.UpdateProgress(ctx, "cancelled", 90); err != nil {
		t.Errorf("progress on a finished job should be ignored, got %v", err)
	}
	job, _ = store.Get(ctx, "cancelled")
	if job.Progress != 0 {
		t.Errorf("expected progress to stay 0, got %d", job.Progress)
	}
}

func TestJobStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Start(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.Create(ctx, "job1", epoch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Create(ctx, "job1", epoch); !errors.Is(err, ErrExists) {
		t.Errorf("expected ErrExists, got %v", err)
	}
	if err := store.Start(ctx, "job1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Start(ctx, "job1"); !errors.Is(err, ErrTransition) {
		t.Errorf("expected ErrTransition on a second start, got %v", err)
	}
}

func TestJobStore_EvictsOldestFinished(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, WithMaxJobs(3))

	for i := 1; i <= 3; i++ {
		if err := store.Create(ctx, fmt.Sprintf("job%d", i), epoch); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := store.Create(ctx, "job4", epoch); !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull while nothing is finished, got %v", err)
	}

	_ = store.Complete(ctx, "job3", types.TimelineResponse{})
	_ = store.Complete(ctx, "job2", types.TimelineResponse{})
	if err := store.Create(ctx, "job4", epoch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.Get(ctx, "job2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected job2, the oldest finished job, to be evicted, got %v", err)
	}
	for _, id := range []string{"job1", "job3", "job4"} {
		if _, err := store.Get(ctx, id); err != nil {
			t.Errorf("expected %s to survive, got %v", id, err)
		}
	}
	if n := store.Count(ctx); n != 3 {
		t.Errorf("expected count 3, got %d", n)
	}
}

func TestJobStore_Unbounded(t *testing.T) {
	ctx := context.Background()
	store := newStore(t, WithMaxJobs(0))

	for i := 0; i < 50; i++ {
		if err := store.Create(ctx, fmt.Sprintf("job%d", i), epoch); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := store.Count(ctx); n != 50 {
		t.Errorf("expected count 50, got %d", n)
	}
}

func TestJobStore_ConcurrentProgress(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	if err := store.Create(ctx, "job1", epoch); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var wg sync.WaitGroup
	for p := 0; p <= 100; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			_ = store.UpdateProgress(ctx, "job1", p)
			_, _ = store.Get(ctx, "job1")
		}(p)
	}
	wg.Wait()

	job, _ := store.Get(ctx, "job1")
	if job.Progress != 100 {
		t.Errorf("expected the maximum progress to win, got %d", job.Progress)
	}
}

func TestJobStore_CloseIsIdempotent(t *testing.T) {
	store := NewJobStore(context.Background(), WithMetricsUpdateInterval(time.Millisecond))
	time.Sleep(5 * time.Millisecond)
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("unexpected error on second close: %v", err)
	}
}
