// Package repository stores asynchronous transform jobs and their results.
package repository

import (
	"context"
	"time"

	"github.com/okian/gantt/internal/domain/types"
)

// Store provides read/write access to job state.
type Store interface {
	// Create registers a queued job. Returns ErrExists for a known id and
	// ErrFull when the store is at capacity with no finished job to evict.
	Create(ctx context.Context, id string, createdAt time.Time) error

	// Start moves a queued job to running.
	Start(ctx context.Context, id string) error

	// UpdateProgress raises the job's progress. Lower values are ignored.
	UpdateProgress(ctx context.Context, id string, progress int) error

	// Complete stores the result and marks the job succeeded.
	Complete(ctx context.Context, id string, res types.TimelineResponse) error

	// Fail marks the job failed, or cancelled when cancelled is true.
	Fail(ctx context.Context, id string, err error, cancelled bool) error

	// Get returns a snapshot of the job. Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (types.JobStatus, error)

	// Count returns the number of jobs held.
	Count(ctx context.Context) int
}
