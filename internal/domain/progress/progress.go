// Package progress reports cooperative progress of a transform as a
// monotonic percentage.
package progress

import (
	"math"
	"sync/atomic"
)

// Checkpoint values.
const (
	Start          = 10
	GroupingEnd    = 30
	Sorting        = 35
	TransformStart = 40
	TransformEnd   = 90
	Complete       = 100

	// ChunkSize is the number of records between checkpoints.
	ChunkSize = 100
)

// Grouping returns the checkpoint for record i of n during grouping.
func Grouping(i, n int) int {
	return Start + scaled(i, n, GroupingEnd-Start)
}

// Transforming returns the checkpoint for record i of n during series building.
func Transforming(i, n int) int {
	return TransformStart + scaled(i, n, TransformEnd-TransformStart)
}

func scaled(i, n, width int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Floor(float64(i) / float64(n) * float64(width)))
}

// Sink receives progress values.
type Sink func(value int)

// Reporter forwards non-decreasing values in [0,100] to a sink, dropping repeats.
// Value is safe to call from other goroutines.
type Reporter struct {
	sink    Sink
	current atomic.Int32
	started atomic.Bool
}

// NewReporter creates a Reporter. sink may be nil.
func NewReporter(sink Sink) *Reporter {
	return &Reporter{sink: sink}
}

// Report publishes v if it moves progress forward.
func (r *Reporter) Report(v int) {
	v = clamp(v)
	if r.started.Load() && int32(v) <= r.current.Load() {
		return
	}
	r.started.Store(true)
	r.current.Store(int32(v))
	if r.sink != nil {
		r.sink(v)
	}
}

// Value returns the last published value.
func (r *Reporter) Value() int { return int(r.current.Load()) }

func clamp(v int) int {
	switch {
	case v < 0:
		return 0
	case v > Complete:
		return Complete
	default:
		return v
	}
}
