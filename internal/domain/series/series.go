// Package series binds validated records to their rows as drawable intervals.
package series

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/validate"
)

// Defaults.
const (
	DefaultColor      = "#1890ff"
	DefaultTimeFormat = "2006-01-02 15:04:05"
)

// Attrs are the optional per-record attributes already resolved to text.
type Attrs struct {
	RecordID string
	Color    string
	Tooltip  string
	BarLabel string
}

// DurationMinutes is round((end-start)/60000) over millisecond instants,
// rounding halves up.
func DurationMinutes(start, end time.Time) int64 {
	ms := float64(end.UnixMilli() - start.UnixMilli())
	return int64(math.Floor(ms/60000 + 0.5))
}

// Builder accumulates intervals and the row -> item lookup.
type Builder struct {
	defaultColor string
	timeFormat   string
	loc          *time.Location

	intervals []model.Interval
	lookup    map[int]any
}

// NewBuilder creates a Builder with the given options.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		defaultColor: DefaultColor,
		timeFormat:   DefaultTimeFormat,
		loc:          time.UTC,
		lookup:       make(map[int]any),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add emits the interval for a record placed on row.
func (b *Builder) Add(row model.Row, span validate.Span, attrs Attrs, item any) model.Interval {
	duration := DurationMinutes(span.Start, span.End)
	color := attrs.Color
	if color == "" {
		color = b.defaultColor
	}
	label := attrs.BarLabel
	if label == "" {
		label = fmt.Sprintf("%dm", duration)
	}
	iv := model.Interval{
		RowIndex:        row.Index,
		RecordID:        attrs.RecordID,
		Name:            row.Name,
		Start:           span.Start,
		End:             span.End,
		DurationMinutes: duration,
		Color:           color,
		Label:           label,
		Tooltip:         attrs.Tooltip,
		StartText:       span.Start.In(b.loc).Format(b.timeFormat),
		EndText:         span.End.In(b.loc).Format(b.timeFormat),
	}
	b.intervals = append(b.intervals, iv)
	b.lookup[row.Index] = item
	return iv
}

// Intervals returns the emitted intervals in emission order.
func (b *Builder) Intervals() []model.Interval { return b.intervals }

// Lookup returns the row index -> source item association.
func (b *Builder) Lookup() map[int]any { return b.lookup }
