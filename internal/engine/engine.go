// Package engine runs the timeline transformation as a resumable, chunked
// state machine: group, sort, then build rows and intervals.
//
// A Transformer owns all of its state. Step advances at most one chunk of
// progress.ChunkSize records, so a host can yield between chunks; the final
// result does not depend on how steps are scheduled. A failed or cancelled
// transform exposes nothing.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/gantt/internal/domain/hierarchy"
	"github.com/okian/gantt/internal/domain/layout"
	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/progress"
	"github.com/okian/gantt/internal/domain/rows"
	"github.com/okian/gantt/internal/domain/series"
	"github.com/okian/gantt/internal/domain/source"
	"github.com/okian/gantt/internal/domain/validate"
)

type phase int

const (
	phaseGroup phase = iota
	phaseSort
	phaseSeries
	phaseDone
	phaseFailed
)

func (p phase) String() string {
	switch p {
	case phaseGroup:
		return "grouping"
	case phaseSort:
		return "sorting"
	case phaseSeries:
		return "building"
	case phaseDone:
		return "done"
	default:
		return "failed"
	}
}

// Result is the output of a completed transform.
type Result struct {
	Rows       []model.Row
	Intervals  []model.Interval
	Layout     model.Layout
	Advisories []model.Advisory
	// Lookup maps a row index to the source item that produced it.
	Lookup  map[int]any
	Dropped map[validate.Reason]int
	Total   int
}

// Record returns the source item behind a row, if the row has one.
func (r *Result) Record(row int) (any, bool) {
	item, ok := r.Lookup[row]
	return item, ok
}

// DroppedTotal sums drops over all reasons.
func (r *Result) DroppedTotal() int {
	total := 0
	for _, n := range r.Dropped {
		total += n
	}
	return total
}

// Transformer is a single transform invocation.
type Transformer struct {
	src       source.Source
	cfg       settings
	validator *validate.Validator
	reporter  *progress.Reporter

	phase  phase
	cursor int
	err    error

	ids     []string
	parents []string
	index   *hierarchy.Index
	order   []int
	seq     *rows.Sequencer
	builder *series.Builder
	dropped map[validate.Reason]int
	result  *Result
}

// New prepares a transform over src.
func New(src source.Source, opts ...Option) (*Transformer, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}
	n := src.Len()
	return &Transformer{
		src:       src,
		cfg:       cfg,
		validator: validate.New(validate.WithLocation(cfg.loc)),
		reporter:  progress.NewReporter(cfg.sink),
		ids:       make([]string, n),
		parents:   make([]string, n),
		index:     hierarchy.New(n),
		seq:       rows.NewSequencer(),
		builder: series.NewBuilder(
			series.WithDefaultColor(cfg.defaultColor),
			series.WithTimeFormat(cfg.timeFormat),
			series.WithLocation(cfg.loc),
		),
		dropped: make(map[validate.Reason]int),
	}, nil
}

// Transform runs a transform to completion.
func Transform(ctx context.Context, src source.Source, opts ...Option) (*Result, error) {
	t, err := New(src, opts...)
	if err != nil {
		return nil, err
	}
	for {
		done, err := t.Step(ctx)
		if err != nil {
			return nil, err
		}
		if done {
			return t.Result()
		}
	}
}

// Step advances the transform by at most one chunk. It returns true once the
// result is available. Cancellation is observed only here, between chunks.
func (t *Transformer) Step(ctx context.Context) (done bool, err error) {
	switch t.phase {
	case phaseDone:
		return true, nil
	case phaseFailed:
		return false, t.err
	}
	if cerr := ctx.Err(); cerr != nil {
		return false, t.fail(fmt.Errorf("transform canceled during %s: %w", t.phase, cerr))
	}

	defer func() {
		if r := recover(); r != nil {
			done, err = false, t.fail(fmt.Errorf("%w: panic during %s: %v", ErrRender, t.phase, r))
		}
	}()

	if err := t.step(); err != nil {
		return false, t.fail(err)
	}
	return t.phase == phaseDone, nil
}

// Progress returns the last reported progress value. Safe for concurrent use.
func (t *Transformer) Progress() int { return t.reporter.Value() }

// Phase names the current phase.
func (t *Transformer) Phase() string { return t.phase.String() }

// Result returns the completed result.
func (t *Transformer) Result() (*Result, error) {
	switch t.phase {
	case phaseDone:
		return t.result, nil
	case phaseFailed:
		return nil, t.err
	default:
		return nil, ErrNotFinished
	}
}

// fail discards every partial output and pins the error.
func (t *Transformer) fail(err error) error {
	t.phase = phaseFailed
	t.err = err
	t.ids, t.parents, t.order = nil, nil, nil
	t.index, t.seq, t.builder, t.result = nil, nil, nil, nil
	t.dropped = nil
	return err
}

func (t *Transformer) step() error {
	n := t.src.Len()
	if n == 0 {
		t.reporter.Report(0)
		t.finish()
		return nil
	}
	switch t.phase {
	case phaseGroup:
		return t.groupChunk(n)
	case phaseSort:
		return t.sort(n)
	case phaseSeries:
		return t.seriesChunk(n)
	}
	return nil
}

func (t *Transformer) groupChunk(n int) error {
	if t.cursor == 0 {
		t.reporter.Report(progress.Start)
	}
	end := min(t.cursor+progress.ChunkSize, n)
	for i := t.cursor; i < end; i++ {
		if i%progress.ChunkSize == 0 {
			t.reporter.Report(progress.Grouping(i, n))
		}
		item := t.src.Items[i]

		rawID, err := t.src.ID(item)
		if err != nil {
			return accessorError("id", i, err)
		}
		id, ok := source.Key(rawID)
		if !ok {
			continue
		}
		t.ids[i] = id

		var parentID string
		if t.src.Parent != nil {
			rawParent, err := t.src.Parent(item)
			if err != nil {
				return accessorError("parent", i, err)
			}
			parentID, _ = source.Key(rawParent)
		}
		t.parents[i] = parentID
		t.index.Add(i, id, parentID)
	}
	t.cursor = end
	if t.cursor >= n {
		t.phase, t.cursor = phaseSort, 0
	}
	return nil
}

func (t *Transformer) sort(n int) error {
	t.reporter.Report(progress.Sorting)
	if t.src.Sort == nil {
		t.order = rows.Identity(n)
	} else {
		keys := make([]float64, n)
		for i, item := range t.src.Items {
			raw, err := t.src.Sort(item)
			if err != nil {
				return accessorError("sort", i, err)
			}
			keys[i] = rows.SortKey(raw)
		}
		t.order = rows.Order(keys)
	}
	t.reporter.Report(progress.TransformStart)
	t.phase = phaseSeries
	return nil
}

func (t *Transformer) seriesChunk(n int) error {
	end := min(t.cursor+progress.ChunkSize, n)
	for k := t.cursor; k < end; k++ {
		if k%progress.ChunkSize == 0 {
			t.reporter.Report(progress.Transforming(k, n))
		}
		if err := t.place(t.order[k]); err != nil {
			return err
		}
	}
	t.cursor = end
	if t.cursor >= n {
		t.finish()
	}
	return nil
}

// place validates one record and emits its rows and interval.
func (t *Transformer) place(pos int) error {
	item := t.src.Items[pos]
	id := t.ids[pos]
	if id == "" {
		t.dropped[validate.ReasonMissingID]++
		return nil
	}

	rawStart, err := t.src.Start(item)
	if err != nil {
		return accessorError("start", pos, err)
	}
	rawEnd, err := t.src.End(item)
	if err != nil {
		return accessorError("end", pos, err)
	}
	span, reason := t.validator.Interval(rawStart, rawEnd)
	if reason != validate.ReasonNone {
		t.dropped[reason]++
		return nil
	}

	if parentID := t.parents[pos]; t.seq.NeedsGroup(parentID) {
		if parentPos, ok := t.index.Lookup(parentID); ok {
			name, err := source.Text(t.src.DisplayName, t.src.Items[parentPos])
			if err != nil {
				return accessorError("display name", parentPos, err)
			}
			t.seq.AddGroup(parentID, rows.GroupName(name, parentID))
		}
	}

	text := func(field string, acc source.Accessor) (string, error) {
		s, err := source.Text(acc, item)
		if err != nil {
			return "", accessorError(field, pos, err)
		}
		return s, nil
	}
	var rowLabel, display, color, tooltip, barLabel string
	for _, f := range []struct {
		name string
		acc  source.Accessor
		dst  *string
	}{
		{"row label", t.src.RowLabel, &rowLabel},
		{"display name", t.src.DisplayName, &display},
		{"color", t.src.Color, &color},
		{"tooltip", t.src.Tooltip, &tooltip},
		{"bar label", t.src.BarLabel, &barLabel},
	} {
		v, err := text(f.name, f.acc)
		if err != nil {
			return err
		}
		*f.dst = v
	}

	row := t.seq.AddRow(id, rows.OwnName(rowLabel, display, id))
	t.builder.Add(row, span, series.Attrs{
		RecordID: id,
		Color:    color,
		Tooltip:  tooltip,
		BarLabel: barLabel,
	}, item)
	return nil
}

func (t *Transformer) finish() {
	intervals := t.builder.Intervals()
	lay, advisories := layout.Compute(intervals, t.seq.Len(), layout.Params{
		Window:       t.cfg.window,
		MinRowHeight: t.cfg.minRowHeight,
		MinBarWidth:  t.cfg.minBarWidth,
	})
	t.result = &Result{
		Rows:       t.seq.Rows(),
		Intervals:  intervals,
		Layout:     lay,
		Advisories: advisories,
		Lookup:     t.builder.Lookup(),
		Dropped:    t.dropped,
		Total:      t.src.Len(),
	}
	if t.src.Len() > 0 {
		t.reporter.Report(progress.Complete)
	}
	t.phase = phaseDone
}

func accessorError(field string, pos int, err error) error {
	return fmt.Errorf("%w: %s accessor on item %d: %w", ErrRender, field, pos, err)
}

type settings struct {
	minRowHeight float64
	minBarWidth  float64
	window       *model.Window
	defaultColor string
	timeFormat   string
	loc          *time.Location
	sink         progress.Sink
}

func defaultSettings() settings {
	return settings{
		minRowHeight: layout.DefaultMinRowHeight,
		minBarWidth:  layout.DefaultMinBarWidth,
		defaultColor: series.DefaultColor,
		timeFormat:   series.DefaultTimeFormat,
		loc:          time.UTC,
	}
}
