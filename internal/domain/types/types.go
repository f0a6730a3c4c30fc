// Package types contains the wire shapes shared by the HTTP API, the job
// store and the command line tools.
package types

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/validate"
	"github.com/okian/gantt/internal/engine"
)

// ErrInvalidWindow is returned when a view bound is present but unparseable.
var ErrInvalidWindow = errors.New("invalid view window")

// TimelineRequest is the body of POST /v1/timeline, /v1/render and /v1/jobs.
type TimelineRequest struct {
	Records      []model.Record `json:"records" yaml:"records"`
	Sort         bool           `json:"sort,omitempty" yaml:"sort,omitempty"`
	ViewStart    any            `json:"viewStart,omitempty" yaml:"viewStart,omitempty"`
	ViewEnd      any            `json:"viewEnd,omitempty" yaml:"viewEnd,omitempty"`
	MinRowHeight float64        `json:"minRowHeight,omitempty" yaml:"minRowHeight,omitempty"`
	MinBarWidth  float64        `json:"minBarWidth,omitempty" yaml:"minBarWidth,omitempty"`
}

// Window parses the view bounds. Both bounds are needed for a pinned window;
// with either one absent the result is nil and the window is data-derived.
func (r TimelineRequest) Window(v *validate.Validator) (*model.Window, error) {
	start, serr := v.Time(r.ViewStart)
	end, eerr := v.Time(r.ViewEnd)
	for _, err := range []error{serr, eerr} {
		if err != nil && !errors.Is(err, validate.ErrMissing) {
			return nil, fmt.Errorf("%w: %w", ErrInvalidWindow, err)
		}
	}
	if serr != nil || eerr != nil {
		return nil, nil
	}
	return &model.Window{Min: start, Max: end}, nil
}

// Row is the wire form of model.Row.
type Row struct {
	Index    int    `json:"index" yaml:"index"`
	Name     string `json:"name" yaml:"name"`
	Label    string `json:"label" yaml:"label"`
	IsGroup  bool   `json:"isGroup" yaml:"isGroup"`
	RecordID string `json:"recordId" yaml:"recordId"`
}

// Interval is the wire form of model.Interval. Value is the renderer tuple
// [rowIndex, startMs, endMs, durationMinutes].
type Interval struct {
	RowIndex        int        `json:"rowIndex" yaml:"rowIndex"`
	RecordID        string     `json:"recordId" yaml:"recordId"`
	Name            string     `json:"name" yaml:"name"`
	Value           [4]float64 `json:"value" yaml:"value,flow"`
	Start           time.Time  `json:"start" yaml:"start"`
	End             time.Time  `json:"end" yaml:"end"`
	DurationMinutes int64      `json:"durationMinutes" yaml:"durationMinutes"`
	Color           string     `json:"color" yaml:"color"`
	Label           string     `json:"label" yaml:"label"`
	Tooltip         string     `json:"tooltipContent,omitempty" yaml:"tooltipContent,omitempty"`
	StartText       string     `json:"startText" yaml:"startText"`
	EndText         string     `json:"endText" yaml:"endText"`
}

// Window carries bounds both as epoch milliseconds and as instants.
type Window struct {
	MinMs float64   `json:"min" yaml:"min"`
	MaxMs float64   `json:"max" yaml:"max"`
	Min   time.Time `json:"minTime" yaml:"minTime"`
	Max   time.Time `json:"maxTime" yaml:"maxTime"`
}

// Layout is the wire form of model.Layout.
type Layout struct {
	Window             *Window `json:"timeWindow" yaml:"timeWindow"`
	CanvasHeight       float64 `json:"canvasHeight" yaml:"canvasHeight"`
	RowScrollWindowEnd float64 `json:"rowScrollWindowEnd" yaml:"rowScrollWindowEnd"`
	MinRowHeight       float64 `json:"minRowHeight" yaml:"minRowHeight"`
	MinBarWidth        float64 `json:"minBarWidth" yaml:"minBarWidth"`
	RowCount           int     `json:"rowCount" yaml:"rowCount"`
}

// Advisory is the wire form of model.Advisory.
type Advisory struct {
	Kind    string `json:"kind" yaml:"kind"`
	Message string `json:"message" yaml:"message"`
}

// TimelineResponse is the transformed timeline.
type TimelineResponse struct {
	Rows       []Row          `json:"rows" yaml:"rows"`
	Intervals  []Interval     `json:"intervals" yaml:"intervals"`
	Layout     Layout         `json:"layout" yaml:"layout"`
	Advisories []Advisory     `json:"advisories" yaml:"advisories"`
	Lookup     map[int]string `json:"lookup" yaml:"lookup"`
	Dropped    map[string]int `json:"dropped" yaml:"dropped"`
	Total      int            `json:"total" yaml:"total"`
}

// FromResult converts an engine result. Slices are never nil.
func FromResult(res *engine.Result) TimelineResponse {
	out := TimelineResponse{
		Rows:       make([]Row, len(res.Rows)),
		Intervals:  make([]Interval, len(res.Intervals)),
		Advisories: make([]Advisory, len(res.Advisories)),
		Lookup:     make(map[int]string, len(res.Intervals)),
		Dropped:    make(map[string]int, len(res.Dropped)),
		Total:      res.Total,
	}
	for i, r := range res.Rows {
		out.Rows[i] = Row{Index: r.Index, Name: r.Name, Label: r.Label, IsGroup: r.IsGroup, RecordID: r.RecordID}
	}
	for i, iv := range res.Intervals {
		out.Intervals[i] = Interval{
			RowIndex:        iv.RowIndex,
			RecordID:        iv.RecordID,
			Name:            iv.Name,
			Value:           iv.Value(),
			Start:           iv.Start,
			End:             iv.End,
			DurationMinutes: iv.DurationMinutes,
			Color:           iv.Color,
			Label:           iv.Label,
			Tooltip:         iv.Tooltip,
			StartText:       iv.StartText,
			EndText:         iv.EndText,
		}
		out.Lookup[iv.RowIndex] = iv.RecordID
	}
	for i, a := range res.Advisories {
		out.Advisories[i] = Advisory{Kind: a.Kind, Message: a.Message}
	}
	for reason, n := range res.Dropped {
		out.Dropped[string(reason)] = n
	}
	l := res.Layout
	out.Layout = Layout{
		CanvasHeight:       l.CanvasHeight,
		RowScrollWindowEnd: l.RowScrollWindowEnd,
		MinRowHeight:       l.MinRowHeight,
		MinBarWidth:        l.MinBarWidth,
		RowCount:           l.RowCount,
	}
	if l.Window != nil {
		out.Layout.Window = &Window{
			MinMs: epochMs(l.Window.Min),
			MaxMs: epochMs(l.Window.Max),
			Min:   l.Window.Min,
			Max:   l.Window.Max,
		}
	}
	return out
}

func epochMs(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// Job states.
const (
	JobQueued    = "queued"
	JobRunning   = "running"
	JobSucceeded = "succeeded"
	JobFailed    = "failed"
	JobCancelled = "cancelled"
)

// JobAccepted is returned by POST /v1/jobs.
type JobAccepted struct {
	JobID     string `json:"job_id"`
	Duplicate bool   `json:"duplicate,omitempty"`
}

// JobStatus is returned by GET /v1/jobs/{id}.
type JobStatus struct {
	ID         string            `json:"id"`
	State      string            `json:"state"`
	Progress   int               `json:"progress"`
	Error      string            `json:"error,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
	FinishedAt *time.Time        `json:"finishedAt,omitempty"`
	Result     *TimelineResponse `json:"result,omitempty"`
}

// Finished reports whether the job reached a terminal state.
func (j JobStatus) Finished() bool {
	switch j.State {
	case JobSucceeded, JobFailed, JobCancelled:
		return true
	}
	return false
}
