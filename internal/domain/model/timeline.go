// Package model contains domain models passed between layers.
package model

import "time"

// Record is the wire and file form of a source record. Hosts with their own
// item types feed the engine through source.Source accessors instead.
type Record struct {
	ID          string `json:"id" yaml:"id"`
	ParentID    string `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	Start       any    `json:"start" yaml:"start"`
	End         any    `json:"end" yaml:"end"`
	SortKey     any    `json:"sortKey,omitempty" yaml:"sortKey,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
	Tooltip     string `json:"tooltipContent,omitempty" yaml:"tooltipContent,omitempty"`
	RowLabel    string `json:"rowLabel,omitempty" yaml:"rowLabel,omitempty"`
	BarLabel    string `json:"barLabel,omitempty" yaml:"barLabel,omitempty"`
	DisplayName string `json:"displayName,omitempty" yaml:"displayName,omitempty"`
}

// Row is one category on the vertical axis.
type Row struct {
	Index int
	// Name is the raw row content (may carry markup); Label is Name with tags stripped.
	Name    string
	Label   string
	IsGroup bool
	// RecordID is the record that owns the row, or the parent id for a group row.
	RecordID string
}

// Interval is one drawable bar bound to its record's own row.
type Interval struct {
	RowIndex        int
	RecordID        string
	Name            string
	Start           time.Time
	End             time.Time
	DurationMinutes int64
	Color           string
	Label           string
	Tooltip         string
	StartText       string
	EndText         string
}

// Value returns the renderer tuple [rowIndex, startMs, endMs, durationMinutes].
func (iv Interval) Value() [4]float64 {
	return [4]float64{
		float64(iv.RowIndex),
		float64(iv.Start.UnixMilli()),
		float64(iv.End.UnixMilli()),
		float64(iv.DurationMinutes),
	}
}

// Supported instants, in epoch milliseconds. Anything outside cannot be
// written as an RFC 3339 timestamp in every zone.
const (
	MinInstantMs = -62167132800000 // 0000-01-02T00:00:00Z
	MaxInstantMs = 253402214400000 // 9999-12-31T00:00:00Z
)

// Clamp limits w to the supported instants.
func (w Window) Clamp() Window {
	if w.Min.UnixMilli() < MinInstantMs {
		w.Min = time.UnixMilli(MinInstantMs).In(w.Min.Location())
	}
	if w.Max.UnixMilli() > MaxInstantMs {
		w.Max = time.UnixMilli(MaxInstantMs).In(w.Max.Location())
	}
	return w
}

// Window is a closed time range on the horizontal axis.
type Window struct {
	Min time.Time
	Max time.Time
}

// Span returns Max - Min. It saturates past about 292 years; use SpanMs for
// arithmetic on arbitrary windows.
func (w Window) Span() time.Duration { return w.Max.Sub(w.Min) }

// SpanMs returns Max - Min in milliseconds.
func (w Window) SpanMs() float64 { return float64(w.Max.UnixMilli() - w.Min.UnixMilli()) }

// Layout holds the numeric parameters a renderer needs.
type Layout struct {
	// Window is nil when there is nothing to draw.
	Window             *Window
	CanvasHeight       float64
	RowScrollWindowEnd float64
	MinRowHeight       float64
	MinBarWidth        float64
	RowCount           int
}

// Advisory kinds.
const (
	AdvisoryWindowTooWide = "window_too_wide"
	AdvisoryInvalidWindow = "invalid_window"
)

// Advisory is a non-fatal condition reported alongside a result.
type Advisory struct {
	Kind    string
	Message string
}
