// Package layout derives the time window, canvas height and initial scroll
// fraction for a transformed series.
package layout

import (
	"fmt"
	"math"
	"time"

	"github.com/okian/gantt/internal/domain/model"
)

// Layout constants.
const (
	MinCanvasHeight     = 400.0
	MaxCanvasHeight     = 800.0
	CanvasExtra         = 100.0
	MaxVisibleRows      = 10
	DefaultMinRowHeight = 40.0
	DefaultMinBarWidth  = 2.0
	TimePadding         = 0.05
	WindowAdvisoryRatio = 10.0

	// axis label sizing
	AxisLabelShare    = 0.15
	AxisLabelInset    = 20.0
	AxisLabelFallback = 150.0
)

// DataExtent returns the min start and max end over intervals.
func DataExtent(intervals []model.Interval) (model.Window, bool) {
	if len(intervals) == 0 {
		return model.Window{}, false
	}
	w := model.Window{Min: intervals[0].Start, Max: intervals[0].End}
	for _, iv := range intervals[1:] {
		if iv.Start.Before(w.Min) {
			w.Min = iv.Start
		}
		if iv.End.After(w.Max) {
			w.Max = iv.End
		}
	}
	return w, true
}

// DataWindow is DataExtent padded by TimePadding of the span on each side,
// clamped to the supported instants.
func DataWindow(intervals []model.Interval) (model.Window, bool) {
	w, ok := DataExtent(intervals)
	if !ok {
		return w, false
	}
	pad := int64(math.Round(w.SpanMs() * TimePadding))
	return model.Window{
		Min: time.UnixMilli(w.Min.UnixMilli() - pad).In(w.Min.Location()),
		Max: time.UnixMilli(w.Max.UnixMilli() + pad).In(w.Max.Location()),
	}.Clamp(), true
}

// ResolveWindow picks the caller window when given and valid, else the data window.
// The returned pointer is nil when there is nothing to show.
func ResolveWindow(intervals []model.Interval, override *model.Window) (*model.Window, []model.Advisory) {
	var advisories []model.Advisory
	if override != nil {
		if override.Max.After(override.Min) {
			w := *override
			if extent, ok := DataExtent(intervals); ok && extent.SpanMs() > 0 {
				ratio := w.SpanMs() / extent.SpanMs()
				if ratio > WindowAdvisoryRatio {
					advisories = append(advisories, model.Advisory{
						Kind: model.AdvisoryWindowTooWide,
						Message: fmt.Sprintf("view window is %.1fx the data extent (threshold %.0fx)",
							ratio, WindowAdvisoryRatio),
					})
				}
			}
			return &w, advisories
		}
		advisories = append(advisories, model.Advisory{
			Kind:    model.AdvisoryInvalidWindow,
			Message: "view window end must be after start; using data-derived window",
		})
	}
	w, ok := DataWindow(intervals)
	if !ok {
		return nil, advisories
	}
	return &w, advisories
}

// CanvasHeight clamps rowCount*minRowHeight+100 into [400, 800].
func CanvasHeight(rowCount int, minRowHeight float64) float64 {
	h := float64(rowCount)*minRowHeight + CanvasExtra
	return math.Max(MinCanvasHeight, math.Min(MaxCanvasHeight, h))
}

// ScrollWindowEnd is the initially visible vertical fraction, in percent.
func ScrollWindowEnd(rowCount int) float64 {
	if rowCount > MaxVisibleRows {
		return float64(MaxVisibleRows) / float64(rowCount) * 100
	}
	return 100
}

// AxisLabelWidth is the category label width for a container width in pixels.
// A non-positive width means unknown.
func AxisLabelWidth(containerWidth float64) float64 {
	if containerWidth <= 0 {
		return AxisLabelFallback
	}
	return math.Floor(containerWidth*AxisLabelShare) - AxisLabelInset
}

// Params are the caller-controlled inputs to Compute.
type Params struct {
	Window       *model.Window
	MinRowHeight float64
	MinBarWidth  float64
}

// Compute derives the full layout for a series.
func Compute(intervals []model.Interval, rowCount int, p Params) (model.Layout, []model.Advisory) {
	if p.MinRowHeight <= 0 {
		p.MinRowHeight = DefaultMinRowHeight
	}
	if p.MinBarWidth <= 0 {
		p.MinBarWidth = DefaultMinBarWidth
	}
	window, advisories := ResolveWindow(intervals, p.Window)
	return model.Layout{
		Window:             window,
		CanvasHeight:       CanvasHeight(rowCount, p.MinRowHeight),
		RowScrollWindowEnd: ScrollWindowEnd(rowCount),
		MinRowHeight:       p.MinRowHeight,
		MinBarWidth:        p.MinBarWidth,
		RowCount:           rowCount,
	}, advisories
}
