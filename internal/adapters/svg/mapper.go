// Package svg draws a transformed timeline as a standalone SVG document.
package svg

import (
	"math"
	"time"

	"github.com/okian/gantt/internal/domain/geometry"
	"github.com/okian/gantt/internal/domain/model"
)

// Plot margins around the drawing grid.
const (
	MarginLeftShare  = 0.15
	MarginRightShare = 0.05
	MarginTop        = 50.0
	MarginBottom     = 40.0
)

// Plot returns the grid rectangle inside a canvas of the given size.
func Plot(width, height float64) geometry.Rect {
	left := width * MarginLeftShare
	return geometry.Rect{
		X:      left,
		Y:      MarginTop,
		Width:  math.Max(0, width-left-width*MarginRightShare),
		Height: math.Max(0, height-MarginTop-MarginBottom),
	}
}

// LinearMapper maps time linearly onto the plot width and rows onto equal
// bands from the top. Only the first scrollEnd percent of rows fit the plot;
// later rows map below it and are clipped away.
type LinearMapper struct {
	window    model.Window
	plot      geometry.Rect
	rowHeight float64
}

var _ geometry.Mapper = (*LinearMapper)(nil)

// NewLinearMapper builds a mapper for rowCount rows with the given visible
// percentage.
func NewLinearMapper(window model.Window, plot geometry.Rect, rowCount int, scrollEnd float64) *LinearMapper {
	visible := float64(rowCount) * scrollEnd / 100
	if visible <= 0 {
		visible = 1
	}
	return &LinearMapper{
		window:    window,
		plot:      plot,
		rowHeight: plot.Height / visible,
	}
}

// X maps an instant to a horizontal pixel. A zero-length window maps
// everything to the left edge.
func (m *LinearMapper) X(t time.Time) float64 {
	span := m.window.SpanMs()
	if span <= 0 {
		return m.plot.X
	}
	return m.plot.X + float64(t.UnixMilli()-m.window.Min.UnixMilli())/span*m.plot.Width
}

// RowCenter is the vertical center of a row band.
func (m *LinearMapper) RowCenter(row int) float64 {
	return m.plot.Y + (float64(row)+0.5)*m.rowHeight
}

// Point implements geometry.Mapper.
func (m *LinearMapper) Point(t time.Time, row int) geometry.Point {
	return geometry.Point{X: m.X(t), Y: m.RowCenter(row)}
}

// RowHeight implements geometry.Mapper.
func (m *LinearMapper) RowHeight() float64 { return m.rowHeight }

// Visible reports whether a row's center falls inside the plot.
func (m *LinearMapper) Visible(row int) bool {
	y := m.RowCenter(row)
	return y >= m.plot.Y && y <= m.plot.Y+m.plot.Height
}
