// Package geometry turns an interval plus mapper coordinates into a clipped
// bar and a label placed inside or above it.
package geometry

import (
	"math"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/okian/gantt/internal/domain/model"
)

// Geometry constants.
const (
	BarHeightFraction = 0.6
	CharWidth         = 6.0
	LabelPadding      = 10.0
	LabelLift         = 5.0
	LabelFontSize     = 10

	LabelFillInside  = "#fff"
	LabelFillOutside = "#333"
	BarStroke        = "#fff"
	BarLineWidth     = 1.0
	BarOpacity       = 0.9
)

// Point is a pixel position.
type Point struct {
	X, Y float64
}

// Rect is a pixel rectangle.
type Rect struct {
	X, Y, Width, Height float64
}

// Mapper converts data coordinates to pixels for one render pass.
type Mapper interface {
	// Point maps an instant on a row to the row's vertical center.
	Point(t time.Time, row int) Point
	// RowHeight is the pixel height of one category band.
	RowHeight() float64
}

// Label is the text drawn with a bar.
type Label struct {
	Text     string
	X, Y     float64
	Fill     string
	Outside  bool
	FontSize int
	Bold     bool
}

// Bar is the draw instruction for one interval.
type Bar struct {
	// Drawn is false when the bar falls outside the plot this frame.
	Drawn     bool
	Rect      Rect
	Fill      string
	Stroke    string
	LineWidth float64
	Opacity   float64
	Label     Label
}

// Clip intersects r with bounds. ok is false when the intersection is empty.
func Clip(r, bounds Rect) (Rect, bool) {
	x := math.Max(r.X, bounds.X)
	y := math.Max(r.Y, bounds.Y)
	x2 := math.Min(r.X+r.Width, bounds.X+bounds.Width)
	y2 := math.Min(r.Y+r.Height, bounds.Y+bounds.Height)
	if !(x2 > x) || !(y2 > y) {
		return Rect{}, false
	}
	return Rect{X: x, Y: y, Width: x2 - x, Height: y2 - y}, true
}

// CharCount counts user-visible characters after NFC normalization.
func CharCount(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}

// EstimateLabelWidth approximates rendered label width in pixels.
func EstimateLabelWidth(s string) float64 {
	return CharWidth * float64(CharCount(s))
}

// LabelOutside reports whether a label does not fit inside a bar of barWidth.
func LabelOutside(barWidth float64, text string) bool {
	return barWidth < EstimateLabelWidth(text)+LabelPadding
}

// Place computes the bar and label for iv. minBarWidth <= 0 uses 2px.
func Place(iv model.Interval, m Mapper, plot Rect, minBarWidth float64) Bar {
	if minBarWidth <= 0 {
		minBarWidth = 2
	}
	start := m.Point(iv.Start, iv.RowIndex)
	end := m.Point(iv.End, iv.RowIndex)
	height := m.RowHeight() * BarHeightFraction

	barWidth := math.Max(end.X-start.X, minBarWidth)

	rect, drawn := Clip(Rect{
		X:      start.X,
		Y:      start.Y - height/2,
		Width:  barWidth,
		Height: height,
	}, plot)

	outside := LabelOutside(barWidth, iv.Label)
	label := Label{
		Text:     iv.Label,
		X:        start.X + barWidth/2,
		Y:        start.Y,
		Fill:     LabelFillInside,
		Outside:  outside,
		FontSize: LabelFontSize,
		Bold:     true,
	}
	if outside {
		label.Y = start.Y - height/2 - LabelLift
		label.Fill = LabelFillOutside
	}

	return Bar{
		Drawn:     drawn,
		Rect:      rect,
		Fill:      iv.Color,
		Stroke:    BarStroke,
		LineWidth: BarLineWidth,
		Opacity:   BarOpacity,
		Label:     label,
	}
}
