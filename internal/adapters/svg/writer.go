package svg

import (
	"fmt"
	"html"
	"io"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/okian/gantt/internal/domain/geometry"
	"github.com/okian/gantt/internal/domain/layout"
	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/rows"
	"github.com/okian/gantt/internal/domain/series"
	"github.com/okian/gantt/internal/engine"
)

// Styles for axis and row labels.
const (
	defaultWidth = 1000.0
	defaultTicks = 6

	gridLineColor  = "#e8e8e8"
	rowLineColor   = "#f0f0f0"
	axisLineColor  = "#d9d9d9"
	axisTextColor  = "#666"
	groupTextColor = "#1890ff"
	groupFillColor = "#e6f7ff"
	childTextColor = "#595959"
	groupFontSize  = 13
	childFontSize  = 11
	labelGap       = 8.0
	fontFamily     = "sans-serif"
)

// Writer renders engine results. It holds no per-render state.
type Writer struct {
	width      float64
	timeFormat string
	loc        *time.Location
	ticks      int
	title      string
}

// NewWriter creates a writer with a 1000px canvas and six tick intervals.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{
		width:      defaultWidth,
		timeFormat: series.DefaultTimeFormat,
		loc:        time.UTC,
		ticks:      defaultTicks,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write draws res to out as one SVG document.
func (w *Writer) Write(out io.Writer, res *engine.Result) error {
	if res == nil {
		return ErrNoResult
	}
	height := res.Layout.CanvasHeight
	if height <= 0 {
		height = layout.MinCanvasHeight
	}
	plot := Plot(w.width, height)

	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0" encoding="UTF-8"?>
<svg width="%s" height="%s" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg" font-family="%s">
<rect width="100%%" height="100%%" fill="#fff"/>
`, num(w.width), num(height), num(w.width), num(height), fontFamily)

	if w.title != "" {
		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" font-size="16" font-weight="bold" fill="#333">%s</text>
`, num(w.width/2), num(MarginTop/2), escape(w.title))
	}

	if res.Layout.Window == nil {
		fmt.Fprintf(&b, `<text x="%s" y="%s" text-anchor="middle" font-size="14" fill="%s">No data</text>
</svg>
`, num(plot.X+plot.Width/2), num(plot.Y+plot.Height/2), axisTextColor)
		_, err := io.WriteString(out, b.String())
		return err
	}

	m := NewLinearMapper(*res.Layout.Window, plot, len(res.Rows), res.Layout.RowScrollWindowEnd)

	w.writeTimeAxis(&b, m, plot, *res.Layout.Window)
	w.writeRows(&b, m, plot, res.Rows)

	b.WriteString("<g class=\"bars\">\n")
	for _, iv := range res.Intervals {
		bar := geometry.Place(iv, m, plot, res.Layout.MinBarWidth)
		if !bar.Drawn {
			continue
		}
		writeBar(&b, iv, bar)
	}
	b.WriteString("</g>\n</svg>\n")

	_, err := io.WriteString(out, b.String())
	return err
}

func (w *Writer) writeTimeAxis(b *strings.Builder, m *LinearMapper, plot geometry.Rect, window model.Window) {
	bottom := plot.Y + plot.Height
	b.WriteString("<g class=\"time-axis\">\n")
	fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>
`, num(plot.X), num(bottom), num(plot.X+plot.Width), num(bottom), axisLineColor)

	span := window.SpanMs()
	ticks := w.ticks
	if span <= 0 {
		ticks = 0
	}
	for i := 0; i <= ticks; i++ {
		t := window.Min
		if ticks > 0 {
			t = time.UnixMilli(window.Min.UnixMilli() + int64(span*float64(i)/float64(ticks)))
		}
		x := m.X(t)
		fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-dasharray="4 4"/>
`, num(x), num(plot.Y), num(x), num(bottom), gridLineColor)
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle" font-size="11" fill="%s">%s</text>
`, num(x), num(bottom+16), axisTextColor, escape(t.In(w.loc).Format(w.timeFormat)))
	}
	b.WriteString("</g>\n")
}

func (w *Writer) writeRows(b *strings.Builder, m *LinearMapper, plot geometry.Rect, categories []model.Row) {
	maxWidth := layout.AxisLabelWidth(w.width)
	right := plot.X - labelGap

	b.WriteString("<g class=\"rows\">\n")
	for _, row := range categories {
		if !m.Visible(row.Index) {
			continue
		}
		y := m.RowCenter(row.Index)
		lineY := y + m.RowHeight()/2
		fmt.Fprintf(b, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s"/>
`, num(plot.X), num(lineY), num(plot.X+plot.Width), num(lineY), rowLineColor)

		text := Truncate(row.Label, maxWidth)
		if row.IsGroup {
			bg := geometry.EstimateLabelWidth(text) + 2*labelGap
			fmt.Fprintf(b, `<rect x="%s" y="%s" width="%s" height="20" rx="4" fill="%s"/>
`, num(right-bg+labelGap), num(y-10), num(bg), groupFillColor)
			fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="end" dominant-baseline="middle" font-size="%d" font-weight="bold" fill="%s">%s</text>
`, num(right), num(y), groupFontSize, groupTextColor, escape(text))
			continue
		}
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="end" dominant-baseline="middle" font-size="%d" fill="%s">%s</text>
`, num(right), num(y), childFontSize, childTextColor, escape(text))
	}
	b.WriteString("</g>\n")
}

func writeBar(b *strings.Builder, iv model.Interval, bar geometry.Bar) { //nolint:gocritic // hugeParam
	r := bar.Rect
	b.WriteString("<g>")
	if iv.Tooltip != "" || iv.Name != "" {
		fmt.Fprintf(b, "<title>%s</title>", escape(tooltip(iv)))
	}
	fmt.Fprintf(b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="%s" stroke-width="%s" opacity="%s"/>`,
		num(r.X), num(r.Y), num(r.Width), num(r.Height),
		escape(bar.Fill), bar.Stroke, num(bar.LineWidth), num(bar.Opacity))
	if l := bar.Label; l.Text != "" {
		weight := "normal"
		if l.Bold {
			weight = "bold"
		}
		baseline := "middle"
		if l.Outside {
			baseline = "auto"
		}
		fmt.Fprintf(b, `<text x="%s" y="%s" text-anchor="middle" dominant-baseline="%s" font-size="%d" font-weight="%s" fill="%s">%s</text>`,
			num(l.X), num(l.Y), baseline, l.FontSize, weight, l.Fill, escape(l.Text))
	}
	b.WriteString("</g>\n")
}

func tooltip(iv model.Interval) string { //nolint:gocritic // hugeParam
	parts := []string{iv.Name, iv.StartText + " - " + iv.EndText}
	if iv.Tooltip != "" {
		parts = append(parts, strings.TrimSpace(rows.StripTags(iv.Tooltip)))
	}
	return strings.Join(parts, "\n")
}

// Truncate shortens label to fit maxWidth pixels at the estimated character
// width, ending it with "..." when cut.
func Truncate(label string, maxWidth float64) string {
	s := norm.NFC.String(label)
	limit := int(maxWidth / geometry.CharWidth)
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:max(limit, 0)])
	}
	return string(runes[:limit-3]) + "..."
}

func escape(s string) string { return html.EscapeString(s) }

func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
