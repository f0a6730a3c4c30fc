package svg

import "time"

// Option configures a Writer.
type Option func(*Writer)

// WithWidth sets the canvas width in pixels.
func WithWidth(px float64) Option {
	return func(w *Writer) {
		if px > 0 {
			w.width = px
		}
	}
}

// WithTimeFormat sets the Go layout for axis tick labels.
func WithTimeFormat(layout string) Option {
	return func(w *Writer) {
		if layout != "" {
			w.timeFormat = layout
		}
	}
}

// WithLocation sets the zone tick labels are shown in.
func WithLocation(loc *time.Location) Option {
	return func(w *Writer) {
		if loc != nil {
			w.loc = loc
		}
	}
}

// WithTicks sets how many intervals the time axis is split into.
func WithTicks(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.ticks = n
		}
	}
}

// WithTitle draws a title above the plot.
func WithTitle(title string) Option {
	return func(w *Writer) {
		w.title = title
	}
}
