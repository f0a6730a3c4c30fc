package engine

import (
	"time"

	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/progress"
)

// Option configures a Transformer.
type Option func(*settings)

// WithMinRowHeight sets the per-row pixel floor used for canvas height.
func WithMinRowHeight(px float64) Option {
	return func(s *settings) {
		if px > 0 {
			s.minRowHeight = px
		}
	}
}

// WithMinBarWidth sets the minimum drawn bar width in pixels.
func WithMinBarWidth(px float64) Option {
	return func(s *settings) {
		if px > 0 {
			s.minBarWidth = px
		}
	}
}

// WithWindow pins the time window instead of deriving it from the data.
func WithWindow(start, end time.Time) Option {
	return func(s *settings) {
		s.window = &model.Window{Min: start, Max: end}
	}
}

// WithDefaultColor sets the bar color used when a record carries none.
func WithDefaultColor(color string) Option {
	return func(s *settings) {
		if color != "" {
			s.defaultColor = color
		}
	}
}

// WithTimeFormat sets the Go layout for formatted start/end text.
func WithTimeFormat(layout string) Option {
	return func(s *settings) {
		if layout != "" {
			s.timeFormat = layout
		}
	}
}

// WithLocation sets the zone for zone-less timestamps and formatted text.
func WithLocation(loc *time.Location) Option {
	return func(s *settings) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithProgress registers a progress sink.
func WithProgress(sink progress.Sink) Option {
	return func(s *settings) {
		s.sink = sink
	}
}
