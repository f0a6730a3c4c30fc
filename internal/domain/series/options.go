package series

import "time"

// Option configures a Builder.
type Option func(*Builder)

// WithDefaultColor sets the color used when a record carries none.
func WithDefaultColor(color string) Option {
	return func(b *Builder) {
		if color != "" {
			b.defaultColor = color
		}
	}
}

// WithTimeFormat sets the Go layout for StartText/EndText.
func WithTimeFormat(layout string) Option {
	return func(b *Builder) {
		if layout != "" {
			b.timeFormat = layout
		}
	}
}

// WithLocation sets the zone for StartText/EndText.
func WithLocation(loc *time.Location) Option {
	return func(b *Builder) {
		if loc != nil {
			b.loc = loc
		}
	}
}
