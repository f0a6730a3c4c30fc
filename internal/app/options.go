package service

import (
	"time"

	"github.com/okian/gantt/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of job workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithIdempotencySize bounds the idempotency key index.
func WithIdempotencySize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.idempotencySize = size
		}
	}
}

// WithMaxJobs bounds how many jobs the job store keeps.
func WithMaxJobs(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxJobs = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMinRowHeight sets the default per-row pixel floor.
func WithMinRowHeight(px float64) Option {
	return func(s *Service) {
		if px > 0 {
			s.minRowHeight = px
		}
	}
}

// WithMinBarWidth sets the default minimum bar width.
func WithMinBarWidth(px float64) Option {
	return func(s *Service) {
		if px > 0 {
			s.minBarWidth = px
		}
	}
}

// WithDefaultColor sets the bar color for records without one.
func WithDefaultColor(color string) Option {
	return func(s *Service) {
		if color != "" {
			s.defaultColor = color
		}
	}
}

// WithTimeFormat sets the Go layout for interval start/end text.
func WithTimeFormat(layout string) Option {
	return func(s *Service) {
		if layout != "" {
			s.timeFormat = layout
		}
	}
}

// WithLocation sets the zone for zone-less timestamps.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}
