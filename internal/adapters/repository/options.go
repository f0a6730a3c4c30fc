package repository

import "time"

// Option applies a configuration option to the JobStore.
type Option func(*JobStore)

// WithMaxJobs bounds how many jobs are held. Values <= 0 mean unbounded.
func WithMaxJobs(n int) Option {
	return func(s *JobStore) {
		s.maxJobs = n
	}
}

// WithMetricsUpdateInterval sets the interval for background metrics updates.
func WithMetricsUpdateInterval(interval time.Duration) Option {
	return func(s *JobStore) {
		if interval > 0 {
			s.metricsUpdateInterval = interval
		}
	}
}

// WithClock replaces time.Now for finish timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *JobStore) {
		if now != nil {
			s.now = now
		}
	}
}
