// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() initializer to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// MinRowHeight is the per-row pixel floor used by the layout calculator.
	MinRowHeight float64 `koanf:"min_row_height"`

	// MinBarWidth is the minimum drawn bar width in pixels.
	MinBarWidth float64 `koanf:"min_bar_width"`

	// DefaultColor fills bars whose record carries no color.
	DefaultColor string `koanf:"default_color"`

	// TimeFormat is the Go layout used for startText/endText.
	TimeFormat string `koanf:"time_format"`

	// Location names the zone used for zone-less timestamps and formatted text.
	Location string `koanf:"location"`

	// JobQueueSize bounds the in-memory job queue.
	JobQueueSize int `koanf:"job_queue_size"`

	// WorkerCount sets the number of transform workers.
	WorkerCount int `koanf:"worker_count"`

	// IdempotencySize bounds the idempotency key index.
	IdempotencySize int `koanf:"idempotency_size"`

	// MaxJobs bounds the job store; the oldest finished job is evicted first.
	MaxJobs int `koanf:"max_jobs"`

	// MaxRequestBytes caps request bodies on the HTTP API.
	MaxRequestBytes int64 `koanf:"max_request_bytes"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		MinRowHeight:    40,
		MinBarWidth:     2,
		DefaultColor:    "#1890ff",
		TimeFormat:      "2006-01-02 15:04:05",
		Location:        "UTC",
		JobQueueSize:    1_000,
		WorkerCount:     runtime.NumCPU(),
		IdempotencySize: 10_000,
		MaxJobs:         5_000,
		MaxRequestBytes: 8 << 20,
	}
}

// TimeLocation resolves Location, falling back to UTC for an empty name.
func (c *Config) TimeLocation() (*time.Location, error) {
	if strings.TrimSpace(c.Location) == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: location %q: %w", ErrInvalidConfig, c.Location, err)
	}
	return loc, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.MinRowHeight <= 0:
		return fmt.Errorf("%w: min_row_height must be positive", ErrInvalidConfig)
	case c.MinBarWidth < 0:
		return fmt.Errorf("%w: min_bar_width must not be negative", ErrInvalidConfig)
	case c.JobQueueSize <= 0:
		return fmt.Errorf("%w: job_queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.IdempotencySize <= 0:
		return fmt.Errorf("%w: idempotency_size must be positive", ErrInvalidConfig)
	case c.MaxJobs <= 0:
		return fmt.Errorf("%w: max_jobs must be positive", ErrInvalidConfig)
	case c.MaxRequestBytes <= 0:
		return fmt.Errorf("%w: max_request_bytes must be positive", ErrInvalidConfig)
	case strings.TrimSpace(c.TimeFormat) == "":
		return fmt.Errorf("%w: time_format must not be empty", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	_, err := c.TimeLocation()
	return err
}
