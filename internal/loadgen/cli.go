package loadgen

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/gantt/pkg/logger"
)

// SetupLogging sends log output to stdout and, when logFile is set, to that
// file as well.
func SetupLogging(logFile, format string) (io.Closer, error) {
	var (
		w      io.Writer = os.Stdout
		closer io.Closer = io.NopCloser(nil)
	)
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			return nil, fmt.Errorf("failed to create log file: %w", err)
		}
		w, closer = io.MultiWriter(os.Stdout, file), file
	}
	if err := logger.Init(logger.WithWriter(w), logger.WithFormat(format)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return closer, nil
}

// ShowHelp prints usage information for the load generator.
func ShowHelp(w io.Writer) {
	_, _ = io.WriteString(w, `Gantt Timeline Load Generator
=============================

Posts generated hierarchical record sets to a running timeline service and
verifies every response: row count, dense row indices, interval placement
and group-row ordering.

Usage:
  go run ./cmd/loadgen [options]

Options:
  -url string        Base URL of the service (default "http://localhost:9080")
  -batches int       Number of record sets to post (default 100)
  -records int       Records per set (default 500)
  -workers int       Number of concurrent workers (default CPU cores * 2)
  -invalid float     Share of records with broken intervals (default 0.05)
  -dangling float    Share of child records with an absent parent (default 0.05)
  -seed uint         Generator seed, 0 for a clock-based seed
  -timeout duration  HTTP request timeout (default 30s)
  -output string     Write the generated sets to this JSON file
  -log string        Also write logs to this file
  -log-format string Log format: text or json (default "text")
  -help              Show this help message

Examples:
  go run ./cmd/loadgen -batches 1000 -records 2000 -workers 16
  go run ./cmd/loadgen -seed 42 -output sets.json
`)
}
