// Package loadgen drives the timeline service with generated record sets
// and checks every response against the timeline properties.
package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// ErrFailed is returned when any batch failed or violated a property.
var ErrFailed = errors.New("load run failed")

// Run executes a complete load run.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	l := logger.Named("loadgen")
	stats := &Stats{StartTime: time.Now()}
	if config.Workers < 1 {
		config.Workers = 1
	}

	l.Info(ctx, "starting timeline load run",
		logger.String("baseURL", config.BaseURL),
		logger.Int("batches", config.Batches),
		logger.Int("records", config.Records),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout))

	client := NewClient(config.BaseURL, config.Timeout)
	if !config.SkipHealth {
		if err := client.Health(ctx); err != nil {
			return stats, fmt.Errorf("service health check failed: %w", err)
		}
		l.Info(ctx, "service is healthy")
	}

	gen := NewGenerator(config.Seed, config.InvalidRatio, config.DanglingRatio)
	batches := make([][]model.Record, config.Batches)
	for i := range batches {
		batches[i] = gen.Batch(config.Records)
	}
	stats.BatchesGenerated = len(batches)

	submitBatches(ctx, l, client, config.Workers, batches, stats)

	if config.OutputFile != "" {
		if err := saveBatches(config.OutputFile, batches); err != nil {
			l.Warn(ctx, "failed to save batches to file", logger.Error(err))
		} else {
			l.Info(ctx, "batches saved to file", logger.String("filename", config.OutputFile))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, l, stats)

	if stats.BatchesFailed > 0 || stats.Violations > 0 {
		return stats, fmt.Errorf("%w: %d failed batches, %d violations", ErrFailed, stats.BatchesFailed, stats.Violations)
	}
	return stats, nil
}

// submitBatches posts batches concurrently and verifies each response.
func submitBatches(ctx context.Context, l logger.Logger, client *Client, workers int, batches [][]model.Record, stats *Stats) {
	var (
		submitted  atomic.Int64
		verified   atomic.Int64
		failed     atomic.Int64
		violations atomic.Int64
		records    atomic.Int64
		rows       atomic.Int64
	)

	work := make(chan int, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				batch := batches[i]
				submitted.Add(1)
				records.Add(int64(len(batch)))

				resp, err := client.Timeline(ctx, batch)
				if err != nil {
					failed.Add(1)
					l.Warn(ctx, "batch failed", logger.Int("batch", i), logger.Error(err))
					continue
				}
				rows.Add(int64(len(resp.Rows)))
				if err := Verify(batch, resp); err != nil {
					violations.Add(1)
					l.Error(ctx, "batch violated timeline properties", logger.Int("batch", i), logger.Error(err))
					continue
				}
				verified.Add(1)
			}
		}()
	}

	go func() {
		defer close(work)
		for i := range batches {
			select {
			case <-ctx.Done():
				return
			case work <- i:
			}
		}
	}()
	wg.Wait()

	stats.BatchesSubmitted = int(submitted.Load())
	stats.BatchesVerified = int(verified.Load())
	stats.BatchesFailed = int(failed.Load())
	stats.Violations = int(violations.Load())
	stats.RecordsSubmitted = int(records.Load())
	stats.RowsReceived = int(rows.Load())
}

// saveBatches writes the generated sets as a JSON array of record arrays.
func saveBatches(filename string, batches [][]model.Record) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(batches, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal batches: %w", err)
	}
	if err := os.WriteFile(filename, data, filePermission); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, l logger.Logger, stats *Stats) {
	var successRate, batchesPerSecond float64
	if stats.BatchesSubmitted > 0 {
		successRate = float64(stats.BatchesVerified) / float64(stats.BatchesSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		batchesPerSecond = float64(stats.BatchesSubmitted) / stats.Duration.Seconds()
	}

	l.Info(ctx, "final statistics",
		logger.Int("batchesGenerated", stats.BatchesGenerated),
		logger.Int("batchesSubmitted", stats.BatchesSubmitted),
		logger.Int("batchesVerified", stats.BatchesVerified),
		logger.Int("batchesFailed", stats.BatchesFailed),
		logger.Int("violations", stats.Violations),
		logger.Int("recordsSubmitted", stats.RecordsSubmitted),
		logger.Int("rowsReceived", stats.RowsReceived),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("batchesPerSecond", batchesPerSecond))
}
