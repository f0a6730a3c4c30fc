package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/gantt/internal/loadgen"
)

// Default configuration constants.
const (
	defaultWorkers    = 2 // multiplier for runtime.NumCPU()
	defaultRunTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:9080", "Base URL of the service")
		batches   = flag.Int("batches", loadgen.DefaultBatches, "Number of record sets to post")
		records   = flag.Int("records", loadgen.DefaultRecords, "Records per set")
		workers   = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		invalid   = flag.Float64("invalid", loadgen.DefaultInvalidRatio, "Share of records with broken intervals")
		dangling  = flag.Float64("dangling", loadgen.DefaultDanglingRatio, "Share of child records with an absent parent")
		seed      = flag.Uint64("seed", 0, "Generator seed, 0 for a clock-based seed")
		timeout   = flag.Duration("timeout", loadgen.DefaultTimeout, "HTTP request timeout")
		output    = flag.String("output", "", "Write the generated sets to this JSON file")
		logFile   = flag.String("log", "", "Also write logs to this file")
		logFormat = flag.String("log-format", "text", "Log format: text or json")
		help      = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadgen.ShowHelp(os.Stdout)
		return
	}

	closer, err := loadgen.SetupLogging(*logFile, *logFormat)
	if err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(2)
	}
	defer closer.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	config := &loadgen.Config{
		BaseURL:       *baseURL,
		Batches:       *batches,
		Records:       *records,
		Workers:       *workers,
		Timeout:       *timeout,
		InvalidRatio:  *invalid,
		DanglingRatio: *dangling,
		Seed:          *seed,
		OutputFile:    *output,
	}

	if _, err := loadgen.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load run failed: " + err.Error() + "\n")
		cancel()
		stop()
		_ = closer.Close()
		os.Exit(1)
	}
}
