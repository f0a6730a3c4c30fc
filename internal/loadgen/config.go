package loadgen

import "time"

// Config holds configuration for a load run.
type Config struct {
	BaseURL       string        // Base URL of the service
	Batches       int           // Number of record sets to post
	Records       int           // Records per set
	Workers       int           // Number of concurrent workers
	Timeout       time.Duration // HTTP request timeout
	InvalidRatio  float64       // Share of records with a missing, garbled or inverted interval
	DanglingRatio float64       // Share of child records whose parent is absent
	Seed          uint64        // Generator seed; 0 picks one from the clock
	OutputFile    string        // Optional JSON dump of the generated sets
	SkipHealth    bool          // Do not probe /healthz first
}

// Stats holds run statistics.
type Stats struct {
	BatchesGenerated int
	BatchesSubmitted int
	BatchesVerified  int
	BatchesFailed    int
	RecordsSubmitted int
	RowsReceived     int
	Violations       int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
