package loadgen

import "time"

// Generator defaults.
const (
	DefaultRecords       = 500
	DefaultBatches       = 100
	DefaultInvalidRatio  = 0.05
	DefaultDanglingRatio = 0.05
	DefaultTimeout       = 30 * time.Second

	// rootShare is the share of records generated without a parent.
	rootShare = 0.3
	// maxSpan bounds a generated interval.
	maxSpan = 72 * time.Hour
	// horizon bounds generated start instants after the base instant.
	horizon = 30 * 24 * time.Hour
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
	PercentageMultiplier    = 100
)
