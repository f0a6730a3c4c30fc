package model

import "time"

// Job is an asynchronous transform as it travels from the service to a worker.
// The window is already parsed; a nil Window means data-derived.
type Job struct {
	ID           string
	Records      []Record
	Sort         bool
	Window       *Window
	MinRowHeight float64
	MinBarWidth  float64
	SubmittedAt  time.Time
}
