package engine

import "errors"

// Sentinel errors.
var (
	// ErrRender wraps any accessor failure or panic raised during a transform.
	ErrRender = errors.New("timeline render error")
	// ErrNotFinished is returned by Result before the last step.
	ErrNotFinished = errors.New("transform not finished")
)
