package svg

import "errors"

// ErrNoResult is returned when there is nothing to draw.
var ErrNoResult = errors.New("svg: nil result")
