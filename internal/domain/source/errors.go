package source

import "errors"

// ErrMissingAccessor is returned when a required accessor is nil.
var ErrMissingAccessor = errors.New("missing required accessor")
