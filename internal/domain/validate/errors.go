package validate

import "errors"

// Sentinel errors returned by Validator.Time.
var (
	ErrMissing = errors.New("timestamp missing")
	ErrInvalid = errors.New("timestamp invalid")
)
