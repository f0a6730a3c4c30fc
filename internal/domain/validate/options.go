package validate

import "time"

// Option configures a Validator.
type Option func(*Validator)

// WithLocation sets the zone used for timestamps that carry none.
func WithLocation(loc *time.Location) Option {
	return func(v *Validator) {
		if loc != nil {
			v.loc = loc
		}
	}
}
