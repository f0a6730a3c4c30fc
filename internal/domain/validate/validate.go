// Package validate decides whether a record's time interval is structurally usable.
package validate

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/okian/gantt/internal/domain/model"
)

// Reason explains why a record was dropped.
type Reason string

// Drop reasons.
const (
	ReasonNone         Reason = ""
	ReasonMissingID    Reason = "missing_id"
	ReasonMissingStart Reason = "missing_start"
	ReasonMissingEnd   Reason = "missing_end"
	ReasonInvalidStart Reason = "invalid_start"
	ReasonInvalidEnd   Reason = "invalid_end"
	ReasonInverted     Reason = "inverted"
)

// Reasons lists every drop reason in a stable order.
var Reasons = []Reason{ //nolint:gochecknoglobals // fixed enumeration
	ReasonMissingID, ReasonMissingStart, ReasonMissingEnd, ReasonInvalidStart, ReasonInvalidEnd, ReasonInverted,
}

// layouts are tried in order for string timestamps.
var layouts = []string{ //nolint:gochecknoglobals // fixed parse table
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// Span is a validated interval with End >= Start, truncated to milliseconds.
type Span struct {
	Start time.Time
	End   time.Time
}

// Validator parses raw timestamps.
type Validator struct {
	loc *time.Location
}

// New creates a Validator. Zone-less layouts resolve in UTC unless WithLocation is given.
func New(opts ...Option) *Validator {
	v := &Validator{loc: time.UTC}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Time converts a raw timestamp into an instant. It returns ErrMissing for
// absent values and ErrInvalid for values that do not name a valid instant.
func (v *Validator) Time(raw any) (time.Time, error) {
	switch t := raw.(type) {
	case nil:
		return time.Time{}, ErrMissing
	case time.Time:
		if t.IsZero() {
			return time.Time{}, ErrMissing
		}
		return inRange(t)
	case *time.Time:
		if t == nil || t.IsZero() {
			return time.Time{}, ErrMissing
		}
		return inRange(*t)
	case string:
		return v.parseString(t)
	case *string:
		if t == nil {
			return time.Time{}, ErrMissing
		}
		return v.parseString(*t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return fromMillis(float64(i))
		}
		f, err := t.Float64()
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalid, t.String())
		}
		return fromMillis(f)
	case int:
		return fromMillis(float64(t))
	case int32:
		return fromMillis(float64(t))
	case int64:
		return fromMillis(float64(t))
	case uint:
		return fromMillis(float64(t))
	case uint32:
		return fromMillis(float64(t))
	case uint64:
		return fromMillis(float64(t))
	case float32:
		return fromMillis(float64(t))
	case float64:
		return fromMillis(t)
	default:
		return time.Time{}, fmt.Errorf("%w: unsupported type %T", ErrInvalid, raw)
	}
}

func (v *Validator) parseString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrMissing
	}
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, s, v.loc)
		if err == nil {
			return inRange(t)
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalid, s)
}

func fromMillis(ms float64) (time.Time, error) {
	if math.IsNaN(ms) || ms < model.MinInstantMs || ms > model.MaxInstantMs {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalid, ms)
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}

func inRange(t time.Time) (time.Time, error) {
	if t.Before(time.UnixMilli(model.MinInstantMs)) || t.After(time.UnixMilli(model.MaxInstantMs)) {
		return time.Time{}, fmt.Errorf("%w: %s out of range", ErrInvalid, t.Format(time.RFC3339))
	}
	return truncate(t), nil
}

func truncate(t time.Time) time.Time {
	return time.UnixMilli(t.UnixMilli()).In(t.Location())
}

// Interval validates a start/end pair. ReasonNone means the span is usable.
func (v *Validator) Interval(start, end any) (Span, Reason) {
	s, err := v.Time(start)
	if err != nil {
		if errors.Is(err, ErrMissing) {
			return Span{}, ReasonMissingStart
		}
		return Span{}, ReasonInvalidStart
	}
	e, err := v.Time(end)
	if err != nil {
		if errors.Is(err, ErrMissing) {
			return Span{}, ReasonMissingEnd
		}
		return Span{}, ReasonInvalidEnd
	}
	if e.Before(s) {
		return Span{}, ReasonInverted
	}
	return Span{Start: s, End: e}, ReasonNone
}
