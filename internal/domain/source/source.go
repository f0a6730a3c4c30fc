// Package source describes how the engine reads attributes off host items.
//
// A Source pairs an item slice with one accessor per attribute. Accessors
// return nil for "absent" and an error when the host itself fails; the engine
// treats those two cases very differently (fallback vs. aborted transform).
package source

import (
	"fmt"
	"strings"

	"github.com/okian/gantt/internal/domain/model"
)

// Accessor reads one attribute from an item.
type Accessor func(item any) (any, error)

// Source is the accessor capability set over a collection of host items.
// ID, Start and End are required; a nil Parent disables grouping and a nil
// Sort keeps input order.
type Source struct {
	Items []any

	ID          Accessor
	DisplayName Accessor
	Parent      Accessor
	Start       Accessor
	End         Accessor
	Sort        Accessor
	Color       Accessor
	Tooltip     Accessor
	RowLabel    Accessor
	BarLabel    Accessor
}

// Validate reports missing required accessors.
func (s Source) Validate() error {
	switch {
	case s.ID == nil:
		return fmt.Errorf("%w: id", ErrMissingAccessor)
	case s.Start == nil:
		return fmt.Errorf("%w: start", ErrMissingAccessor)
	case s.End == nil:
		return fmt.Errorf("%w: end", ErrMissingAccessor)
	}
	return nil
}

// Len returns the number of items.
func (s Source) Len() int { return len(s.Items) }

// Text resolves acc on item to a string; nil accessor or nil value yield "".
func Text(acc Accessor, item any) (string, error) {
	if acc == nil {
		return "", nil
	}
	v, err := acc(item)
	if err != nil {
		return "", err
	}
	return Stringify(v), nil
}

// Stringify renders an attribute value as text. nil becomes "".
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

// Key normalizes an identifier value. Empty or whitespace-only keys are absent.
func Key(v any) (string, bool) {
	s := Stringify(v)
	if strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// FromRecords builds a Source over wire records. When sorted is false the
// Sort accessor is left nil so input order is kept.
func FromRecords(records []model.Record, sorted bool) Source {
	items := make([]any, len(records))
	for i := range records {
		items[i] = &records[i]
	}
	rec := func(item any) *model.Record { return item.(*model.Record) }
	optional := func(s string) any {
		if s == "" {
			return nil
		}
		return s
	}

	src := Source{
		Items:       items,
		ID:          func(item any) (any, error) { return rec(item).ID, nil },
		DisplayName: func(item any) (any, error) { return optional(rec(item).DisplayName), nil },
		Parent:      func(item any) (any, error) { return optional(rec(item).ParentID), nil },
		Start:       func(item any) (any, error) { return rec(item).Start, nil },
		End:         func(item any) (any, error) { return rec(item).End, nil },
		Color:       func(item any) (any, error) { return optional(rec(item).Color), nil },
		Tooltip:     func(item any) (any, error) { return optional(rec(item).Tooltip), nil },
		RowLabel:    func(item any) (any, error) { return optional(rec(item).RowLabel), nil },
		BarLabel:    func(item any) (any, error) { return optional(rec(item).BarLabel), nil },
	}
	if sorted {
		src.Sort = func(item any) (any, error) { return rec(item).SortKey, nil }
	}
	return src
}
