// Package rows orders records and assigns dense row indices, emitting a
// group row for each present parent ahead of its first child.
package rows

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/gantt/internal/domain/model"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`) //nolint:gochecknoglobals // compiled once

// StripTags removes markup tags, leaving text content.
func StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// OwnName resolves a record's own row name.
func OwnName(rowLabel, displayName, id string) string {
	switch {
	case rowLabel != "":
		return rowLabel
	case displayName != "":
		return displayName
	default:
		return "Item " + id
	}
}

// GroupName resolves a parent group row name.
func GroupName(displayName, parentID string) string {
	if displayName != "" {
		return displayName
	}
	return "Parent " + parentID
}

// SortKey converts a raw sort attribute to a number. Absent and non-numeric
// values sort as 0.
func SortKey(v any) float64 {
	var f float64
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		f = t
	case float32:
		f = float64(t)
	case int:
		f = float64(t)
	case int32:
		f = float64(t)
	case int64:
		f = float64(t)
	case uint:
		f = float64(t)
	case uint32:
		f = float64(t)
	case uint64:
		f = float64(t)
	case bool:
		if t {
			f = 1
		}
	case time.Time:
		f = float64(t.UnixMilli())
	case fmt.Stringer:
		return SortKey(t.String())
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		f = p
	default:
		return 0
	}
	if math.IsNaN(f) {
		return 0
	}
	return f
}

// Order returns the stable ascending permutation of positions by key.
// keys is not modified.
func Order(keys []float64) []int {
	order := make([]int, len(keys))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]] < keys[order[b]]
	})
	return order
}

// Identity returns the input-order permutation of n positions.
func Identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

// Sequencer emits rows in order with dense indices.
type Sequencer struct {
	rows    []model.Row
	grouped map[string]struct{}
}

// NewSequencer returns an empty Sequencer.
func NewSequencer() *Sequencer {
	return &Sequencer{grouped: make(map[string]struct{})}
}

// NeedsGroup reports whether a group row for parentID has not been emitted yet.
func (s *Sequencer) NeedsGroup(parentID string) bool {
	if parentID == "" {
		return false
	}
	_, done := s.grouped[parentID]
	return !done
}

// AddGroup emits the group row for parentID. It is a no-op after the first call.
func (s *Sequencer) AddGroup(parentID, name string) (model.Row, bool) {
	if !s.NeedsGroup(parentID) {
		return model.Row{}, false
	}
	s.grouped[parentID] = struct{}{}
	return s.add(parentID, name, true), true
}

// AddRow emits a record's own row.
func (s *Sequencer) AddRow(recordID, name string) model.Row {
	return s.add(recordID, name, false)
}

func (s *Sequencer) add(id, name string, group bool) model.Row {
	row := model.Row{
		Index:    len(s.rows),
		Name:     name,
		Label:    StripTags(name),
		IsGroup:  group,
		RecordID: id,
	}
	s.rows = append(s.rows, row)
	return row
}

// Rows returns the emitted rows.
func (s *Sequencer) Rows() []model.Row { return s.rows }

// Len returns the number of emitted rows.
func (s *Sequencer) Len() int { return len(s.rows) }
