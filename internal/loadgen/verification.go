package loadgen

import (
	"errors"
	"fmt"

	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/types"
)

// ErrViolation marks a response that breaks a timeline property.
var ErrViolation = errors.New("timeline property violated")

// Verify checks resp against the records that produced it:
//   - the row count matches Expect
//   - row indices are dense and ordered
//   - each interval sits on its own record's non-group row
//   - a group row precedes every child row of that parent
//   - layout row count and drop totals agree
func Verify(records []model.Record, resp types.TimelineResponse) error {
	exp := Expect(records)
	var errs []error
	violate := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrViolation}, args...)...))
	}

	if len(resp.Rows) != exp.Rows {
		violate("got %d rows, want %d (%d valid + %d groups)", len(resp.Rows), exp.Rows, exp.Valid, exp.Groups)
	}
	if resp.Layout.RowCount != len(resp.Rows) {
		violate("layout row count %d, rows %d", resp.Layout.RowCount, len(resp.Rows))
	}
	if len(resp.Intervals) != exp.Valid {
		violate("got %d intervals, want %d", len(resp.Intervals), exp.Valid)
	}
	dropped := 0
	for _, n := range resp.Dropped {
		dropped += n
	}
	if dropped != exp.Dropped {
		violate("dropped %d, want %d", dropped, exp.Dropped)
	}
	if resp.Total != len(records) {
		violate("total %d, want %d", resp.Total, len(records))
	}

	parents := make(map[string]string, len(records))
	for _, r := range records {
		parents[r.ID] = r.ParentID
	}
	groupAt := make(map[string]int)
	for i, row := range resp.Rows {
		if row.Index != i {
			violate("row %d has index %d", i, row.Index)
		}
		if row.IsGroup {
			if _, dup := groupAt[row.RecordID]; dup {
				violate("duplicate group row for %s", row.RecordID)
			}
			groupAt[row.RecordID] = i
			continue
		}
		if p := parents[row.RecordID]; p != "" {
			if _, present := parents[p]; present {
				if at, ok := groupAt[p]; !ok || at > i {
					violate("row %d for %s precedes its group row", i, row.RecordID)
				}
			}
		}
	}

	for _, iv := range resp.Intervals {
		if iv.RowIndex < 0 || iv.RowIndex >= len(resp.Rows) {
			violate("interval %s on missing row %d", iv.RecordID, iv.RowIndex)
			continue
		}
		row := resp.Rows[iv.RowIndex]
		if row.IsGroup || row.RecordID != iv.RecordID {
			violate("interval %s on row %d owned by %s", iv.RecordID, iv.RowIndex, row.RecordID)
		}
		if iv.End.Before(iv.Start) {
			violate("interval %s ends before it starts", iv.RecordID)
		}
	}
	return errors.Join(errs...)
}
