package engine_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/source"
	"github.com/okian/gantt/internal/domain/validate"
	"github.com/okian/gantt/internal/engine"
	. "github.com/smartystreets/goconvey/convey"
)

var t0 = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

func rec(id, parent string, startMin, endMin int) model.Record {
	return model.Record{
		ID:       id,
		ParentID: parent,
		Start:    t0.Add(time.Duration(startMin) * time.Minute),
		End:      t0.Add(time.Duration(endMin) * time.Minute),
	}
}

func names(rows []model.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestTransformHierarchy(t *testing.T) {
	Convey("Given a child listed before its parent", t, func() {
		records := []model.Record{
			rec("c1", "p", 0, 30),
			{ID: "p", DisplayName: "Phase", Start: t0, End: t0.Add(2 * time.Hour)},
			rec("c2", "p", 30, 60),
			rec("solo", "", 0, 10),
		}
		res, err := engine.Transform(context.Background(), source.FromRecords(records, false))
		So(err, ShouldBeNil)

		Convey("Then one group row precedes the first child", func() {
			So(names(res.Rows), ShouldResemble, []string{"Phase", "Item c1", "Phase", "Item c2", "Item solo"})
			So(res.Rows[0].IsGroup, ShouldBeTrue)
			So(res.Rows[2].IsGroup, ShouldBeFalse)
		})

		Convey("Then each interval sits on its own row, never the group's", func() {
			So(res.Intervals, ShouldHaveLength, 4)
			So(res.Intervals[0].RowIndex, ShouldEqual, 1)
			So(res.Intervals[0].RecordID, ShouldEqual, "c1")
			So(res.Intervals[1].RowIndex, ShouldEqual, 2)
			So(res.Intervals[1].RecordID, ShouldEqual, "p")
		})

		Convey("Then the lookup maps rows back to records", func() {
			item, ok := res.Record(1)
			So(ok, ShouldBeTrue)
			So(item.(*model.Record).ID, ShouldEqual, "c1")
			_, ok = res.Record(0)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given a child whose parent is absent", t, func() {
		res, err := engine.Transform(context.Background(), source.FromRecords([]model.Record{
			rec("c", "ghost", 0, 5),
		}, false))
		So(err, ShouldBeNil)

		Convey("Then it is an ungrouped row", func() {
			So(names(res.Rows), ShouldResemble, []string{"Item c"})
		})
	})

	Convey("Given a parent without a display name", t, func() {
		res, err := engine.Transform(context.Background(), source.FromRecords([]model.Record{
			rec("c", "p", 0, 5),
			rec("p", "", 0, 5),
		}, false))
		So(err, ShouldBeNil)

		Convey("Then the group row falls back to Parent {id}", func() {
			So(res.Rows[0].Name, ShouldEqual, "Parent p")
		})
	})

	Convey("Given an invalid child of a present parent", t, func() {
		res, err := engine.Transform(context.Background(), source.FromRecords([]model.Record{
			{ID: "c", ParentID: "p", Start: "not-a-date", End: "2024-01-01"},
			rec("p", "", 0, 5),
		}, false))
		So(err, ShouldBeNil)

		Convey("Then no group row is triggered and the drop is counted", func() {
			So(names(res.Rows), ShouldResemble, []string{"Item p"})
			So(res.Dropped[validate.ReasonInvalidStart], ShouldEqual, 1)
			So(res.DroppedTotal(), ShouldEqual, 1)
			So(res.Total, ShouldEqual, 2)
		})
	})

	Convey("Given a record without an id", t, func() {
		res, err := engine.Transform(context.Background(), source.FromRecords([]model.Record{
			rec("", "", 0, 5),
		}, false))
		So(err, ShouldBeNil)

		Convey("Then it is dropped as missing_id", func() {
			So(res.Rows, ShouldBeEmpty)
			So(res.Dropped[validate.ReasonMissingID], ShouldEqual, 1)
		})
	})
}

func TestTransformIntervals(t *testing.T) {
	Convey("Given labels and colors", t, func() {
		records := []model.Record{
			{ID: "a", Start: t0, End: t0, RowLabel: "<b>A</b>", BarLabel: "go", Color: "#f00", Tooltip: "tip"},
			{ID: "b", Start: t0, End: t0.Add(90 * time.Minute), DisplayName: "Bee"},
		}
		res, err := engine.Transform(context.Background(), source.FromRecords(records, false),
			engine.WithDefaultColor("#123456"), engine.WithTimeFormat("15:04"))
		So(err, ShouldBeNil)

		Convey("Then a zero-length interval is still emitted with duration 0", func() {
			So(res.Intervals[0].DurationMinutes, ShouldEqual, 0)
			So(res.Intervals[0].Label, ShouldEqual, "go")
			So(res.Intervals[0].Color, ShouldEqual, "#f00")
			So(res.Intervals[0].Tooltip, ShouldEqual, "tip")
		})

		Convey("Then fallbacks apply to the second record", func() {
			So(res.Intervals[1].DurationMinutes, ShouldEqual, 90)
			So(res.Intervals[1].Label, ShouldEqual, "90m")
			So(res.Intervals[1].Color, ShouldEqual, "#123456")
			So(res.Intervals[1].StartText, ShouldEqual, "08:00")
			So(res.Rows[1].Name, ShouldEqual, "Bee")
		})

		Convey("Then row labels are stripped of markup", func() {
			So(res.Rows[0].Name, ShouldEqual, "<b>A</b>")
			So(res.Rows[0].Label, ShouldEqual, "A")
		})

		Convey("Then the data window is padded by 5%", func() {
			So(res.Layout.Window, ShouldNotBeNil)
			So(res.Layout.Window.Min.Equal(t0.Add(-270*time.Second)), ShouldBeTrue)
			So(res.Layout.Window.Max.Equal(t0.Add(90*time.Minute+270*time.Second)), ShouldBeTrue)
		})
	})
}

func TestTransformSort(t *testing.T) {
	Convey("Given sort keys [3, 1, 1]", t, func() {
		records := []model.Record{rec("x", "", 0, 1), rec("y", "", 0, 1), rec("z", "", 0, 1)}
		records[0].SortKey = 3
		records[1].SortKey = 1
		records[2].SortKey = "1"

		Convey("When sorting is enabled", func() {
			res, err := engine.Transform(context.Background(), source.FromRecords(records, true))
			So(err, ShouldBeNil)

			Convey("Then the key-1 records keep input order ahead of key 3", func() {
				So(names(res.Rows), ShouldResemble, []string{"Item y", "Item z", "Item x"})
			})

			Convey("Then the input slice is not reordered", func() {
				So(records[0].ID, ShouldEqual, "x")
			})
		})

		Convey("When sorting is disabled", func() {
			res, err := engine.Transform(context.Background(), source.FromRecords(records, false))
			So(err, ShouldBeNil)

			Convey("Then input order is kept", func() {
				So(names(res.Rows), ShouldResemble, []string{"Item x", "Item y", "Item z"})
			})
		})
	})
}

func TestTransformLayout(t *testing.T) {
	Convey("Given 40 ungrouped records", t, func() {
		records := make([]model.Record, 40)
		for i := range records {
			records[i] = rec(fmt.Sprint(i), "", i, i+1)
		}
		res, err := engine.Transform(context.Background(), source.FromRecords(records, false),
			engine.WithMinRowHeight(30), engine.WithMinBarWidth(3))
		So(err, ShouldBeNil)

		Convey("Then height is capped and a quarter of the rows is visible", func() {
			So(res.Layout.CanvasHeight, ShouldEqual, 800)
			So(res.Layout.RowScrollWindowEnd, ShouldEqual, 25)
			So(res.Layout.MinBarWidth, ShouldEqual, 3)
			So(res.Layout.RowCount, ShouldEqual, 40)
		})
	})

	Convey("Given a pinned window much wider than the data", t, func() {
		records := []model.Record{rec("a", "", 0, 60)}
		res, err := engine.Transform(context.Background(), source.FromRecords(records, false),
			engine.WithWindow(t0, t0.Add(24*time.Hour)))
		So(err, ShouldBeNil)

		Convey("Then it is used verbatim with an advisory", func() {
			So(res.Layout.Window.Min.Equal(t0), ShouldBeTrue)
			So(res.Layout.Window.Max.Equal(t0.Add(24*time.Hour)), ShouldBeTrue)
			So(res.Advisories, ShouldHaveLength, 1)
			So(res.Advisories[0].Kind, ShouldEqual, model.AdvisoryWindowTooWide)
		})
	})
}

func TestTransformProgress(t *testing.T) {
	Convey("Given 250 valid records", t, func() {
		records := make([]model.Record, 250)
		for i := range records {
			records[i] = rec(fmt.Sprint(i), "", 0, 1)
		}
		var seen []int
		_, err := engine.Transform(context.Background(), source.FromRecords(records, false),
			engine.WithProgress(func(v int) { seen = append(seen, v) }))
		So(err, ShouldBeNil)

		Convey("Then checkpoints are monotonic and end at 100", func() {
			So(seen, ShouldResemble, []int{10, 18, 26, 35, 40, 60, 80, 100})
		})
	})

	Convey("Given no records", t, func() {
		var seen []int
		res, err := engine.Transform(context.Background(), source.FromRecords(nil, false),
			engine.WithProgress(func(v int) { seen = append(seen, v) }))
		So(err, ShouldBeNil)

		Convey("Then progress is 0 and nothing is drawable", func() {
			So(seen, ShouldResemble, []int{0})
			So(res.Rows, ShouldBeEmpty)
			So(res.Layout.Window, ShouldBeNil)
		})
	})
}

func TestTransformerStep(t *testing.T) {
	Convey("Given 230 hierarchical records", t, func() {
		records := randomRecords(rand.New(rand.NewSource(7)), 230)
		src := source.FromRecords(records, true)

		Convey("When stepped one chunk at a time", func() {
			tr, err := engine.New(src)
			So(err, ShouldBeNil)

			steps := 0
			for {
				done, err := tr.Step(context.Background())
				So(err, ShouldBeNil)
				steps++
				if done {
					break
				}
				_, err = tr.Result()
				So(errors.Is(err, engine.ErrNotFinished), ShouldBeTrue)
			}
			stepped, err := tr.Result()
			So(err, ShouldBeNil)

			Convey("Then work was split into group, sort and series chunks", func() {
				So(steps, ShouldEqual, 3+1+3)
				So(tr.Progress(), ShouldEqual, 100)
				So(tr.Phase(), ShouldEqual, "done")
			})

			Convey("Then the result equals a one-shot transform", func() {
				oneShot, err := engine.Transform(context.Background(), src)
				So(err, ShouldBeNil)
				So(stepped.Rows, ShouldResemble, oneShot.Rows)
				So(stepped.Intervals, ShouldResemble, oneShot.Intervals)
				So(stepped.Layout, ShouldResemble, oneShot.Layout)
			})
		})
	})
}

func TestTransformProperties(t *testing.T) {
	Convey("Given random hierarchical record sets", t, func() {
		rng := rand.New(rand.NewSource(42))
		for round := 0; round < 20; round++ {
			records := randomRecords(rng, 1+rng.Intn(300))
			res, err := engine.Transform(context.Background(), source.FromRecords(records, round%2 == 0))
			So(err, ShouldBeNil)

			valid := map[string]bool{}
			present := map[string]bool{}
			for _, r := range records {
				present[r.ID] = true
				if r.Start != nil && r.End != nil {
					valid[r.ID] = true
				}
			}
			groups := map[string]bool{}
			for _, r := range records {
				if valid[r.ID] && r.ParentID != "" && present[r.ParentID] {
					groups[r.ParentID] = true
				}
			}

			So(len(res.Rows), ShouldEqual, len(valid)+len(groups))
			So(len(res.Intervals), ShouldEqual, len(valid))

			groupIndex := map[string]int{}
			for i, row := range res.Rows {
				So(row.Index, ShouldEqual, i)
				if row.IsGroup {
					groupIndex[row.RecordID] = i
				}
			}
			for _, iv := range res.Intervals {
				item, _ := res.Record(iv.RowIndex)
				r := item.(*model.Record)
				if gi, ok := groupIndex[r.ParentID]; ok {
					So(gi, ShouldBeLessThan, iv.RowIndex)
				}
			}
		}
	})
}

func TestTransformFailures(t *testing.T) {
	Convey("Given an accessor that fails on one item", t, func() {
		src := source.FromRecords([]model.Record{rec("a", "", 0, 1), rec("b", "", 0, 1)}, false)
		boom := errors.New("datasource offline")
		src.Color = func(item any) (any, error) {
			if item.(*model.Record).ID == "b" {
				return nil, boom
			}
			return nil, nil
		}
		res, err := engine.Transform(context.Background(), src)

		Convey("Then one render error is returned with no partial result", func() {
			So(res, ShouldBeNil)
			So(errors.Is(err, engine.ErrRender), ShouldBeTrue)
			So(errors.Is(err, boom), ShouldBeTrue)
			So(err.Error(), ShouldStartWith, "timeline render error: color accessor")
		})
	})

	Convey("Given an accessor that panics", t, func() {
		src := source.FromRecords([]model.Record{rec("a", "", 0, 1)}, false)
		src.RowLabel = func(any) (any, error) { panic("nil host item") }
		tr, err := engine.New(src)
		So(err, ShouldBeNil)

		var stepErr error
		for stepErr == nil {
			var done bool
			done, stepErr = tr.Step(context.Background())
			if done {
				break
			}
		}

		Convey("Then the panic is contained as a render error and the transformer stays failed", func() {
			So(errors.Is(stepErr, engine.ErrRender), ShouldBeTrue)
			So(stepErr.Error(), ShouldContainSubstring, "nil host item")
			_, again := tr.Step(context.Background())
			So(again, ShouldEqual, stepErr)
			_, resErr := tr.Result()
			So(resErr, ShouldEqual, stepErr)
		})
	})

	Convey("Given a cancelled context between chunks", t, func() {
		records := make([]model.Record, 300)
		for i := range records {
			records[i] = rec(fmt.Sprint(i), "", 0, 1)
		}
		tr, err := engine.New(source.FromRecords(records, false))
		So(err, ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		_, err = tr.Step(ctx)
		So(err, ShouldBeNil)
		cancel()
		_, err = tr.Step(ctx)

		Convey("Then the transform aborts and exposes nothing", func() {
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			res, resErr := tr.Result()
			So(res, ShouldBeNil)
			So(resErr, ShouldNotBeNil)
		})
	})

	Convey("Given a source without required accessors", t, func() {
		_, err := engine.New(source.Source{})

		Convey("Then construction fails", func() {
			So(errors.Is(err, source.ErrMissingAccessor), ShouldBeTrue)
		})
	})
}

func TestTransformIsRepeatable(t *testing.T) {
	Convey("Given the same input transformed twice", t, func() {
		records := randomRecords(rand.New(rand.NewSource(3)), 120)
		a, err := engine.Transform(context.Background(), source.FromRecords(records, true))
		So(err, ShouldBeNil)
		b, err := engine.Transform(context.Background(), source.FromRecords(records, true))
		So(err, ShouldBeNil)

		Convey("Then outputs are identical", func() {
			So(a.Rows, ShouldResemble, b.Rows)
			So(a.Intervals, ShouldResemble, b.Intervals)
			So(a.Layout, ShouldResemble, b.Layout)
		})
	})
}

// randomRecords builds records with parents (some dangling), sort keys and
// a sprinkling of missing timestamps.
func randomRecords(rng *rand.Rand, n int) []model.Record {
	out := make([]model.Record, n)
	for i := range out {
		start := rng.Intn(10_000)
		r := rec(fmt.Sprintf("r%d", i), "", start, start+rng.Intn(600))
		switch x := rng.Intn(10); {
		case x < 4 && i > 0:
			r.ParentID = fmt.Sprintf("r%d", rng.Intn(n))
		case x == 4:
			r.ParentID = fmt.Sprintf("ghost%d", rng.Intn(5))
		}
		if rng.Intn(15) == 0 {
			r.Start = nil
		}
		r.SortKey = rng.Intn(5)
		out[i] = r
	}
	return out
}
