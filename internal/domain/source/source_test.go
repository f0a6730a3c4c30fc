package source_test

import (
	"errors"
	"testing"

	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/source"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFromRecords(t *testing.T) {
	Convey("Given wire records", t, func() {
		records := []model.Record{
			{ID: "a", Start: "2024-01-01", End: "2024-01-02", SortKey: 3, DisplayName: "Alpha"},
			{ID: "b", ParentID: "a", Start: "2024-01-01", End: "2024-01-02"},
		}

		Convey("When building an unsorted source", func() {
			src := source.FromRecords(records, false)

			Convey("Then required accessors exist and Sort is nil", func() {
				So(src.Validate(), ShouldBeNil)
				So(src.Sort, ShouldBeNil)
				So(src.Len(), ShouldEqual, 2)
			})

			Convey("Then empty optional attributes read as absent", func() {
				v, err := src.Parent(src.Items[0])
				So(err, ShouldBeNil)
				So(v, ShouldBeNil)

				name, err := source.Text(src.DisplayName, src.Items[0])
				So(err, ShouldBeNil)
				So(name, ShouldEqual, "Alpha")
			})
		})

		Convey("When building a sorted source", func() {
			src := source.FromRecords(records, true)

			Convey("Then Sort reads the sort key", func() {
				v, err := src.Sort(src.Items[0])
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 3)
			})
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("Given a source without an end accessor", t, func() {
		src := source.Source{
			ID:    func(any) (any, error) { return "x", nil },
			Start: func(any) (any, error) { return nil, nil },
		}

		Convey("Then Validate names the missing accessor", func() {
			err := src.Validate()
			So(errors.Is(err, source.ErrMissingAccessor), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "end")
		})
	})
}

func TestKey(t *testing.T) {
	Convey("Given identifier values", t, func() {
		Convey("Then nil and blank values are absent", func() {
			_, ok := source.Key(nil)
			So(ok, ShouldBeFalse)
			_, ok = source.Key("  ")
			So(ok, ShouldBeFalse)
		})

		Convey("Then numbers are stringified", func() {
			k, ok := source.Key(42)
			So(ok, ShouldBeTrue)
			So(k, ShouldEqual, "42")
		})
	})
}

func TestTextPropagatesErrors(t *testing.T) {
	Convey("Given a failing accessor", t, func() {
		boom := errors.New("boom")
		_, err := source.Text(func(any) (any, error) { return nil, boom }, struct{}{})

		Convey("Then the error is returned unchanged", func() {
			So(err, ShouldEqual, boom)
		})
	})
}
