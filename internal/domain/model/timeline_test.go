package model_test

import (
	"testing"
	"time"

	"github.com/okian/gantt/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestIntervalValue(t *testing.T) {
	Convey("Given an interval", t, func() {
		start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
		iv := model.Interval{
			RowIndex:        3,
			Start:           start,
			End:             start.Add(90 * time.Minute),
			DurationMinutes: 90,
		}

		Convey("Then Value yields the renderer tuple in epoch milliseconds", func() {
			v := iv.Value()
			So(v[0], ShouldEqual, 3)
			So(v[1], ShouldEqual, float64(start.UnixMilli()))
			So(v[2]-v[1], ShouldEqual, 90*60*1000)
			So(v[3], ShouldEqual, 90)
		})
	})
}

func TestWindowSpan(t *testing.T) {
	Convey("Given a window", t, func() {
		w := model.Window{Min: time.Unix(0, 0), Max: time.Unix(3600, 0)}

		Convey("Then Span is the distance between bounds", func() {
			So(w.Span(), ShouldEqual, time.Hour)
		})
	})
}
