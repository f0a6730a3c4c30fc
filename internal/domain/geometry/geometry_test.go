package geometry_test

import (
	"testing"
	"time"

	"github.com/okian/gantt/internal/domain/geometry"
	"github.com/okian/gantt/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// fixedMapper maps one millisecond to scale pixels and centers row r at 20+40r.
type fixedMapper struct {
	origin time.Time
	scale  float64
}

func (m fixedMapper) Point(t time.Time, row int) geometry.Point {
	return geometry.Point{
		X: float64(t.Sub(m.origin).Milliseconds()) * m.scale,
		Y: 20 + 40*float64(row),
	}
}

func (fixedMapper) RowHeight() float64 { return 40 }

func TestClip(t *testing.T) {
	Convey("Given a plot rectangle", t, func() {
		plot := geometry.Rect{X: 0, Y: 0, Width: 100, Height: 100}

		Convey("When a rect overhangs the right edge", func() {
			r, ok := geometry.Clip(geometry.Rect{X: 90, Y: 10, Width: 20, Height: 10}, plot)

			Convey("Then it is trimmed", func() {
				So(ok, ShouldBeTrue)
				So(r, ShouldResemble, geometry.Rect{X: 90, Y: 10, Width: 10, Height: 10})
			})
		})

		Convey("When a rect lies fully outside", func() {
			_, ok := geometry.Clip(geometry.Rect{X: 200, Y: 10, Width: 20, Height: 10}, plot)

			Convey("Then it is not drawn", func() {
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When a rect only touches the edge", func() {
			_, ok := geometry.Clip(geometry.Rect{X: 100, Y: 10, Width: 20, Height: 10}, plot)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestPlace(t *testing.T) {
	origin := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	plot := geometry.Rect{X: 0, Y: 0, Width: 1000, Height: 400}

	Convey("Given an interval only 0.4px wide", t, func() {
		m := fixedMapper{origin: origin, scale: 0.0004}
		iv := model.Interval{Start: origin, End: origin.Add(time.Second), Label: "0m", Color: "#abc"}
		bar := geometry.Place(iv, m, plot, 2)

		Convey("Then the bar is widened to the 2px minimum", func() {
			So(bar.Drawn, ShouldBeTrue)
			So(bar.Rect.Width, ShouldEqual, 2)
			So(bar.Rect.Height, ShouldEqual, 24)
			So(bar.Rect.Y, ShouldEqual, 8)
			So(bar.Fill, ShouldEqual, "#abc")
		})

		Convey("Then the label is placed above the bar in dark text", func() {
			So(bar.Label.Outside, ShouldBeTrue)
			So(bar.Label.Fill, ShouldEqual, "#333")
			So(bar.Label.X, ShouldEqual, 1)
			So(bar.Label.Y, ShouldEqual, 20-12-5)
		})
	})

	Convey("Given an interval wide enough for its label", t, func() {
		m := fixedMapper{origin: origin, scale: 0.001}
		iv := model.Interval{RowIndex: 1, Start: origin, End: origin.Add(100 * time.Second), Label: "120m"}
		bar := geometry.Place(iv, m, plot, 2)

		Convey("Then the label is centered inside in light text", func() {
			So(bar.Rect.Width, ShouldEqual, 100)
			So(bar.Label.Outside, ShouldBeFalse)
			So(bar.Label.Fill, ShouldEqual, "#fff")
			So(bar.Label.X, ShouldEqual, 50)
			So(bar.Label.Y, ShouldEqual, 60)
			So(bar.Label.FontSize, ShouldEqual, 10)
			So(bar.Label.Bold, ShouldBeTrue)
		})
	})

	Convey("Given an interval outside the plot", t, func() {
		m := fixedMapper{origin: origin, scale: 0.001}
		iv := model.Interval{Start: origin.Add(2000 * time.Second), End: origin.Add(2100 * time.Second), Label: "x"}
		bar := geometry.Place(iv, m, plot, 0)

		Convey("Then it is not drawn this frame", func() {
			So(bar.Drawn, ShouldBeFalse)
		})
	})
}

func TestLabelEstimate(t *testing.T) {
	Convey("Given labels", t, func() {
		Convey("Then width is 6px per character", func() {
			So(geometry.EstimateLabelWidth("45m"), ShouldEqual, 18)
			So(geometry.LabelOutside(27.9, "45m"), ShouldBeTrue)
			So(geometry.LabelOutside(28, "45m"), ShouldBeFalse)
		})

		Convey("Then composed and decomposed accents count the same", func() {
			So(geometry.CharCount("café"), ShouldEqual, 4)
			So(geometry.CharCount("cafe\u0301"), ShouldEqual, 4)
		})
	})
}
