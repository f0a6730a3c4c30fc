package service_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	service "github.com/okian/gantt/internal/app"
	"github.com/okian/gantt/internal/domain/model"
	"github.com/okian/gantt/internal/domain/types"
	"github.com/okian/gantt/internal/engine"
	"github.com/okian/gantt/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

func sampleRequest() types.TimelineRequest {
	return types.TimelineRequest{
		Records: []model.Record{
			{ID: "p", DisplayName: "Project", Start: "2024-01-01T00:00:00Z", End: "2024-01-03T00:00:00Z"},
			{ID: "a", ParentID: "p", Start: "2024-01-01T00:00:00Z", End: "2024-01-01T02:00:00Z"},
			{ID: "b", ParentID: "p", Start: "2024-01-02T00:00:00Z", End: "2024-01-01T00:00:00Z"},
		},
	}
}

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New()

		Convey("Then it reports its defaults before starting", func() {
			stats := svc.GetStats()
			So(stats["started"], ShouldBeFalse)
			So(stats["queueSize"], ShouldEqual, 1000)
			So(stats["idempotencySize"], ShouldEqual, 10_000)
			So(stats["maxJobs"], ShouldEqual, 5000)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		svc := service.New(
			service.WithWorkerCount(8),
			service.WithQueueSize(50),
			service.WithIdempotencySize(25),
			service.WithMaxJobs(10),
			service.WithLogger(logger.Nop()),
		)

		Convey("Then the options are applied", func() {
			stats := svc.GetStats()
			So(stats["workerCount"], ShouldEqual, 8)
			So(stats["queueSize"], ShouldEqual, 50)
			So(stats["idempotencySize"], ShouldEqual, 25)
			So(stats["maxJobs"], ShouldEqual, 10)
		})
	})
}

func TestService_Render(t *testing.T) {
	Convey("Given a service that was never started", t, func() {
		svc := service.New(
			service.WithDefaultColor("#abcdef"),
			service.WithTimeFormat("2006-01-02"),
			service.WithLocation(time.UTC),
		)
		ctx := context.Background()

		Convey("When rendering a small hierarchy", func() {
			res, err := svc.Render(ctx, sampleRequest())

			Convey("Then rows, drops and configured defaults come through", func() {
				So(err, ShouldBeNil)
				So(len(res.Rows), ShouldEqual, 3)
				So(res.Rows[0].IsGroup, ShouldBeFalse)
				So(res.Rows[1].Name, ShouldEqual, "Project")
				So(res.Rows[1].IsGroup, ShouldBeTrue)
				So(res.Rows[2].RecordID, ShouldEqual, "a")
				So(res.Dropped["inverted"], ShouldEqual, 1)
				So(res.Intervals[0].Color, ShouldEqual, "#abcdef")
				So(res.Intervals[0].StartText, ShouldEqual, "2024-01-01")
			})
		})

		Convey("When the request carries a row height", func() {
			req := sampleRequest()
			req.MinRowHeight = 100
			res, err := svc.Render(ctx, req)

			Convey("Then it overrides the service default", func() {
				So(err, ShouldBeNil)
				So(res.Layout.MinRowHeight, ShouldEqual, 100)
				So(res.Layout.CanvasHeight, ShouldEqual, 400)
			})
		})

		Convey("When the request pins a view window", func() {
			req := sampleRequest()
			req.ViewStart = "2024-01-01T00:00:00Z"
			req.ViewEnd = "2024-01-10T00:00:00Z"
			res, err := svc.Render(ctx, req)

			Convey("Then the window is used as given", func() {
				So(err, ShouldBeNil)
				So(res.Layout.Window.Min.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
				So(res.Layout.Window.Max.Equal(time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)), ShouldBeTrue)
			})
		})

		Convey("When a view bound is unparseable", func() {
			req := sampleRequest()
			req.ViewStart = "soon"
			req.ViewEnd = "later"
			_, err := svc.Render(ctx, req)

			Convey("Then the request is rejected", func() {
				So(errors.Is(err, types.ErrInvalidWindow), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			res, err := svc.Render(cctx, sampleRequest())

			Convey("Then nothing is returned", func() {
				So(res, ShouldBeNil)
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
				So(errors.Is(err, engine.ErrRender), ShouldBeFalse)
			})
		})

		Convey("When jobs are used before Start", func() {
			_, serr := svc.Submit(ctx, sampleRequest(), "")
			_, jerr := svc.Job(ctx, "x")

			Convey("Then ErrNotStarted is returned", func() {
				So(errors.Is(serr, service.ErrNotStarted), ShouldBeTrue)
				So(errors.Is(jerr, service.ErrNotStarted), ShouldBeTrue)
			})
		})
	})
}

func TestService_StartStop(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithWorkerCount(1))
		ctx := context.Background()

		Convey("When starting it twice", func() {
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			Convey("Then it is marked as started", func() {
				So(svc.GetStats()["started"], ShouldBeTrue)
				So(svc.GetStats()["queueLength"], ShouldEqual, 0)
			})

			Convey("And when stopping it twice", func() {
				svc.Stop()
				svc.Stop()

				Convey("Then it is marked as stopped", func() {
					So(svc.GetStats()["started"], ShouldBeFalse)
				})
			})
		})
	})
}
