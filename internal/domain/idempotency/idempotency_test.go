package idempotency_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/okian/gantt/internal/domain/idempotency"
	. "github.com/smartystreets/goconvey/convey"
)

func TestClaim(t *testing.T) {
	Convey("Given an empty index", t, func() {
		ctx := context.Background()
		ix := idempotency.NewInMemoryIndex()

		Convey("When a key is claimed twice", func() {
			first, ok1 := ix.Claim(ctx, "k", "job-1")
			second, ok2 := ix.Claim(ctx, "k", "job-2")

			Convey("Then the second claim returns the original job", func() {
				So(ok1, ShouldBeTrue)
				So(first, ShouldEqual, "job-1")
				So(ok2, ShouldBeFalse)
				So(second, ShouldEqual, "job-1")
				So(ix.Size(), ShouldEqual, 1)
			})
		})

		Convey("When a claimed key is released", func() {
			ix.Claim(ctx, "k", "job-1")
			ix.Release(ctx, "k")
			ix.Release(ctx, "missing")
			got, ok := ix.Claim(ctx, "k", "job-2")

			Convey("Then it can be claimed again", func() {
				So(ok, ShouldBeTrue)
				So(got, ShouldEqual, "job-2")
				So(ix.Size(), ShouldEqual, 1)
			})
		})
	})
}

func TestEviction(t *testing.T) {
	Convey("Given an index bounded to two keys", t, func() {
		ctx := context.Background()
		ix := idempotency.NewInMemoryIndex(idempotency.WithMaxSize(2))
		ix.Claim(ctx, "a", "1")
		ix.Claim(ctx, "b", "2")
		ix.Claim(ctx, "c", "3")

		Convey("Then the oldest key is evicted first", func() {
			So(ix.Size(), ShouldEqual, 2)
			_, aFresh := ix.Claim(ctx, "a", "4")
			So(aFresh, ShouldBeTrue)
			got, cFresh := ix.Claim(ctx, "c", "5")
			So(cFresh, ShouldBeFalse)
			So(got, ShouldEqual, "3")
		})
	})

	Convey("Given an unbounded index", t, func() {
		ctx := context.Background()
		ix := idempotency.NewInMemoryIndex(idempotency.WithMaxSize(0))
		for i := 0; i < 100; i++ {
			ix.Claim(ctx, fmt.Sprint(i), "j")
		}

		Convey("Then nothing is evicted", func() {
			So(ix.Size(), ShouldEqual, 100)
		})
	})
}

func TestConcurrentClaims(t *testing.T) {
	Convey("Given many goroutines claiming one key", t, func() {
		ctx := context.Background()
		ix := idempotency.NewInMemoryIndex()
		var wg sync.WaitGroup
		var mu sync.Mutex
		winners := 0
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if _, ok := ix.Claim(ctx, "shared", fmt.Sprint(i)); ok {
					mu.Lock()
					winners++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		Convey("Then exactly one claim wins", func() {
			So(winners, ShouldEqual, 1)
		})
	})
}
