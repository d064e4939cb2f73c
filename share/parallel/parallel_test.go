package parallel_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"wow_check/share/parallel"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSettle(t *testing.T) {
	Convey("Given functions where one fails", t, func() {
		errBoom := errors.New("boom")

		var done int32
		fns := []func(ctx context.Context) error{
			func(ctx context.Context) error { atomic.AddInt32(&done, 1); return nil },
			func(ctx context.Context) error { return errBoom },
			func(ctx context.Context) error {
				time.Sleep(10 * time.Millisecond)
				if ctx.Err() != nil {
					return ctx.Err()
				}
				atomic.AddInt32(&done, 1)
				return nil
			},
		}

		errs := parallel.Settle(context.Background(), 2, fns...)

		Convey("Every function settles and the failure stays local", func() {
			So(errs, ShouldHaveLength, 3)
			So(errs[0], ShouldBeNil)
			So(errs[1], ShouldEqual, errBoom)
			So(errs[2], ShouldBeNil)
			So(atomic.LoadInt32(&done), ShouldEqual, 2)
		})
	})

	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		errs := parallel.Settle(ctx, 1,
			func(ctx context.Context) error { return nil },
			func(ctx context.Context) error { return nil },
		)

		So(errs, ShouldHaveLength, 2)
		for _, err := range errs {
			if err != nil {
				So(err, ShouldEqual, context.Canceled)
			}
		}
	})

	Convey("Given no functions", t, func() {
		So(parallel.Settle(context.Background(), 4), ShouldBeEmpty)
	})
}

func TestPool(t *testing.T) {
	Convey("Given a pool", t, func() {
		p := parallel.New(2)

		Convey("Successful work returns no error", func() {
			var n int32
			for i := 0; i < 10; i++ {
				p.Add(func(ctx context.Context) error {
					atomic.AddInt32(&n, 1)
					return nil
				})
			}
			So(p.Wait(), ShouldBeNil)
			So(atomic.LoadInt32(&n), ShouldEqual, 10)
		})

		Convey("The first error cancels the rest", func() {
			errBoom := errors.New("boom")
			cancelled := make(chan struct{})

			p.Add(func(ctx context.Context) error {
				select {
				case <-ctx.Done():
					close(cancelled)
				case <-time.After(5 * time.Second):
				}
				return nil
			})
			p.Add(func(ctx context.Context) error {
				return errBoom
			})

			So(p.Wait(), ShouldEqual, errBoom)
			_, open := <-cancelled
			So(open, ShouldBeFalse)
		})
	})
}
