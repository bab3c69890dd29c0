package jobs_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/typeboard/internal/domain/types"
	"github.com/okian/typeboard/internal/jobs"
	. "github.com/smartystreets/goconvey/convey"
)

type countingStats struct {
	calls atomic.Int64
	err   error
	ran   chan struct{}
}

func newCountingStats(err error) *countingStats {
	return &countingStats{err: err, ran: make(chan struct{}, 16)}
}

func (c *countingStats) Stats(context.Context) (types.Stats, error) {
	c.calls.Add(1)
	select {
	case c.ran <- struct{}{}:
	default:
	}
	return types.Stats{Users: 3, ActiveUsers: 2, Texts: 15}, c.err
}

func TestRefresh(t *testing.T) {
	Convey("Given a scheduler", t, func() {
		stats := newCountingStats(nil)
		s := jobs.New(stats)

		Convey("Refresh asks for stats once", func() {
			s.Refresh(context.Background())
			So(stats.calls.Load(), ShouldEqual, 1)
		})

		Convey("Refresh skips work for a cancelled context", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			s.Refresh(ctx)
			So(stats.calls.Load(), ShouldEqual, 0)
		})
	})

	Convey("Given a failing stats source", t, func() {
		stats := newCountingStats(errors.New("db down"))
		s := jobs.New(stats)

		Convey("Refresh does not panic", func() {
			So(func() { s.Refresh(context.Background()) }, ShouldNotPanic)
			So(stats.calls.Load(), ShouldEqual, 1)
		})
	})
}

func TestStartAndShutdown(t *testing.T) {
	Convey("Given a started scheduler", t, func() {
		stats := newCountingStats(nil)
		s := jobs.New(stats, jobs.WithInterval(time.Hour))
		So(s.Start(context.Background()), ShouldBeNil)

		Convey("Then the first refresh runs right away", func() {
			select {
			case <-stats.ran:
			case <-time.After(5 * time.Second):
			}
			So(stats.calls.Load(), ShouldBeGreaterThanOrEqualTo, 1)
			So(s.Shutdown(), ShouldBeNil)
		})
	})

	Convey("Shutdown before Start is a no-op", t, func() {
		So(jobs.New(newCountingStats(nil)).Shutdown(), ShouldBeNil)
	})
}
