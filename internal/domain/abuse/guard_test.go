package abuse_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/typeboard/internal/domain/abuse"
	"github.com/okian/typeboard/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeHistory struct {
	users   map[string]model.User
	entries []model.ActionLogEntry
	err     error
}

func (f *fakeHistory) FindUserByID(_ context.Context, id string) (model.User, bool, error) {
	if f.err != nil {
		return model.User{}, false, f.err
	}
	u, ok := f.users[id]
	return u, ok, nil
}

func (f *fakeHistory) CountActionLogSince(_ context.Context, userID string, since time.Time) (int64, error) {
	var n int64
	for _, e := range f.entries {
		if e.UserID == userID && !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (f *fakeHistory) FindLatestActionLog(_ context.Context, userID, prefix string, since time.Time) (model.ActionLogEntry, bool, error) {
	var (
		latest model.ActionLogEntry
		found  bool
	)
	for _, e := range f.entries {
		if e.UserID != userID || !strings.HasPrefix(e.Action, prefix) || e.CreatedAt.Before(since) {
			continue
		}
		if !found || e.CreatedAt.After(latest.CreatedAt) {
			latest, found = e, true
		}
	}
	return latest, found, nil
}

func (f *fakeHistory) log(userID, action string, at time.Time) {
	f.entries = append(f.entries, model.ActionLogEntry{UserID: userID, Action: action, CreatedAt: at})
}

func TestGuard(t *testing.T) {
	Convey("Given a guard on a fake clock", t, func() {
		ctx := context.Background()
		clock := clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
		guard := abuse.New(abuse.WithClock(clock))
		h := &fakeHistory{users: map[string]model.User{
			"u1":  {ID: "u1", IsActive: true},
			"off": {ID: "off", IsActive: false},
		}}

		Convey("When the user is unknown", func() {
			err := guard.CheckGameplay(ctx, h, "ghost")
			So(errors.Is(err, abuse.ErrUserNotFound), ShouldBeTrue)
			So(errors.Is(guard.CheckGeneric(ctx, h, "ghost"), abuse.ErrUserNotFound), ShouldBeTrue)
		})

		Convey("When the user is inactive", func() {
			err := guard.CheckGeneric(ctx, h, "off")
			So(errors.Is(err, abuse.ErrUserInactive), ShouldBeTrue)
			So(errors.Is(err, abuse.ErrUserNotFound), ShouldBeTrue)
		})

		Convey("When the user has 9 actions in the last minute", func() {
			for i := 0; i < 9; i++ {
				h.log("u1", "COMPLETE_ACTION", clock.Now().Add(-time.Duration(i)*5*time.Second))
			}

			Convey("Then the next action is accepted", func() {
				So(guard.CheckGeneric(ctx, h, "u1"), ShouldBeNil)
			})
		})

		Convey("When the user has exactly 10 actions in the last minute", func() {
			for i := 0; i < 10; i++ {
				h.log("u1", "COMPLETE_ACTION", clock.Now().Add(-time.Duration(i)*5*time.Second))
			}

			Convey("Then both paths are rate limited", func() {
				So(errors.Is(guard.CheckGeneric(ctx, h, "u1"), abuse.ErrRateLimited), ShouldBeTrue)
				So(errors.Is(guard.CheckGameplay(ctx, h, "u1"), abuse.ErrRateLimited), ShouldBeTrue)
			})

			Convey("Then an entry exactly one window old still counts", func() {
				clock.Advance(15 * time.Second)
				So(errors.Is(guard.CheckGeneric(ctx, h, "u1"), abuse.ErrRateLimited), ShouldBeTrue)
			})

			Convey("Then once the oldest entry leaves the window the user is admitted", func() {
				clock.Advance(15*time.Second + time.Millisecond)
				So(guard.CheckGeneric(ctx, h, "u1"), ShouldBeNil)
			})
		})

		Convey("When another user is busy", func() {
			for i := 0; i < 20; i++ {
				h.log("u2", "COMPLETE_ACTION", clock.Now())
			}
			So(guard.CheckGeneric(ctx, h, "u1"), ShouldBeNil)
		})

		Convey("When a game was logged 2 seconds ago", func() {
			h.log("u1", "TYPING_GAME:45WPM:92%:9words", clock.Now().Add(-2*time.Second))

			Convey("Then another game is a duplicate", func() {
				So(errors.Is(guard.CheckGameplay(ctx, h, "u1"), abuse.ErrDuplicateSubmission), ShouldBeTrue)
			})

			Convey("Then a generic update is still allowed", func() {
				So(guard.CheckGeneric(ctx, h, "u1"), ShouldBeNil)
			})

			Convey("Then after the 5 second window the game is accepted", func() {
				clock.Advance(3*time.Second + time.Millisecond)
				So(guard.CheckGameplay(ctx, h, "u1"), ShouldBeNil)
			})
		})

		Convey("When only a generic action is recent", func() {
			h.log("u1", "COMPLETE_ACTION", clock.Now())
			So(guard.CheckGameplay(ctx, h, "u1"), ShouldBeNil)
		})

		Convey("When the store fails", func() {
			boom := errors.New("connection reset")
			h.err = boom
			err := guard.CheckGameplay(ctx, h, "u1")
			So(errors.Is(err, boom), ShouldBeTrue)
			So(errors.Is(err, abuse.ErrUserNotFound), ShouldBeFalse)
		})
	})

	Convey("Given a custom policy", t, func() {
		clock := clockwork.NewFakeClock()
		guard := abuse.New(
			abuse.WithClock(clock),
			abuse.WithRateLimit(2, 10*time.Second),
			abuse.WithDuplicateWindow(time.Second),
		)
		h := &fakeHistory{users: map[string]model.User{"u1": {ID: "u1", IsActive: true}}}
		h.log("u1", "A", clock.Now())
		So(guard.CheckGeneric(context.Background(), h, "u1"), ShouldBeNil)
		h.log("u1", "B", clock.Now())
		So(errors.Is(guard.CheckGeneric(context.Background(), h, "u1"), abuse.ErrRateLimited), ShouldBeTrue)
	})
}
