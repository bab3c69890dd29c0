package playsim_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/okian/typeboard/internal/adapters/http/api"
	"github.com/okian/typeboard/internal/adapters/repository"
	service "github.com/okian/typeboard/internal/app"
	"github.com/okian/typeboard/internal/auth"
	"github.com/okian/typeboard/internal/playsim"
	. "github.com/smartystreets/goconvey/convey"
)

func newServer(t *testing.T) *httptest.Server {
	store := repository.NewMemoryStore()
	svc := service.New(store, auth.NewTokens("0123456789abcdef-test-secret", time.Hour, nil),
		service.WithBcryptCost(bcrypt.MinCost))
	mux := http.NewServeMux()
	srv := api.NewServer(svc)
	srv.Register(context.Background(), mux)
	ts := httptest.NewServer(srv.Handler(mux))
	t.Cleanup(ts.Close)
	return ts
}

func TestRunAgainstService(t *testing.T) {
	Convey("Given a running service", t, func() {
		ts := newServer(t)

		Convey("When players fire duplicate bursts", func() {
			stats, err := playsim.Run(context.Background(), &playsim.Config{
				BaseURL: ts.URL,
				Players: 12,
				Burst:   4,
				Workers: 8,
				Timeout: 10 * time.Second,
				Seed:    7,
			})

			Convey("Then exactly one game per player is credited", func() {
				So(err, ShouldBeNil)
				So(stats.PlayersRegistered, ShouldEqual, 12)
				So(stats.GamesSubmitted, ShouldEqual, 48)
				So(stats.GamesAccepted, ShouldEqual, 12)
				So(stats.GamesDuplicate, ShouldEqual, 36)
				So(stats.LeaderboardEntries, ShouldEqual, 10)
			})
		})
	})

	Convey("Given nothing listening", t, func() {
		_, err := playsim.Run(context.Background(), &playsim.Config{
			BaseURL: "http://127.0.0.1:1",
			Players: 1,
			Burst:   1,
			Workers: 1,
			Timeout: time.Second,
		})
		So(err, ShouldNotBeNil)
	})
}
