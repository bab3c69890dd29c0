package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/typeboard/internal/adapters/http/api"
	"github.com/okian/typeboard/internal/adapters/repository"
	service "github.com/okian/typeboard/internal/app"
	"github.com/okian/typeboard/internal/auth"
	"github.com/okian/typeboard/internal/domain/model"
	"github.com/okian/typeboard/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

var epoch = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	clock   *clockwork.FakeClock
	store   *repository.MemoryStore
	svc     *service.Service
	tokens  *auth.Tokens
	handler http.Handler
}

func newHarness(opts ...api.Option) *harness {
	clock := clockwork.NewFakeClockAt(epoch)
	store := repository.NewMemoryStore(repository.WithClock(clock))
	tokens := auth.NewTokens("0123456789abcdef-test-secret", time.Hour, clock)
	svc := service.New(store, tokens, service.WithClock(clock), service.WithBcryptCost(bcrypt.MinCost))

	mux := http.NewServeMux()
	srv := api.NewServer(svc, opts...)
	srv.Register(context.Background(), mux)
	return &harness{clock: clock, store: store, svc: svc, tokens: tokens, handler: srv.Handler(mux)}
}

func (h *harness) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) register(name string) string {
	rec := h.do(http.MethodPost, "/api/auth/register", "",
		`{"username":"`+name+`","email":"`+name+`@example.com","password":"hunter22"}`)
	So(rec.Code, ShouldEqual, http.StatusCreated)
	var body struct {
		Token string `json:"token"`
	}
	So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
	return body.Token
}

func decode(rec *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	So(json.Unmarshal(rec.Body.Bytes(), &out), ShouldBeNil)
	return out
}

const game45 = `{"wpm":45,"accuracy":92,"wordsTyped":9,"charactersCorrect":180,"timeElapsed":60}`

func TestAuthEndpoints(t *testing.T) {
	Convey("Given a fresh server", t, func() {
		h := newHarness()

		Convey("When a user registers", func() {
			token := h.register("ada")
			So(token, ShouldNotBeEmpty)

			Convey("Then the same email cannot register twice", func() {
				rec := h.do(http.MethodPost, "/api/auth/register", "",
					`{"username":"ada2","email":"ada@example.com","password":"hunter22"}`)
				So(rec.Code, ShouldEqual, http.StatusConflict)
				So(decode(rec)["code"], ShouldEqual, "user_exists")
			})

			Convey("Then login succeeds with the right password", func() {
				rec := h.do(http.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"hunter22"}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				body := decode(rec)
				So(body["message"], ShouldEqual, "Login successful")
				So(body["token"], ShouldNotBeEmpty)
			})

			Convey("Then login fails with a wrong password", func() {
				rec := h.do(http.MethodPost, "/api/auth/login", "", `{"email":"ada@example.com","password":"nope-nope"}`)
				So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			})
		})

		Convey("When the registration is invalid", func() {
			rec := h.do(http.MethodPost, "/api/auth/register", "", `{"username":"a b","email":"x@example.com","password":"hunter22"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["code"], ShouldEqual, "invalid_registration")
		})

		Convey("When the body is not JSON", func() {
			rec := h.do(http.MethodPost, "/api/auth/login", "", `{`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the method is wrong", func() {
			rec := h.do(http.MethodGet, "/api/auth/login", "", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRequireAuth(t *testing.T) {
	Convey("Given a protected endpoint", t, func() {
		h := newHarness()

		Convey("A missing token is a 401", func() {
			rec := h.do(http.MethodGet, "/api/score/me", "", "")
			So(rec.Code, ShouldEqual, http.StatusUnauthorized)
			So(decode(rec)["code"], ShouldEqual, "token_required")
		})

		Convey("A forged token is a 403", func() {
			rec := h.do(http.MethodGet, "/api/score/me", "not-a-token", "")
			So(rec.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("An expired token is a 403", func() {
			token := h.register("ada")
			h.clock.Advance(2 * time.Hour)
			rec := h.do(http.MethodGet, "/api/score/me", token, "")
			So(rec.Code, ShouldEqual, http.StatusForbidden)
		})

		Convey("A valid token reaches the handler", func() {
			token := h.register("ada")
			rec := h.do(http.MethodGet, "/api/score/me", token, "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			user := decode(rec)["user"].(map[string]any)
			So(user["username"], ShouldEqual, "ada")
			So(user["score"], ShouldEqual, 0)
			So(user["createdAt"], ShouldNotBeEmpty)
		})
	})
}

func TestTypingGameEndpoint(t *testing.T) {
	Convey("Given a signed in player", t, func() {
		h := newHarness()
		token := h.register("ada")

		Convey("When a 45 WPM game is submitted", func() {
			rec := h.do(http.MethodPost, "/api/score/typing-game", token, game45)
			So(rec.Code, ShouldEqual, http.StatusOK)
			body := decode(rec)
			So(body["pointsEarned"], ShouldEqual, 4)
			So(body["user"].(map[string]any)["score"], ShouldEqual, 4)
			So(body["gameStats"].(map[string]any)["wpm"], ShouldEqual, 45)

			Convey("Then an immediate resubmission is a duplicate", func() {
				rec := h.do(http.MethodPost, "/api/score/typing-game", token, game45)
				So(rec.Code, ShouldEqual, http.StatusConflict)
				So(decode(rec)["code"], ShouldEqual, "duplicate_submission")
			})

			Convey("Then the history lists the game", func() {
				rec := h.do(http.MethodGet, "/api/score/typing-game/history", token, "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				history := decode(rec)["history"].([]any)
				So(history, ShouldHaveLength, 1)
				So(history[0].(map[string]any)["wordsTyped"], ShouldEqual, 9)
			})

			Convey("Then the public leaderboard shows the player", func() {
				rec := h.do(http.MethodGet, "/api/score/leaderboard", "", "")
				So(rec.Code, ShouldEqual, http.StatusOK)
				board := decode(rec)["leaderboard"].([]any)
				So(board, ShouldHaveLength, 1)
				So(board[0].(map[string]any)["rank"], ShouldEqual, 1)
				So(board[0].(map[string]any)["score"], ShouldEqual, 4)
			})
		})

		Convey("When a field is out of range", func() {
			rec := h.do(http.MethodPost, "/api/score/typing-game", token,
				`{"wpm":45,"accuracy":101,"wordsTyped":9,"charactersCorrect":180,"timeElapsed":60}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			body := decode(rec)
			So(body["code"], ShouldEqual, "out_of_range")
			So(body["field"], ShouldEqual, "accuracy")
			So(body["min"], ShouldEqual, 0)
			So(body["max"], ShouldEqual, 100)
		})

		Convey("When a field is missing", func() {
			rec := h.do(http.MethodPost, "/api/score/typing-game", token, `{"wpm":45}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["code"], ShouldEqual, "invalid_payload")
		})

		Convey("When a field has the wrong type", func() {
			rec := h.do(http.MethodPost, "/api/score/typing-game", token,
				`{"wpm":"fast","accuracy":92,"wordsTyped":9,"charactersCorrect":180,"timeElapsed":60}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestScoreUpdateEndpoint(t *testing.T) {
	Convey("Given a signed in player", t, func() {
		h := newHarness()
		token := h.register("ada")

		Convey("Ten updates in a minute are accepted and the eleventh is limited", func() {
			for i := 0; i < 10; i++ {
				rec := h.do(http.MethodPost, "/api/score/update", token, `{"action":"LEVEL_UP"}`)
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(decode(rec)["message"], ShouldEqual, "Score updated successfully")
				h.clock.Advance(time.Second)
			}
			rec := h.do(http.MethodPost, "/api/score/update", token, `{}`)
			So(rec.Code, ShouldEqual, http.StatusTooManyRequests)
			So(decode(rec)["code"], ShouldEqual, "rate_limited")
		})

		Convey("A forged game label is rejected", func() {
			rec := h.do(http.MethodPost, "/api/score/update", token, `{"action":"TYPING_GAME:300WPM:100%:1000words"}`)
			So(rec.Code, ShouldEqual, http.StatusBadRequest)
			So(decode(rec)["code"], ShouldEqual, "invalid_action")
		})

		Convey("A deactivated account gets a 404", func() {
			u, err := h.store.CreateUser(context.Background(), model.User{
				Username: "gone", Email: "gone@example.com", PasswordHash: "x", IsActive: false,
			})
			So(err, ShouldBeNil)
			stale, err := h.tokens.Generate(auth.Identity{UserID: u.ID, Email: u.Email, Username: u.Username})
			So(err, ShouldBeNil)

			rec := h.do(http.MethodPost, "/api/score/update", stale, `{}`)
			So(rec.Code, ShouldEqual, http.StatusNotFound)
			So(decode(rec)["code"], ShouldEqual, "user_not_found")
		})
	})
}

func TestPublicEndpoints(t *testing.T) {
	Convey("Given a server with seeded texts", t, func() {
		h := newHarness(api.WithReadiness(func(context.Context) error { return nil }))

		Convey("The text endpoint 404s before seeding", func() {
			rec := h.do(http.MethodGet, "/api/typing/text", "", "")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("The text endpoint returns a text after seeding", func() {
			_, err := h.svc.SeedTexts(context.Background())
			So(err, ShouldBeNil)
			rec := h.do(http.MethodGet, "/api/typing/text", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["text"], ShouldNotBeEmpty)
		})

		Convey("Health reports the store", func() {
			rec := h.do(http.MethodGet, "/health", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["store"], ShouldEqual, "ok")
			So(rec.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("Stats counts users", func() {
			h.register("ada")
			rec := h.do(http.MethodGet, "/api/stats", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(decode(rec)["users"], ShouldEqual, 1)
		})

		Convey("Metrics are exposed in text format", func() {
			h.do(http.MethodGet, "/api/score/leaderboard", "", "")
			rec := h.do(http.MethodGet, "/metrics", "", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "typeboard_scores_http_requests_total")
		})
	})

	Convey("Given a store that cannot be reached", t, func() {
		h := newHarness(api.WithReadiness(func(context.Context) error { return errors.New("down") }))
		rec := h.do(http.MethodGet, "/health", "", "")
		So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
	})
}

type failingStats struct{}

func (failingStats) Stats(context.Context) (types.Stats, error) {
	return types.Stats{}, errors.New("connection reset by peer")
}

func TestStoreFailuresAreOpaque(t *testing.T) {
	Convey("Given a stats provider that fails", t, func() {
		rec := httptest.NewRecorder()
		api.NewStatsHandler(failingStats{}).HandleStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

		Convey("Then the response is a 500 without internals", func() {
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
			So(rec.Body.String(), ShouldNotContainSubstring, "connection reset")
			So(decode(rec)["code"], ShouldEqual, "internal_error")
		})
	})
}

func TestCORS(t *testing.T) {
	Convey("Given an origin allow list", t, func() {
		h := newHarness(api.WithAllowedOrigins([]string{"https://play.example.com"}))

		Convey("An allowed origin is echoed", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/score/leaderboard", nil)
			req.Header.Set("Origin", "https://play.example.com")
			rec := httptest.NewRecorder()
			h.handler.ServeHTTP(rec, req)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "https://play.example.com")
		})

		Convey("Another origin is not", func() {
			req := httptest.NewRequest(http.MethodGet, "/api/score/leaderboard", nil)
			req.Header.Set("Origin", "https://evil.example.com")
			rec := httptest.NewRecorder()
			h.handler.ServeHTTP(rec, req)
			So(rec.Header().Get("Access-Control-Allow-Origin"), ShouldBeEmpty)
		})
	})
}
