// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/cors"

	"github.com/okian/typeboard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Authenticator
	AuthDependencies
	ScoreDependencies
	LeaderboardDependencies
	TextDependencies
	StatsProvider
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps               Dependencies
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	authHandler        *AuthHandler
	scoreHandler       *ScoreHandler
	leaderboardHandler *LeaderboardHandler
	textHandler        *TextHandler

	allowedOrigins []string
	logger         logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithAllowedOrigins sets the CORS allow list. "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) > 0 {
			s.allowedOrigins = origins
		}
	}
}

// WithLogger sets the request logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithReadiness plugs a store ping into the health endpoint.
func WithReadiness(ping func(ctx context.Context) error) Option {
	return func(s *Server) {
		s.healthHandler.ping = ping
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...Option) *Server {
	s := &Server{
		deps:               deps,
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(deps),
		authHandler:        NewAuthHandler(deps),
		scoreHandler:       NewScoreHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps),
		textHandler:        NewTextHandler(deps),
		allowedOrigins:     []string{"*"},
		logger:             logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	authed := func(h http.HandlerFunc) http.HandlerFunc { return RequireAuth(s.deps, h) }

	mux.HandleFunc("/health", MetricsMiddleware(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/api/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/api/auth/register", MetricsMiddleware(s.authHandler.HandleRegister, "auth_register"))
	mux.HandleFunc("/api/auth/login", MetricsMiddleware(s.authHandler.HandleLogin, "auth_login"))

	mux.HandleFunc("/api/score/update", MetricsMiddleware(authed(s.scoreHandler.HandleUpdate), "score_update"))
	mux.HandleFunc("/api/score/typing-game", MetricsMiddleware(authed(s.scoreHandler.HandleTypingGame), "score_typing_game"))
	mux.HandleFunc("/api/score/typing-game/history", MetricsMiddleware(authed(s.scoreHandler.HandleHistory), "score_history"))
	mux.HandleFunc("/api/score/me", MetricsMiddleware(authed(s.scoreHandler.HandleMe), "score_me"))
	mux.HandleFunc("/api/score/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))

	mux.HandleFunc("/api/typing/text", MetricsMiddleware(s.textHandler.HandleRandomText, "typing_text"))
}

// Handler wraps mux with request logging and CORS.
func (s *Server) Handler(mux http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(RequestLogger(s.logger, mux))
}

type errorResponse struct {
	Code  string   `json:"code"`
	Error string   `json:"error"`
	Field string   `json:"field,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Error: msg})
}
