package api

import (
	"context"
	"net/http"

	service "github.com/okian/typeboard/internal/app"
	"github.com/okian/typeboard/internal/domain/types"
	"github.com/okian/typeboard/internal/domain/validation"
)

// ScoreDependencies covers the authenticated score endpoints.
type ScoreDependencies interface {
	SubmitTypingGame(ctx context.Context, userID string, p validation.Payload) (service.GameResult, error)
	UpdateScore(ctx context.Context, userID, action string) (types.UserView, error)
	TypingHistory(ctx context.Context, userID string) ([]types.HistoryEntry, error)
	CurrentUser(ctx context.Context, userID string) (types.UserView, error)
}

// ScoreHandler handles score submission and profile requests.
type ScoreHandler struct {
	deps ScoreDependencies
}

// NewScoreHandler creates a new score handler.
func NewScoreHandler(deps ScoreDependencies) *ScoreHandler {
	return &ScoreHandler{deps: deps}
}

type updateRequest struct {
	Action string `json:"action"`
}

type userResponse struct {
	Message string         `json:"message,omitempty"`
	User    types.UserView `json:"user"`
}

type gameResponse struct {
	Message      string          `json:"message"`
	User         types.UserView  `json:"user"`
	PointsEarned int64           `json:"pointsEarned"`
	GameStats    types.GameStats `json:"gameStats"`
}

type historyResponse struct {
	History []types.HistoryEntry `json:"history"`
}

// HandleTypingGame handles POST /api/score/typing-game.
func (h *ScoreHandler) HandleTypingGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id, _ := IdentityFrom(r.Context())
	var p validation.Payload
	if err := decodeJSON(r, &p); err != nil {
		writeDomainError(w, err)
		return
	}
	res, err := h.deps.SubmitTypingGame(r.Context(), id.UserID, p)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gameResponse{
		Message:      "Typing game score recorded",
		User:         res.User,
		PointsEarned: res.PointsEarned,
		GameStats:    res.GameStats,
	})
}

// HandleUpdate handles POST /api/score/update.
func (h *ScoreHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	id, _ := IdentityFrom(r.Context())
	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	user, err := h.deps.UpdateScore(r.Context(), id.UserID, req.Action)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Message: "Score updated successfully", User: user})
}

// HandleHistory handles GET /api/score/typing-game/history.
func (h *ScoreHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, _ := IdentityFrom(r.Context())
	history, err := h.deps.TypingHistory(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if history == nil {
		history = []types.HistoryEntry{}
	}
	writeJSON(w, http.StatusOK, historyResponse{History: history})
}

// HandleMe handles GET /api/score/me.
func (h *ScoreHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id, _ := IdentityFrom(r.Context())
	user, err := h.deps.CurrentUser(r.Context(), id.UserID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}
