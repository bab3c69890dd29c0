// Package service wires the score pipeline (validator, abuse guard, ledger)
// and the account operations behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/typeboard/internal/adapters/repository"
	"github.com/okian/typeboard/internal/auth"
	"github.com/okian/typeboard/internal/domain/abuse"
	"github.com/okian/typeboard/internal/domain/ledger"
	"github.com/okian/typeboard/internal/domain/model"
	"github.com/okian/typeboard/internal/domain/scoring"
	"github.com/okian/typeboard/internal/domain/types"
	"github.com/okian/typeboard/internal/domain/validation"
	"github.com/okian/typeboard/pkg/logger"
	"github.com/okian/typeboard/pkg/metrics"
)

const (
	leaderboardSize = 10
	historySize     = 50
)

// GameResult is the outcome of an accepted typing game.
type GameResult struct {
	User         types.UserView
	PointsEarned int64
	GameStats    types.GameStats
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User  types.UserView
	Token string
}

// Service implements the API dependencies for the typing leaderboard.
type Service struct {
	store  repository.Store
	tokens *auth.Tokens
	guard  *abuse.Guard
	ledger *ledger.Ledger

	clock           clockwork.Clock
	rateLimit       int64
	rateWindow      time.Duration
	duplicateWindow time.Duration
	bcryptCost      int

	logger logger.Logger
}

// New constructs a Service over store. tokens signs session tokens.
func New(store repository.Store, tokens *auth.Tokens, opts ...Option) *Service {
	s := &Service{
		store:           store,
		tokens:          tokens,
		clock:           clockwork.NewRealClock(),
		rateLimit:       abuse.DefaultRateLimit,
		rateWindow:      abuse.DefaultRateWindow,
		duplicateWindow: abuse.DefaultDuplicateWindow,
		bcryptCost:      bcrypt.DefaultCost,
		logger:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.guard = abuse.New(
		abuse.WithClock(s.clock),
		abuse.WithRateLimit(s.rateLimit, s.rateWindow),
		abuse.WithDuplicateWindow(s.duplicateWindow),
	)
	s.ledger = ledger.New(ledger.WithClock(s.clock))
	return s
}

// SubmitTypingGame validates a game, runs the abuse guard and credits the award.
//
// The guard and the ledger share one transaction, opened by locking the user
// row, so two submissions from the same user cannot both pass the duplicate
// check before either commits.
func (s *Service) SubmitTypingGame(ctx context.Context, userID string, p validation.Payload) (GameResult, error) {
	start := s.clock.Now()
	defer func() {
		metrics.RecordPipelineDuration(metrics.PathTypingGame, float64(s.clock.Since(start).Microseconds())/1000)
	}()

	game, err := validation.Validate(p)
	if err != nil {
		return GameResult{}, s.reject(ctx, metrics.PathTypingGame, userID, err)
	}

	award := ledger.GameplayAward(game)
	var receipt ledger.Receipt
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		if err := s.guard.CheckGameplay(ctx, tx, userID); err != nil {
			return err
		}
		r, err := s.ledger.Apply(ctx, tx, userID, award)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		return GameResult{}, s.reject(ctx, metrics.PathTypingGame, userID, err)
	}

	s.accept(ctx, metrics.PathTypingGame, receipt)
	return GameResult{
		User:         userView(receipt.User),
		PointsEarned: receipt.Points,
		GameStats: types.GameStats{
			WPM:               game.WPM,
			Accuracy:          game.Accuracy,
			WordsTyped:        game.WordsTyped,
			CharactersCorrect: game.CharactersCorrect,
			TimeElapsed:       game.TimeElapsed,
		},
	}, nil
}

// UpdateScore credits one point for a generic action. An empty action is
// recorded as COMPLETE_ACTION.
func (s *Service) UpdateScore(ctx context.Context, userID, action string) (types.UserView, error) {
	start := s.clock.Now()
	defer func() {
		metrics.RecordPipelineDuration(metrics.PathGeneric, float64(s.clock.Since(start).Microseconds())/1000)
	}()

	label, err := scoring.GenericLabel(action)
	if err != nil {
		return types.UserView{}, s.reject(ctx, metrics.PathGeneric, userID, err)
	}

	var receipt ledger.Receipt
	err = s.store.WithinTx(ctx, func(tx repository.Store) error {
		if err := tx.LockUser(ctx, userID); err != nil {
			return err
		}
		if err := s.guard.CheckGeneric(ctx, tx, userID); err != nil {
			return err
		}
		r, err := s.ledger.Apply(ctx, tx, userID, ledger.GenericAward(label))
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		return types.UserView{}, s.reject(ctx, metrics.PathGeneric, userID, err)
	}

	s.accept(ctx, metrics.PathGeneric, receipt)
	return userView(receipt.User), nil
}

// Leaderboard returns the top active users.
func (s *Service) Leaderboard(ctx context.Context) ([]types.LeaderboardEntry, error) {
	users, err := s.store.ListTopUsers(ctx, leaderboardSize, true)
	if err != nil {
		return nil, s.storeFailure(ctx, "leaderboard", err)
	}
	out := make([]types.LeaderboardEntry, len(users))
	for i, u := range users {
		out[i] = types.LeaderboardEntry{
			Rank:      i + 1,
			ID:        u.ID,
			Username:  u.Username,
			Email:     u.Email,
			Score:     u.Score,
			CreatedAt: u.CreatedAt,
		}
	}
	return out, nil
}

// CurrentUser returns the caller's profile.
func (s *Service) CurrentUser(ctx context.Context, userID string) (types.UserView, error) {
	u, found, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return types.UserView{}, s.storeFailure(ctx, "current user", err)
	}
	if !found {
		return types.UserView{}, abuse.ErrUserNotFound
	}
	view := userView(u)
	created := u.CreatedAt.UTC()
	view.CreatedAt = &created
	return view, nil
}

// TypingHistory returns the caller's most recent games, newest first.
func (s *Service) TypingHistory(ctx context.Context, userID string) ([]types.HistoryEntry, error) {
	entries, err := s.store.ListActionLog(ctx, userID, scoring.GameplayPrefix, historySize)
	if err != nil {
		return nil, s.storeFailure(ctx, "typing history", err)
	}
	out := make([]types.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		game, err := scoring.ParseGameplayLabel(e.Action)
		if err != nil {
			s.logger.Debug(ctx, "skipping unparsable game label",
				logger.String("entry_id", e.ID),
				logger.String("action", e.Action),
			)
			continue
		}
		out = append(out, types.HistoryEntry{
			ID:         e.ID,
			Date:       e.CreatedAt,
			WPM:        game.WPM,
			Accuracy:   game.Accuracy,
			WordsTyped: game.WordsTyped,
		})
	}
	return out, nil
}

// RandomText picks one active typing text.
func (s *Service) RandomText(ctx context.Context) (types.Text, error) {
	texts, err := s.store.ListActiveTexts(ctx)
	if err != nil {
		return types.Text{}, s.storeFailure(ctx, "random text", err)
	}
	if len(texts) == 0 {
		return types.Text{}, ErrNoTexts
	}
	t := texts[rand.IntN(len(texts))] //nolint:gosec // not security sensitive
	return types.Text{ID: t.ID, Text: t.Text, Difficulty: t.Difficulty}, nil
}

// SeedTexts inserts the built-in typing texts that are missing.
func (s *Service) SeedTexts(ctx context.Context) (int, error) {
	added, err := s.store.UpsertTexts(ctx, builtinTexts())
	if err != nil {
		return 0, s.storeFailure(ctx, "seed texts", err)
	}
	s.logger.Info(ctx, "typing texts seeded", logger.Int("added", added))
	return added, nil
}

// Stats summarizes the store and refreshes the population gauges.
func (s *Service) Stats(ctx context.Context) (types.Stats, error) {
	total, active, err := s.store.CountUsers(ctx)
	if err != nil {
		return types.Stats{}, s.storeFailure(ctx, "stats", err)
	}
	texts, err := s.store.ListActiveTexts(ctx)
	if err != nil {
		return types.Stats{}, s.storeFailure(ctx, "stats", err)
	}
	metrics.UpdateUserCounts(total, active)
	return types.Stats{Users: total, ActiveUsers: active, Texts: len(texts)}, nil
}

func (s *Service) accept(ctx context.Context, path string, r ledger.Receipt) {
	metrics.RecordSubmission(path, metrics.OutcomeAccepted)
	metrics.RecordPointsAwarded(r.Points)
	s.logger.Debug(ctx, "score awarded",
		logger.String("path", path),
		logger.String("user_id", r.User.ID),
		logger.Int64("points", r.Points),
		logger.Int64("score", r.User.Score),
		logger.String("action", r.Entry.Action),
	)
}

// reject classifies a pipeline failure. Expected rejections are returned as is
// and logged at debug; anything else is a store failure.
func (s *Service) reject(ctx context.Context, path, userID string, err error) error {
	outcome := ""
	switch {
	case errors.Is(err, validation.ErrOutOfRange):
		outcome = metrics.OutcomeOutOfRange
	case errors.Is(err, validation.ErrInvalidPayload), errors.Is(err, scoring.ErrInvalidAction):
		outcome = metrics.OutcomeInvalid
	case errors.Is(err, abuse.ErrRateLimited):
		outcome = metrics.OutcomeRateLimited
	case errors.Is(err, abuse.ErrDuplicateSubmission):
		outcome = metrics.OutcomeDuplicate
	case errors.Is(err, abuse.ErrUserNotFound):
		outcome = metrics.OutcomeUserNotFound
	}
	if outcome != "" {
		metrics.RecordSubmission(path, outcome)
		s.logger.Debug(ctx, "score submission rejected",
			logger.String("path", path),
			logger.String("user_id", userID),
			logger.String("outcome", outcome),
			logger.Error(err),
		)
		return err
	}

	metrics.RecordSubmission(path, metrics.OutcomeStoreFailure)
	return s.storeFailure(ctx, path, err)
}

// storeFailure wraps err as ErrStoreFailure. The store reports the fault at
// error level, so it is only traced here.
func (s *Service) storeFailure(ctx context.Context, op string, err error) error {
	s.logger.Debug(ctx, "store failure", logger.String("operation", op), logger.Error(err))
	if errors.Is(err, ledger.ErrStoreFailure) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ledger.ErrStoreFailure, op, err)
}

func userView(u model.User) types.UserView {
	return types.UserView{ID: u.ID, Username: u.Username, Email: u.Email, Score: u.Score}
}
