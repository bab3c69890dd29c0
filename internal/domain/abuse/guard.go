// Package abuse throttles scoring actions using the action log as its only state.
package abuse

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/typeboard/internal/domain/model"
	"github.com/okian/typeboard/internal/domain/scoring"
)

// Default policy.
const (
	DefaultRateLimit       = 10
	DefaultRateWindow      = 60 * time.Second
	DefaultDuplicateWindow = 5 * time.Second
)

// History is the slice of the store the guard reads.
type History interface {
	FindUserByID(ctx context.Context, id string) (model.User, bool, error)
	CountActionLogSince(ctx context.Context, userID string, since time.Time) (int64, error)
	FindLatestActionLog(ctx context.Context, userID, prefix string, since time.Time) (model.ActionLogEntry, bool, error)
}

// Guard enforces the per-user rate limit and the gameplay duplicate window.
type Guard struct {
	clock           clockwork.Clock
	rateLimit       int64
	rateWindow      time.Duration
	duplicateWindow time.Duration
}

// New creates a guard with the default policy.
func New(opts ...Option) *Guard {
	g := &Guard{
		clock:           clockwork.NewRealClock(),
		rateLimit:       DefaultRateLimit,
		rateWindow:      DefaultRateWindow,
		duplicateWindow: DefaultDuplicateWindow,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CheckGeneric admits a generic score update. Errors that are not one of
// the package sentinels come from the store.
func (g *Guard) CheckGeneric(ctx context.Context, h History, userID string) error {
	if err := g.checkUser(ctx, h, userID); err != nil {
		return err
	}
	return g.checkRate(ctx, h, userID, g.clock.Now().UTC())
}

// CheckGameplay admits a typing game submission: rate limit first, then the
// duplicate window.
func (g *Guard) CheckGameplay(ctx context.Context, h History, userID string) error {
	if err := g.checkUser(ctx, h, userID); err != nil {
		return err
	}
	now := g.clock.Now().UTC()
	if err := g.checkRate(ctx, h, userID, now); err != nil {
		return err
	}

	_, found, err := h.FindLatestActionLog(ctx, userID, scoring.GameplayPrefix, now.Add(-g.duplicateWindow))
	if err != nil {
		return fmt.Errorf("find latest game: %w", err)
	}
	if found {
		return ErrDuplicateSubmission
	}
	return nil
}

func (g *Guard) checkUser(ctx context.Context, h History, userID string) error {
	u, found, err := h.FindUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	if !found {
		return ErrUserNotFound
	}
	if !u.IsActive {
		return ErrUserInactive
	}
	return nil
}

func (g *Guard) checkRate(ctx context.Context, h History, userID string, now time.Time) error {
	n, err := h.CountActionLogSince(ctx, userID, now.Add(-g.rateWindow))
	if err != nil {
		return fmt.Errorf("count recent actions: %w", err)
	}
	if n >= g.rateLimit {
		return ErrRateLimited
	}
	return nil
}
