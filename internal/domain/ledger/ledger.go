// Package ledger credits awards to user scores and records the audit entry.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/typeboard/internal/domain/abuse"
	"github.com/okian/typeboard/internal/domain/model"
	"github.com/okian/typeboard/internal/domain/scoring"
)

// Store is the write side of the credential store. Apply must be called with a
// transaction scoped Store so the increment and the append commit together.
type Store interface {
	FindUserByID(ctx context.Context, id string) (model.User, bool, error)
	IncrementUserScore(ctx context.Context, id string, amount int64) (model.User, error)
	AppendActionLog(ctx context.Context, userID, label string, at time.Time) (model.ActionLogEntry, error)
}

// Award is the points and audit label for one accepted action.
type Award struct {
	Points int64
	Label  string
}

// GameplayAward prices a validated typing game.
func GameplayAward(s model.GameplaySubmission) Award {
	return Award{Points: scoring.GameplayPoints(s.WPM), Label: scoring.GameplayLabel(s)}
}

// GenericAward prices a generic action. The label must already be normalized.
func GenericAward(label string) Award {
	return Award{Points: scoring.GenericPoints, Label: label}
}

// Receipt describes an applied award.
type Receipt struct {
	User   model.User
	Points int64
	Entry  model.ActionLogEntry
}

// Ledger applies awards.
type Ledger struct {
	clock clockwork.Clock
}

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithClock sets the time source used for audit timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(l *Ledger) {
		if c != nil {
			l.clock = c
		}
	}
}

// New creates a ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Apply re-checks the user, adds the points and appends the audit entry.
// A vanished or deactivated user yields abuse.ErrUserNotFound or
// abuse.ErrUserInactive; every store error is wrapped in ErrStoreFailure.
func (l *Ledger) Apply(ctx context.Context, st Store, userID string, a Award) (Receipt, error) {
	if a.Points < 1 {
		return Receipt{}, fmt.Errorf("award of %d points", a.Points)
	}

	u, found, err := st.FindUserByID(ctx, userID)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: find user: %w", ErrStoreFailure, err)
	}
	if !found {
		return Receipt{}, abuse.ErrUserNotFound
	}
	if !u.IsActive {
		return Receipt{}, abuse.ErrUserInactive
	}

	updated, err := st.IncrementUserScore(ctx, userID, a.Points)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: increment score: %w", ErrStoreFailure, err)
	}

	entry, err := st.AppendActionLog(ctx, userID, a.Label, l.clock.Now().UTC())
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: append action log: %w", ErrStoreFailure, err)
	}

	return Receipt{User: updated, Points: a.Points, Entry: entry}, nil
}
