// Package repository persists users, the action log and typing texts.
package repository

import (
	"context"
	"time"

	"github.com/okian/typeboard/internal/domain/model"
)

// Store is the credential store. Implementations are safe for concurrent use;
// a Store handed to a WithinTx callback is scoped to that transaction.
type Store interface {
	FindUserByID(ctx context.Context, id string) (model.User, bool, error)
	FindUserByEmail(ctx context.Context, email string) (model.User, bool, error)
	// UserExists reports whether the username or the email is taken.
	UserExists(ctx context.Context, username, email string) (bool, error)
	// CreateUser inserts u, assigning an id when empty. Returns ErrConflict
	// when the username or email is taken.
	CreateUser(ctx context.Context, u model.User) (model.User, error)
	// IncrementUserScore adds amount in the store, never read-modify-write.
	// Returns ErrNotFound if the user is unknown.
	IncrementUserScore(ctx context.Context, id string, amount int64) (model.User, error)
	// LockUser takes a row lock on the user for the rest of the transaction
	// where the engine supports it.
	LockUser(ctx context.Context, id string) error

	CountActionLogSince(ctx context.Context, userID string, since time.Time) (int64, error)
	// FindLatestActionLog returns the newest entry whose label starts with prefix
	// and whose timestamp is at or after since.
	FindLatestActionLog(ctx context.Context, userID, prefix string, since time.Time) (model.ActionLogEntry, bool, error)
	AppendActionLog(ctx context.Context, userID, label string, at time.Time) (model.ActionLogEntry, error)
	// ListActionLog returns up to limit entries with the label prefix, newest first.
	ListActionLog(ctx context.Context, userID, prefix string, limit int) ([]model.ActionLogEntry, error)

	// ListTopUsers orders by score desc, then created_at asc, then id asc.
	ListTopUsers(ctx context.Context, limit int, activeOnly bool) ([]model.User, error)
	CountUsers(ctx context.Context) (total, active int64, err error)

	ListActiveTexts(ctx context.Context) ([]model.TypingText, error)
	// UpsertTexts inserts texts that are not stored yet and returns how many were added.
	UpsertTexts(ctx context.Context, texts []model.TypingText) (int, error)

	// WithinTx runs fn in one transaction. fn's error rolls everything back.
	WithinTx(ctx context.Context, fn func(Store) error) error
	Close() error
}
