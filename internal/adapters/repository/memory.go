package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/typeboard/internal/domain/model"
)

// MemoryStore is an in-process Store for development and tests.
//
// Every write runs as a transaction: the state is cloned, mutated, and
// swapped in on success, so a failed transaction leaves no trace.
// Transactions are serialized.
type MemoryStore struct {
	txMu  *sync.Mutex
	mu    sync.RWMutex
	state *memState
	opts  options
	inTx  bool
}

type memState struct {
	users map[string]model.User
	ranks *rankNode
	logs  []model.ActionLogEntry
	texts []model.TypingText
}

func (st *memState) clone() *memState {
	c := &memState{
		users: make(map[string]model.User, len(st.users)),
		ranks: st.ranks,
		logs:  make([]model.ActionLogEntry, len(st.logs)),
		texts: make([]model.TypingText, len(st.texts)),
	}
	for k, v := range st.users {
		c.users[k] = v
	}
	copy(c.logs, st.logs)
	copy(c.texts, st.texts)
	return c
}

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	return &MemoryStore{
		txMu:  &sync.Mutex{},
		state: &memState{users: make(map[string]model.User)},
		opts:  buildOptions(opts),
	}
}

func (s *MemoryStore) read(fn func(st *memState)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// write runs fn directly inside a transaction, or as its own transaction.
func (s *MemoryStore) write(ctx context.Context, fn func(st *memState) error) error {
	if s.inTx {
		return fn(s.state)
	}
	return s.WithinTx(ctx, func(tx Store) error {
		return fn(tx.(*MemoryStore).state)
	})
}

// WithinTx implements Store.
func (s *MemoryStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	draft := s.state.clone()
	s.mu.RUnlock()

	tx := &MemoryStore{txMu: s.txMu, state: draft, opts: s.opts, inTx: true}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	s.state = draft
	s.mu.Unlock()
	return nil
}

// FindUserByID implements Store.
func (s *MemoryStore) FindUserByID(_ context.Context, id string) (u model.User, found bool, err error) {
	s.read(func(st *memState) {
		u, found = st.users[id]
	})
	return u, found, nil
}

// FindUserByEmail implements Store.
func (s *MemoryStore) FindUserByEmail(_ context.Context, email string) (u model.User, found bool, err error) {
	s.read(func(st *memState) {
		for _, candidate := range st.users {
			if candidate.Email == email {
				u, found = candidate, true
				return
			}
		}
	})
	return u, found, nil
}

// UserExists implements Store.
func (s *MemoryStore) UserExists(_ context.Context, username, email string) (exists bool, err error) {
	s.read(func(st *memState) {
		exists = st.taken(username, email)
	})
	return exists, nil
}

func (st *memState) taken(username, email string) bool {
	for _, u := range st.users {
		if u.Username == username || u.Email == email {
			return true
		}
	}
	return false
}

// CreateUser implements Store.
func (s *MemoryStore) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := s.opts.clock.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now

	err := s.write(ctx, func(st *memState) error {
		if _, dup := st.users[u.ID]; dup || st.taken(u.Username, u.Email) {
			return ErrConflict
		}
		st.users[u.ID] = u
		st.ranks = rankInsert(st.ranks, keyOf(u.Score, u.CreatedAt, u.ID))
		return nil
	})
	if err != nil {
		return model.User{}, err
	}
	return u, nil
}

// IncrementUserScore implements Store.
func (s *MemoryStore) IncrementUserScore(ctx context.Context, id string, amount int64) (model.User, error) {
	var out model.User
	err := s.write(ctx, func(st *memState) error {
		u, ok := st.users[id]
		if !ok {
			return ErrNotFound
		}
		st.ranks = rankRemove(st.ranks, keyOf(u.Score, u.CreatedAt, u.ID))
		u.Score += amount
		u.UpdatedAt = s.opts.clock.Now().UTC()
		st.users[id] = u
		st.ranks = rankInsert(st.ranks, keyOf(u.Score, u.CreatedAt, u.ID))
		out = u
		return nil
	})
	return out, err
}

// LockUser implements Store. Transactions are already serialized.
func (s *MemoryStore) LockUser(context.Context, string) error { return nil }

// CountActionLogSince implements Store.
func (s *MemoryStore) CountActionLogSince(_ context.Context, userID string, since time.Time) (n int64, err error) {
	s.read(func(st *memState) {
		for _, e := range st.logs {
			if e.UserID == userID && !e.CreatedAt.Before(since) {
				n++
			}
		}
	})
	return n, nil
}

// FindLatestActionLog implements Store.
func (s *MemoryStore) FindLatestActionLog(_ context.Context, userID, prefix string, since time.Time) (latest model.ActionLogEntry, found bool, err error) {
	s.read(func(st *memState) {
		for _, e := range st.logs {
			if e.UserID != userID || e.CreatedAt.Before(since) || !strings.HasPrefix(e.Action, prefix) {
				continue
			}
			if !found || !e.CreatedAt.Before(latest.CreatedAt) {
				latest, found = e, true
			}
		}
	})
	return latest, found, nil
}

// AppendActionLog implements Store.
func (s *MemoryStore) AppendActionLog(ctx context.Context, userID, label string, at time.Time) (model.ActionLogEntry, error) {
	e := model.ActionLogEntry{ID: uuid.NewString(), UserID: userID, Action: label, CreatedAt: at.UTC()}
	err := s.write(ctx, func(st *memState) error {
		if _, ok := st.users[userID]; !ok {
			return ErrNotFound
		}
		st.logs = append(st.logs, e)
		return nil
	})
	if err != nil {
		return model.ActionLogEntry{}, err
	}
	return e, nil
}

// ListActionLog implements Store.
func (s *MemoryStore) ListActionLog(_ context.Context, userID, prefix string, limit int) ([]model.ActionLogEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	var out []model.ActionLogEntry
	s.read(func(st *memState) {
		// logs are appended in time order; walk backwards for newest first
		for i := len(st.logs) - 1; i >= 0 && len(out) < limit; i-- {
			e := st.logs[i]
			if e.UserID == userID && strings.HasPrefix(e.Action, prefix) {
				out = append(out, e)
			}
		}
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListTopUsers implements Store.
func (s *MemoryStore) ListTopUsers(_ context.Context, limit int, activeOnly bool) ([]model.User, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	var users []model.User
	s.read(func(st *memState) {
		ids := make([]string, 0, min(limit, len(st.users)))
		collectTop(st.ranks, limit, func(id string) bool {
			return !activeOnly || st.users[id].IsActive
		}, &ids)
		users = make([]model.User, len(ids))
		for i, id := range ids {
			users[i] = st.users[id]
		}
	})
	return users, nil
}

// CountUsers implements Store.
func (s *MemoryStore) CountUsers(context.Context) (total, active int64, err error) {
	s.read(func(st *memState) {
		for _, u := range st.users {
			total++
			if u.IsActive {
				active++
			}
		}
	})
	return total, active, nil
}

// ListActiveTexts implements Store.
func (s *MemoryStore) ListActiveTexts(context.Context) ([]model.TypingText, error) {
	var out []model.TypingText
	s.read(func(st *memState) {
		for _, t := range st.texts {
			if t.IsActive {
				out = append(out, t)
			}
		}
	})
	return out, nil
}

// UpsertTexts implements Store.
func (s *MemoryStore) UpsertTexts(ctx context.Context, texts []model.TypingText) (int, error) {
	now := s.opts.clock.Now().UTC()
	added := 0
	err := s.write(ctx, func(st *memState) error {
		seen := make(map[string]bool, len(st.texts))
		for _, t := range st.texts {
			seen[t.Text] = true
		}
		for _, t := range texts {
			if seen[t.Text] {
				continue
			}
			if t.ID == "" {
				t.ID = uuid.NewString()
			}
			if t.CreatedAt.IsZero() {
				t.CreatedAt = now
			}
			st.texts = append(st.texts, t)
			seen[t.Text] = true
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }
