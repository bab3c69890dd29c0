package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/okian/typeboard/internal/domain/model"
	"github.com/okian/typeboard/pkg/logger"
	"github.com/okian/typeboard/pkg/metrics"
)

// Supported SQL drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// GormStore implements Store on PostgreSQL or SQLite through gorm.
type GormStore struct {
	db       *gorm.DB
	opts     options
	lockRows bool
	inTx     bool
}

// Open connects to driver at dsn and migrates the schema.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*GormStore, error) {
	o := buildOptions(opts)

	var dialector gorm.Dialector
	switch driver {
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	level := gormlogger.Silent
	if o.sqlLogging {
		level = gormlogger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(level),
		NowFunc:        func() time.Time { return o.clock.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("db handle: %w", err)
	}
	if driver == DriverSQLite {
		// one connection keeps :memory: databases shared and serializes writers
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(o.maxOpenConns)
	}

	s := NewGormStore(db, opts...)
	if err := s.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return s, nil
}

// NewGormStore wraps an existing connection. Row locks are only requested on
// PostgreSQL.
func NewGormStore(db *gorm.DB, opts ...Option) *GormStore {
	return &GormStore{
		db:       db,
		opts:     buildOptions(opts),
		lockRows: db.Dialector.Name() == DriverPostgres,
	}
}

// Migrate creates or updates the tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&model.User{}, &model.ActionLogEntry{}, &model.TypingText{}); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Ping checks the connection.
func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool. A transaction scoped store does nothing.
func (s *GormStore) Close() error {
	if s.inTx {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) fail(ctx context.Context, op string, err error) error {
	metrics.RecordStoreFailure(op)
	s.opts.log.Error(ctx, "store operation failed", logger.String("operation", op), logger.Error(err))
	return fmt.Errorf("db error: %s: %w", op, err)
}

func (s *GormStore) findUser(ctx context.Context, op string, where string, arg any) (model.User, bool, error) {
	var u model.User
	err := s.db.WithContext(ctx).Where(where, arg).Take(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.User{}, false, nil
	}
	if err != nil {
		return model.User{}, false, s.fail(ctx, op, err)
	}
	return u, true, nil
}

// FindUserByID implements Store.
func (s *GormStore) FindUserByID(ctx context.Context, id string) (model.User, bool, error) {
	return s.findUser(ctx, "find_user", "id = ?", id)
}

// FindUserByEmail implements Store.
func (s *GormStore) FindUserByEmail(ctx context.Context, email string) (model.User, bool, error) {
	return s.findUser(ctx, "find_user_by_email", "email = ?", email)
}

// UserExists implements Store.
func (s *GormStore) UserExists(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&n).Error
	if err != nil {
		return false, s.fail(ctx, "user_exists", err)
	}
	return n > 0, nil
}

// CreateUser implements Store.
func (s *GormStore) CreateUser(ctx context.Context, u model.User) (model.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = s.opts.clock.Now().UTC()
	}
	err := s.db.WithContext(ctx).Create(&u).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return model.User{}, ErrConflict
	}
	if err != nil {
		return model.User{}, s.fail(ctx, "create_user", err)
	}
	return u, nil
}

// IncrementUserScore implements Store.
func (s *GormStore) IncrementUserScore(ctx context.Context, id string, amount int64) (model.User, error) {
	res := s.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("score", gorm.Expr("score + ?", amount))
	if res.Error != nil {
		return model.User{}, s.fail(ctx, "increment_score", res.Error)
	}
	if res.RowsAffected == 0 {
		return model.User{}, ErrNotFound
	}

	u, found, err := s.FindUserByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}
	if !found {
		return model.User{}, ErrNotFound
	}
	return u, nil
}

// LockUser implements Store.
func (s *GormStore) LockUser(ctx context.Context, id string) error {
	if !s.lockRows || !s.inTx {
		return nil
	}
	var u model.User
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Where("id = ?", id).
		Take(&u).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return s.fail(ctx, "lock_user", err)
	}
	return nil
}

// CountActionLogSince implements Store.
func (s *GormStore) CountActionLogSince(ctx context.Context, userID string, since time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.ActionLogEntry{}).
		Where("user_id = ? AND created_at >= ?", userID, since.UTC()).
		Count(&n).Error
	if err != nil {
		return 0, s.fail(ctx, "count_action_log", err)
	}
	return n, nil
}

// FindLatestActionLog implements Store.
func (s *GormStore) FindLatestActionLog(ctx context.Context, userID, prefix string, since time.Time) (model.ActionLogEntry, bool, error) {
	var entries []model.ActionLogEntry
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since.UTC()).
		Where(`action LIKE ? ESCAPE '\'`, likePrefix(prefix)).
		Order("created_at DESC").
		Limit(1).
		Find(&entries).Error
	if err != nil {
		return model.ActionLogEntry{}, false, s.fail(ctx, "find_latest_action_log", err)
	}
	if len(entries) == 0 {
		return model.ActionLogEntry{}, false, nil
	}
	return entries[0], true, nil
}

// AppendActionLog implements Store.
func (s *GormStore) AppendActionLog(ctx context.Context, userID, label string, at time.Time) (model.ActionLogEntry, error) {
	e := model.ActionLogEntry{
		ID:        uuid.NewString(),
		UserID:    userID,
		Action:    label,
		CreatedAt: at.UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return model.ActionLogEntry{}, s.fail(ctx, "append_action_log", err)
	}
	return e, nil
}

// ListActionLog implements Store.
func (s *GormStore) ListActionLog(ctx context.Context, userID, prefix string, limit int) ([]model.ActionLogEntry, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	var entries []model.ActionLogEntry
	q := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if prefix != "" {
		q = q.Where(`action LIKE ? ESCAPE '\'`, likePrefix(prefix))
	}
	if err := q.Order("created_at DESC").Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, s.fail(ctx, "list_action_log", err)
	}
	return entries, nil
}

// ListTopUsers implements Store.
func (s *GormStore) ListTopUsers(ctx context.Context, limit int, activeOnly bool) ([]model.User, error) {
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	var users []model.User
	q := s.db.WithContext(ctx)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	err := q.Order("score DESC").Order("created_at ASC").Order("id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, s.fail(ctx, "list_top_users", err)
	}
	return users, nil
}

// CountUsers implements Store.
func (s *GormStore) CountUsers(ctx context.Context) (int64, int64, error) {
	var total, active int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&model.User{}).Count(&total).Error; err != nil {
		return 0, 0, s.fail(ctx, "count_users", err)
	}
	if err := db.Model(&model.User{}).Where("is_active = ?", true).Count(&active).Error; err != nil {
		return 0, 0, s.fail(ctx, "count_users", err)
	}
	return total, active, nil
}

// ListActiveTexts implements Store.
func (s *GormStore) ListActiveTexts(ctx context.Context) ([]model.TypingText, error) {
	var texts []model.TypingText
	if err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("created_at ASC").Order("id ASC").Find(&texts).Error; err != nil {
		return nil, s.fail(ctx, "list_texts", err)
	}
	return texts, nil
}

// UpsertTexts implements Store.
func (s *GormStore) UpsertTexts(ctx context.Context, texts []model.TypingText) (int, error) {
	if len(texts) == 0 {
		return 0, nil
	}
	now := s.opts.clock.Now().UTC()
	rows := make([]model.TypingText, len(texts))
	for i, t := range texts {
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		rows[i] = t
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "text"}}, DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return 0, s.fail(ctx, "upsert_texts", res.Error)
	}
	return int(res.RowsAffected), nil
}

// WithinTx implements Store. Nested calls join the outer transaction.
func (s *GormStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, opts: s.opts, lockRows: s.lockRows, inTx: true})
	})
}

// likePrefix escapes LIKE wildcards so prefix matches literally.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
