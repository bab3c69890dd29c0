// Package model contains domain models passed between layers.
package model

import "time"

// User is a registered player. Score only grows through the score ledger.
type User struct {
	ID           string    `gorm:"primaryKey;size:36"`
	Username     string    `gorm:"size:64;uniqueIndex;not null"`
	Email        string    `gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	IsActive     bool      `gorm:"not null"`
	Score        int64     `gorm:"not null;default:0;index"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

// ActionLogEntry is one immutable audit record. The log doubles as the
// rate limit state, so it is indexed on (user_id, created_at).
type ActionLogEntry struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;index:idx_action_log_user_time,priority:1"`
	Action    string    `gorm:"size:255;not null"`
	CreatedAt time.Time `gorm:"not null;index:idx_action_log_user_time,priority:2"`
}

// TableName pins the table name.
func (ActionLogEntry) TableName() string { return "action_logs" }

// TypingText is a passage served to players.
type TypingText struct {
	ID         string    `gorm:"primaryKey;size:36"`
	Text       string    `gorm:"uniqueIndex;not null"`
	Difficulty string    `gorm:"size:16;not null;default:medium"`
	IsActive   bool      `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

// GameplaySubmission is a validated typing game result.
type GameplaySubmission struct {
	WPM               float64
	Accuracy          float64
	WordsTyped        float64
	CharactersCorrect float64
	TimeElapsed       float64
}
