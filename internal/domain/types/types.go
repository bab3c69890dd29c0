// Package types contains response shapes shared between the app and HTTP layers.
package types

import "time"

// UserView is the public projection of a user. CreatedAt is only set on the
// profile read.
type UserView struct {
	ID        string     `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Score     int64      `json:"score"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// LeaderboardEntry represents one leaderboard row.
type LeaderboardEntry struct {
	Rank      int       `json:"rank"`
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Score     int64     `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

// GameStats echoes an accepted typing game.
type GameStats struct {
	WPM               float64 `json:"wpm"`
	Accuracy          float64 `json:"accuracy"`
	WordsTyped        float64 `json:"wordsTyped"`
	CharactersCorrect float64 `json:"charactersCorrect"`
	TimeElapsed       float64 `json:"timeElapsed"`
}

// HistoryEntry is one past typing game parsed from the action log.
type HistoryEntry struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	WPM        float64   `json:"wpm"`
	Accuracy   float64   `json:"accuracy"`
	WordsTyped float64   `json:"wordsTyped"`
}

// Text is a typing passage handed to the client.
type Text struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Difficulty string `json:"difficulty"`
}

// Stats summarizes the service state for /api/stats.
type Stats struct {
	Users       int64 `json:"users"`
	ActiveUsers int64 `json:"activeUsers"`
	Texts       int   `json:"texts"`
}
