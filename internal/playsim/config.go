package playsim

import (
	"time"

	"github.com/okian/typeboard/internal/domain/types"
	"github.com/okian/typeboard/pkg/logger"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL string        // Base URL of the service
	Players int           // Number of players to register
	Burst   int           // Identical submissions fired at once per player
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Seed    uint64        // Seed for game generation; 0 picks one
	Verbose bool          // Enable verbose logging
	Logger  logger.Logger // Defaults to a no-op logger
}

func (c *Config) log() logger.Logger {
	if c.Logger == nil {
		return logger.Nop()
	}
	return c.Logger
}

// Player is a registered simulation account.
type Player struct {
	Username string
	Email    string
	Password string
	ID       string
	Token    string
	Game     Game
}

// Game is a typing game result as submitted over the wire.
type Game struct {
	WPM               float64 `json:"wpm"`
	Accuracy          float64 `json:"accuracy"`
	WordsTyped        float64 `json:"wordsTyped"`
	CharactersCorrect float64 `json:"charactersCorrect"`
	TimeElapsed       float64 `json:"timeElapsed"`
}

// Outcome tallies the burst results for one player.
type Outcome struct {
	Accepted    int
	Duplicate   int
	RateLimited int
	Failed      int
	Points      int64
}

// Stats holds run statistics.
type Stats struct {
	PlayersRegistered  int
	GamesSubmitted     int
	GamesAccepted      int
	GamesDuplicate     int
	GamesRateLimited   int
	GamesFailed        int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}

type authResponse struct {
	User  types.UserView `json:"user"`
	Token string         `json:"token"`
}

type gameResponse struct {
	User         types.UserView `json:"user"`
	PointsEarned int64          `json:"pointsEarned"`
}

type meResponse struct {
	User types.UserView `json:"user"`
}

type leaderboardResponse struct {
	Leaderboard []types.LeaderboardEntry `json:"leaderboard"`
}
