package playsim

// Default configuration values.
const (
	DefaultPlayers = 50
	DefaultBurst   = 5
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	PercentageMultiplier = 100
	leaderboardSize      = 10
)
