package playsim

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/typeboard/pkg/logger"
)

// Run executes a complete simulation against a running service.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	if config.Players < 1 || config.Burst < 1 {
		return nil, errors.New("players and burst must be positive")
	}
	stats := &Stats{StartTime: time.Now()}
	log := config.log()

	log.Info(ctx, "starting typeboard play simulation",
		logger.String("baseURL", config.BaseURL),
		logger.Int("players", config.Players),
		logger.Int("burst", config.Burst),
		logger.Int("workers", config.Workers),
		logger.Duration("timeout", config.Timeout),
		logger.Bool("verbose", config.Verbose))

	client := newHTTPClient(config.BaseURL, config.Timeout)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, log, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Register players
	players := generatePlayers(config.Players, newRand(config.Seed))
	if err := registerPlayers(ctx, config, client, players, stats); err != nil {
		return stats, fmt.Errorf("player registration failed: %w", err)
	}

	// Step 3: Fire duplicate bursts concurrently
	outcomes := submitBursts(ctx, config, client, players, stats)

	// Step 4: Read back scores and the leaderboard
	scores, err := fetchScores(ctx, config, client, players)
	if err != nil {
		return stats, fmt.Errorf("score retrieval failed: %w", err)
	}
	board, err := getLeaderboard(ctx, client, stats)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	// Step 5: Verify
	verr := errors.Join(
		verifyPlayers(players, outcomes, scores),
		verifyLeaderboard(board.Leaderboard, players, scores),
	)

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, log, stats)

	if verr != nil {
		return stats, verr
	}
	log.Info(ctx, "simulation completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, log logger.Logger, client *HTTPClient) error {
	status, err := client.do(ctx, http.MethodGet, "/health", "", nil, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", status)
	}
	log.Info(ctx, "service is healthy")
	return nil
}

// displayFinalStats logs the run statistics.
func displayFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var acceptRate, perSecond float64
	if stats.GamesSubmitted > 0 {
		acceptRate = float64(stats.GamesAccepted) / float64(stats.GamesSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.GamesSubmitted) / stats.Duration.Seconds()
	}

	log.Info(ctx, "final statistics",
		logger.Int("playersRegistered", stats.PlayersRegistered),
		logger.Int("gamesSubmitted", stats.GamesSubmitted),
		logger.Int("gamesAccepted", stats.GamesAccepted),
		logger.Int("gamesDuplicate", stats.GamesDuplicate),
		logger.Int("gamesRateLimited", stats.GamesRateLimited),
		logger.Int("gamesFailed", stats.GamesFailed),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("submissionsPerSecond", perSecond))
}
