package playsim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/typeboard/pkg/logger"
)

// HTTPClient wraps http.Client for the typeboard API.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// do sends a request and decodes a JSON response into out when the status is
// 2xx. It returns the status code.
func (c *HTTPClient) do(ctx context.Context, method, path, token string, body, out any) (int, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode/100 != 2 || out == nil {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp.StatusCode, nil
}

// registerPlayers creates every account concurrently and fills in ID and Token.
func registerPlayers(ctx context.Context, config *Config, client *HTTPClient, players []Player, stats *Stats) error {
	config.log().Info(ctx, "registering players", logger.Int("players", len(players)), logger.Int("workers", config.Workers))

	var (
		registered int64
		firstErr   error
		errOnce    sync.Once
	)
	runPool(ctx, config.Workers, len(players), func(i int) {
		p := &players[i]
		var res authResponse
		status, err := client.do(ctx, http.MethodPost, "/api/auth/register", "", map[string]string{
			"username": p.Username,
			"email":    p.Email,
			"password": p.Password,
		}, &res)
		if err == nil && status != http.StatusCreated {
			err = fmt.Errorf("register %s: status %d", p.Username, status)
		}
		if err != nil {
			errOnce.Do(func() { firstErr = err })
			return
		}
		p.ID, p.Token = res.User.ID, res.Token
		atomic.AddInt64(&registered, 1)
	})

	stats.PlayersRegistered = int(registered)
	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// submitBursts fires config.Burst identical copies of every player's game at
// once. Only one copy per player may be accepted.
func submitBursts(ctx context.Context, config *Config, client *HTTPClient, players []Player, stats *Stats) []Outcome {
	total := len(players) * config.Burst
	config.log().Info(ctx, "submitting games", logger.Int("submissions", total), logger.Int("burst", config.Burst))

	var mu sync.Mutex
	outcomes := make([]Outcome, len(players))

	runPool(ctx, config.Workers, total, func(job int) {
		i := job / config.Burst
		p := players[i]
		var res gameResponse
		status, err := client.do(ctx, http.MethodPost, "/api/score/typing-game", p.Token, p.Game, &res)

		mu.Lock()
		defer mu.Unlock()
		o := &outcomes[i]
		switch {
		case err != nil:
			o.Failed++
			if config.Verbose {
				config.log().Warn(ctx, "submission failed", logger.String("player", p.Username), logger.Error(err))
			}
		case status == http.StatusOK:
			o.Accepted++
			o.Points += res.PointsEarned
		case status == http.StatusConflict:
			o.Duplicate++
		case status == http.StatusTooManyRequests:
			o.RateLimited++
		default:
			o.Failed++
		}
	})

	for _, o := range outcomes {
		stats.GamesAccepted += o.Accepted
		stats.GamesDuplicate += o.Duplicate
		stats.GamesRateLimited += o.RateLimited
		stats.GamesFailed += o.Failed
	}
	stats.GamesSubmitted = stats.GamesAccepted + stats.GamesDuplicate + stats.GamesRateLimited + stats.GamesFailed
	return outcomes
}

// fetchScores reads every player's current score.
func fetchScores(ctx context.Context, config *Config, client *HTTPClient, players []Player) ([]int64, error) {
	scores := make([]int64, len(players))
	var (
		firstErr error
		errOnce  sync.Once
	)
	runPool(ctx, config.Workers, len(players), func(i int) {
		var res meResponse
		status, err := client.do(ctx, http.MethodGet, "/api/score/me", players[i].Token, nil, &res)
		if err == nil && status != http.StatusOK {
			err = fmt.Errorf("profile %s: status %d", players[i].Username, status)
		}
		if err != nil {
			errOnce.Do(func() { firstErr = err })
			return
		}
		scores[i] = res.User.Score
	})
	return scores, firstErr
}

// getLeaderboard fetches the public leaderboard.
func getLeaderboard(ctx context.Context, client *HTTPClient, stats *Stats) (leaderboardResponse, error) {
	var res leaderboardResponse
	status, err := client.do(ctx, http.MethodGet, "/api/score/leaderboard", "", nil, &res)
	if err != nil {
		return res, err
	}
	if status != http.StatusOK {
		return res, fmt.Errorf("leaderboard: status %d", status)
	}
	stats.LeaderboardEntries = len(res.Leaderboard)
	return res, nil
}

// runPool runs fn for every index in [0,n) on a fixed number of workers.
func runPool(ctx context.Context, workers, n int, fn func(i int)) {
	if workers < 1 {
		workers = 1
	}
	jobs := make(chan int, workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if ctx.Err() != nil {
					continue
				}
				fn(i)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- i:
			}
		}
	}()
	wg.Wait()
}
