package playsim

import (
	"errors"
	"fmt"

	"github.com/okian/typeboard/internal/domain/scoring"
	"github.com/okian/typeboard/internal/domain/types"
)

// ErrVerification is returned when the service broke an invariant.
var ErrVerification = errors.New("verification failed")

// verifyPlayers checks that each burst was accepted exactly once and that the
// stored score matches the award for the game.
func verifyPlayers(players []Player, outcomes []Outcome, scores []int64) error {
	var errs []error
	for i, p := range players {
		o := outcomes[i]
		want := scoring.GameplayPoints(p.Game.WPM)
		if o.Accepted != 1 {
			errs = append(errs, fmt.Errorf("%s: %d of %d submissions accepted, want 1",
				p.Username, o.Accepted, o.Accepted+o.Duplicate+o.RateLimited+o.Failed))
		}
		if o.Failed > 0 {
			errs = append(errs, fmt.Errorf("%s: %d submissions failed", p.Username, o.Failed))
		}
		if o.Points != want*int64(o.Accepted) {
			errs = append(errs, fmt.Errorf("%s: awarded %d points, want %d", p.Username, o.Points, want))
		}
		if scores[i] != o.Points {
			errs = append(errs, fmt.Errorf("%s: stored score %d, awarded %d", p.Username, scores[i], o.Points))
		}
	}
	return wrap(errs)
}

// verifyLeaderboard checks the public leaderboard shape and that every
// simulated player on it shows the score we observed.
func verifyLeaderboard(board []types.LeaderboardEntry, players []Player, scores []int64) error {
	var errs []error
	if len(board) > leaderboardSize {
		errs = append(errs, fmt.Errorf("leaderboard has %d entries, want at most %d", len(board), leaderboardSize))
	}

	known := make(map[string]int64, len(players))
	for i, p := range players {
		known[p.ID] = scores[i]
	}
	for i, e := range board {
		if e.Rank != i+1 {
			errs = append(errs, fmt.Errorf("entry %d has rank %d", i, e.Rank))
		}
		if i > 0 && e.Score > board[i-1].Score {
			errs = append(errs, fmt.Errorf("entry %d (%d) outranks entry %d (%d)", i, e.Score, i-1, board[i-1].Score))
		}
		if want, ok := known[e.ID]; ok && want != e.Score {
			errs = append(errs, fmt.Errorf("%s: leaderboard score %d, profile score %d", e.Username, e.Score, want))
		}
	}

	// a simulated player scoring above the last entry must be on the board
	if len(board) == leaderboardSize {
		floor := board[len(board)-1].Score
		onBoard := make(map[string]bool, len(board))
		for _, e := range board {
			onBoard[e.ID] = true
		}
		for i, p := range players {
			if scores[i] > floor && !onBoard[p.ID] {
				errs = append(errs, fmt.Errorf("%s: score %d missing from leaderboard above %d", p.Username, scores[i], floor))
			}
		}
	} else {
		for _, p := range players {
			if !contains(board, p.ID) {
				errs = append(errs, fmt.Errorf("%s: missing from a short leaderboard", p.Username))
			}
		}
	}
	return wrap(errs)
}

func contains(board []types.LeaderboardEntry, id string) bool {
	for _, e := range board {
		if e.ID == id {
			return true
		}
	}
	return false
}

func wrap(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrVerification, errors.Join(errs...))
}
