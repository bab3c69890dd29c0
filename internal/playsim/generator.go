package playsim

import (
	"math"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Game generation ranges. All fall inside the accepted submission bounds.
const (
	minWPM         = 10.0
	wpmRange       = 140.0
	minAccuracy    = 70.0
	accuracyRange  = 30.0
	minTimeElapsed = 55.0
	timeRange      = 10.0
	charsPerWord   = 5
)

// generatePlayers creates n players with names unique to this run.
func generatePlayers(n int, rng *rand.Rand) []Player {
	run := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	players := make([]Player, n)
	for i := range players {
		name := "sim_" + run + "_" + strconv.Itoa(i)
		players[i] = Player{
			Username: name,
			Email:    name + "@playsim.local",
			Password: "sim-" + run,
			Game:     generateGame(rng),
		}
	}
	return players
}

// generateGame returns a plausible game result.
func generateGame(rng *rand.Rand) Game {
	wpm := math.Round(minWPM + rng.Float64()*wpmRange)
	accuracy := math.Round(minAccuracy + rng.Float64()*accuracyRange)
	elapsed := math.Round(minTimeElapsed + rng.Float64()*timeRange)
	words := math.Round(wpm * elapsed / 60)
	return Game{
		WPM:               wpm,
		Accuracy:          accuracy,
		WordsTyped:        words,
		CharactersCorrect: math.Round(words * charsPerWord * accuracy / 100),
		TimeElapsed:       elapsed,
	}
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // simulation data
}
