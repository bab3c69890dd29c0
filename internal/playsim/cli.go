// Package playsim drives a running typeboard service with simulated players
// and checks the score pipeline invariants from the outside.
package playsim

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/typeboard/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0o600
)

// SetupLogging configures logging to the console and, when logFile is set,
// to that file too.
func SetupLogging(logFile string, verbose bool) error {
	var out io.Writer = os.Stdout
	if logFile != "" {
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
		if err != nil {
			return fmt.Errorf("failed to create log file: %w", err)
		}
		out = io.MultiWriter(os.Stdout, file)
	}
	if err := logger.Init(logger.WithOutput(out)); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		return logger.SetLevelString("debug")
	}
	return nil
}

// ShowHelp prints usage information.
func ShowHelp() {
	os.Stdout.WriteString(`typeboard play simulator
========================

Registers players against a running service, fires bursts of identical game
submissions for each, and checks that exactly one per player is credited and
that the leaderboard agrees with the profiles.

Usage:
  go run ./cmd/play-sim [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -players int
        Number of players to register (default 50)
  -burst int
        Identical submissions per player (default 5)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -seed uint
        Seed for generated games (default random)
  -log string
        Also write logs to this file
  -verbose
        Enable verbose logging
  -help
        Show this help message
`)
}
