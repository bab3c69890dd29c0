package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/typeboard/internal/playsim"
	"github.com/okian/typeboard/pkg/logger"
)

// Default configuration constants.
const (
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL = flag.String("url", "http://localhost:9080", "Base URL of the service")
		players = flag.Int("players", playsim.DefaultPlayers, "Number of players to register")
		burst   = flag.Int("burst", playsim.DefaultBurst, "Identical submissions per player")
		workers = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		seed    = flag.Uint64("seed", 0, "Seed for generated games (0 = random)")
		logFile = flag.String("log", "", "Also write logs to this file")
		verbose = flag.Bool("verbose", false, "Enable verbose logging")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		playsim.ShowHelp()
		return
	}

	if err := playsim.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	config := &playsim.Config{
		BaseURL: *baseURL,
		Players: *players,
		Burst:   *burst,
		Workers: *workers,
		Timeout: *timeout,
		Seed:    *seed,
		Verbose: *verbose,
		Logger:  logger.Get(),
	}

	_, err := playsim.Run(ctx, config)
	cancel()
	if err != nil {
		os.Stderr.WriteString("Simulation failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
