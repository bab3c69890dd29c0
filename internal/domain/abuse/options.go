package abuse

import (
	"time"

	"github.com/jonboulle/clockwork"
)

// Option applies a configuration option to the Guard.
type Option func(*Guard)

// WithClock sets the time source.
func WithClock(c clockwork.Clock) Option {
	return func(g *Guard) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithRateLimit sets how many scoring actions are allowed per window.
func WithRateLimit(maxActions int64, window time.Duration) Option {
	return func(g *Guard) {
		if maxActions > 0 {
			g.rateLimit = maxActions
		}
		if window > 0 {
			g.rateWindow = window
		}
	}
}

// WithDuplicateWindow sets how long a finished game blocks a resubmission.
func WithDuplicateWindow(window time.Duration) Option {
	return func(g *Guard) {
		if window > 0 {
			g.duplicateWindow = window
		}
	}
}
