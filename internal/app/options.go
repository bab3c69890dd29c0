package service

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/okian/typeboard/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock sets the time source shared by the guard, the ledger and registration.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithRateLimit sets the per-user scoring budget.
func WithRateLimit(maxActions int, window time.Duration) Option {
	return func(s *Service) {
		if maxActions > 0 {
			s.rateLimit = int64(maxActions)
		}
		if window > 0 {
			s.rateWindow = window
		}
	}
}

// WithDuplicateWindow sets how long a finished game blocks a resubmission.
func WithDuplicateWindow(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.duplicateWindow = d
		}
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		if cost > 0 {
			s.bcryptCost = cost
		}
	}
}
