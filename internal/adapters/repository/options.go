package repository

import (
	"github.com/jonboulle/clockwork"
	"github.com/okian/typeboard/pkg/logger"
)

type options struct {
	maxOpenConns int
	sqlLogging   bool
	clock        clockwork.Clock
	log          logger.Logger
}

// Option applies a configuration option to a store.
type Option func(*options)

// WithMaxOpenConns caps the connection pool. Ignored for sqlite, which runs
// on a single connection.
func WithMaxOpenConns(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxOpenConns = n
		}
	}
}

// WithSQLLogging turns on gorm statement logging.
func WithSQLLogging(on bool) Option {
	return func(o *options) {
		o.sqlLogging = on
	}
}

// WithClock sets the time source for generated timestamps.
func WithClock(c clockwork.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used to report store faults.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		maxOpenConns: 10,
		clock:        clockwork.NewRealClock(),
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
