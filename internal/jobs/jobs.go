// Package jobs runs periodic background work: refreshing the population
// gauges and the runtime metrics.
package jobs

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"

	"github.com/okian/typeboard/internal/domain/types"
	"github.com/okian/typeboard/pkg/logger"
	"github.com/okian/typeboard/pkg/metrics"
)

// DefaultInterval is how often metrics are refreshed.
const DefaultInterval = 10 * time.Second

// StatsRefresher recomputes user counts and publishes them as gauges.
type StatsRefresher interface {
	Stats(ctx context.Context) (types.Stats, error)
}

// Scheduler owns the gocron scheduler and its jobs.
type Scheduler struct {
	stats    StatsRefresher
	interval time.Duration
	clock    clockwork.Clock
	logger   logger.Logger

	sched gocron.Scheduler
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithInterval sets the refresh period. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock sets the clock the scheduler ticks on.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Scheduler. Call Start to begin running jobs.
func New(stats StatsRefresher, opts ...Option) *Scheduler {
	s := &Scheduler{
		stats:    stats,
		interval: DefaultInterval,
		clock:    clockwork.NewRealClock(),
		logger:   logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the refresh job and starts the scheduler. The first run
// happens immediately. ctx bounds every run.
func (s *Scheduler) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler(gocron.WithClock(s.clock))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSchedule, err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(s.interval),
		gocron.NewTask(func() { s.Refresh(ctx) }),
		gocron.WithName("metrics-refresh"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("%w: %w", ErrSchedule, err)
	}

	sched.Start()
	s.sched = sched
	s.logger.Info(ctx, "scheduler started", logger.Duration("interval", s.interval))
	return nil
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	if s.sched == nil {
		return nil
	}
	if err := s.sched.Shutdown(); err != nil {
		return fmt.Errorf("%w: %w", ErrShutdown, err)
	}
	return nil
}

// Refresh runs one metrics refresh.
func (s *Scheduler) Refresh(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	collectRuntime()

	st, err := s.stats.Stats(ctx)
	if err != nil {
		s.logger.Warn(ctx, "stats refresh failed", logger.Error(err))
		return
	}
	s.logger.Debug(ctx, "stats refreshed",
		logger.Int64("users", st.Users),
		logger.Int64("active_users", st.ActiveUsers),
		logger.Int("texts", st.Texts),
	)
}

func collectRuntime() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		last := m.PauseNs[(m.NumGC+255)%256]
		metrics.RecordSystemGCPauseTime(float64(last) / float64(time.Millisecond))
	}
}
