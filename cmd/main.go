package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/typeboard/internal/adapters/http/api"
	"github.com/okian/typeboard/internal/adapters/http/site"
	"github.com/okian/typeboard/internal/adapters/http/swagger"
	"github.com/okian/typeboard/internal/adapters/repository"
	service "github.com/okian/typeboard/internal/app"
	"github.com/okian/typeboard/internal/auth"
	"github.com/okian/typeboard/internal/config"
	"github.com/okian/typeboard/internal/jobs"
	"github.com/okian/typeboard/pkg/logger"
	"github.com/okian/typeboard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		os.Stderr.WriteString("typeboard: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run() error {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> .env -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if cfg.UsesDevSecret() {
		log.Warn(ctx, "using the built-in development jwt_secret; set TYPEBOARD_JWT_SECRET in production")
	}

	if err := configureMetrics(cfg); err != nil {
		return err
	}
	if err := metrics.RegisterProcessCollectors(); err != nil {
		log.Warn(ctx, "process collectors not registered", logger.Error(err))
	}

	a, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if err := a.scheduler.Start(ctx); err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr), logger.String("db_driver", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

// application holds the wired components behind the HTTP server.
type application struct {
	store     repository.Store
	service   *service.Service
	scheduler *jobs.Scheduler
	handler   http.Handler
	log       logger.Logger
}

func build(ctx context.Context, cfg *config.Config, log logger.Logger) (*application, error) {
	store, ping, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL, nil)
	svc := service.New(store, tokens,
		service.WithLogger(log.Named("service")),
		service.WithRateLimit(cfg.RateLimitMax, cfg.RateLimitWindow),
		service.WithDuplicateWindow(cfg.DuplicateWindow),
		service.WithBcryptCost(cfg.BcryptCost),
	)

	if cfg.SeedTexts {
		if _, err := svc.SeedTexts(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("seed texts: %w", err)
		}
	}

	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)

	opts := []api.Option{
		api.WithAllowedOrigins(cfg.Origins()),
		api.WithLogger(log.Named("http")),
	}
	if ping != nil {
		opts = append(opts, api.WithReadiness(ping))
	}
	apiServer := api.NewServer(svc, opts...)
	apiServer.Register(ctx, mux)

	return &application{
		store:   store,
		service: svc,
		scheduler: jobs.New(svc,
			jobs.WithInterval(cfg.MetricsInterval),
			jobs.WithLogger(log.Named("jobs")),
		),
		handler: apiServer.Handler(mux),
		log:     log,
	}, nil
}

// openStore returns the configured store and, for SQL drivers, a readiness probe.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, func(context.Context) error, error) {
	if cfg.DBDriver == config.DriverMemory {
		log.Warn(ctx, "using the in-memory store; data is lost on exit")
		return repository.NewMemoryStore(repository.WithLogger(log.Named("store"))), nil, nil
	}

	st, err := repository.Open(ctx, cfg.DBDriver, cfg.DBDSN,
		repository.WithMaxOpenConns(cfg.DBMaxOpenConns),
		repository.WithSQLLogging(cfg.SQLLogging),
		repository.WithLogger(log.Named("store")),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	return st, st.Ping, nil
}

func (a *application) close(ctx context.Context) {
	if err := a.scheduler.Shutdown(); err != nil {
		a.log.Error(ctx, "scheduler shutdown failed", logger.Error(err))
	}
	if err := a.store.Close(); err != nil {
		a.log.Error(ctx, "store close failed", logger.Error(err))
	}
}

// configureMetrics applies the metric naming and buckets from cfg.
func configureMetrics(cfg *config.Config) error {
	buckets, err := cfg.Buckets()
	if err != nil {
		return err
	}
	metrics.Configure(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithSubsystem(cfg.MetricsSubsystem),
		metrics.WithHistogramBuckets(buckets),
	)
	return nil
}
