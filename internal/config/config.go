// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Supported values for DBDriver.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"

	minJWTSecretLen = 16
	devJWTSecret    = "typeboard-dev-secret-change-me"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// AllowedOrigins is a comma separated CORS allow list; "*" allows any.
	AllowedOrigins string `koanf:"allowed_origins"`
	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// DBDriver selects the store: postgres, sqlite or memory.
	DBDriver       string `koanf:"db_driver"`
	DBDSN          string `koanf:"db_dsn"`
	DBMaxOpenConns int    `koanf:"db_max_open_conns"`
	SQLLogging     bool   `koanf:"sql_logging"`

	JWTSecret  string        `koanf:"jwt_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	BcryptCost int           `koanf:"bcrypt_cost"`

	// RateLimitMax scoring actions are allowed per RateLimitWindow.
	RateLimitMax    int           `koanf:"rate_limit_max"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	// DuplicateWindow blocks a second game submitted this soon after the last.
	DuplicateWindow time.Duration `koanf:"duplicate_window"`

	// MetricsInterval is how often gauges are refreshed.
	MetricsInterval time.Duration `koanf:"metrics_interval"`
	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	// MetricsBuckets is a comma separated list of latency buckets in milliseconds.
	MetricsBuckets string `koanf:"metrics_buckets"`

	// SeedTexts inserts the built-in typing texts at startup.
	SeedTexts bool `koanf:"seed_texts"`
}

// New returns a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:        "info",
		LogFormat:       "text",
		Addr:            ":9080",
		AllowedOrigins:  "*",
		ShutdownTimeout: 10 * time.Second,
		DBDriver:        DriverSQLite,
		DBDSN:           "typeboard.db",
		DBMaxOpenConns:  10,
		JWTSecret:       devJWTSecret,
		TokenTTL:        24 * time.Hour,
		BcryptCost:      10,
		RateLimitMax:    10,
		RateLimitWindow: 60 * time.Second,
		DuplicateWindow: 5 * time.Second,
		MetricsInterval: 10 * time.Second,
		SeedTexts:       true,

		MetricsNamespace: "typeboard",
		MetricsSubsystem: "scores",
		MetricsBuckets:   "1,2,5,10,25,50,100,250,500,1000",
	}
}

// UsesDevSecret reports whether the built-in JWT secret is still in place.
func (c *Config) UsesDevSecret() bool { return c.JWTSecret == devJWTSecret }

// Origins splits AllowedOrigins.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Buckets parses MetricsBuckets. Values must be strictly increasing.
func (c *Config) Buckets() ([]float64, error) {
	var out []float64
	for _, part := range strings.Split(c.MetricsBuckets, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: metrics_buckets: %q is not a number", ErrInvalidConfig, part)
		}
		if len(out) > 0 && v <= out[len(out)-1] {
			return nil, fmt.Errorf("%w: metrics_buckets must be increasing", ErrInvalidConfig)
		}
		out = append(out, v)
	}
	return out, nil
}

// Validate checks the configuration is usable.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.DBDriver != DriverPostgres && c.DBDriver != DriverSQLite && c.DBDriver != DriverMemory:
		return fmt.Errorf("%w: unknown db_driver %q", ErrInvalidConfig, c.DBDriver)
	case c.DBDriver != DriverMemory && c.DBDSN == "":
		return fmt.Errorf("%w: db_dsn is required for %s", ErrInvalidConfig, c.DBDriver)
	case len(c.JWTSecret) < minJWTSecretLen:
		return fmt.Errorf("%w: jwt_secret must be at least %d bytes", ErrInvalidConfig, minJWTSecretLen)
	case c.TokenTTL <= 0:
		return fmt.Errorf("%w: token_ttl must be positive", ErrInvalidConfig)
	case c.BcryptCost < 4 || c.BcryptCost > 31:
		return fmt.Errorf("%w: bcrypt_cost must be in [4,31]", ErrInvalidConfig)
	case c.RateLimitMax <= 0 || c.RateLimitWindow <= 0:
		return fmt.Errorf("%w: rate limit must be positive", ErrInvalidConfig)
	case c.DuplicateWindow <= 0:
		return fmt.Errorf("%w: duplicate_window must be positive", ErrInvalidConfig)
	case c.MetricsInterval <= 0:
		return fmt.Errorf("%w: metrics_interval must be positive", ErrInvalidConfig)
	case c.MetricsNamespace == "":
		return fmt.Errorf("%w: metrics_namespace must not be empty", ErrInvalidConfig)
	}
	_, err := c.Buckets()
	return err
}
