package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/typeboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.DBDriver, convey.ShouldEqual, config.DriverSQLite)
			convey.So(cfg.RateLimitMax, convey.ShouldEqual, 10)
			convey.So(cfg.RateLimitWindow, convey.ShouldEqual, time.Minute)
			convey.So(cfg.DuplicateWindow, convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.TokenTTL, convey.ShouldEqual, 24*time.Hour)
			convey.So(cfg.UsesDevSecret(), convey.ShouldBeTrue)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with a single bad value", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":      func(c *config.Config) { c.Addr = "" },
			"unknown driver":  func(c *config.Config) { c.DBDriver = "oracle" },
			"missing dsn":     func(c *config.Config) { c.DBDriver = config.DriverPostgres; c.DBDSN = "" },
			"short secret":    func(c *config.Config) { c.JWTSecret = "short" },
			"zero ttl":        func(c *config.Config) { c.TokenTTL = 0 },
			"bcrypt too low":  func(c *config.Config) { c.BcryptCost = 2 },
			"zero rate limit": func(c *config.Config) { c.RateLimitMax = 0 },
			"zero window":     func(c *config.Config) { c.DuplicateWindow = 0 },
			"zero interval":   func(c *config.Config) { c.MetricsInterval = 0 },
			"no namespace":    func(c *config.Config) { c.MetricsNamespace = "" },
			"bad bucket":      func(c *config.Config) { c.MetricsBuckets = "1,two" },
			"unsorted bucket": func(c *config.Config) { c.MetricsBuckets = "5,1" },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.Printf("%s -> %v\n", name, err)
		}

		convey.Convey("Then the memory driver needs no dsn", func() {
			cfg := config.New()
			cfg.DBDriver = config.DriverMemory
			cfg.DBDSN = ""
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Buckets(t *testing.T) {
	convey.Convey("Given a bucket list with stray spaces", t, func() {
		cfg := config.New()
		cfg.MetricsBuckets = " 0.5, 1 ,,10"
		buckets, err := cfg.Buckets()
		convey.So(err, convey.ShouldBeNil)
		convey.So(buckets, convey.ShouldResemble, []float64{0.5, 1, 10})
	})
}

func TestConfig_Origins(t *testing.T) {
	convey.Convey("Given a comma separated origin list", t, func() {
		cfg := config.New()
		cfg.AllowedOrigins = " https://a.example , ,https://b.example"
		convey.So(cfg.Origins(), convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
	})
}
