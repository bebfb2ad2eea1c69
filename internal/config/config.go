// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/avivl/redis-lock/internal/lock"
	"github.com/avivl/redis-lock/internal/observability"
	"github.com/avivl/redis-lock/internal/scheduler"
	"github.com/avivl/redis-lock/internal/semaphore"
	"github.com/avivl/redis-lock/internal/store"
	"github.com/avivl/redis-lock/internal/store/memory"
	redisstore "github.com/avivl/redis-lock/internal/store/redis"
)

// Config represents the complete coordination configuration.
type Config struct {
	// Enabled switches the whole coordination layer on or off.
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Backend names the registered gateway: "redis" or "memory".
	Backend string `mapstructure:"backend" yaml:"backend"`

	Redis           *redisstore.RedisConfig `mapstructure:"redis" yaml:"redis"`
	DistributedLock lock.Config             `mapstructure:"distributedLock" yaml:"distributedLock"`
	FairSemaphore   semaphore.Config        `mapstructure:"fairSemaphore" yaml:"fairSemaphore"`
	Scheduler       scheduler.Config        `mapstructure:"scheduler" yaml:"scheduler"`

	Logger        observability.LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Observability observability.Config        `mapstructure:"observability" yaml:"observability"`
	Metrics       observability.MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// Default returns the configuration used when no file or environment
// override is present.
func Default() *Config {
	return &Config{
		Enabled:         true,
		Backend:         redisstore.StoreName,
		Redis:           redisstore.NewRedisConfig(),
		DistributedLock: lock.NewConfig(),
		FairSemaphore:   semaphore.NewConfig(),
		Scheduler:       scheduler.NewConfig(),
		Logger:          observability.LoggerConfig{Level: observability.LogLevelInfo},
		Observability: observability.Config{
			ServiceName:    "redis-lock",
			ServiceVersion: "0.1.0",
			Environment:    "development",
			OTelEndpoint:   "localhost:4317",
		},
		Metrics: observability.MetricsConfig{Exporter: observability.MetricsNone},
	}
}

// StoreOptions returns the backend-specific configuration to hand to the
// gateway registry.
func (c *Config) StoreOptions() (store.StoreConfig, error) {
	switch c.Backend {
	case redisstore.StoreName:
		return c.Redis, nil
	case memory.StoreName:
		return &memory.Config{}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}

// Validate validates all configuration sections and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string
	check := func(section string, err error) {
		if err != nil {
			errs = append(errs, section+": "+err.Error())
		}
	}

	switch c.Backend {
	case redisstore.StoreName:
		if c.Redis == nil {
			errs = append(errs, "redis: configuration is required for the redis backend")
		} else {
			check("redis", c.Redis.Validate())
		}
	case memory.StoreName:
	default:
		errs = append(errs, fmt.Sprintf("backend: unknown backend %q", c.Backend))
	}

	check("distributedLock", c.DistributedLock.Validate())
	check("fairSemaphore", c.FairSemaphore.Validate())
	check("scheduler", c.Scheduler.Validate())
	check("metrics", c.Metrics.Validate())

	if c.Observability.ServiceName == "" {
		errs = append(errs, "observability: service name is required")
	}

	if len(errs) > 0 {
		return errors.New("invalid configuration: " + strings.Join(errs, "; "))
	}
	return nil
}
