// internal/scheduler/config.go
package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Config sizes the worker pool that store round trips run on.
type Config struct {
	Name          string        `mapstructure:"name" yaml:"name"`
	MaxWorkers    int           `mapstructure:"maxWorkers" yaml:"maxWorkers"`
	QueueCapacity int           `mapstructure:"queueCapacity" yaml:"queueCapacity"`
	IdleTTL       time.Duration `mapstructure:"idleTTL" yaml:"idleTTL"`
	// Daemon workers are not waited for on Close.
	Daemon bool `mapstructure:"daemon" yaml:"daemon"`
}

// NewConfig returns the default pool sizing.
func NewConfig() Config {
	return Config{
		Name:          "redis-lock",
		MaxWorkers:    32,
		QueueCapacity: 1024,
		IdleTTL:       60 * time.Second,
		Daemon:        true,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []string

	if c.Name == "" {
		errs = append(errs, "scheduler name is required")
	}
	if c.MaxWorkers < 1 {
		errs = append(errs, "scheduler maxWorkers must be at least 1")
	}
	if c.QueueCapacity < 1 {
		errs = append(errs, "scheduler queueCapacity must be at least 1")
	}
	if c.IdleTTL <= 0 {
		errs = append(errs, "scheduler idleTTL must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
