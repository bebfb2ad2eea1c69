// internal/store/redis/redisconfig.go

package redis

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RedisConfig holds Redis-specific configuration
type RedisConfig struct {
	Host        string        `mapstructure:"host" yaml:"host"`
	Port        int           `mapstructure:"port" yaml:"port"`
	Password    string        `mapstructure:"password" yaml:"password"`
	DB          int           `mapstructure:"db" yaml:"db"`
	PoolSize    int           `mapstructure:"poolSize" yaml:"poolSize"`
	DialTimeout time.Duration `mapstructure:"dialTimeout" yaml:"dialTimeout"`
	// OperationTimeout bounds every script round trip.
	OperationTimeout time.Duration `mapstructure:"operationTimeout" yaml:"operationTimeout"`
}

// NewRedisConfig creates a new Redis configuration with default values
func NewRedisConfig() *RedisConfig {
	return &RedisConfig{
		Host:             "localhost",
		Port:             6379,
		Password:         "",
		DB:               0,
		PoolSize:         0,
		DialTimeout:      5 * time.Second,
		OperationTimeout: 5 * time.Second,
	}
}

// Validate ensures the Redis configuration is valid
func (c *RedisConfig) Validate() error {
	var errs []string

	if c.Host == "" {
		errs = append(errs, "host is required")
	}

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if c.DB < 0 {
		errs = append(errs, "DB number must be non-negative")
	}

	if c.PoolSize < 0 {
		errs = append(errs, "pool size must be non-negative")
	}

	if c.OperationTimeout <= 0 {
		errs = append(errs, "operation timeout must be positive")
	}

	if len(errs) > 0 {
		return errors.New("store validation failed: " + strings.Join(errs, "; "))
	}

	return nil
}

// Addr returns host:port.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// String returns a string representation of the Redis configuration
func (c *RedisConfig) String() string {
	return fmt.Sprintf(
		"RedisConfig{Addr: %s, DB: %d, PoolSize: %d, OperationTimeout: %s}",
		c.Addr(),
		c.DB,
		c.PoolSize,
		c.OperationTimeout,
	)
}

// Clone creates a copy of the Redis configuration
func (c *RedisConfig) Clone() *RedisConfig {
	clone := *c
	return &clone
}

// GetEndpoints returns a list of Redis endpoints
func (c *RedisConfig) GetEndpoints() []string {
	return []string{c.Addr()}
}
