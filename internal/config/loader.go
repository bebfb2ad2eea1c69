// internal/config/loader.go
// Package config handles configuration loading and watching
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/avivl/redis-lock/internal/observability"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. REDISLOCK_REDIS_HOST.
const EnvPrefix = "REDISLOCK"

// Loader reads configuration from file and environment and notifies
// watchers when the file changes.
type Loader struct {
	v        *viper.Viper
	mu       sync.RWMutex
	watchers []func(*Config)
	current  *Config
	logger   *observability.SLogger
}

// NewLoader creates a loader. configPath may be a directory holding
// config.yaml, a path to a yaml file, or empty for the working directory.
func NewLoader(configPath string, logger *observability.SLogger) *Loader {
	v := viper.New()
	switch ext := filepath.Ext(configPath); {
	case ext == ".yaml" || ext == ".yml":
		v.SetConfigFile(configPath)
	default:
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if configPath != "" {
			v.AddConfigPath(configPath)
		}
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Loader{v: v, logger: logger.Named("config")}
}

// Load reads and validates the configuration. A missing config.yaml in a
// searched directory is not an error; a missing explicit file is.
func Load(configPath string, logger *observability.SLogger) (*Loader, *Config, error) {
	l := NewLoader(configPath, logger)

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, nil, fmt.Errorf("error reading config file: %w", err)
		}
		l.logger.Debugw("no config file found, using defaults and environment variables")
	}

	cfg, err := l.decode()
	if err != nil {
		return nil, nil, err
	}

	l.mu.Lock()
	l.current = cfg
	l.mu.Unlock()

	return l, cfg, nil
}

// Watch starts reloading on file changes. It is a no-op when no file was read.
func (l *Loader) Watch() {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	if _, err := os.Stat(l.v.ConfigFileUsed()); err != nil {
		return
	}

	l.v.OnConfigChange(func(e fsnotify.Event) {
		l.logger.Infow("config file changed", "file", e.Name)

		cfg, err := l.decode()
		if err != nil {
			l.logger.Errorw("keeping previous configuration", "error", err)
			return
		}

		l.mu.Lock()
		l.current = cfg
		l.mu.Unlock()

		l.notifyWatchers(cfg)
	})
	l.v.WatchConfig()
}

// AddWatcher adds a callback function that will be called when configuration changes
func (l *Loader) AddWatcher(callback func(*Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.watchers = append(l.watchers, callback)
}

// Current returns the last successfully loaded configuration.
func (l *Loader) Current() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// ConfigFileUsed returns the file the configuration was read from, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

func (l *Loader) notifyWatchers(cfg *Config) {
	l.mu.RLock()
	watchers := slices.Clone(l.watchers)
	l.mu.RUnlock()

	for _, watcher := range watchers {
		watcher(cfg)
	}
}

func (l *Loader) decode() (*Config, error) {
	cfg := Default()
	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so that environment overrides apply even
// when the key is absent from the file.
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("enabled", d.Enabled)
	v.SetDefault("backend", d.Backend)

	v.SetDefault("redis.host", d.Redis.Host)
	v.SetDefault("redis.port", d.Redis.Port)
	v.SetDefault("redis.password", d.Redis.Password)
	v.SetDefault("redis.db", d.Redis.DB)
	v.SetDefault("redis.poolSize", d.Redis.PoolSize)
	v.SetDefault("redis.dialTimeout", d.Redis.DialTimeout)
	v.SetDefault("redis.operationTimeout", d.Redis.OperationTimeout)

	v.SetDefault("distributedLock.keyPrefix", d.DistributedLock.KeyPrefix)
	v.SetDefault("distributedLock.minPollInterval", d.DistributedLock.MinPollInterval)
	v.SetDefault("distributedLock.maxPollInterval", d.DistributedLock.MaxPollInterval)

	v.SetDefault("fairSemaphore.keyPrefix", d.FairSemaphore.KeyPrefix)
	v.SetDefault("fairSemaphore.renewalThreshold", d.FairSemaphore.RenewalThreshold)

	v.SetDefault("scheduler.name", d.Scheduler.Name)
	v.SetDefault("scheduler.maxWorkers", d.Scheduler.MaxWorkers)
	v.SetDefault("scheduler.queueCapacity", d.Scheduler.QueueCapacity)
	v.SetDefault("scheduler.idleTTL", d.Scheduler.IdleTTL)
	v.SetDefault("scheduler.daemon", d.Scheduler.Daemon)

	v.SetDefault("logger.level", string(d.Logger.Level))

	v.SetDefault("observability.serviceName", d.Observability.ServiceName)
	v.SetDefault("observability.serviceVersion", d.Observability.ServiceVersion)
	v.SetDefault("observability.environment", d.Observability.Environment)
	v.SetDefault("observability.otelEndpoint", d.Observability.OTelEndpoint)

	v.SetDefault("metrics.exporter", string(d.Metrics.Exporter))
}
