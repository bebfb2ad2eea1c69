// client/go/redislock/types.go
package redislock

import (
	"github.com/avivl/redis-lock/internal/config"
	"github.com/avivl/redis-lock/internal/observability"
	"github.com/avivl/redis-lock/internal/store"
	"github.com/avivl/redis-lock/internal/store/memory"
)

// Config is the complete client configuration.
type Config = config.Config

// Logger is the structured logger the client writes to.
type Logger = observability.SLogger

// LogLevel selects the minimum level a Logger emits.
type LogLevel = observability.LogLevel

const (
	LogLevelDebug = observability.LogLevelDebug
	LogLevelInfo  = observability.LogLevelInfo
	LogLevelWarn  = observability.LogLevelWarn
	LogLevelError = observability.LogLevelError
)

// MetricsExporter selects where fault counts go.
type MetricsExporter = observability.MetricsExporter

const (
	MetricsNone       = observability.MetricsNone
	MetricsCounting   = observability.MetricsCounting
	MetricsOTel       = observability.MetricsOTel
	MetricsPrometheus = observability.MetricsPrometheus
)

// FaultRecorder counts coordination faults by kind and resource.
type FaultRecorder = observability.FaultRecorder

type (
	CountingRecorder   = observability.CountingRecorder
	PrometheusRecorder = observability.PrometheusRecorder
	NopRecorder        = observability.NopRecorder
)

// Gateway runs the store-side operations. Implementations answer each
// Operation with an Outcome carrying one result tag.
type Gateway = store.Gateway

type (
	Operation = store.Operation
	Outcome   = store.Outcome
)

const (
	OpLockAcquire      = store.OpLockAcquire
	OpLockRelease      = store.OpLockRelease
	OpSemaphoreAcquire = store.OpSemaphoreAcquire
	OpSemaphoreRefresh = store.OpSemaphoreRefresh
	OpSemaphoreRelease = store.OpSemaphoreRelease
)

// MemoryGateway keeps all coordination state in process memory.
type MemoryGateway = memory.Gateway

// NewLogger returns a production logger at level.
func NewLogger(level LogLevel) (*Logger, error) {
	return observability.NewLogger(level.GetZapLevel())
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return observability.NewNopLogger()
}

// NewCountingRecorder returns an in-process fault counter.
func NewCountingRecorder() *CountingRecorder {
	return observability.NewCountingRecorder()
}

// NewMemoryGateway returns an empty in-process gateway, for tests and
// single-process use.
func NewMemoryGateway(logger *Logger) *MemoryGateway {
	return memory.New(&memory.Config{}, logger)
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return config.Default()
}

// LoadConfig reads configuration from path (a yaml file or a directory
// holding config.yaml) with REDISLOCK_* environment overrides.
func LoadConfig(path string, logger *Logger) (*Config, error) {
	_, cfg, err := config.Load(path, logger)
	return cfg, err
}
