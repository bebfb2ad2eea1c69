// internal/observability/config.go
package observability

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// LogLevel represents logging levels
type LogLevel string

const (
	LogLevelDebug LogLevel = "LOG_LEVELS_DEBUGLEVEL"
	LogLevelInfo  LogLevel = "LOG_LEVELS_INFOLEVEL"
	LogLevelWarn  LogLevel = "LOG_LEVELS_WARNLEVEL"
	LogLevelError LogLevel = "LOG_LEVELS_ERRORLEVEL"
)

// GetZapLevel converts LogLevel to zapcore.Level
func (l LogLevel) GetZapLevel() zapcore.Level {
	switch l {
	case LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// MetricsExporter selects where fault counters go.
type MetricsExporter string

const (
	MetricsNone       MetricsExporter = "none"
	MetricsCounting   MetricsExporter = "counting"
	MetricsOTel       MetricsExporter = "otel"
	MetricsPrometheus MetricsExporter = "prometheus"
)

// Config represents OpenTelemetry configuration
type Config struct {
	ServiceName    string `mapstructure:"serviceName" yaml:"serviceName"`
	ServiceVersion string `mapstructure:"serviceVersion" yaml:"serviceVersion"`
	Environment    string `mapstructure:"environment" yaml:"environment"`
	OTelEndpoint   string `mapstructure:"otelEndpoint" yaml:"otelEndpoint"`
}

// LoggerConfig represents logging configuration
type LoggerConfig struct {
	Level LogLevel `mapstructure:"level" yaml:"level"`
}

// MetricsConfig selects the fault recorder implementation.
type MetricsConfig struct {
	Exporter MetricsExporter `mapstructure:"exporter" yaml:"exporter"`
}

// Validate checks the metrics exporter name.
func (c MetricsConfig) Validate() error {
	switch MetricsExporter(strings.ToLower(string(c.Exporter))) {
	case "", MetricsNone, MetricsCounting, MetricsOTel, MetricsPrometheus:
		return nil
	default:
		return fmt.Errorf("unknown metrics exporter %q", c.Exporter)
	}
}
