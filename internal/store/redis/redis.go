// internal/store/redis/redis.go
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avivl/redis-lock/internal/faults"
	"github.com/avivl/redis-lock/internal/observability"
	"github.com/avivl/redis-lock/internal/store"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StoreName is the name of the store
const StoreName string = "redis"

// Gateway runs the coordination scripts on Redis.
type Gateway struct {
	client  redis.UniversalClient
	scripts *ScriptCache
	timeout time.Duration
	logger  *observability.SLogger
	tracer  trace.Tracer
}

// init registers the Redis gateway with the store registry
func init() {
	store.Register(StoreName, newGateway)
}

func newGateway(ctx context.Context, options store.Config, logger *observability.SLogger) (store.Gateway, error) {
	cfg, ok := options.(*RedisConfig)
	if !ok {
		return nil, &store.InvalidConfigurationError{Store: StoreName, Config: options}
	}
	return New(ctx, cfg, logger)
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg *RedisConfig, logger *observability.SLogger) (*Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid Redis configuration: %w", err)
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr(),
		Password:    cfg.Password,
		DB:          cfg.DB,
		PoolSize:    cfg.PoolSize,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.OperationTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, &faults.ConnectivityError{Op: "ping", Err: fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)}
	}

	gw := NewWithClient(client, cfg, logger)
	if err := gw.Preload(pingCtx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return gw, nil
}

// NewWithClient wraps an existing client. The gateway owns it from here on.
func NewWithClient(client redis.UniversalClient, cfg *RedisConfig, logger *observability.SLogger) *Gateway {
	return &Gateway{
		client:  client,
		scripts: NewScriptCache(),
		timeout: cfg.OperationTimeout,
		logger:  logger.Named(StoreName),
		tracer:  observability.Tracer(),
	}
}

// Execute implements store.Gateway.
func (g *Gateway) Execute(ctx context.Context, op store.Operation, keys []string, args ...any) (store.Outcome, error) {
	script, err := g.scripts.Get(op)
	if err != nil {
		return store.Outcome{}, err
	}

	ctx, span := g.tracer.Start(ctx, "redis "+string(op), trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "redis"), attribute.StringSlice("redis.keys", keys)))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := script.Run(ctx, g.client, keys, args...).Text()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Debugw("script failed", "op", op, "keys", keys, "error", err)
		return store.Outcome{}, &faults.ConnectivityError{Op: string(op), Err: err}
	}

	var outcome store.Outcome
	if err := json.Unmarshal([]byte(raw), &outcome); err != nil {
		span.SetStatus(codes.Error, "malformed response")
		return store.Outcome{}, &faults.ConnectivityError{Op: string(op), Err: fmt.Errorf("malformed response %q: %w", raw, err)}
	}

	span.SetAttributes(attribute.String("redislock.result", outcome.Result))
	return outcome, nil
}

// Preload loads every script into the server's script cache so the first
// call of each operation is an EVALSHA hit.
func (g *Gateway) Preload(ctx context.Context) error {
	for _, op := range store.Operations {
		script, err := g.scripts.Get(op)
		if err != nil {
			return err
		}
		if err := script.Load(ctx, g.client).Err(); err != nil {
			return &faults.ConnectivityError{Op: string(op), Err: err}
		}
	}
	return nil
}

// Close closes the Redis client.
func (g *Gateway) Close() error {
	return g.client.Close()
}
