// client/go/redislock/client.go
package redislock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avivl/redis-lock/internal/faults"
	"github.com/avivl/redis-lock/internal/lock"
	"github.com/avivl/redis-lock/internal/observability"
	"github.com/avivl/redis-lock/internal/scheduler"
	"github.com/avivl/redis-lock/internal/semaphore"
	"github.com/avivl/redis-lock/internal/store"
	"github.com/prometheus/client_golang/prometheus"

	// registered backends
	_ "github.com/avivl/redis-lock/internal/store/memory"
	_ "github.com/avivl/redis-lock/internal/store/redis"
)

// ErrDisabled is returned by New when the configuration switches coordination off.
var ErrDisabled = errors.New("redis-lock: coordination is disabled")

// Client runs actions under distributed locks and fair semaphores.
type Client struct {
	cfg       *Config
	logger    *Logger
	recorder  FaultRecorder
	scheduler *scheduler.Scheduler
	gateway   store.Gateway
	lock      *lock.DistributedLock
	semaphore *semaphore.FairSemaphore
}

// Option is a function that configures a Client.
type Option func(*options)

type options struct {
	logger   *Logger
	gateway  Gateway
	recorder FaultRecorder
	registry prometheus.Registerer
}

// WithLogger sets the logger. The default is built from the logger section.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithGateway injects a ready gateway instead of building one from the
// backend section. The client takes ownership of it.
func WithGateway(g Gateway) Option {
	return func(o *options) {
		o.gateway = g
	}
}

// WithFaultRecorder overrides the recorder selected by metrics.exporter.
func WithFaultRecorder(r FaultRecorder) Option {
	return func(o *options) {
		o.recorder = r
	}
}

// WithPrometheusRegisterer sets where the prometheus exporter registers its
// counter. Defaults to prometheus.DefaultRegisterer.
func WithPrometheusRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// New validates cfg and wires the backend, scheduler and primitives.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("configuration cannot be nil")
	}
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := &options{registry: prometheus.DefaultRegisterer}
	for _, opt := range opts {
		opt(o)
	}

	logger := o.logger
	if logger == nil {
		l, err := observability.NewLogger(cfg.Logger.Level.GetZapLevel())
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
		logger = l
	}

	recorder := o.recorder
	if recorder == nil {
		r, err := newRecorder(cfg, o.registry, logger)
		if err != nil {
			return nil, err
		}
		recorder = r
	}

	sched, err := scheduler.New(cfg.Scheduler, logger)
	if err != nil {
		return nil, err
	}

	gateway := o.gateway
	if gateway == nil {
		storeOptions, err := cfg.StoreOptions()
		if err != nil {
			_ = sched.Close()
			return nil, err
		}
		gateway, err = store.NewGateway(ctx, cfg.Backend, storeOptions, logger)
		if err != nil {
			_ = sched.Close()
			return nil, fmt.Errorf("failed to create %s gateway: %w", cfg.Backend, err)
		}
		logger.Infow("connected to coordination store", "backend", cfg.Backend, "endpoints", storeOptions.GetEndpoints())
	}
	gateway = store.Dispatch(gateway, sched)

	classifier := faults.NewClassifier(logger, recorder)
	c := &Client{
		cfg:       cfg,
		logger:    logger,
		recorder:  recorder,
		scheduler: sched,
		gateway:   gateway,
		lock:      lock.New(gateway, cfg.DistributedLock, classifier, logger),
		semaphore: semaphore.New(gateway, cfg.FairSemaphore, classifier, logger),
	}
	logger.Infow("redis-lock client ready", "backend", cfg.Backend, "metrics", cfg.Metrics.Exporter)
	return c, nil
}

func newRecorder(cfg *Config, reg prometheus.Registerer, logger *Logger) (FaultRecorder, error) {
	switch cfg.Metrics.Exporter {
	case observability.MetricsOTel:
		return observability.NewOTelRecorder(cfg.Observability, logger)
	case observability.MetricsPrometheus:
		return observability.NewPrometheusRecorder(reg)
	case observability.MetricsCounting:
		return observability.NewCountingRecorder(), nil
	default:
		return observability.NopRecorder{}, nil
	}
}

// FaultRecorder returns the recorder faults are counted on.
func (c *Client) FaultRecorder() FaultRecorder {
	return c.recorder
}

// Config returns the configuration the client was built with.
func (c *Client) Config() *Config {
	return c.cfg
}

// Close stops the scheduler and closes the gateway.
func (c *Client) Close() error {
	return errors.Join(c.scheduler.Close(), c.gateway.Close())
}

// WithLock runs action while holding the named lock. It waits up to
// acquireTimeout for the lock; the store drops it after lease if the
// release never arrives. action receives the holder identifier.
func WithLock[T any](ctx context.Context, c *Client, name string, acquireTimeout, lease time.Duration, action func(ctx context.Context, holder string) (T, error)) (T, error) {
	return lock.WithLock(ctx, c.lock, name, acquireTimeout, lease, func(ctx context.Context, h *lock.Handle) (T, error) {
		return action(ctx, h.Holder)
	})
}

// WithFairSemaphore runs action while holding one of limit slots of the
// named semaphore. Leases longer than the renewal threshold are refreshed
// in the background until action returns.
func WithFairSemaphore[T any](ctx context.Context, c *Client, name string, limit int64, lease time.Duration, action func(ctx context.Context, holder string) (T, error)) (T, error) {
	return semaphore.WithFairSemaphore(ctx, c.semaphore, name, limit, lease, func(ctx context.Context, h *semaphore.Handle) (T, error) {
		return action(ctx, h.Holder)
	})
}
