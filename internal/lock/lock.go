// internal/lock/lock.go
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avivl/redis-lock/internal/coordination"
	"github.com/avivl/redis-lock/internal/faults"
	"github.com/avivl/redis-lock/internal/observability"
	"github.com/avivl/redis-lock/internal/store"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
)

// errLockBusy marks a single attempt that found the lock held.
var errLockBusy = errors.New("lock busy")

// Config controls key naming and the acquire poll cadence.
type Config struct {
	KeyPrefix       string        `mapstructure:"keyPrefix" yaml:"keyPrefix"`
	MinPollInterval time.Duration `mapstructure:"minPollInterval" yaml:"minPollInterval"`
	MaxPollInterval time.Duration `mapstructure:"maxPollInterval" yaml:"maxPollInterval"`
}

// NewConfig returns the default lock configuration.
func NewConfig() Config {
	return Config{
		KeyPrefix:       "lock",
		MinPollInterval: 10 * time.Millisecond,
		MaxPollInterval: 250 * time.Millisecond,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.KeyPrefix == "":
		return errors.New("lock key prefix is required")
	case c.MinPollInterval <= 0:
		return errors.New("lock minPollInterval must be positive")
	case c.MaxPollInterval < c.MinPollInterval:
		return errors.New("lock maxPollInterval must not be below minPollInterval")
	}
	return nil
}

// Handle identifies one successful acquisition.
type Handle struct {
	Name   string
	Key    string
	Holder string
	// AcquireDeadline is when we would have stopped waiting.
	AcquireDeadline time.Time
	// LeaseDeadline is when the store drops the lock unless it is released first.
	LeaseDeadline time.Time
}

// DistributedLock is a mutual-exclusion lock held in the coordination store.
type DistributedLock struct {
	gateway    store.Gateway
	cfg        Config
	classifier *faults.Classifier
	logger     *observability.SLogger
}

// New creates a DistributedLock.
func New(gateway store.Gateway, cfg Config, classifier *faults.Classifier, logger *observability.SLogger) *DistributedLock {
	return &DistributedLock{
		gateway:    gateway,
		cfg:        cfg,
		classifier: classifier,
		logger:     logger.Named("lock"),
	}
}

// Key returns the store key for a lock name.
func (l *DistributedLock) Key(name string) string {
	return l.cfg.KeyPrefix + ":" + name
}

// Acquire takes the lock, polling until acquireTimeout elapses. A zero
// acquireTimeout makes exactly one attempt.
func (l *DistributedLock) Acquire(ctx context.Context, name string, acquireTimeout, leaseTimeout time.Duration) (*Handle, error) {
	if name == "" {
		return nil, errors.New("lock name cannot be empty")
	}
	if leaseTimeout < time.Millisecond {
		return nil, fmt.Errorf("lock %q: lease timeout must be at least 1ms, got %s", name, leaseTimeout)
	}
	if acquireTimeout < 0 {
		return nil, fmt.Errorf("lock %q: acquire timeout must not be negative", name)
	}

	key := l.Key(name)
	holder := uuid.NewString()
	start := time.Now()
	deadline := start.Add(acquireTimeout)

	attempt := func() error {
		remaining := max(time.Until(deadline), 0)
		out, err := l.gateway.Execute(ctx, store.OpLockAcquire, []string{key},
			holder, store.Millis(remaining), store.Millis(leaseTimeout))
		if err != nil {
			return backoff.Permanent(err)
		}
		result, err := store.ParseLockAcquire(out)
		if err != nil {
			return backoff.Permanent(err)
		}
		if result == store.LockTimedOut {
			return errLockBusy
		}
		return nil
	}

	err := backoff.Retry(attempt, backoff.WithContext(l.pollPolicy(deadline, acquireTimeout), ctx))
	switch {
	case err == nil:
	case errors.Is(err, errLockBusy):
		timeoutErr := &faults.AcquireTimeoutError{Lock: name, AcquireTimeout: acquireTimeout}
		return nil, l.classifier.Handle(ctx, faults.LockAcquireTimeout, name, timeoutErr)
	case ctx.Err() != nil:
		// the caller gave up; not a store fault
		return nil, err
	default:
		return nil, l.classifier.Propagate(ctx, name, err)
	}

	h := &Handle{
		Name:            name,
		Key:             key,
		Holder:          holder,
		AcquireDeadline: deadline,
		LeaseDeadline:   time.Now().Add(leaseTimeout),
	}
	l.logger.Ctx(ctx).Debugw("lock acquired", "lock", name, "holder", holder, "waited", time.Since(start))
	return h, nil
}

func (l *DistributedLock) pollPolicy(deadline time.Time, acquireTimeout time.Duration) backoff.BackOff {
	if acquireTimeout <= 0 {
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = l.cfg.MinPollInterval
	b.MaxInterval = l.cfg.MaxPollInterval
	b.MaxElapsedTime = 0
	return &deadlineBackOff{next: b, deadline: deadline}
}

// deadlineBackOff clamps every wait to the acquire deadline so that one last
// attempt always runs at the deadline. It stops only after that attempt.
type deadlineBackOff struct {
	next     backoff.BackOff
	deadline time.Time
	last     bool
}

func (b *deadlineBackOff) NextBackOff() time.Duration {
	if b.last {
		return backoff.Stop
	}
	d := b.next.NextBackOff()
	if d == backoff.Stop {
		return backoff.Stop
	}
	remaining := time.Until(b.deadline)
	if d >= remaining {
		b.last = true
		return max(remaining, 0)
	}
	return d
}

func (b *deadlineBackOff) Reset() {
	b.last = false
	b.next.Reset()
}

// Release gives the lock back. Races with expiry or another holder are
// logged and counted but not returned; store failures are.
func (l *DistributedLock) Release(ctx context.Context, h *Handle) error {
	out, err := l.gateway.Execute(ctx, store.OpLockRelease, []string{h.Key}, h.Holder)
	if err != nil {
		return l.classifier.Propagate(ctx, h.Name, err)
	}
	result, err := store.ParseLockRelease(out)
	if err != nil {
		return l.classifier.Propagate(ctx, h.Name, err)
	}

	switch result {
	case store.LockNotFound:
		return l.classifier.Handle(ctx, faults.LockNotFound, h.Name,
			fmt.Errorf("lock %q expired before release", h.Name))
	case store.LockConcurrentDelete:
		return l.classifier.Handle(ctx, faults.LockConcurrentDelete, h.Name,
			fmt.Errorf("lock %q deleted concurrently", h.Name))
	case store.LockOwnedByOthers:
		return l.classifier.Handle(ctx, faults.LockOwnedByOthers, h.Name,
			fmt.Errorf("lock %q held by another holder at release", h.Name))
	}

	l.logger.Ctx(ctx).Debugw("lock released", "lock", h.Name, "holder", h.Holder)
	return nil
}

// WithLock runs action while holding the named lock and always releases it.
func WithLock[T any](ctx context.Context, l *DistributedLock, name string, acquireTimeout, leaseTimeout time.Duration, action func(ctx context.Context, h *Handle) (T, error)) (T, error) {
	return coordination.Run(ctx, coordination.Scope[*Handle]{
		Kind: "lock",
		Name: name,
		Acquire: func(ctx context.Context) (*Handle, error) {
			return l.Acquire(ctx, name, acquireTimeout, leaseTimeout)
		},
		Release: l.Release,
		Logger:  l.logger,
	}, action)
}
