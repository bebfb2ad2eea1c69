// internal/semaphore/semaphore.go
package semaphore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avivl/redis-lock/internal/coordination"
	"github.com/avivl/redis-lock/internal/faults"
	"github.com/avivl/redis-lock/internal/observability"
	"github.com/avivl/redis-lock/internal/store"
	"github.com/google/uuid"
)

// Config controls key naming and when leases are renewed in the background.
type Config struct {
	KeyPrefix string `mapstructure:"keyPrefix" yaml:"keyPrefix"`
	// Leases longer than RenewalThreshold are refreshed every lease/2 while
	// the caller's logic runs. Shorter leases are never renewed.
	RenewalThreshold time.Duration `mapstructure:"renewalThreshold" yaml:"renewalThreshold"`
}

// NewConfig returns the default semaphore configuration.
func NewConfig() Config {
	return Config{
		KeyPrefix:        "semaphore",
		RenewalThreshold: 10 * time.Second,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.KeyPrefix == "" {
		return errors.New("semaphore key prefix is required")
	}
	if c.RenewalThreshold < 0 {
		return errors.New("semaphore renewalThreshold must not be negative")
	}
	return nil
}

// Keys are the three store keys backing one semaphore. The name is wrapped
// in a hash tag so all three land in the same cluster slot.
type Keys struct {
	Deadlines string
	Owners    string
	Counter   string
}

// Handle identifies one admitted holder.
type Handle struct {
	Name         string
	Keys         Keys
	Holder       string
	Limit        int64
	LeaseTimeout time.Duration
}

// FairSemaphore admits at most limit concurrent holders per name and keeps
// their admission order.
type FairSemaphore struct {
	gateway    store.Gateway
	cfg        Config
	classifier *faults.Classifier
	logger     *observability.SLogger
}

// New creates a FairSemaphore.
func New(gateway store.Gateway, cfg Config, classifier *faults.Classifier, logger *observability.SLogger) *FairSemaphore {
	return &FairSemaphore{
		gateway:    gateway,
		cfg:        cfg,
		classifier: classifier,
		logger:     logger.Named("semaphore"),
	}
}

// KeysFor returns the store keys for a semaphore name.
func (s *FairSemaphore) KeysFor(name string) Keys {
	base := s.cfg.KeyPrefix + ":{" + name + "}"
	return Keys{
		Deadlines: base,
		Owners:    base + ":owner",
		Counter:   base + ":counter",
	}
}

// Acquire takes a slot or fails immediately with *faults.AcquireFailedError.
func (s *FairSemaphore) Acquire(ctx context.Context, name string, limit int64, leaseTimeout time.Duration) (*Handle, error) {
	if name == "" {
		return nil, errors.New("semaphore name cannot be empty")
	}
	if limit < 1 {
		return nil, fmt.Errorf("semaphore %q: limit must be at least 1, got %d", name, limit)
	}
	if leaseTimeout < time.Millisecond {
		return nil, fmt.Errorf("semaphore %q: lease timeout must be at least 1ms, got %s", name, leaseTimeout)
	}

	keys := s.KeysFor(name)
	holder := uuid.NewString()

	out, err := s.gateway.Execute(ctx, store.OpSemaphoreAcquire,
		[]string{keys.Deadlines, keys.Owners, keys.Counter},
		limit, store.Millis(leaseTimeout), holder)
	if err != nil {
		return nil, s.classifier.Propagate(ctx, name, err)
	}
	result, err := store.ParseSemaphoreAcquire(out)
	if err != nil {
		return nil, s.classifier.Propagate(ctx, name, err)
	}
	if result == store.SemaphoreFull {
		return nil, s.classifier.Handle(ctx, faults.SemaphoreFull, name,
			&faults.AcquireFailedError{Semaphore: name, Limit: limit})
	}

	s.logger.Ctx(ctx).Debugw("semaphore acquired", "semaphore", name, "holder", holder, "limit", limit)
	return &Handle{
		Name:         name,
		Keys:         keys,
		Holder:       holder,
		Limit:        limit,
		LeaseTimeout: leaseTimeout,
	}, nil
}

// Refresh extends the holder's lease by its original lease timeout, measured
// from now. It fails with *faults.LeaseLostError once the entry was evicted.
func (s *FairSemaphore) Refresh(ctx context.Context, h *Handle) error {
	out, err := s.gateway.Execute(ctx, store.OpSemaphoreRefresh,
		[]string{h.Keys.Deadlines}, h.Holder, store.Millis(h.LeaseTimeout))
	if err != nil {
		return s.classifier.Propagate(ctx, h.Name, err)
	}
	result, err := store.ParseSemaphoreRefresh(out)
	if err != nil {
		return s.classifier.Propagate(ctx, h.Name, err)
	}
	if result == store.SemaphoreNotFound {
		return s.classifier.Handle(ctx, faults.SemaphoreNotFound, h.Name,
			&faults.LeaseLostError{Semaphore: h.Name, Holder: h.Holder})
	}
	return nil
}

// Release frees the holder's slot. A lease that already expired is logged
// and counted, not returned.
func (s *FairSemaphore) Release(ctx context.Context, h *Handle) error {
	out, err := s.gateway.Execute(ctx, store.OpSemaphoreRelease,
		[]string{h.Keys.Deadlines, h.Keys.Owners}, h.Holder)
	if err != nil {
		return s.classifier.Propagate(ctx, h.Name, err)
	}
	result, err := store.ParseSemaphoreRelease(out)
	if err != nil {
		return s.classifier.Propagate(ctx, h.Name, err)
	}
	if result == store.SemaphoreExpired {
		return s.classifier.Handle(ctx, faults.SemaphoreExpired, h.Name,
			fmt.Errorf("semaphore %q lease expired before release", h.Name))
	}

	s.logger.Ctx(ctx).Debugw("semaphore released", "semaphore", h.Name, "holder", h.Holder)
	return nil
}

// RenewalInterval reports whether a lease of this length is renewed in the
// background, and how often.
func (s *FairSemaphore) RenewalInterval(leaseTimeout time.Duration) (time.Duration, bool) {
	if leaseTimeout <= s.cfg.RenewalThreshold {
		return 0, false
	}
	return leaseTimeout / 2, true
}

// WithFairSemaphore runs action while holding one slot of the named
// semaphore and always releases it. Long leases are refreshed until action
// returns; losing the lease cancels action's context.
func WithFairSemaphore[T any](ctx context.Context, s *FairSemaphore, name string, limit int64, leaseTimeout time.Duration, action func(ctx context.Context, h *Handle) (T, error)) (T, error) {
	scope := coordination.Scope[*Handle]{
		Kind: "semaphore",
		Name: name,
		Acquire: func(ctx context.Context) (*Handle, error) {
			return s.Acquire(ctx, name, limit, leaseTimeout)
		},
		Release: s.Release,
		Logger:  s.logger,
	}
	if interval, ok := s.RenewalInterval(leaseTimeout); ok {
		scope.Renew = s.Refresh
		scope.RenewInterval = interval
	}
	return coordination.Run(ctx, scope, action)
}
