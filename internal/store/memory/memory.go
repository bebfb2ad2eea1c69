// internal/store/memory/memory.go
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/avivl/redis-lock/internal/faults"
	"github.com/avivl/redis-lock/internal/observability"
	"github.com/avivl/redis-lock/internal/store"
)

// StoreName is the name of the store
const StoreName string = "memory"

// Config configures the in-process gateway.
type Config struct {
	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time `mapstructure:"-" yaml:"-"`
}

// Validate implements store.StoreConfig.
func (c *Config) Validate() error { return nil }

// GetEndpoints implements store.StoreConfig.
func (c *Config) GetEndpoints() []string { return []string{"memory"} }

type lockEntry struct {
	holder   string
	deadline time.Time
}

type semaphoreEntry struct {
	deadlines map[string]time.Time
	tickets   map[string]int64
}

// Gateway keeps locks and semaphores in process memory. Every operation runs
// under a single mutex, which gives the same atomicity the Redis scripts have.
type Gateway struct {
	mu         sync.Mutex
	now        func() time.Time
	locks      map[string]lockEntry
	semaphores map[string]*semaphoreEntry
	counters   map[string]int64
	closed     bool
	logger     *observability.SLogger
}

func init() {
	store.Register(StoreName, newGateway)
}

func newGateway(_ context.Context, options store.Config, logger *observability.SLogger) (store.Gateway, error) {
	cfg, ok := options.(*Config)
	if !ok && options != nil {
		return nil, &store.InvalidConfigurationError{Store: StoreName, Config: options}
	}
	return New(cfg, logger), nil
}

// New returns an empty gateway.
func New(cfg *Config, logger *observability.SLogger) *Gateway {
	now := time.Now
	if cfg != nil && cfg.Now != nil {
		now = cfg.Now
	}
	return &Gateway{
		now:        now,
		locks:      make(map[string]lockEntry),
		semaphores: make(map[string]*semaphoreEntry),
		counters:   make(map[string]int64),
		logger:     logger.Named(StoreName),
	}
}

// Execute implements store.Gateway.
func (g *Gateway) Execute(ctx context.Context, op store.Operation, keys []string, args ...any) (store.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return store.Outcome{}, &faults.ConnectivityError{Op: string(op), Err: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return store.Outcome{}, &faults.ConnectivityError{Op: string(op), Err: fmt.Errorf("gateway closed")}
	}

	var (
		tag string
		err error
	)
	switch op {
	case store.OpLockAcquire:
		tag, err = g.lockAcquire(op, keys, args)
	case store.OpLockRelease:
		tag, err = g.lockRelease(op, keys, args)
	case store.OpSemaphoreAcquire:
		tag, err = g.semaphoreAcquire(op, keys, args)
	case store.OpSemaphoreRefresh:
		tag, err = g.semaphoreRefresh(op, keys, args)
	case store.OpSemaphoreRelease:
		tag, err = g.semaphoreRelease(op, keys, args)
	default:
		err = fmt.Errorf("%w: %s", store.ErrUnknownOperation, op)
	}
	if err != nil {
		return store.Outcome{}, err
	}

	g.logger.Debugw("executed", "op", op, "keys", keys, "result", tag)
	return store.Outcome{Result: tag}, nil
}

func requireKeys(op store.Operation, keys []string, n int) error {
	if len(keys) < n {
		return fmt.Errorf("%s: expected %d keys, got %d", op, n, len(keys))
	}
	return nil
}

func (g *Gateway) lockAcquire(op store.Operation, keys []string, args []any) (string, error) {
	if err := requireKeys(op, keys, 1); err != nil {
		return "", err
	}
	holder, err := store.StringArg(op, args, 0)
	if err != nil {
		return "", err
	}
	lease, err := store.Int64Arg(op, args, 2)
	if err != nil {
		return "", err
	}

	now := g.now()
	if entry, ok := g.locks[keys[0]]; ok && now.Before(entry.deadline) {
		return store.TagGetLockTimeout, nil
	}
	g.locks[keys[0]] = lockEntry{holder: holder, deadline: now.Add(time.Duration(lease) * time.Millisecond)}
	return store.TagSuccess, nil
}

func (g *Gateway) lockRelease(op store.Operation, keys []string, args []any) (string, error) {
	if err := requireKeys(op, keys, 1); err != nil {
		return "", err
	}
	holder, err := store.StringArg(op, args, 0)
	if err != nil {
		return "", err
	}

	entry, ok := g.locks[keys[0]]
	if !ok || !g.now().Before(entry.deadline) {
		delete(g.locks, keys[0])
		return store.TagLockNotExist, nil
	}
	if entry.holder != holder {
		return store.TagLockOwnedByOthers, nil
	}
	delete(g.locks, keys[0])
	return store.TagSuccess, nil
}

func (g *Gateway) semaphore(key string) *semaphoreEntry {
	s, ok := g.semaphores[key]
	if !ok {
		s = &semaphoreEntry{deadlines: make(map[string]time.Time), tickets: make(map[string]int64)}
		g.semaphores[key] = s
	}
	return s
}

func (s *semaphoreEntry) evict(now time.Time) {
	for holder, deadline := range s.deadlines {
		if !deadline.After(now) {
			delete(s.deadlines, holder)
			delete(s.tickets, holder)
		}
	}
}

func (g *Gateway) semaphoreAcquire(op store.Operation, keys []string, args []any) (string, error) {
	if err := requireKeys(op, keys, 3); err != nil {
		return "", err
	}
	limit, err := store.Int64Arg(op, args, 0)
	if err != nil {
		return "", err
	}
	lease, err := store.Int64Arg(op, args, 1)
	if err != nil {
		return "", err
	}
	holder, err := store.StringArg(op, args, 2)
	if err != nil {
		return "", err
	}

	now := g.now()
	s := g.semaphore(keys[0])
	s.evict(now)

	if int64(len(s.deadlines)) >= limit {
		return store.TagAcquireSemaphoreFailed, nil
	}

	g.counters[keys[2]]++
	s.deadlines[holder] = now.Add(time.Duration(lease) * time.Millisecond)
	s.tickets[holder] = g.counters[keys[2]]
	return store.TagSuccess, nil
}

func (g *Gateway) semaphoreRefresh(op store.Operation, keys []string, args []any) (string, error) {
	if err := requireKeys(op, keys, 1); err != nil {
		return "", err
	}
	holder, err := store.StringArg(op, args, 0)
	if err != nil {
		return "", err
	}
	lease, err := store.Int64Arg(op, args, 1)
	if err != nil {
		return "", err
	}

	now := g.now()
	s := g.semaphore(keys[0])
	deadline, ok := s.deadlines[holder]
	if !ok || !deadline.After(now) {
		delete(s.deadlines, holder)
		delete(s.tickets, holder)
		return store.TagSemaphoreNotFound, nil
	}
	s.deadlines[holder] = now.Add(time.Duration(lease) * time.Millisecond)
	return store.TagSuccess, nil
}

func (g *Gateway) semaphoreRelease(op store.Operation, keys []string, args []any) (string, error) {
	if err := requireKeys(op, keys, 2); err != nil {
		return "", err
	}
	holder, err := store.StringArg(op, args, 0)
	if err != nil {
		return "", err
	}

	s := g.semaphore(keys[0])
	deadline, ok := s.deadlines[holder]
	delete(s.deadlines, holder)
	delete(s.tickets, holder)

	if !ok || !deadline.After(g.now()) {
		return store.TagSemaphoreTimeout, nil
	}
	return store.TagSuccess, nil
}

// Holders returns the live holders of a semaphore key in admission order.
func (g *Gateway) Holders(semKey string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	s, ok := g.semaphores[semKey]
	if !ok {
		return nil
	}
	now := g.now()
	holders := make([]string, 0, len(s.deadlines))
	for holder, deadline := range s.deadlines {
		if deadline.After(now) {
			holders = append(holders, holder)
		}
	}
	sort.Slice(holders, func(i, j int) bool { return s.tickets[holders[i]] < s.tickets[holders[j]] })
	return holders
}

// LockHolder returns the current holder of a lock key.
func (g *Gateway) LockHolder(lockKey string) (string, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, ok := g.locks[lockKey]
	if !ok || !g.now().Before(entry.deadline) {
		return "", false
	}
	return entry.holder, true
}

// SetLockHolder overwrites a lock entry, for simulating another process.
func (g *Gateway) SetLockHolder(lockKey, holder string, lease time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.locks[lockKey] = lockEntry{holder: holder, deadline: g.now().Add(lease)}
}

// Close implements store.Gateway.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return nil
}
