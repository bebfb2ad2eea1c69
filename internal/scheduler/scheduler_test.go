// internal/scheduler/scheduler_test.go
package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/avivl/redis-lock/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func newTestScheduler(t *testing.T, mutate func(*Config)) *Scheduler {
	t.Helper()
	cfg := NewConfig()
	cfg.Daemon = false
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := New(cfg, observability.NewNopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, NewConfig().Validate())

	err := Config{}.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scheduler name is required")
	assert.Contains(t, err.Error(), "maxWorkers")
	assert.Contains(t, err.Error(), "queueCapacity")
	assert.Contains(t, err.Error(), "idleTTL")
}

func TestDo(t *testing.T) {
	t.Run("runs_and_waits", func(t *testing.T) {
		s := newTestScheduler(t, nil)
		var ran atomic.Bool

		err := s.Do(context.Background(), func(context.Context) { ran.Store(true) })

		require.NoError(t, err)
		assert.True(t, ran.Load())
		assert.Equal(t, 1, s.Workers())
	})

	t.Run("bounded_concurrency", func(t *testing.T) {
		s := newTestScheduler(t, func(c *Config) { c.MaxWorkers = 3 })
		var running, peak atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = s.Do(context.Background(), func(context.Context) {
					n := running.Inc()
					for {
						p := peak.Load()
						if n <= p || peak.CompareAndSwap(p, n) {
							break
						}
					}
					time.Sleep(5 * time.Millisecond)
					running.Dec()
				})
			}()
		}
		wg.Wait()

		assert.LessOrEqual(t, peak.Load(), int32(3))
		assert.LessOrEqual(t, s.Workers(), 3)
	})

	t.Run("queue_full", func(t *testing.T) {
		s := newTestScheduler(t, func(c *Config) {
			c.MaxWorkers = 1
			c.QueueCapacity = 1
		})
		release := make(chan struct{})
		started := make(chan struct{})

		go func() {
			_ = s.Do(context.Background(), func(context.Context) {
				close(started)
				<-release
			})
		}()
		<-started
		go func() { _ = s.Do(context.Background(), func(context.Context) {}) }()
		require.Eventually(t, func() bool { return s.Queued() == 1 }, time.Second, time.Millisecond)

		err := s.Do(context.Background(), func(context.Context) {})
		assert.ErrorIs(t, err, ErrQueueFull)
		close(release)
	})

	t.Run("caller_context_done", func(t *testing.T) {
		s := newTestScheduler(t, func(c *Config) { c.MaxWorkers = 1 })
		release := make(chan struct{})
		started := make(chan struct{})
		go func() {
			_ = s.Do(context.Background(), func(context.Context) {
				close(started)
				<-release
			})
		}()
		<-started

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := s.Do(ctx, func(context.Context) {})
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		close(release)
	})

	t.Run("panic_is_contained", func(t *testing.T) {
		s := newTestScheduler(t, nil)

		err := s.Do(context.Background(), func(context.Context) { panic("boom") })
		assert.ErrorIs(t, err, ErrTaskPanicked)

		assert.NoError(t, s.Do(context.Background(), func(context.Context) {}))
	})
}

func TestIdleWorkersExit(t *testing.T) {
	s := newTestScheduler(t, func(c *Config) { c.IdleTTL = 20 * time.Millisecond })

	require.NoError(t, s.Do(context.Background(), func(context.Context) {}))
	assert.Eventually(t, func() bool { return s.Workers() == 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Do(context.Background(), func(context.Context) {}))
}

func TestClose(t *testing.T) {
	s := newTestScheduler(t, nil)
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		require.NoError(t, s.Do(context.Background(), func(context.Context) { ran.Inc() }))
	}

	require.NoError(t, s.Close())
	assert.Equal(t, int32(5), ran.Load())
	assert.Equal(t, 0, s.Workers())
	assert.ErrorIs(t, s.Do(context.Background(), func(context.Context) {}), ErrClosed)
	assert.NoError(t, s.Close())
}
