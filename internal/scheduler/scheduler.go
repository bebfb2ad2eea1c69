// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avivl/redis-lock/internal/observability"
	"go.uber.org/atomic"
)

var (
	// ErrQueueFull is returned when the task queue is at capacity.
	ErrQueueFull = errors.New("scheduler queue is full")
	// ErrClosed is returned for work submitted after Close.
	ErrClosed = errors.New("scheduler is closed")
	// ErrTaskPanicked is returned when the submitted function panicked.
	ErrTaskPanicked = errors.New("scheduled task panicked")
)

type task struct {
	ctx      context.Context
	fn       func(context.Context)
	done     chan struct{}
	panicked bool
}

// Scheduler is an elastic worker pool. Workers are started on demand up to
// MaxWorkers, and exit after IdleTTL without work.
type Scheduler struct {
	cfg    Config
	logger *observability.SLogger

	tasks   chan *task
	workers atomic.Int32
	idle    atomic.Int32

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New creates a Scheduler. No worker runs until the first Do.
func New(cfg Config, logger *observability.SLogger) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scheduler{
		cfg:    cfg,
		logger: logger.Named(cfg.Name),
		tasks:  make(chan *task, cfg.QueueCapacity),
	}, nil
}

// Do queues fn and waits until it has run. It returns ctx.Err() if ctx is
// done first; fn still runs later with the same, now cancelled, ctx.
func (s *Scheduler) Do(ctx context.Context, fn func(ctx context.Context)) error {
	t := &task{ctx: ctx, fn: fn, done: make(chan struct{})}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return ErrClosed
	}
	select {
	case s.tasks <- t:
	default:
		s.mu.RUnlock()
		s.logger.Warnw("task rejected", "queued", len(s.tasks), "workers", s.workers.Load())
		return ErrQueueFull
	}
	if s.idle.Load() == 0 {
		s.spawn()
	}
	s.mu.RUnlock()

	select {
	case <-t.done:
		if t.panicked {
			return ErrTaskPanicked
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// spawn starts one more worker unless the pool is at MaxWorkers.
func (s *Scheduler) spawn() {
	for {
		n := s.workers.Load()
		if int(n) >= s.cfg.MaxWorkers {
			return
		}
		if s.workers.CompareAndSwap(n, n+1) {
			break
		}
	}
	s.wg.Add(1)
	go s.work()
}

func (s *Scheduler) work() {
	defer s.wg.Done()

	timer := time.NewTimer(s.cfg.IdleTTL)
	defer timer.Stop()

	for {
		s.idle.Inc()
		select {
		case t, ok := <-s.tasks:
			s.idle.Dec()
			if !ok {
				s.workers.Dec()
				return
			}
			s.run(t)
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.cfg.IdleTTL)

		case <-timer.C:
			s.idle.Dec()
			if len(s.tasks) > 0 {
				timer.Reset(s.cfg.IdleTTL)
				continue
			}
			s.workers.Dec()
			// A task queued after the length check saw idle workers and did not spawn.
			if len(s.tasks) > 0 {
				s.spawn()
			}
			return
		}
	}
}

func (s *Scheduler) run(t *task) {
	defer close(t.done)
	defer func() {
		if r := recover(); r != nil {
			t.panicked = true
			s.logger.Errorw("scheduled task panicked", "panic", fmt.Sprint(r))
		}
	}()
	t.fn(t.ctx)
}

// Workers returns the number of live workers.
func (s *Scheduler) Workers() int {
	return int(s.workers.Load())
}

// Queued returns the number of tasks waiting for a worker.
func (s *Scheduler) Queued() int {
	return len(s.tasks)
}

// Close stops accepting work. Queued tasks still run. Unless the pool is a
// daemon pool, Close waits for every worker to exit.
func (s *Scheduler) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.tasks)
	s.mu.Unlock()

	if !s.cfg.Daemon {
		s.wg.Wait()
	}
	return nil
}
