// client/go/redislock/public_test.go
package redislock_test

import (
	"context"
	"testing"
	"time"

	"github.com/avivl/redis-lock/client/go/redislock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// countingGateway is a caller-side Gateway decorator built only from
// exported names.
type countingGateway struct {
	next  redislock.Gateway
	calls atomic.Int32
}

func (g *countingGateway) Execute(ctx context.Context, op redislock.Operation, keys []string, args ...any) (redislock.Outcome, error) {
	g.calls.Inc()
	return g.next.Execute(ctx, op, keys, args...)
}

func (g *countingGateway) Close() error { return g.next.Close() }

func TestPublicSurface(t *testing.T) {
	logger := redislock.NewNopLogger()
	recorder := redislock.NewCountingRecorder()
	mem := redislock.NewMemoryGateway(logger)
	gw := &countingGateway{next: mem}

	cfg := redislock.DefaultConfig()
	cfg.Metrics.Exporter = redislock.MetricsCounting
	c, err := redislock.New(context.Background(), cfg,
		redislock.WithLogger(logger),
		redislock.WithGateway(gw),
		redislock.WithFaultRecorder(recorder))
	require.NoError(t, err)
	defer c.Close()

	var fr redislock.FaultRecorder = c.FaultRecorder()
	assert.Same(t, recorder, fr)

	got, err := redislock.WithLock(context.Background(), c, "orders", 0, time.Second,
		func(context.Context, string) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, int32(2), gw.calls.Load())

	mem.SetLockHolder("lock:orders", "someone-else", time.Minute)
	_, err = redislock.WithLock(context.Background(), c, "orders", 0, time.Second,
		func(context.Context, string) (int, error) { return 0, nil })
	assert.ErrorIs(t, err, redislock.ErrAcquireTimeout)
	assert.Equal(t, int64(1), recorder.Count("lock_acquire_timeout"))
}

func TestNewLogger(t *testing.T) {
	l, err := redislock.NewLogger(redislock.LogLevelWarn)
	require.NoError(t, err)
	assert.NotNil(t, l)
}
