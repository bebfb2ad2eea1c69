// internal/store/redis/helper_test.go
package redis

import (
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/avivl/redis-lock/internal/observability"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const (
	lockKey    = "lock:orders"
	semKey     = "semaphore:{pool}"
	ownerKey   = "semaphore:{pool}:owner"
	counterKey = "semaphore:{pool}:counter"
)

func setupMiniredis(t *testing.T) (*Gateway, *miniredis.Miniredis) {
	t.Helper()
	gw, _, mr := setupMiniredisWithConfig(t)
	return gw, mr
}

// setupMiniredisWithConfig is setupMiniredis that also returns the config it built.
func setupMiniredisWithConfig(t *testing.T) (*Gateway, *RedisConfig, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cfg := NewRedisConfig()
	cfg.Host = mr.Host()
	cfg.Port = port
	cfg.OperationTimeout = time.Second

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	gw := NewWithClient(client, cfg, observability.NewNopLogger())
	t.Cleanup(func() { _ = gw.Close() })
	return gw, cfg, mr
}
