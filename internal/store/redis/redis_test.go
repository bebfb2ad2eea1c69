// internal/store/redis/redis_test.go
package redis

import (
	"context"
	"testing"
	"time"

	"github.com/avivl/redis-lock/internal/faults"
	"github.com/avivl/redis-lock/internal/observability"
	"github.com/avivl/redis-lock/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, gw *Gateway, op store.Operation, keys []string, args ...any) string {
	t.Helper()
	out, err := gw.Execute(context.Background(), op, keys, args...)
	require.NoError(t, err)
	return out.Result
}

func TestLockScripts(t *testing.T) {
	gw, mr := setupMiniredis(t)
	keys := []string{lockKey}

	t.Run("acquire_sets_holder_with_lease", func(t *testing.T) {
		assert.Equal(t, store.TagSuccess, execute(t, gw, store.OpLockAcquire, keys, "h1", int64(1000), int64(30000)))

		holder, err := mr.Get(lockKey)
		require.NoError(t, err)
		assert.Equal(t, "h1", holder)
		assert.Equal(t, 30*time.Second, mr.TTL(lockKey))
	})

	t.Run("acquire_held_lock_times_out", func(t *testing.T) {
		assert.Equal(t, store.TagGetLockTimeout, execute(t, gw, store.OpLockAcquire, keys, "h2", int64(0), int64(30000)))
	})

	t.Run("release_by_other_holder", func(t *testing.T) {
		assert.Equal(t, store.TagLockOwnedByOthers, execute(t, gw, store.OpLockRelease, keys, "h2"))
		assert.True(t, mr.Exists(lockKey))
	})

	t.Run("release_by_holder", func(t *testing.T) {
		assert.Equal(t, store.TagSuccess, execute(t, gw, store.OpLockRelease, keys, "h1"))
		assert.False(t, mr.Exists(lockKey))
	})

	t.Run("release_missing", func(t *testing.T) {
		assert.Equal(t, store.TagLockNotExist, execute(t, gw, store.OpLockRelease, keys, "h1"))
	})

	t.Run("lease_expiry_frees_lock", func(t *testing.T) {
		assert.Equal(t, store.TagSuccess, execute(t, gw, store.OpLockAcquire, keys, "h3", int64(0), int64(500)))
		mr.FastForward(501 * time.Millisecond)

		assert.Equal(t, store.TagLockNotExist, execute(t, gw, store.OpLockRelease, keys, "h3"))
		assert.Equal(t, store.TagSuccess, execute(t, gw, store.OpLockAcquire, keys, "h4", int64(0), int64(500)))
	})
}

func TestSemaphoreScripts(t *testing.T) {
	gw, mr := setupMiniredis(t)
	acquireKeys := []string{semKey, ownerKey, counterKey}
	releaseKeys := []string{semKey, ownerKey}

	t.Run("admits_up_to_limit", func(t *testing.T) {
		assert.Equal(t, store.TagSuccess, execute(t, gw, store.OpSemaphoreAcquire, acquireKeys, int64(2), int64(60000), "a"))
		assert.Equal(t, store.TagSuccess, execute(t, gw, store.OpSemaphoreAcquire, acquireKeys, int64(2), int64(60000), "b"))
		assert.Equal(t, store.TagAcquireSemaphoreFailed, execute(t, gw, store.OpSemaphoreAcquire, acquireKeys, int64(2), int64(60000), "c"))

		members, err := mr.ZMembers(semKey)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"a", "b"}, members)

		first, err := mr.ZScore(ownerKey, "a")
		require.NoError(t, err)
		second, err := mr.ZScore(ownerKey, "b")
		require.NoError(t, err)
		assert.Less(t, first, second, "tickets are issued in admission order")
	})

	t.Run("refresh_live_holder", func(t *testing.T) {
		before, err := mr.ZScore(semKey, "a")
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)

		assert.Equal(t, store.TagSuccess, execute(t, gw, store.OpSemaphoreRefresh, []string{semKey}, "a", int64(60000)))

		after, err := mr.ZScore(semKey, "a")
		require.NoError(t, err)
		assert.Greater(t, after, before)
	})

	t.Run("refresh_unknown_holder", func(t *testing.T) {
		assert.Equal(t, store.TagSemaphoreNotFound, execute(t, gw, store.OpSemaphoreRefresh, []string{semKey}, "zz", int64(60000)))
	})

	t.Run("release_frees_slot", func(t *testing.T) {
		assert.Equal(t, store.TagSuccess, execute(t, gw, store.OpSemaphoreRelease, releaseKeys, "a"))
		assert.Equal(t, store.TagSuccess, execute(t, gw, store.OpSemaphoreAcquire, acquireKeys, int64(2), int64(60000), "c"))
	})

	t.Run("release_twice_reports_timeout", func(t *testing.T) {
		assert.Equal(t, store.TagSemaphoreTimeout, execute(t, gw, store.OpSemaphoreRelease, releaseKeys, "a"))
	})
}

func TestSemaphoreEviction(t *testing.T) {
	gw, mr := setupMiniredis(t)
	acquireKeys := []string{semKey, ownerKey, counterKey}

	assert.Equal(t, store.TagSuccess, execute(t, gw, store.OpSemaphoreAcquire, acquireKeys, int64(1), int64(30), "short"))
	assert.Equal(t, store.TagAcquireSemaphoreFailed, execute(t, gw, store.OpSemaphoreAcquire, acquireKeys, int64(1), int64(60000), "next"))

	time.Sleep(60 * time.Millisecond)

	t.Run("expired_holder_cannot_refresh", func(t *testing.T) {
		assert.Equal(t, store.TagSemaphoreNotFound, execute(t, gw, store.OpSemaphoreRefresh, []string{semKey}, "short", int64(60000)))
	})

	t.Run("slot_reused_after_expiry", func(t *testing.T) {
		assert.Equal(t, store.TagSuccess, execute(t, gw, store.OpSemaphoreAcquire, acquireKeys, int64(1), int64(60000), "next"))

		owners, err := mr.ZMembers(ownerKey)
		require.NoError(t, err)
		assert.Equal(t, []string{"next"}, owners, "evicted holders leave the owner set")
	})

	t.Run("expired_holder_release", func(t *testing.T) {
		assert.Equal(t, store.TagSemaphoreTimeout, execute(t, gw, store.OpSemaphoreRelease, []string{semKey, ownerKey}, "short"))
	})
}

func TestExecuteFailures(t *testing.T) {
	t.Run("server_error_is_connectivity", func(t *testing.T) {
		gw, mr := setupMiniredis(t)
		mr.SetError("LOADING Redis is loading the dataset in memory")

		_, err := gw.Execute(context.Background(), store.OpLockRelease, []string{lockKey}, "h1")

		var connErr *faults.ConnectivityError
		require.ErrorAs(t, err, &connErr)
		assert.Equal(t, string(store.OpLockRelease), connErr.Op)
		assert.ErrorIs(t, err, faults.ErrNotReachable)
	})

	t.Run("server_gone_is_connectivity", func(t *testing.T) {
		gw, mr := setupMiniredis(t)
		mr.Close()

		_, err := gw.Execute(context.Background(), store.OpLockAcquire, []string{lockKey}, "h1", int64(0), int64(1000))
		assert.ErrorIs(t, err, faults.ErrNotReachable)
	})

	t.Run("cancelled_context_is_connectivity", func(t *testing.T) {
		gw, _ := setupMiniredis(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := gw.Execute(ctx, store.OpLockRelease, []string{lockKey}, "h1")
		assert.ErrorIs(t, err, faults.ErrNotReachable)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("unknown_operation", func(t *testing.T) {
		gw, _ := setupMiniredis(t)
		_, err := gw.Execute(context.Background(), store.Operation("lock.steal"), []string{lockKey})
		assert.ErrorIs(t, err, store.ErrUnknownOperation)
	})
}

func TestPreload(t *testing.T) {
	gw, _ := setupMiniredis(t)
	require.NoError(t, gw.Preload(context.Background()))
	assert.Equal(t, len(store.Operations), gw.scripts.Len())
}

func TestNew(t *testing.T) {
	t.Run("connects", func(t *testing.T) {
		_, seedCfg, _ := setupMiniredisWithConfig(t)
		cfg := seedCfg.Clone()

		gw, err := New(context.Background(), cfg, observability.NewNopLogger())
		require.NoError(t, err)
		defer gw.Close()

		// scripts are loaded on connect
		assert.Equal(t, len(store.Operations), gw.scripts.Len())
		script, err := gw.scripts.Get(store.OpSemaphoreAcquire)
		require.NoError(t, err)
		exists, err := gw.client.ScriptExists(context.Background(), script.Hash()).Result()
		require.NoError(t, err)
		assert.Equal(t, []bool{true}, exists)
	})

	t.Run("registered_constructor", func(t *testing.T) {
		_, seedCfg, _ := setupMiniredisWithConfig(t)

		gw, err := store.NewGateway(context.Background(), StoreName, seedCfg.Clone(), observability.NewNopLogger())
		require.NoError(t, err)
		assert.NoError(t, gw.Close())
	})

	t.Run("wrong_config_type", func(t *testing.T) {
		_, err := store.NewGateway(context.Background(), StoreName, "localhost:6379", observability.NewNopLogger())
		assert.ErrorAs(t, err, new(*store.InvalidConfigurationError))
	})

	t.Run("unreachable", func(t *testing.T) {
		_, seedCfg, mr := setupMiniredisWithConfig(t)
		cfg := seedCfg.Clone()
		cfg.OperationTimeout = 200 * time.Millisecond
		mr.Close()

		_, err := New(context.Background(), cfg, observability.NewNopLogger())
		assert.ErrorIs(t, err, faults.ErrNotReachable)
	})

	t.Run("invalid_config", func(t *testing.T) {
		_, err := New(context.Background(), &RedisConfig{}, observability.NewNopLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid Redis configuration")
	})
}
