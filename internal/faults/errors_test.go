// internal/faults/errors_test.go
package faults

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestErrorTypes(t *testing.T) {
	t.Run("connectivity_wraps_cause", func(t *testing.T) {
		err := &ConnectivityError{Op: "lock.acquire", Err: context.DeadlineExceeded}

		assert.ErrorIs(t, err, ErrNotReachable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Contains(t, err.Error(), "lock.acquire")
	})

	t.Run("acquire_timeout", func(t *testing.T) {
		err := fmt.Errorf("with lock: %w", &AcquireTimeoutError{Lock: "orders", AcquireTimeout: time.Second})

		assert.ErrorIs(t, err, ErrAcquireTimeout)
		var target *AcquireTimeoutError
		assert.True(t, errors.As(err, &target))
		assert.Equal(t, "orders", target.Lock)
		assert.NotErrorIs(t, err, ErrAcquireFailed)
	})

	t.Run("acquire_failed", func(t *testing.T) {
		err := &AcquireFailedError{Semaphore: "pool", Limit: 2}
		assert.ErrorIs(t, err, ErrAcquireFailed)
		assert.Contains(t, err.Error(), "limit 2")
	})

	t.Run("lease_lost", func(t *testing.T) {
		err := &LeaseLostError{Semaphore: "pool", Holder: "h1"}
		assert.ErrorIs(t, err, ErrLeaseLost)
	})

	t.Run("unrecognized_tag", func(t *testing.T) {
		err := &UnrecognizedResultTagError{Op: "semaphore.release", Tag: "BOGUS"}
		assert.ErrorIs(t, err, ErrUnrecognizedResultTag)
		assert.Contains(t, err.Error(), "BOGUS")
	})
}

func TestOf(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		fault Fault
		ok    bool
	}{
		{"connectivity", &ConnectivityError{Op: "x", Err: assert.AnError}, Connectivity, true},
		{"unrecognized", &UnrecognizedResultTagError{Op: "x", Tag: "y"}, UnrecognizedTag, true},
		{"timeout", &AcquireTimeoutError{Lock: "l"}, LockAcquireTimeout, true},
		{"full", &AcquireFailedError{Semaphore: "s"}, SemaphoreFull, true},
		{"lease_lost", &LeaseLostError{Semaphore: "s"}, SemaphoreNotFound, true},
		{"foreign", assert.AnError, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fault, ok := Of(tt.err)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.fault, fault)
		})
	}
}

func TestBenign(t *testing.T) {
	for _, f := range []Fault{LockNotFound, LockConcurrentDelete, LockOwnedByOthers, SemaphoreExpired} {
		assert.True(t, f.Benign(), f)
	}
	for _, f := range []Fault{Connectivity, UnrecognizedTag, LockAcquireTimeout, SemaphoreFull, SemaphoreNotFound} {
		assert.False(t, f.Benign(), f)
	}
}
