// internal/store/store.go
package store

import (
	"context"
	"time"
)

// Operation names one of the atomic store-side operations.
type Operation string

const (
	OpLockAcquire      Operation = "lock.acquire"
	OpLockRelease      Operation = "lock.release"
	OpSemaphoreAcquire Operation = "semaphore.acquire"
	OpSemaphoreRefresh Operation = "semaphore.refresh"
	OpSemaphoreRelease Operation = "semaphore.release"
)

// Operations lists every operation a Gateway must implement.
var Operations = []Operation{
	OpLockAcquire,
	OpLockRelease,
	OpSemaphoreAcquire,
	OpSemaphoreRefresh,
	OpSemaphoreRelease,
}

// Outcome is the decoded store response: {"result":"<TAG>"}.
type Outcome struct {
	Result string `json:"result"`
}

// Gateway executes a named atomic operation against the coordination store.
//
// Positional arguments per operation:
//
//	lock.acquire       keys [lockKey]                        args holder, acquireTimeoutMs, leaseTimeoutMs
//	lock.release       keys [lockKey]                        args holder
//	semaphore.acquire  keys [semKey, ownerKey, counterKey]   args limit, leaseTimeoutMs, holder
//	semaphore.refresh  keys [semKey]                         args holder, leaseTimeoutMs
//	semaphore.release  keys [semKey, ownerKey]               args holder
//
// Any transport, timeout or decode failure is returned as *faults.ConnectivityError.
type Gateway interface {
	Execute(ctx context.Context, op Operation, keys []string, args ...any) (Outcome, error)
	Close() error
}

// Millis converts a duration to the integer milliseconds used on the wire.
func Millis(d time.Duration) int64 {
	return d.Milliseconds()
}
