// internal/store/results.go
package store

import "github.com/avivl/redis-lock/internal/faults"

// Wire tags shared by every backend.
const (
	TagSuccess                = "SUCCESS"
	TagGetLockTimeout         = "GET_LOCK_TIMEOUT"
	TagLockNotExist           = "LOCK_NOT_EXIST"
	TagConcurrentDelete       = "CONCURRENT_DELETE"
	TagLockOwnedByOthers      = "LOCK_OWNED_BY_OTHERS"
	TagAcquireSemaphoreFailed = "ACQUIRE_SEMAPHORE_FAILED"
	TagSemaphoreNotFound      = "SEMAPHORE_NOT_FOUND"
	TagSemaphoreTimeout       = "SEMAPHORE_TIMEOUT"
)

// LockAcquireResult is the outcome of lock.acquire.
type LockAcquireResult int

const (
	LockAcquired LockAcquireResult = iota
	LockTimedOut
)

// ParseLockAcquire maps a lock.acquire outcome to its result.
func ParseLockAcquire(o Outcome) (LockAcquireResult, error) {
	switch o.Result {
	case TagSuccess:
		return LockAcquired, nil
	case TagGetLockTimeout:
		return LockTimedOut, nil
	}
	return 0, unrecognized(OpLockAcquire, o)
}

// LockReleaseResult is the outcome of lock.release.
type LockReleaseResult int

const (
	LockReleased LockReleaseResult = iota
	LockNotFound
	LockConcurrentDelete
	LockOwnedByOthers
)

// ParseLockRelease maps a lock.release outcome to its result.
func ParseLockRelease(o Outcome) (LockReleaseResult, error) {
	switch o.Result {
	case TagSuccess:
		return LockReleased, nil
	case TagLockNotExist:
		return LockNotFound, nil
	case TagConcurrentDelete:
		return LockConcurrentDelete, nil
	case TagLockOwnedByOthers:
		return LockOwnedByOthers, nil
	}
	return 0, unrecognized(OpLockRelease, o)
}

// SemaphoreAcquireResult is the outcome of semaphore.acquire.
type SemaphoreAcquireResult int

const (
	SemaphoreAcquired SemaphoreAcquireResult = iota
	SemaphoreFull
)

// ParseSemaphoreAcquire maps a semaphore.acquire outcome to its result.
func ParseSemaphoreAcquire(o Outcome) (SemaphoreAcquireResult, error) {
	switch o.Result {
	case TagSuccess:
		return SemaphoreAcquired, nil
	case TagAcquireSemaphoreFailed:
		return SemaphoreFull, nil
	}
	return 0, unrecognized(OpSemaphoreAcquire, o)
}

// SemaphoreRefreshResult is the outcome of semaphore.refresh.
type SemaphoreRefreshResult int

const (
	SemaphoreRefreshed SemaphoreRefreshResult = iota
	SemaphoreNotFound
)

// ParseSemaphoreRefresh maps a semaphore.refresh outcome to its result.
func ParseSemaphoreRefresh(o Outcome) (SemaphoreRefreshResult, error) {
	switch o.Result {
	case TagSuccess:
		return SemaphoreRefreshed, nil
	case TagSemaphoreNotFound:
		return SemaphoreNotFound, nil
	}
	return 0, unrecognized(OpSemaphoreRefresh, o)
}

// SemaphoreReleaseResult is the outcome of semaphore.release.
type SemaphoreReleaseResult int

const (
	SemaphoreReleased SemaphoreReleaseResult = iota
	SemaphoreExpired
)

// ParseSemaphoreRelease maps a semaphore.release outcome to its result.
func ParseSemaphoreRelease(o Outcome) (SemaphoreReleaseResult, error) {
	switch o.Result {
	case TagSuccess:
		return SemaphoreReleased, nil
	case TagSemaphoreTimeout:
		return SemaphoreExpired, nil
	}
	return 0, unrecognized(OpSemaphoreRelease, o)
}

func unrecognized(op Operation, o Outcome) error {
	return &faults.UnrecognizedResultTagError{Op: string(op), Tag: o.Result}
}
