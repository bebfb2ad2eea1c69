// internal/faults/errors.go
package faults

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotReachable is returned when the coordination store cannot be reached or answered garbage.
	ErrNotReachable = errors.New("store not reachable")
	// ErrAcquireTimeout is returned when a lock could not be obtained within the acquire timeout.
	ErrAcquireTimeout = errors.New("timed out acquiring the lock")
	// ErrAcquireFailed is returned when a semaphore has no free slot.
	ErrAcquireFailed = errors.New("no semaphore slot available")
	// ErrLeaseLost is returned when a semaphore lease expired before it could be refreshed.
	ErrLeaseLost = errors.New("semaphore lease lost")
	// ErrUnrecognizedResultTag is returned when the store answers with a tag the operation does not define.
	ErrUnrecognizedResultTag = errors.New("unrecognized result tag")
)

// ConnectivityError wraps any transport, timeout or decoding failure of a store round trip.
type ConnectivityError struct {
	Op  string
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("%s: store round trip failed: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

func (e *ConnectivityError) Is(target error) bool { return target == ErrNotReachable }

// AcquireTimeoutError reports which lock could not be obtained and for how long we waited.
type AcquireTimeoutError struct {
	Lock           string
	AcquireTimeout time.Duration
}

func (e *AcquireTimeoutError) Error() string {
	return fmt.Sprintf("lock %q: %v after %s", e.Lock, ErrAcquireTimeout, e.AcquireTimeout)
}

func (e *AcquireTimeoutError) Is(target error) bool { return target == ErrAcquireTimeout }

// AcquireFailedError reports a semaphore that was full.
type AcquireFailedError struct {
	Semaphore string
	Limit     int64
}

func (e *AcquireFailedError) Error() string {
	return fmt.Sprintf("semaphore %q: %v (limit %d)", e.Semaphore, ErrAcquireFailed, e.Limit)
}

func (e *AcquireFailedError) Is(target error) bool { return target == ErrAcquireFailed }

// LeaseLostError reports a holder whose semaphore entry had already been evicted.
type LeaseLostError struct {
	Semaphore string
	Holder    string
}

func (e *LeaseLostError) Error() string {
	return fmt.Sprintf("semaphore %q holder %s: %v", e.Semaphore, e.Holder, ErrLeaseLost)
}

func (e *LeaseLostError) Is(target error) bool { return target == ErrLeaseLost }

// UnrecognizedResultTagError carries the operation and the tag the store returned.
type UnrecognizedResultTagError struct {
	Op  string
	Tag string
}

func (e *UnrecognizedResultTagError) Error() string {
	return fmt.Sprintf("%s: %v %q", e.Op, ErrUnrecognizedResultTag, e.Tag)
}

func (e *UnrecognizedResultTagError) Is(target error) bool { return target == ErrUnrecognizedResultTag }
