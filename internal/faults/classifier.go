// internal/faults/classifier.go
package faults

import (
	"context"
	"errors"

	"github.com/avivl/redis-lock/internal/observability"
)

// Fault identifies a non-success store outcome or a store failure.
type Fault string

const (
	Connectivity         Fault = "connectivity"
	UnrecognizedTag      Fault = "unrecognized_result_tag"
	LockAcquireTimeout   Fault = "lock_acquire_timeout"
	LockNotFound         Fault = "lock_not_found"
	LockConcurrentDelete Fault = "lock_concurrent_delete"
	LockOwnedByOthers    Fault = "lock_owned_by_others"
	SemaphoreFull        Fault = "semaphore_acquire_failed"
	SemaphoreNotFound    Fault = "semaphore_not_found"
	SemaphoreExpired     Fault = "semaphore_expired"
)

// Benign reports whether the fault is a release-time race that must be logged
// and swallowed. Whatever the caller logic computed stays valid in that case.
func (f Fault) Benign() bool {
	switch f {
	case LockNotFound, LockConcurrentDelete, LockOwnedByOthers, SemaphoreExpired:
		return true
	default:
		return false
	}
}

// Of maps an error to its fault kind. ok is false for errors that did not come
// from the coordination layer (for example the caller's own failures).
func Of(err error) (Fault, bool) {
	switch {
	case errors.Is(err, ErrNotReachable):
		return Connectivity, true
	case errors.Is(err, ErrUnrecognizedResultTag):
		return UnrecognizedTag, true
	case errors.Is(err, ErrAcquireTimeout):
		return LockAcquireTimeout, true
	case errors.Is(err, ErrAcquireFailed):
		return SemaphoreFull, true
	case errors.Is(err, ErrLeaseLost):
		return SemaphoreNotFound, true
	default:
		return "", false
	}
}

// Classifier is the single place deciding whether a fault is logged only or
// surfaced to the caller. Every decision is also counted.
type Classifier struct {
	logger   *observability.SLogger
	recorder observability.FaultRecorder
}

// NewClassifier creates a Classifier. A nil recorder counts nothing.
func NewClassifier(logger *observability.SLogger, recorder observability.FaultRecorder) *Classifier {
	if recorder == nil {
		recorder = observability.NopRecorder{}
	}
	return &Classifier{logger: logger, recorder: recorder}
}

// Handle records fault for resource and returns nil for benign faults, err otherwise.
func (c *Classifier) Handle(ctx context.Context, fault Fault, resource string, err error) error {
	c.recorder.RecordFault(ctx, string(fault), resource)

	log := c.logger.Ctx(ctx)
	switch fault {
	case Connectivity, UnrecognizedTag:
		log.Errorw("coordination store failure", "fault", fault, "resource", resource, "error", err)
		return err
	case LockAcquireTimeout, SemaphoreFull:
		log.Infow("coordination contention", "fault", fault, "resource", resource)
		return err
	}

	if fault.Benign() {
		log.Warnw("release race ignored", "fault", fault, "resource", resource, "reason", err)
		return nil
	}

	log.Warnw("coordination fault", "fault", fault, "resource", resource, "error", err)
	return err
}

// Propagate classifies err with Of and handles it. Errors that do not belong
// to the coordination layer, or that only report the caller's own
// cancellation, are returned untouched and not counted.
func (c *Classifier) Propagate(ctx context.Context, resource string, err error) error {
	if err == nil {
		return nil
	}
	if cause := ctx.Err(); cause != nil && errors.Is(err, cause) {
		c.logger.Ctx(ctx).Debugw("caller gave up", "resource", resource, "error", err)
		return err
	}
	fault, ok := Of(err)
	if !ok {
		return err
	}
	return c.Handle(ctx, fault, resource, err)
}
