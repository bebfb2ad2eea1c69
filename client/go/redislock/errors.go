// client/go/redislock/errors.go
package redislock

import "github.com/avivl/redis-lock/internal/faults"

var (
	ErrNotReachable          = faults.ErrNotReachable
	ErrAcquireTimeout        = faults.ErrAcquireTimeout
	ErrAcquireFailed         = faults.ErrAcquireFailed
	ErrLeaseLost             = faults.ErrLeaseLost
	ErrUnrecognizedResultTag = faults.ErrUnrecognizedResultTag
)

type (
	ConnectivityError          = faults.ConnectivityError
	AcquireTimeoutError        = faults.AcquireTimeoutError
	AcquireFailedError         = faults.AcquireFailedError
	LeaseLostError             = faults.LeaseLostError
	UnrecognizedResultTagError = faults.UnrecognizedResultTagError
)
