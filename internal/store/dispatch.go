// internal/store/dispatch.go
package store

import (
	"context"

	"github.com/avivl/redis-lock/internal/faults"
)

// Dispatcher runs fn on a worker and blocks until it returns or ctx is done.
type Dispatcher interface {
	Do(ctx context.Context, fn func(ctx context.Context)) error
}

type dispatchedGateway struct {
	next       Gateway
	dispatcher Dispatcher
}

// Dispatch returns a Gateway that performs every round trip of next on d.
// A rejected or abandoned dispatch surfaces as a connectivity error.
func Dispatch(next Gateway, d Dispatcher) Gateway {
	return &dispatchedGateway{next: next, dispatcher: d}
}

func (g *dispatchedGateway) Execute(ctx context.Context, op Operation, keys []string, args ...any) (Outcome, error) {
	type reply struct {
		outcome Outcome
		err     error
	}
	done := make(chan reply, 1)

	err := g.dispatcher.Do(ctx, func(ctx context.Context) {
		outcome, err := g.next.Execute(ctx, op, keys, args...)
		done <- reply{outcome, err}
	})
	if err != nil {
		return Outcome{}, &faults.ConnectivityError{Op: string(op), Err: err}
	}

	r := <-done
	return r.outcome, r.err
}

func (g *dispatchedGateway) Close() error {
	return g.next.Close()
}
