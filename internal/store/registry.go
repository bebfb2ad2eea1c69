// internal/store/registry.go
package store

import (
	"context"
	"slices"

	"github.com/avivl/redis-lock/internal/observability"
	"github.com/puzpuzpuz/xsync/v3"
)

// backends maps a backend name, as used in the `backend` config key, to the
// constructor its package registered from init.
var backends = xsync.NewMapOf[string, Constructor]()

// Config is the backend-specific section handed to a Constructor. Each
// constructor asserts the concrete type it expects.
type Config any

// Constructor builds a connected Gateway from its backend section.
type Constructor func(ctx context.Context, options Config, logger *observability.SLogger) (Gateway, error)

// Register makes a backend available to NewGateway under name. Backends call
// it from init; a nil constructor or a second registration of the same name
// panics.
func Register(name string, construct Constructor) {
	if construct == nil {
		panic("redis-lock: nil constructor for backend " + name)
	}
	if _, loaded := backends.LoadOrStore(name, construct); loaded {
		panic("redis-lock: backend " + name + " registered twice")
	}
}

// Unregister removes a backend. Tests use it to undo Register.
func Unregister(name string) {
	backends.Delete(name)
}

// Constructors lists the registered backend names in sorted order.
func Constructors() []string {
	names := make([]string, 0, backends.Size())
	backends.Range(func(name string, _ Constructor) bool {
		names = append(names, name)
		return true
	})
	slices.Sort(names)
	return names
}

// NewGateway builds the gateway registered under name.
func NewGateway(ctx context.Context, name string, options Config, logger *observability.SLogger) (Gateway, error) {
	construct, ok := backends.Load(name)
	if !ok {
		return nil, &UnknownConstructorError{Store: name}
	}
	return construct(ctx, options, logger)
}
