// internal/store/errors.go
package store

import (
	"errors"
	"fmt"
)

// ErrUnknownOperation is returned by a gateway asked to run an operation it does not implement.
var ErrUnknownOperation = errors.New("unknown store operation")

// InvalidConfigurationError is thrown when the type of the configuration is not supported by a store.
type InvalidConfigurationError struct {
	Store  string
	Config any
}

func (e *InvalidConfigurationError) Error() string {
	return fmt.Sprintf("%s: invalid configuration type: %T", e.Store, e.Config)
}

// UnknownConstructorError reports a backend name no package registered.
type UnknownConstructorError struct {
	Store string
}

func (e UnknownConstructorError) Error() string {
	return fmt.Sprintf("unknown constructor %q (forgotten import?)", e.Store)
}

// InvalidArgumentError reports a malformed positional argument passed to a gateway.
type InvalidArgumentError struct {
	Op    Operation
	Index int
	Value any
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("%s: invalid argument %d: %v (%T)", e.Op, e.Index, e.Value, e.Value)
}
