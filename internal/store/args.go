// internal/store/args.go
package store

import (
	"strconv"
	"time"
)

// Int64Arg reads args[i] as an integer. Gateways that interpret arguments
// locally use it; the Redis gateway ships them as-is.
func Int64Arg(op Operation, args []any, i int) (int64, error) {
	if i >= len(args) {
		return 0, &InvalidArgumentError{Op: op, Index: i}
	}
	switch v := args[i].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case time.Duration:
		return v.Milliseconds(), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, &InvalidArgumentError{Op: op, Index: i, Value: v}
		}
		return n, nil
	}
	return 0, &InvalidArgumentError{Op: op, Index: i, Value: args[i]}
}

// StringArg reads args[i] as a string.
func StringArg(op Operation, args []any, i int) (string, error) {
	if i >= len(args) {
		return "", &InvalidArgumentError{Op: op, Index: i}
	}
	s, ok := args[i].(string)
	if !ok {
		return "", &InvalidArgumentError{Op: op, Index: i, Value: args[i]}
	}
	return s, nil
}
