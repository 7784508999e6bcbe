package cache

import "errors"

// ErrNilCompute is returned when GetOrCompute is called without a compute func.
var ErrNilCompute = errors.New("cache: nil compute function")

// ErrUnexpectedType is returned by Memo when a cached value has another type.
var ErrUnexpectedType = errors.New("cache: unexpected value type")
