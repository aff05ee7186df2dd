package cache

import "errors"

// ErrNotFound indicates a cache key with no value.
var ErrNotFound = errors.New("cache key not found")
