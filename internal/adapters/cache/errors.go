package cache

import "errors"

// ErrCacheMiss is returned by Get when no entry exists for the user.
var ErrCacheMiss = errors.New("cache miss")

// ErrStale is returned by Set when the entry was invalidated after its
// generation was read.
var ErrStale = errors.New("stale cache write")
