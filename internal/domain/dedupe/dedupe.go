// Package dedupe coalesces pending work per key.
//
// A key is claimed when work for it is queued and released once a worker
// picks it up, so a burst of interactions from one user yields a single
// pending cache invalidation.
package dedupe

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
)

const defaultMaxPending = 50000

// Coalescer tracks keys that already have work in flight.
type Coalescer interface {
	// Claim records key as pending. It returns false when key was already
	// pending, in which case the caller should not queue more work for it.
	Claim(ctx context.Context, key string) bool

	// Release marks key as no longer pending. Releasing an unknown key is a no-op.
	Release(ctx context.Context, key string)

	// Pending returns the number of claimed keys.
	Pending() int64
}

// UserKey is the coalescing key of a user's recommendation invalidation.
func UserKey(userID int64) string {
	return "user:" + strconv.FormatInt(userID, 10)
}

// inMemoryCoalescer keeps pending keys in a map.
// With maxPending > 0 the set is bounded: once full, Claim admits new keys
// without recording them, trading coalescing for bounded memory.
type inMemoryCoalescer struct {
	mu         sync.Mutex
	pending    map[string]struct{}
	maxPending int
	size       atomic.Int64
}

// NewInMemoryCoalescer creates a coalescer with configuration options.
func NewInMemoryCoalescer(opts ...Option) Coalescer {
	c := &inMemoryCoalescer{
		maxPending: defaultMaxPending,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.pending = make(map[string]struct{})
	return c
}

// Claim implements Coalescer.
func (c *inMemoryCoalescer) Claim(_ context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[key]; ok {
		return false
	}
	if c.maxPending > 0 && len(c.pending) >= c.maxPending {
		// Full: let the work through uncoalesced.
		return true
	}
	c.pending[key] = struct{}{}
	c.size.Add(1)
	return true
}

// Release implements Coalescer.
func (c *inMemoryCoalescer) Release(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[key]; ok {
		delete(c.pending, key)
		c.size.Add(-1)
	}
}

// Pending implements Coalescer.
func (c *inMemoryCoalescer) Pending() int64 {
	return c.size.Load()
}
