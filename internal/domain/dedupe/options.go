package dedupe

// Option applies a configuration option to the in-memory coalescer.
type Option func(*inMemoryCoalescer)

// WithMaxPending bounds the number of tracked keys.
// maxPending <= 0 leaves the set unbounded.
func WithMaxPending(maxPending int) Option {
	return func(c *inMemoryCoalescer) {
		c.maxPending = maxPending
	}
}
