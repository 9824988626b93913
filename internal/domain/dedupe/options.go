// Package dedupe coalesces pending handicap recalculations.
package dedupe

// Option applies a configuration option to the in-memory coalescer.
type Option func(*inMemoryCoalescer)

// WithMaxSize bounds how many subjects may be marked pending at once.
// A value <= 0 removes the bound.
func WithMaxSize(maxSize int) Option {
	return func(c *inMemoryCoalescer) {
		c.maxSize = maxSize
	}
}
