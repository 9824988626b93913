// Package dedupe coalesces pending handicap recalculations. Two rounds
// finalized in quick succession for the same subject only need one
// recalculation, since each run re-derives the index from the full round
// history.
package dedupe

import (
	"context"
	"sync"
)

// Default coalescer configuration constants.
const defaultMaxSize = 10000

// Coalescer tracks which subjects already have a recalculation queued.
type Coalescer interface {
	// SeenAndRecord atomically checks whether key already has pending work
	// and records it if not. Returns true if work was already pending.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord clears the pending mark for key, allowing the next trigger
	// to enqueue again. Called when a recalculation starts reading its
	// snapshot, or when the job could not be enqueued after all.
	Unrecord(ctx context.Context, key string)

	// Size returns the number of subjects currently marked pending.
	Size() int
}

// inMemoryCoalescer implements Coalescer with a bounded map. When the bound
// is reached, new keys are admitted without being recorded: the duplicate
// recalculation that may result is harmless because every run converges on
// the same index.
type inMemoryCoalescer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	maxSize int // 0 or negative means unbounded
}

// NewInMemoryCoalescer creates a coalescer with configuration options.
func NewInMemoryCoalescer(opts ...Option) Coalescer {
	c := &inMemoryCoalescer{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.pending = make(map[string]struct{})
	return c
}

func (c *inMemoryCoalescer) SeenAndRecord(_ context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pending[key]; ok {
		return true
	}
	if c.maxSize > 0 && len(c.pending) >= c.maxSize {
		// Full: let the work through unrecorded rather than drop it.
		return false
	}
	c.pending[key] = struct{}{}
	return false
}

func (c *inMemoryCoalescer) Unrecord(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, key)
}

func (c *inMemoryCoalescer) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
