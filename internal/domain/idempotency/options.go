package idempotency

// Option applies a configuration option to the in-memory index.
type Option func(*inMemoryIndex)

// WithMaxSize sets the maximum number of keys kept in memory.
// If maxSize > 0 the oldest key is evicted when full; otherwise the index is unbounded.
func WithMaxSize(maxSize int) Option {
	return func(ix *inMemoryIndex) {
		ix.maxSize = maxSize
	}
}
