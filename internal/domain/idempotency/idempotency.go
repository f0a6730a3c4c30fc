// Package idempotency maps client idempotency keys to the job they created.
package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
)

// Index records which job a key claimed so a retried submission gets the
// original job back.
type Index interface {
	// Claim atomically binds key to jobID unless it is already bound.
	// It returns the bound job id and whether this call made the binding.
	Claim(ctx context.Context, key, jobID string) (string, bool)

	// Release forgets key, typically when the job it claimed could not be enqueued.
	Release(ctx context.Context, key string)

	Size() int64
}

// node is one entry in the insertion-ordered list.
type node struct {
	key        string
	jobID      string
	prev, next *node
}

func (n *node) reset() {
	*n = node{}
}

// inMemoryIndex keeps keys in insertion order and evicts the oldest when full.
// maxSize <= 0 means unbounded.
type inMemoryIndex struct {
	mu       sync.Mutex
	entries  map[string]*node
	head     *node // oldest
	tail     *node // newest
	maxSize  int
	size     atomic.Int64
	nodePool sync.Pool
}

// NewInMemoryIndex creates an in-memory index.
func NewInMemoryIndex(opts ...Option) Index {
	ix := &inMemoryIndex{
		maxSize: 10_000,
		nodePool: sync.Pool{
			New: func() any { return &node{} },
		},
	}
	for _, opt := range opts {
		opt(ix)
	}
	ix.entries = make(map[string]*node)
	return ix
}

func (ix *inMemoryIndex) Claim(_ context.Context, key, jobID string) (string, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if n, ok := ix.entries[key]; ok {
		return n.jobID, false
	}
	if ix.maxSize > 0 && len(ix.entries) >= ix.maxSize {
		ix.evictOldest()
	}

	n := ix.nodePool.Get().(*node)
	n.key, n.jobID = key, jobID
	ix.pushBack(n)
	ix.entries[key] = n
	ix.size.Add(1)
	return jobID, true
}

func (ix *inMemoryIndex) Release(_ context.Context, key string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if n, ok := ix.entries[key]; ok {
		ix.remove(n)
	}
}

func (ix *inMemoryIndex) Size() int64 {
	return ix.size.Load()
}

// evictOldest drops the head. Caller holds mu.
func (ix *inMemoryIndex) evictOldest() {
	if ix.head != nil {
		ix.remove(ix.head)
	}
}

func (ix *inMemoryIndex) pushBack(n *node) {
	n.prev = ix.tail
	if ix.tail != nil {
		ix.tail.next = n
	} else {
		ix.head = n
	}
	ix.tail = n
}

// remove unlinks n and returns it to the pool. Caller holds mu.
func (ix *inMemoryIndex) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		ix.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		ix.tail = n.prev
	}
	delete(ix.entries, n.key)
	n.reset()
	ix.nodePool.Put(n)
	ix.size.Add(-1)
}
