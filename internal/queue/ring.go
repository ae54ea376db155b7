// Package queue implements the SPSC lock-free bounded ring buffer used
// for both the command-ingress and event-egress queues (§5/§6). Capacity
// is fixed and rounded up to a power of two so indexing is a mask rather
// than a modulo.
package queue

import (
	"errors"
	"sync/atomic"
)

// Unlike internal/arena and internal/book, these are ordinary errors —
// TryPush/TryPop returning them is the expected non-blocking-full/empty
// signal, not a bug, but they still cost nothing to construct since they
// are package-level sentinels.
var (
	// ErrFull is returned by TryPush when the ring has no free slot.
	ErrFull = errors.New("queue: full")
	// ErrEmpty is returned by TryPop when the ring has no pending item.
	ErrEmpty = errors.New("queue: empty")
)

const cacheLineSize = 64

// cursor is a uint64 cursor padded to its own cache line on both sides,
// so the producer's writes to one cursor never evict the consumer's copy
// of the other from cache (false sharing).
type cursor struct {
	_    [cacheLineSize - 8]byte
	pos  uint64
	_pad [cacheLineSize - 8]byte
}

// Ring is a single-producer single-consumer bounded lock-free queue.
// Exactly one goroutine may call TryPush; exactly one (possibly
// different) goroutine may call TryPop. Memory ordering between them is
// provided by sync/atomic's Load/Store on the cursors, which the Go
// memory model gives acquire/release semantics.
type Ring[T any] struct {
	buffer []T
	mask   uint64

	write cursor
	read  cursor
}

// NewRing returns a Ring whose capacity is the smallest power of two
// greater than or equal to capacity (minimum 2).
func NewRing[T any](capacity int) *Ring[T] {
	size := uint64(2)
	for size < uint64(capacity) {
		size <<= 1
	}
	return &Ring[T]{
		buffer: make([]T, size),
		mask:   size - 1,
	}
}

// Capacity returns the ring's power-of-two slot count.
func (r *Ring[T]) Capacity() uint64 {
	return r.mask + 1
}

// Len returns the number of items currently queued. Racy with respect to
// a concurrent producer/consumer — intended for metrics/backpressure
// observation, not synchronization.
func (r *Ring[T]) Len() uint64 {
	write := atomic.LoadUint64(&r.write.pos)
	read := atomic.LoadUint64(&r.read.pos)
	return write - read
}

// TryPush enqueues v without blocking. Returns ErrFull if the ring is at
// capacity.
func (r *Ring[T]) TryPush(v T) error {
	write := atomic.LoadUint64(&r.write.pos)
	read := atomic.LoadUint64(&r.read.pos)

	if write-read >= uint64(len(r.buffer)) {
		return ErrFull
	}

	r.buffer[write&r.mask] = v
	atomic.StoreUint64(&r.write.pos, write+1)
	return nil
}

// TryPop dequeues the oldest item without blocking. Returns ErrEmpty if
// the ring has nothing queued.
func (r *Ring[T]) TryPop() (T, error) {
	write := atomic.LoadUint64(&r.write.pos)
	read := atomic.LoadUint64(&r.read.pos)

	if write == read {
		var zero T
		return zero, ErrEmpty
	}

	v := r.buffer[read&r.mask]
	atomic.StoreUint64(&r.read.pos, read+1)
	return v, nil
}
