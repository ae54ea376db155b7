// Package snapshotv1 defines the read-only book-depth view published by
// the engine and mirrored externally by internal/snapshot/redisstore.
package snapshotv1

// Level is one (price, aggregate_qty, order_count) tuple on one side of
// the book.
type Level struct {
	Price        int64
	AggregateQty uint64
	OrderCount   uint32
}

// Snapshot is a best-first, depth-truncated view of both sides of the
// book at one instant.
type Snapshot struct {
	Bids []Level
	Asks []Level
}
