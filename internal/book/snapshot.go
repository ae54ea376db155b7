package book

import snapshotv1 "github.com/cedrichaddad/flash-lob/internal/domain/snapshot/v1"

// Snapshot builds a best-first, depth-truncated read-only view of both
// sides of the book. It allocates (two slices); callers on the hot path
// use SnapshotPublisher to amortize this to the engine's configured
// publication cadence rather than every command.
func (b *Book) Snapshot(depth int) snapshotv1.Snapshot {
	bids := make([]snapshotv1.Level, 0, depth)
	b.bids.Reverse(func(price int64, lvl *PriceLevel) bool {
		if len(bids) >= depth {
			return false
		}
		bids = append(bids, snapshotv1.Level{Price: price, AggregateQty: lvl.AggregateQty, OrderCount: lvl.OrderCount})
		return true
	})

	asks := make([]snapshotv1.Level, 0, depth)
	b.asks.Scan(func(price int64, lvl *PriceLevel) bool {
		if len(asks) >= depth {
			return false
		}
		asks = append(asks, snapshotv1.Level{Price: price, AggregateQty: lvl.AggregateQty, OrderCount: lvl.OrderCount})
		return true
	})

	return snapshotv1.Snapshot{Bids: bids, Asks: asks}
}
