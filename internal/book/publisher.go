package book

import (
	"sync/atomic"

	snapshotv1 "github.com/cedrichaddad/flash-lob/internal/domain/snapshot/v1"
)

// SnapshotPublisher double-buffers a Snapshot so the engine goroutine can
// publish a fresh one without ever blocking a concurrent reader, and a
// reader never observes a torn (partially written) snapshot — it may
// only observe a stale one (§4.7/§5).
type SnapshotPublisher struct {
	buffers [2]snapshotv1.Snapshot
	active  atomic.Uint32
}

// NewSnapshotPublisher returns a publisher with an empty snapshot
// published on both buffers.
func NewSnapshotPublisher() *SnapshotPublisher {
	return &SnapshotPublisher{}
}

// Publish writes s into the currently inactive buffer, then atomically
// swaps the active index. Called only by the engine goroutine.
func (p *SnapshotPublisher) Publish(s snapshotv1.Snapshot) {
	inactive := 1 - p.active.Load()
	p.buffers[inactive] = s
	p.active.Store(inactive)
}

// Load returns the currently published snapshot. Safe for concurrent use
// by any number of readers; never blocks the publisher.
func (p *SnapshotPublisher) Load() snapshotv1.Snapshot {
	return p.buffers[p.active.Load()]
}
