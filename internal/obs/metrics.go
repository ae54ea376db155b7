// Package obs collects lock-free counters observing the engine loop. The
// engine calls ObserveEvent, ObserveReject, ObserveCommandLatency and
// IncHalt, all non-blocking atomic updates; exposition and translation to
// Prometheus types run off the engine's goroutine.
package obs

import (
	"sync/atomic"
	"time"

	eventv1 "github.com/cedrichaddad/flash-lob/internal/domain/event/v1"
)

const (
	maxEventKind    = int(eventv1.Trade)
	maxRejectReason = int(eventv1.MalformedCommand)
)

// Metrics holds only fixed-size arrays of atomic counters — no maps, no
// slices, nothing that allocates per observation.
type Metrics struct {
	eventCounts  [maxEventKind + 1]uint64
	rejectCounts [maxRejectReason + 1]uint64
	haltCount    uint64

	commandLatency LatencyStats
}

// LatencyStats aggregates duration samples in nanoseconds in fixed
// atomic fields: count and sum are atomic adds, and the running min/max
// use CAS-retry loops.
type LatencyStats struct {
	count uint64
	sum   uint64
	min   uint64
	max   uint64
}

// LatencySnapshot is a point-in-time view of LatencyStats.
type LatencySnapshot struct {
	Count uint64
	Min   time.Duration
	Max   time.Duration
	Avg   time.Duration
}

// Snapshot is a point-in-time copy of every counter, suitable for
// translation into Prometheus gauges/counters by a caller off the hot
// path (cmd/engine).
type Snapshot struct {
	EventCounts    [maxEventKind + 1]uint64
	RejectCounts   [maxRejectReason + 1]uint64
	HaltCount      uint64
	CommandLatency LatencySnapshot
}

// NewMetrics allocates a metrics container.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveEvent increments the counter for kind. Called once per emitted
// event from the engine loop.
func (m *Metrics) ObserveEvent(kind eventv1.Kind) {
	idx := int(kind)
	if idx >= 0 && idx < len(m.eventCounts) {
		atomic.AddUint64(&m.eventCounts[idx], 1)
	}
}

// ObserveReject increments the counter for a specific rejection reason.
// Called alongside ObserveEvent when kind == eventv1.Rejected.
func (m *Metrics) ObserveReject(reason eventv1.RejectReason) {
	idx := int(reason)
	if idx >= 0 && idx < len(m.rejectCounts) {
		atomic.AddUint64(&m.rejectCounts[idx], 1)
	}
}

// IncHalt records a transition of the engine into the Halted state.
func (m *Metrics) IncHalt() {
	atomic.AddUint64(&m.haltCount, 1)
}

// ObserveCommandLatency records the time from command dequeue to the
// last event published for it.
func (m *Metrics) ObserveCommandLatency(d time.Duration) {
	m.commandLatency.Observe(d)
}

// Snapshot returns a copy of every counter's current value.
func (m *Metrics) Snapshot() Snapshot {
	s := Snapshot{
		HaltCount:      atomic.LoadUint64(&m.haltCount),
		CommandLatency: m.commandLatency.Snapshot(),
	}
	for i := range m.eventCounts {
		s.EventCounts[i] = atomic.LoadUint64(&m.eventCounts[i])
	}
	for i := range m.rejectCounts {
		s.RejectCounts[i] = atomic.LoadUint64(&m.rejectCounts[i])
	}
	return s
}

// Observe records a duration sample using lock-free CAS loops for the
// running min/max.
func (l *LatencyStats) Observe(d time.Duration) {
	if d < 0 {
		return
	}
	nanos := uint64(d)
	atomic.AddUint64(&l.count, 1)
	atomic.AddUint64(&l.sum, nanos)

	for {
		cur := atomic.LoadUint64(&l.min)
		if cur != 0 && nanos >= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&l.min, cur, nanos) {
			break
		}
	}

	for {
		cur := atomic.LoadUint64(&l.max)
		if nanos <= cur {
			break
		}
		if atomic.CompareAndSwapUint64(&l.max, cur, nanos) {
			break
		}
	}
}

// Snapshot returns the aggregated latency stats.
func (l *LatencyStats) Snapshot() LatencySnapshot {
	count := atomic.LoadUint64(&l.count)
	if count == 0 {
		return LatencySnapshot{}
	}
	sum := atomic.LoadUint64(&l.sum)
	return LatencySnapshot{
		Count: count,
		Min:   time.Duration(atomic.LoadUint64(&l.min)),
		Max:   time.Duration(atomic.LoadUint64(&l.max)),
		Avg:   time.Duration(sum / count),
	}
}
