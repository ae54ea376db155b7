package obs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	eventv1 "github.com/cedrichaddad/flash-lob/internal/domain/event/v1"
)

func TestObserveEventIncrementsCorrectCounter(t *testing.T) {
	m := NewMetrics()
	m.ObserveEvent(eventv1.Accepted)
	m.ObserveEvent(eventv1.Accepted)
	m.ObserveEvent(eventv1.Trade)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.EventCounts[eventv1.Accepted])
	assert.EqualValues(t, 1, snap.EventCounts[eventv1.Trade])
	assert.EqualValues(t, 0, snap.EventCounts[eventv1.Cancelled])
}

func TestObserveRejectIncrementsCorrectCounter(t *testing.T) {
	m := NewMetrics()
	m.ObserveReject(eventv1.InsufficientLiquidity)
	m.ObserveReject(eventv1.InsufficientLiquidity)
	m.ObserveReject(eventv1.DuplicateID)

	snap := m.Snapshot()
	assert.EqualValues(t, 2, snap.RejectCounts[eventv1.InsufficientLiquidity])
	assert.EqualValues(t, 1, snap.RejectCounts[eventv1.DuplicateID])
}

func TestIncHalt(t *testing.T) {
	m := NewMetrics()
	m.IncHalt()
	m.IncHalt()
	assert.EqualValues(t, 2, m.Snapshot().HaltCount)
}

func TestLatencyStatsSnapshotEmpty(t *testing.T) {
	var l LatencyStats
	snap := l.Snapshot()
	assert.Zero(t, snap.Count)
}

func TestLatencyStatsObserveMinMaxAvg(t *testing.T) {
	var l LatencyStats
	l.Observe(10 * time.Millisecond)
	l.Observe(30 * time.Millisecond)
	l.Observe(20 * time.Millisecond)

	snap := l.Snapshot()
	assert.EqualValues(t, 3, snap.Count)
	assert.Equal(t, 10*time.Millisecond, snap.Min)
	assert.Equal(t, 30*time.Millisecond, snap.Max)
	assert.Equal(t, 20*time.Millisecond, snap.Avg)
}

func TestObserveCommandLatency(t *testing.T) {
	m := NewMetrics()
	m.ObserveCommandLatency(5 * time.Microsecond)
	snap := m.Snapshot()
	assert.EqualValues(t, 1, snap.CommandLatency.Count)
}
