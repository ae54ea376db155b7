// Package eventv1 defines the wire-level Event record published at the
// engine's egress boundary (§6): what the engine enqueues on the event
// ring for external consumers to observe.
package eventv1

import "github.com/cedrichaddad/flash-lob/internal/arena"

// Kind discriminates the five event shapes the engine emits.
type Kind uint8

const (
	Accepted Kind = iota
	Rejected
	Cancelled
	Modified
	Trade
)

func (k Kind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Cancelled:
		return "cancelled"
	case Modified:
		return "modified"
	case Trade:
		return "trade"
	default:
		return "unknown"
	}
}

// RejectReason enumerates why a command was rejected.
type RejectReason uint8

const (
	DuplicateID RejectReason = iota
	UnknownOrder
	InsufficientLiquidity
	FillOrKillUnsatisfied
	ArenaExhausted
	MalformedCommand
)

func (r RejectReason) String() string {
	switch r {
	case DuplicateID:
		return "duplicate_id"
	case UnknownOrder:
		return "unknown_order"
	case InsufficientLiquidity:
		return "insufficient_liquidity"
	case FillOrKillUnsatisfied:
		return "fill_or_kill_unsatisfied"
	case ArenaExhausted:
		return "arena_exhausted"
	case MalformedCommand:
		return "malformed_command"
	default:
		return "unknown"
	}
}

// Event is a single fixed-shape record, flat for the same
// zero-allocation reason Command is (see commandv1.Command).
type Event struct {
	Kind Kind

	Sequence  uint64
	Timestamp uint64
	ClientTag uint64

	OrderID uint64
	Side    arena.Side

	// Accepted / Modified: resting quantity after the command settled.
	RestingQty uint64
	Price      int64

	// Cancelled: quantity that was resting at cancellation time.
	CancelledQty uint64

	// Rejected.
	Reason RejectReason

	// Trade.
	MakerOrderID   uint64
	TakerOrderID   uint64
	TradePrice     int64
	TradeQty       uint64
	MakerRemaining uint64
	TakerRemaining uint64
}
