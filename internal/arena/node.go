package arena

import "unsafe"

// Side is the resting/aggressing direction of an order.
type Side uint8

const (
	Bid Side = iota
	Ask
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

func (s Side) String() string {
	if s == Bid {
		return "bid"
	}
	return "ask"
}

// OrderType selects how an order interacts with the book before resting.
type OrderType uint8

const (
	Limit OrderType = iota
	Market
)

func (t OrderType) String() string {
	if t == Market {
		return "market"
	}
	return "limit"
}

// TimeInForce selects the disposition of any unmatched residual quantity.
type TimeInForce uint8

const (
	GTC TimeInForce = iota // rests in the book
	IOC                    // match now, discard residual
	FOK                    // all-or-nothing
)

func (t TimeInForce) String() string {
	switch t {
	case IOC:
		return "ioc"
	case FOK:
		return "fok"
	default:
		return "gtc"
	}
}

// OrderNode is the arena payload: one resting (or in-flight) order. Field
// order mirrors the 64-byte cache-line layout this engine is modeled on —
// hot fields first, linkage next, bookkeeping last.
type OrderNode struct {
	OrderID      uint64
	Price        int64
	RemainingQty uint64

	Side      Side
	OrderType OrderType
	TIF       TimeInForce
	Flags     uint8

	PrevHandle Handle
	NextHandle Handle

	UserID    uint64
	Timestamp uint64
	Sequence  uint64
}

// reset clears a node before it is returned to the free list. Handles are
// re-threaded by the caller immediately afterward.
func (n *OrderNode) reset() {
	*n = OrderNode{}
}

const _orderNodeSize = unsafe.Sizeof(OrderNode{})

func init() {
	const want = 64
	_ = [want - int(_orderNodeSize)]byte{}
	_ = [int(_orderNodeSize) - want]byte{}
}
