// Package commandv1 defines the wire-level Command record accepted at the
// engine's ingress boundary (§6): what an external producer enqueues on
// the command ring for the engine to dispatch against the book.
package commandv1

import "github.com/cedrichaddad/flash-lob/internal/arena"

// Kind discriminates the three command shapes the engine accepts.
type Kind uint8

const (
	Place Kind = iota
	Cancel
	Modify
)

func (k Kind) String() string {
	switch k {
	case Place:
		return "place"
	case Cancel:
		return "cancel"
	case Modify:
		return "modify"
	default:
		return "unknown"
	}
}

// Command is a single fixed-shape record carrying the union of fields any
// of the three kinds need. Unused fields for a given Kind are zero. This
// flat shape (rather than a Go interface/tagged union of distinct
// structs) is deliberate: it lets the command ring buffer hold Command by
// value with no boxing, matching the zero-allocation hot-path discipline
// in §7.
type Command struct {
	Kind Kind

	// Present for Place.
	OrderID   uint64
	UserID    uint64
	Side      arena.Side
	OrderType arena.OrderType
	TIF       arena.TimeInForce
	Price     int64
	Quantity  uint64

	// Present for Cancel and Modify (the order being acted on).
	CancelOrderID uint64

	// Present for Modify.
	NewPrice    int64
	NewQuantity uint64

	// ClientTag is opaque to the engine and echoed back on every event
	// produced in response to this command.
	ClientTag uint64
}

// NewPlace builds a Place command for a GTC/IOC/FOK limit order, or a
// Market order (price is ignored for Market; pass 0).
func NewPlace(orderID, userID uint64, side arena.Side, orderType arena.OrderType, tif arena.TimeInForce, price int64, qty uint64, clientTag uint64) Command {
	return Command{
		Kind:      Place,
		OrderID:   orderID,
		UserID:    userID,
		Side:      side,
		OrderType: orderType,
		TIF:       tif,
		Price:     price,
		Quantity:  qty,
		ClientTag: clientTag,
	}
}

// NewCancel builds a Cancel command for orderID.
func NewCancel(orderID uint64, clientTag uint64) Command {
	return Command{Kind: Cancel, CancelOrderID: orderID, ClientTag: clientTag}
}

// NewModify builds a Modify command for orderID.
func NewModify(orderID uint64, newPrice int64, newQty uint64, clientTag uint64) Command {
	return Command{
		Kind:          Modify,
		CancelOrderID: orderID,
		NewPrice:      newPrice,
		NewQuantity:   newQty,
		ClientTag:     clientTag,
	}
}
