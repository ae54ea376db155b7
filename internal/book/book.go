// Package book implements the limit order book: sorted price levels on
// both sides, O(1) per-order mutation via arena handles, and the
// price-time priority matching algorithm. Nothing here logs or wraps
// errors — see internal/book/errors.go — because this is the hot path.
package book

import (
	"github.com/tidwall/btree"

	"github.com/cedrichaddad/flash-lob/internal/arena"
	commandv1 "github.com/cedrichaddad/flash-lob/internal/domain/command/v1"
	eventv1 "github.com/cedrichaddad/flash-lob/internal/domain/event/v1"
)

// btreeDegree is the B-tree branching factor for the sorted side maps.
// 32 balances node-scan cost against tree depth for the price-level
// counts a single-instrument book sees in practice.
const btreeDegree = 32

// indexEntry is what the order_id -> handle index keeps per live order:
// enough to find its PriceLevel directly, without a side map lookup by
// guesswork.
type indexEntry struct {
	handle arena.Handle
	side   arena.Side
	price  int64
	userID uint64
}

// Book is the sorted limit order book for one instrument. It owns the
// arena backing every resting order and is meant to be driven exclusively
// by a single engine goroutine — see internal/engine.
type Book struct {
	arena *arena.Arena

	bids *btree.Map[int64, *PriceLevel] // best = Max (highest buy price)
	asks *btree.Map[int64, *PriceLevel] // best = Min (lowest sell price)

	index map[uint64]indexEntry

	nextTimestamp uint64
	nextSequence  uint64
}

// New builds an empty Book backed by an arena with room for capacity
// resting orders.
func New(capacity uint32) *Book {
	return &Book{
		arena: arena.New(capacity),
		bids:  btree.NewMap[int64, *PriceLevel](btreeDegree),
		asks:  btree.NewMap[int64, *PriceLevel](btreeDegree),
		index: make(map[uint64]indexEntry, capacity),
	}
}

// nextEvent draws the next (timestamp, sequence) pair. Every emitted
// event — trade or terminal — draws its own pair in emission order, so
// the sequence is a strict total order across every event the book ever
// emits (P4) and the timestamp of a resting order equals that of the
// Accepted event that placed it, keeping within-level arrival order
// non-decreasing (I5). An in-place Modify leaves the node's timestamp
// unchanged.
func (b *Book) nextEvent() (timestamp, sequence uint64) {
	b.nextTimestamp++
	b.nextSequence++
	return b.nextTimestamp, b.nextSequence
}

func (b *Book) sideMap(side arena.Side) *btree.Map[int64, *PriceLevel] {
	if side == arena.Bid {
		return b.bids
	}
	return b.asks
}

func (b *Book) bestOpposite(oppositeSide arena.Side) (int64, *PriceLevel, bool) {
	if oppositeSide == arena.Ask {
		return b.asks.Min()
	}
	return b.bids.Max()
}

// pricesCross reports whether a taker on takerSide at takerPrice is
// willing to trade against a resting level at levelPrice.
func pricesCross(takerSide arena.Side, takerPrice, levelPrice int64) bool {
	if takerSide == arena.Bid {
		return takerPrice >= levelPrice
	}
	return takerPrice <= levelPrice
}

func reject(orderID uint64, side arena.Side, reason eventv1.RejectReason, ts, seq, clientTag uint64) eventv1.Event {
	return eventv1.Event{
		Kind: eventv1.Rejected, Sequence: seq, Timestamp: ts, ClientTag: clientTag,
		OrderID: orderID, Side: side, Reason: reason,
	}
}

// BestBid returns the current best (highest) bid price, if any.
func (b *Book) BestBid() (int64, bool) {
	p, _, ok := b.bids.Max()
	return p, ok
}

// BestAsk returns the current best (lowest) ask price, if any.
func (b *Book) BestAsk() (int64, bool) {
	p, _, ok := b.asks.Min()
	return p, ok
}

// OrderCount returns the number of live resting orders.
func (b *Book) OrderCount() int {
	return len(b.index)
}

// DepthAt returns the aggregate quantity and order count resting at a
// price on a side.
func (b *Book) DepthAt(side arena.Side, price int64) (qty uint64, count uint32) {
	lvl, ok := b.sideMap(side).Get(price)
	if !ok {
		return 0, 0
	}
	return lvl.AggregateQty, lvl.OrderCount
}

// hasSufficientLiquidity performs the FOK non-destructive pre-scan: sums
// AggregateQty across eligible opposing levels, best price first, and
// stops as soon as the running sum meets qty. It never walks individual
// orders, since a level's AggregateQty is already tracked incrementally.
func (b *Book) hasSufficientLiquidity(side arena.Side, orderType arena.OrderType, price int64, qty uint64) bool {
	var sum uint64
	scan := func(levelPrice int64, lvl *PriceLevel) bool {
		if orderType != arena.Market && !pricesCross(side, price, levelPrice) {
			return false
		}
		sum += lvl.AggregateQty
		return sum < qty
	}

	oppositeSide := side.Opposite()
	if oppositeSide == arena.Ask {
		b.asks.Scan(scan)
	} else {
		b.bids.Reverse(scan)
	}
	return sum >= qty
}

// matchLoop runs the crossing phase of Place: it consumes resting
// opposing liquidity best-price-first, time-priority-first within a
// level, until either remaining reaches zero or no eligible level
// remains. It mutates the book directly (no unwind) — callers that need
// an all-or-nothing guarantee (FOK) must confirm sufficiency beforehand
// via hasSufficientLiquidity.
func (b *Book) matchLoop(cmd commandv1.Command, remaining uint64, events *[]eventv1.Event) (uint64, error) {
	oppositeSide := cmd.Side.Opposite()
	oppMap := b.sideMap(oppositeSide)

	for remaining > 0 {
		price, level, ok := b.bestOpposite(oppositeSide)
		if !ok {
			break
		}
		if cmd.OrderType != arena.Market && !pricesCross(cmd.Side, cmd.Price, price) {
			break
		}

		headHandle := level.PeekHead()
		if headHandle.IsNull() {
			return remaining, ErrTornListLinks
		}
		headNode, err := b.arena.GetMut(headHandle)
		if err != nil {
			return remaining, err
		}

		tradeQty := remaining
		if headNode.RemainingQty < tradeQty {
			tradeQty = headNode.RemainingQty
		}
		makerRemaining := headNode.RemainingQty - tradeQty
		takerRemaining := remaining - tradeQty

		ts, seq := b.nextEvent()
		*events = append(*events, eventv1.Event{
			Kind: eventv1.Trade, Sequence: seq, Timestamp: ts, ClientTag: cmd.ClientTag,
			Side:           cmd.Side,
			MakerOrderID:   headNode.OrderID,
			TakerOrderID:   cmd.OrderID,
			TradePrice:     price,
			TradeQty:       tradeQty,
			MakerRemaining: makerRemaining,
			TakerRemaining: takerRemaining,
		})

		remaining = takerRemaining
		headNode.RemainingQty = makerRemaining

		if makerRemaining == 0 {
			makerOrderID := headNode.OrderID
			level.SubtractQty(tradeQty)
			if _, err := level.PopFront(b.arena); err != nil {
				return remaining, err
			}
			delete(b.index, makerOrderID)
			if err := b.arena.Free(headHandle); err != nil {
				return remaining, err
			}
			if level.IsEmpty() {
				oppMap.Delete(price)
			}
		} else {
			level.SubtractQty(tradeQty)
		}
	}

	return remaining, nil
}

// Place dispatches a Place command through the matching algorithm
// (§4.3): duplicate check, FOK pre-scan, crossing phase, then a
// TIF/OrderType-specific disposition of any residual quantity. It
// returns a fatal error only when a runtime invariant check fails; every
// ordinary rejection is communicated as an event, never as an error.
func (b *Book) Place(cmd commandv1.Command) ([]eventv1.Event, error) {
	if cmd.Quantity == 0 {
		ts, seq := b.nextEvent()
		return []eventv1.Event{reject(cmd.OrderID, cmd.Side, eventv1.MalformedCommand, ts, seq, cmd.ClientTag)}, nil
	}
	if _, exists := b.index[cmd.OrderID]; exists {
		ts, seq := b.nextEvent()
		return []eventv1.Event{reject(cmd.OrderID, cmd.Side, eventv1.DuplicateID, ts, seq, cmd.ClientTag)}, nil
	}

	if cmd.TIF == arena.FOK && !b.hasSufficientLiquidity(cmd.Side, cmd.OrderType, cmd.Price, cmd.Quantity) {
		ts, seq := b.nextEvent()
		return []eventv1.Event{reject(cmd.OrderID, cmd.Side, eventv1.FillOrKillUnsatisfied, ts, seq, cmd.ClientTag)}, nil
	}

	var events []eventv1.Event
	remaining, err := b.matchLoop(cmd, cmd.Quantity, &events)
	if err != nil {
		return events, err
	}

	switch {
	case cmd.TIF == arena.FOK:
		// hasSufficientLiquidity guaranteed remaining == 0 here.
		ts, seq := b.nextEvent()
		events = append(events, eventv1.Event{
			Kind: eventv1.Accepted, Sequence: seq, Timestamp: ts, ClientTag: cmd.ClientTag,
			OrderID: cmd.OrderID, Side: cmd.Side, Price: cmd.Price, RestingQty: 0,
		})

	case cmd.TIF == arena.IOC:
		// Residual discarded silently; no terminal event either way.

	case cmd.OrderType == arena.Market:
		if remaining > 0 {
			ts, seq := b.nextEvent()
			events = append(events, reject(cmd.OrderID, cmd.Side, eventv1.InsufficientLiquidity, ts, seq, cmd.ClientTag))
		}

	default: // GTC limit order
		if remaining > 0 {
			handle, allocErr := b.arena.Alloc()
			if allocErr != nil {
				ts, seq := b.nextEvent()
				events = append(events, reject(cmd.OrderID, cmd.Side, eventv1.ArenaExhausted, ts, seq, cmd.ClientTag))
				break
			}

			ts, seq := b.nextEvent()
			node, _ := b.arena.GetMut(handle)
			node.OrderID = cmd.OrderID
			node.UserID = cmd.UserID
			node.Price = cmd.Price
			node.RemainingQty = remaining
			node.Side = cmd.Side
			node.OrderType = cmd.OrderType
			node.TIF = cmd.TIF
			node.Timestamp = ts
			node.Sequence = seq

			level, ok := b.sideMap(cmd.Side).Get(cmd.Price)
			if !ok {
				level = NewPriceLevel(cmd.Price)
				b.sideMap(cmd.Side).Set(cmd.Price, level)
			}
			if err := level.PushTail(b.arena, handle); err != nil {
				return events, err
			}
			b.index[cmd.OrderID] = indexEntry{handle: handle, side: cmd.Side, price: cmd.Price, userID: cmd.UserID}

			events = append(events, eventv1.Event{
				Kind: eventv1.Accepted, Sequence: seq, Timestamp: ts, ClientTag: cmd.ClientTag,
				OrderID: cmd.OrderID, Side: cmd.Side, Price: cmd.Price, RestingQty: remaining,
			})
		} else {
			ts, seq := b.nextEvent()
			events = append(events, eventv1.Event{
				Kind: eventv1.Accepted, Sequence: seq, Timestamp: ts, ClientTag: cmd.ClientTag,
				OrderID: cmd.OrderID, Side: cmd.Side, Price: cmd.Price, RestingQty: 0,
			})
		}
	}

	return events, nil
}

// Cancel dispatches a Cancel command (§4.4): O(1) lookup, unlink, free.
func (b *Book) Cancel(cmd commandv1.Command) ([]eventv1.Event, error) {
	entry, ok := b.index[cmd.CancelOrderID]
	if !ok {
		ts, seq := b.nextEvent()
		return []eventv1.Event{reject(cmd.CancelOrderID, 0, eventv1.UnknownOrder, ts, seq, cmd.ClientTag)}, nil
	}

	node, err := b.arena.Get(entry.handle)
	if err != nil {
		return nil, err
	}
	cancelledQty := node.RemainingQty

	level, ok := b.sideMap(entry.side).Get(entry.price)
	if !ok {
		return nil, ErrInvariantViolation
	}
	empty, err := level.Remove(b.arena, entry.handle)
	if err != nil {
		return nil, err
	}
	if empty {
		b.sideMap(entry.side).Delete(entry.price)
	}

	delete(b.index, cmd.CancelOrderID)
	if err := b.arena.Free(entry.handle); err != nil {
		return nil, err
	}

	ts, seq := b.nextEvent()
	return []eventv1.Event{{
		Kind: eventv1.Cancelled, Sequence: seq, Timestamp: ts, ClientTag: cmd.ClientTag,
		OrderID: cmd.CancelOrderID, Side: entry.side, CancelledQty: cancelledQty,
	}}, nil
}

// Modify dispatches a Modify command (§4.4). A same-price,
// quantity-non-increasing modification mutates the resting node in place
// and preserves time priority; any other change is cancel-then-place
// with a new timestamp, losing priority and potentially matching
// immediately.
func (b *Book) Modify(cmd commandv1.Command) ([]eventv1.Event, error) {
	entry, ok := b.index[cmd.CancelOrderID]
	if !ok {
		ts, seq := b.nextEvent()
		return []eventv1.Event{reject(cmd.CancelOrderID, 0, eventv1.UnknownOrder, ts, seq, cmd.ClientTag)}, nil
	}

	node, err := b.arena.GetMut(entry.handle)
	if err != nil {
		return nil, err
	}

	if cmd.NewPrice == entry.price && cmd.NewQuantity <= node.RemainingQty {
		delta := node.RemainingQty - cmd.NewQuantity
		node.RemainingQty = cmd.NewQuantity

		level, ok := b.sideMap(entry.side).Get(entry.price)
		if !ok {
			return nil, ErrInvariantViolation
		}
		level.SubtractQty(delta)

		ts, seq := b.nextEvent()
		return []eventv1.Event{{
			Kind: eventv1.Modified, Sequence: seq, Timestamp: ts, ClientTag: cmd.ClientTag,
			OrderID: cmd.CancelOrderID, Side: entry.side, Price: entry.price, RestingQty: cmd.NewQuantity,
		}}, nil
	}

	userID := node.UserID
	side := entry.side
	orderType := node.OrderType

	events, err := b.Cancel(cmd)
	if err != nil {
		return events, err
	}

	placeCmd := commandv1.Command{
		Kind:      commandv1.Place,
		OrderID:   cmd.CancelOrderID,
		UserID:    userID,
		Side:      side,
		OrderType: orderType,
		TIF:       arena.GTC,
		Price:     cmd.NewPrice,
		Quantity:  cmd.NewQuantity,
		ClientTag: cmd.ClientTag,
	}
	placeEvents, err := b.Place(placeCmd)
	events = append(events, placeEvents...)
	return events, err
}
