package book

import "github.com/cedrichaddad/flash-lob/internal/arena"

// PriceLevel is the intrusive doubly linked list of every live order
// resting at one price on one side. It stores only head/tail handles and
// running aggregates; individual node linkage lives in the arena so that
// push/remove never walks the list.
type PriceLevel struct {
	Price        int64
	HeadHandle   arena.Handle
	TailHandle   arena.Handle
	AggregateQty uint64
	OrderCount   uint32
}

// NewPriceLevel returns an empty level for the given price.
func NewPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{
		Price:      price,
		HeadHandle: arena.NullHandle,
		TailHandle: arena.NullHandle,
	}
}

// IsEmpty reports whether the level has no resting orders.
func (l *PriceLevel) IsEmpty() bool {
	return l.OrderCount == 0
}

// PushTail appends the node at h to the end of the level's list in O(1),
// used when a new order arrives (GTC rest, or a synthetic place from
// Modify's cancel-then-place path). The caller must have already
// populated node's RemainingQty.
func (l *PriceLevel) PushTail(a *arena.Arena, h arena.Handle) error {
	node, err := a.GetMut(h)
	if err != nil {
		return err
	}

	node.PrevHandle = l.TailHandle
	node.NextHandle = arena.NullHandle

	if l.TailHandle.IsNull() {
		l.HeadHandle = h
	} else {
		tail, err := a.GetMut(l.TailHandle)
		if err != nil {
			return err
		}
		tail.NextHandle = h
	}
	l.TailHandle = h

	l.AggregateQty += node.RemainingQty
	l.OrderCount++
	return nil
}

// PeekHead returns the handle of the oldest order in the level, or
// arena.NullHandle if the level is empty.
func (l *PriceLevel) PeekHead() arena.Handle {
	return l.HeadHandle
}

// Remove unlinks the node at h from the list in O(1) using the node's own
// prev/next fields — no search. It does not free the node from the
// arena; callers decide whether to free or re-link elsewhere. Returns
// whether the level is now empty.
func (l *PriceLevel) Remove(a *arena.Arena, h arena.Handle) (bool, error) {
	node, err := a.GetMut(h)
	if err != nil {
		return l.IsEmpty(), err
	}

	prev, next := node.PrevHandle, node.NextHandle

	if prev.IsNull() {
		l.HeadHandle = next
	} else {
		prevNode, err := a.GetMut(prev)
		if err != nil {
			return l.IsEmpty(), err
		}
		prevNode.NextHandle = next
	}

	if next.IsNull() {
		l.TailHandle = prev
	} else {
		nextNode, err := a.GetMut(next)
		if err != nil {
			return l.IsEmpty(), err
		}
		nextNode.PrevHandle = prev
	}

	l.AggregateQty -= node.RemainingQty
	l.OrderCount--
	return l.IsEmpty(), nil
}

// PopFront unlinks and returns the head order's handle, without freeing
// it from the arena. Used by the matcher once a maker is fully consumed.
func (l *PriceLevel) PopFront(a *arena.Arena) (arena.Handle, error) {
	head := l.HeadHandle
	if head.IsNull() {
		return arena.NullHandle, nil
	}
	if _, err := l.Remove(a, head); err != nil {
		return arena.NullHandle, err
	}
	return head, nil
}

// SubtractQty lowers the level's aggregate quantity after a partial fill
// of its head order. The caller is responsible for updating the node's
// own RemainingQty.
func (l *PriceLevel) SubtractQty(qty uint64) {
	l.AggregateQty -= qty
}
