package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedrichaddad/flash-lob/internal/arena"
	commandv1 "github.com/cedrichaddad/flash-lob/internal/domain/command/v1"
	eventv1 "github.com/cedrichaddad/flash-lob/internal/domain/event/v1"
)

func place(orderID, userID uint64, side arena.Side, orderType arena.OrderType, tif arena.TimeInForce, price int64, qty uint64) commandv1.Command {
	return commandv1.NewPlace(orderID, userID, side, orderType, tif, price, qty, 0)
}

func limitGTC(orderID, userID uint64, side arena.Side, price int64, qty uint64) commandv1.Command {
	return place(orderID, userID, side, arena.Limit, arena.GTC, price, qty)
}

// S1
func TestPlaceRestingNoMatch(t *testing.T) {
	b := New(1000)
	events, err := b.Place(limitGTC(1, 1, arena.Bid, 100, 10))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventv1.Accepted, events[0].Kind)
	assert.EqualValues(t, 10, events[0].RestingQty)

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.EqualValues(t, 100, bid)
	_, ok = b.BestAsk()
	assert.False(t, ok)
}

// S2
func TestPlacePartialMatchTakerFilled(t *testing.T) {
	b := New(1000)
	_, err := b.Place(limitGTC(1, 1, arena.Bid, 100, 10))
	require.NoError(t, err)

	events, err := b.Place(limitGTC(2, 2, arena.Ask, 100, 4))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, eventv1.Trade, events[0].Kind)
	assert.EqualValues(t, 4, events[0].TradeQty)
	assert.EqualValues(t, 6, events[0].MakerRemaining)
	assert.EqualValues(t, 0, events[0].TakerRemaining)
	assert.Equal(t, eventv1.Accepted, events[1].Kind)
	assert.EqualValues(t, 0, events[1].RestingQty)

	qty, count := b.DepthAt(arena.Bid, 100)
	assert.EqualValues(t, 6, qty)
	assert.EqualValues(t, 1, count)
}

// S3
func TestPlaceMakerFullyConsumedTakerRests(t *testing.T) {
	b := New(1000)
	_, _ = b.Place(limitGTC(1, 1, arena.Bid, 100, 10))
	_, _ = b.Place(limitGTC(2, 2, arena.Ask, 100, 4)) // maker 1 -> 6 remaining

	events, err := b.Place(limitGTC(3, 3, arena.Ask, 100, 10))
	require.NoError(t, err)
	require.Len(t, events, 2)
	trade := events[0]
	assert.Equal(t, eventv1.Trade, trade.Kind)
	assert.EqualValues(t, 6, trade.TradeQty)
	assert.EqualValues(t, 0, trade.MakerRemaining)
	assert.EqualValues(t, 4, trade.TakerRemaining)
	assert.Equal(t, eventv1.Accepted, events[1].Kind)
	assert.EqualValues(t, 4, events[1].RestingQty)

	_, ok := b.BestBid()
	assert.False(t, ok)
	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.EqualValues(t, 100, ask)
}

// S4: FOK price does not cross -> rejected, no state change.
func TestFOKPriceDoesNotCross(t *testing.T) {
	b := New(1000)
	_, _ = b.Place(limitGTC(3, 3, arena.Ask, 100, 4))

	events, err := b.Place(place(5, 1, arena.Bid, arena.Limit, arena.FOK, 99, 5))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventv1.Rejected, events[0].Kind)
	assert.Equal(t, eventv1.FillOrKillUnsatisfied, events[0].Reason)

	qty, count := b.DepthAt(arena.Ask, 100)
	assert.EqualValues(t, 4, qty)
	assert.EqualValues(t, 1, count)
}

// S5: FOK insufficient liquidity -> rejected, no state change.
func TestFOKInsufficientLiquidity(t *testing.T) {
	b := New(1000)
	_, _ = b.Place(limitGTC(3, 3, arena.Ask, 100, 4))

	events, err := b.Place(place(5, 1, arena.Bid, arena.Limit, arena.FOK, 101, 10))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventv1.Rejected, events[0].Kind)
	assert.Equal(t, eventv1.FillOrKillUnsatisfied, events[0].Reason)
	assert.EqualValues(t, 1, b.OrderCount())
}

// S6: IOC partial fill, residual discarded, no terminal event.
func TestIOCResidualDiscarded(t *testing.T) {
	b := New(1000)
	_, _ = b.Place(limitGTC(3, 3, arena.Ask, 100, 4))

	events, err := b.Place(place(6, 1, arena.Bid, arena.Limit, arena.IOC, 100, 10))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventv1.Trade, events[0].Kind)
	assert.EqualValues(t, 4, events[0].TradeQty)
	assert.EqualValues(t, 6, events[0].TakerRemaining)

	_, ok := b.BestAsk()
	assert.False(t, ok)
	assert.EqualValues(t, 0, b.OrderCount())
}

// S7
func TestPlaceThenCancel(t *testing.T) {
	b := New(1000)
	events, err := b.Place(limitGTC(7, 1, arena.Bid, 100, 5))
	require.NoError(t, err)
	assert.Equal(t, eventv1.Accepted, events[0].Kind)

	events, err = b.Cancel(commandv1.NewCancel(7, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventv1.Cancelled, events[0].Kind)
	assert.EqualValues(t, 5, events[0].CancelledQty)
	assert.EqualValues(t, 0, b.OrderCount())
}

// S8: time priority within a level.
func TestTimePriorityWithinLevel(t *testing.T) {
	b := New(1000)
	_, _ = b.Place(limitGTC(100, 1, arena.Bid, 100, 5)) // A
	_, _ = b.Place(limitGTC(101, 2, arena.Bid, 100, 5)) // B

	events, err := b.Place(limitGTC(102, 3, arena.Ask, 100, 6))
	require.NoError(t, err)

	trades := filterTrades(events)
	require.Len(t, trades, 2)
	assert.EqualValues(t, 100, trades[0].MakerOrderID)
	assert.EqualValues(t, 5, trades[0].TradeQty)
	assert.EqualValues(t, 101, trades[1].MakerOrderID)
	assert.EqualValues(t, 1, trades[1].TradeQty)

	qty, _ := b.DepthAt(arena.Bid, 100)
	assert.EqualValues(t, 4, qty)
}

func filterTrades(events []eventv1.Event) []eventv1.Event {
	var out []eventv1.Event
	for _, e := range events {
		if e.Kind == eventv1.Trade {
			out = append(out, e)
		}
	}
	return out
}

// S9: modify same price, smaller qty preserves priority.
func TestModifySamePriceSmallerQtyPreservesPriority(t *testing.T) {
	b := New(1000)
	_, _ = b.Place(limitGTC(1, 1, arena.Bid, 100, 10)) // A
	_, _ = b.Place(limitGTC(2, 2, arena.Bid, 100, 5))  // B

	events, err := b.Modify(commandv1.NewModify(1, 100, 4, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventv1.Modified, events[0].Kind)
	assert.EqualValues(t, 4, events[0].RestingQty)

	events, err = b.Place(limitGTC(3, 3, arena.Ask, 100, 4))
	require.NoError(t, err)
	trades := filterTrades(events)
	require.Len(t, trades, 1)
	assert.EqualValues(t, 1, trades[0].MakerOrderID, "A must still be ahead of B after the in-place modify")

	qty, _ := b.DepthAt(arena.Bid, 100)
	assert.EqualValues(t, 5, qty, "only B's 5 should remain")
}

// S10: modify with qty increase at same price loses priority (cancel-then-place).
func TestModifyQtyIncreaseLosesPriority(t *testing.T) {
	b := New(1000)
	_, _ = b.Place(limitGTC(1, 1, arena.Bid, 100, 10)) // A
	_, _ = b.Place(limitGTC(2, 2, arena.Bid, 100, 5))  // B

	events, err := b.Modify(commandv1.NewModify(1, 100, 12, 0))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, eventv1.Cancelled, events[0].Kind)
	assert.Equal(t, eventv1.Accepted, events[1].Kind)
	assert.EqualValues(t, 12, events[1].RestingQty)

	events, err = b.Place(limitGTC(3, 3, arena.Ask, 100, 5))
	require.NoError(t, err)
	trades := filterTrades(events)
	require.Len(t, trades, 1)
	assert.EqualValues(t, 2, trades[0].MakerOrderID, "B now has priority over the re-inserted A")
}

// S11: arena exhaustion rejects the (N+1)th resting order, book unchanged.
func TestArenaExhaustionRejectsOrder(t *testing.T) {
	b := New(2)
	_, err := b.Place(limitGTC(1, 1, arena.Bid, 100, 1))
	require.NoError(t, err)
	_, err = b.Place(limitGTC(2, 1, arena.Bid, 99, 1))
	require.NoError(t, err)

	events, err := b.Place(limitGTC(3, 1, arena.Bid, 98, 1))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventv1.Rejected, events[0].Kind)
	assert.Equal(t, eventv1.ArenaExhausted, events[0].Reason)
	assert.EqualValues(t, 2, b.OrderCount())
}

// S12: snapshot depth truncation.
func TestSnapshotDepthTruncation(t *testing.T) {
	b := New(1000)
	prices := []int64{100, 99, 98, 97, 96, 95}
	for i, p := range prices {
		_, err := b.Place(limitGTC(uint64(i+1), 1, arena.Bid, p, 1))
		require.NoError(t, err)
	}

	snap := b.Snapshot(3)
	require.Len(t, snap.Bids, 3)
	assert.EqualValues(t, 100, snap.Bids[0].Price)
	assert.EqualValues(t, 99, snap.Bids[1].Price)
	assert.EqualValues(t, 98, snap.Bids[2].Price)
	assert.Len(t, snap.Asks, 0)
}

func TestDuplicateOrderIDRejected(t *testing.T) {
	b := New(1000)
	_, err := b.Place(limitGTC(1, 1, arena.Bid, 100, 10))
	require.NoError(t, err)

	events, err := b.Place(limitGTC(1, 2, arena.Ask, 101, 5))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventv1.Rejected, events[0].Kind)
	assert.Equal(t, eventv1.DuplicateID, events[0].Reason)
	assert.EqualValues(t, 1, b.OrderCount())
}

func TestZeroQuantityRejected(t *testing.T) {
	b := New(1000)
	events, err := b.Place(limitGTC(1, 1, arena.Bid, 100, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventv1.Rejected, events[0].Kind)
	assert.Equal(t, eventv1.MalformedCommand, events[0].Reason)
}

func TestCancelUnknownOrderRejectedNoMutation(t *testing.T) {
	b := New(1000)
	events, err := b.Cancel(commandv1.NewCancel(999, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, eventv1.Rejected, events[0].Kind)
	assert.Equal(t, eventv1.UnknownOrder, events[0].Reason)
	assert.EqualValues(t, 0, b.OrderCount())
}

func TestMarketOrderInsufficientLiquidityRejectsResidual(t *testing.T) {
	b := New(1000)
	_, _ = b.Place(limitGTC(1, 1, arena.Ask, 100, 4))

	events, err := b.Place(place(2, 2, arena.Bid, arena.Market, arena.GTC, 0, 10))
	require.NoError(t, err)
	trades := filterTrades(events)
	require.Len(t, trades, 1)
	assert.EqualValues(t, 4, trades[0].TradeQty)

	rejects := 0
	for _, e := range events {
		if e.Kind == eventv1.Rejected {
			rejects++
			assert.Equal(t, eventv1.InsufficientLiquidity, e.Reason)
		}
	}
	assert.Equal(t, 1, rejects)
	assert.EqualValues(t, 0, b.OrderCount(), "market orders never rest")
}

func TestSequenceStrictlyIncreasing(t *testing.T) {
	b := New(1000)
	var last uint64
	for i := uint64(1); i <= 20; i++ {
		events, err := b.Place(limitGTC(i, 1, arena.Bid, int64(100-i), 1))
		require.NoError(t, err)
		for _, e := range events {
			assert.Greater(t, e.Sequence, last)
			last = e.Sequence
		}
	}
}

func TestMatchMultipleLevels(t *testing.T) {
	b := New(1000)
	_, _ = b.Place(limitGTC(1, 1, arena.Ask, 100, 50))
	_, _ = b.Place(limitGTC(2, 1, arena.Ask, 101, 50))
	_, _ = b.Place(limitGTC(3, 1, arena.Ask, 102, 50))

	events, err := b.Place(limitGTC(4, 2, arena.Bid, 102, 120))
	require.NoError(t, err)
	trades := filterTrades(events)
	require.Len(t, trades, 3)
	assert.EqualValues(t, 100, trades[0].TradePrice)
	assert.EqualValues(t, 50, trades[0].TradeQty)
	assert.EqualValues(t, 101, trades[1].TradePrice)
	assert.EqualValues(t, 50, trades[1].TradeQty)
	assert.EqualValues(t, 102, trades[2].TradePrice)
	assert.EqualValues(t, 20, trades[2].TradeQty)

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.EqualValues(t, 102, ask)
}

func TestBookNeverCrossedAtRest(t *testing.T) {
	b := New(1000)
	_, _ = b.Place(limitGTC(1, 1, arena.Bid, 100, 10))
	_, _ = b.Place(limitGTC(2, 2, arena.Ask, 105, 10))

	bid, _ := b.BestBid()
	ask, _ := b.BestAsk()
	assert.Less(t, bid, ask)
}
