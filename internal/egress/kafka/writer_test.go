package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cedrichaddad/flash-lob/internal/arena"
	eventv1 "github.com/cedrichaddad/flash-lob/internal/domain/event/v1"
)

func TestEncodeTradeEvent(t *testing.T) {
	ev := eventv1.Event{
		Kind: eventv1.Trade, Sequence: 3, Timestamp: 10,
		MakerOrderID: 1, TakerOrderID: 2, TradePrice: 100, TradeQty: 5,
		MakerRemaining: 0, TakerRemaining: 0,
	}
	w := encodeEvent(ev)

	payload, err := json.Marshal(w)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "trade", decoded["kind"])
	assert.EqualValues(t, 1, decoded["maker_order_id"])
	assert.EqualValues(t, 100, decoded["trade_price"])
}

func TestEncodeRejectedEvent(t *testing.T) {
	ev := eventv1.Event{
		Kind: eventv1.Rejected, Reason: eventv1.InsufficientLiquidity, Side: arena.Bid, OrderID: 4,
	}
	w := encodeEvent(ev)
	assert.Equal(t, "rejected", w.Kind)
	assert.Equal(t, "insufficient_liquidity", w.Reason)
	assert.Equal(t, "bid", w.Side)
}
