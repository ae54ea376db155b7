// Package kafka provides a non-core event-egress adapter: it drains the
// engine's event ring and publishes each Event as JSON to a Kafka topic.
// It only ever reads from the event ring boundary defined in §6.
package kafka

import (
	"context"
	"encoding/json"
	"runtime"

	segmentiokafka "github.com/segmentio/kafka-go"

	eventv1 "github.com/cedrichaddad/flash-lob/internal/domain/event/v1"
	"github.com/cedrichaddad/flash-lob/internal/queue"
	"github.com/cedrichaddad/flash-lob/pkg/errors"
	"github.com/cedrichaddad/flash-lob/pkg/logger"
)

type wireEvent struct {
	Kind      string `json:"kind"`
	Sequence  uint64 `json:"sequence"`
	Timestamp uint64 `json:"timestamp"`
	ClientTag uint64 `json:"client_tag"`

	OrderID    uint64 `json:"order_id,omitempty"`
	Side       string `json:"side,omitempty"`
	RestingQty uint64 `json:"resting_qty,omitempty"`
	Price      int64  `json:"price,omitempty"`

	CancelledQty uint64 `json:"cancelled_qty,omitempty"`
	Reason       string `json:"reason,omitempty"`

	MakerOrderID   uint64 `json:"maker_order_id,omitempty"`
	TakerOrderID   uint64 `json:"taker_order_id,omitempty"`
	TradePrice     int64  `json:"trade_price,omitempty"`
	TradeQty       uint64 `json:"trade_qty,omitempty"`
	MakerRemaining uint64 `json:"maker_remaining,omitempty"`
	TakerRemaining uint64 `json:"taker_remaining,omitempty"`
}

// Config holds the Kafka writer's connection settings.
type Config struct {
	Brokers []string
	Topic   string
}

// Writer drains Event records from an event ring and publishes them to
// a Kafka topic.
type Writer struct {
	kafkaWriter *segmentiokafka.Writer
	log         *logger.Logger
}

// NewWriter builds a Writer against the given topic.
func NewWriter(cfg Config, log *logger.Logger) *Writer {
	return &Writer{
		kafkaWriter: &segmentiokafka.Writer{
			Addr:  segmentiokafka.TCP(cfg.Brokers...),
			Topic: cfg.Topic,
		},
		log: log,
	}
}

// Run drains events until ctx is cancelled, publishing each as JSON.
func (w *Writer) Run(ctx context.Context, events *queue.Ring[eventv1.Event]) error {
	idleSpins := 0
	for {
		if ctx.Err() != nil {
			return nil
		}

		ev, err := events.TryPop()
		if err != nil {
			idleSpins++
			if idleSpins >= 64 {
				runtime.Gosched()
				idleSpins = 0
			}
			continue
		}
		idleSpins = 0

		payload, err := json.Marshal(encodeEvent(ev))
		if err != nil {
			w.log.Error(errors.TracerFromError(err), logger.NewField("action", "encode_event"))
			continue
		}

		if err := w.kafkaWriter.WriteMessages(ctx, segmentiokafka.Message{Value: payload}); err != nil {
			w.log.Error(errors.TracerFromError(err), logger.NewField("action", "write_message"))
		}
	}
}

// Close flushes and releases the underlying Kafka connection.
func (w *Writer) Close() error {
	return w.kafkaWriter.Close()
}

func encodeEvent(ev eventv1.Event) wireEvent {
	return wireEvent{
		Kind:           ev.Kind.String(),
		Sequence:       ev.Sequence,
		Timestamp:      ev.Timestamp,
		ClientTag:      ev.ClientTag,
		OrderID:        ev.OrderID,
		Side:           ev.Side.String(),
		RestingQty:     ev.RestingQty,
		Price:          ev.Price,
		CancelledQty:   ev.CancelledQty,
		Reason:         ev.Reason.String(),
		MakerOrderID:   ev.MakerOrderID,
		TakerOrderID:   ev.TakerOrderID,
		TradePrice:     ev.TradePrice,
		TradeQty:       ev.TradeQty,
		MakerRemaining: ev.MakerRemaining,
		TakerRemaining: ev.TakerRemaining,
	}
}
