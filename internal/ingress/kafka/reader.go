// Package kafka provides a non-core command-ingress adapter: it reads
// JSON-encoded Command records off a Kafka topic and feeds them into the
// engine's command ring. It never touches internal/book or
// internal/arena directly — only the SPSC queue boundary defined in §6.
package kafka

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"runtime"

	"github.com/oklog/ulid/v2"
	segmentiokafka "github.com/segmentio/kafka-go"

	"github.com/cedrichaddad/flash-lob/internal/arena"
	commandv1 "github.com/cedrichaddad/flash-lob/internal/domain/command/v1"
	"github.com/cedrichaddad/flash-lob/internal/queue"
	"github.com/cedrichaddad/flash-lob/pkg/errors"
	"github.com/cedrichaddad/flash-lob/pkg/logger"
)

// wireCommand is the JSON shape read off the topic. Kept distinct from
// commandv1.Command so the wire format doesn't silently change if the
// ring's internal record shape ever does. ExternalID carries a foreign
// identifier (e.g. a ULID minted upstream) for producers that don't
// already speak u64 order ids — §3 requires producers to map such ids to
// a stable u64 via a collision-resistant hash, which happens here.
type wireCommand struct {
	Kind          string `json:"kind"`
	OrderID       uint64 `json:"order_id"`
	ExternalID    string `json:"external_id,omitempty"`
	UserID        uint64 `json:"user_id"`
	Side          string `json:"side"`
	OrderType     string `json:"order_type"`
	TIF           string `json:"tif"`
	Price         int64  `json:"price"`
	Quantity      uint64 `json:"quantity"`
	CancelOrderID uint64 `json:"cancel_order_id"`
	NewPrice      int64  `json:"new_price"`
	NewQuantity   uint64 `json:"new_quantity"`
	ClientTag     uint64 `json:"client_tag"`
}

// Config holds the Kafka reader's connection settings.
type Config struct {
	Brokers []string
	Topic   string
	GroupID string
}

// Reader consumes Command records from a Kafka topic and pushes them
// onto a command ring.
type Reader struct {
	kafkaReader *segmentiokafka.Reader
	log         *logger.Logger
}

// NewReader builds a Reader against the given topic.
func NewReader(cfg Config, log *logger.Logger) *Reader {
	return &Reader{
		kafkaReader: segmentiokafka.NewReader(segmentiokafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       cfg.Topic,
			GroupID:     cfg.GroupID,
			MinBytes:    1,
			MaxBytes:    10e6,
			StartOffset: segmentiokafka.LastOffset,
		}),
		log: log,
	}
}

// Run consumes messages until ctx is cancelled, pushing each decoded
// Command onto commands. It spins (never drops) when the ring is
// momentarily full.
func (r *Reader) Run(ctx context.Context, commands *queue.Ring[commandv1.Command]) error {
	for {
		msg, err := r.kafkaReader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.log.Error(errors.TracerFromError(err), logger.NewField("action", "read_message"))
			continue
		}

		cmd, err := decodeCommand(msg.Value)
		if err != nil {
			r.log.Error(errors.TracerFromError(err), logger.NewField("action", "decode_command"),
				logger.NewField("trace_id", ulid.Make().String()))
			continue
		}

		for commands.TryPush(cmd) == queue.ErrFull {
			if ctx.Err() != nil {
				return nil
			}
			runtime.Gosched()
		}
	}
}

// Close releases the underlying Kafka connection.
func (r *Reader) Close() error {
	return r.kafkaReader.Close()
}

func decodeCommand(raw []byte) (commandv1.Command, error) {
	var w wireCommand
	if err := json.Unmarshal(raw, &w); err != nil {
		return commandv1.Command{}, err
	}

	cmd := commandv1.Command{
		ClientTag: w.ClientTag,
	}

	if w.OrderID == 0 && w.ExternalID != "" {
		w.OrderID = hashExternalID(w.ExternalID)
	}

	switch w.Kind {
	case "place":
		cmd.Kind = commandv1.Place
		cmd.OrderID = w.OrderID
		cmd.UserID = w.UserID
		cmd.Side = decodeSide(w.Side)
		cmd.OrderType = decodeOrderType(w.OrderType)
		cmd.TIF = decodeTIF(w.TIF)
		cmd.Price = w.Price
		cmd.Quantity = w.Quantity
	case "cancel":
		cmd.Kind = commandv1.Cancel
		cmd.CancelOrderID = w.CancelOrderID
	case "modify":
		cmd.Kind = commandv1.Modify
		cmd.CancelOrderID = w.CancelOrderID
		cmd.NewPrice = w.NewPrice
		cmd.NewQuantity = w.NewQuantity
	}
	return cmd, nil
}

// hashExternalID maps a foreign string identifier to a stable u64 via
// FNV-1a, per §3's note that producers are responsible for this mapping.
func hashExternalID(id string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	return h.Sum64()
}

func decodeSide(s string) arena.Side {
	if s == "ask" {
		return arena.Ask
	}
	return arena.Bid
}

func decodeOrderType(s string) arena.OrderType {
	if s == "market" {
		return arena.Market
	}
	return arena.Limit
}

func decodeTIF(s string) arena.TimeInForce {
	switch s {
	case "ioc":
		return arena.IOC
	case "fok":
		return arena.FOK
	default:
		return arena.GTC
	}
}
