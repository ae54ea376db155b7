// Package engine drives the single-writer loop described in §4.5: drain
// the command ring, dispatch to the book, publish events to the event
// ring, periodically publish a snapshot. Nothing outside this package
// mutates internal/book or internal/arena state.
package engine

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/cedrichaddad/flash-lob/internal/book"
	commandv1 "github.com/cedrichaddad/flash-lob/internal/domain/command/v1"
	eventv1 "github.com/cedrichaddad/flash-lob/internal/domain/event/v1"
	"github.com/cedrichaddad/flash-lob/internal/obs"
	"github.com/cedrichaddad/flash-lob/internal/queue"
	"github.com/cedrichaddad/flash-lob/pkg/logger"
)

// State is one of the engine's three lifecycle states.
type State uint32

const (
	Idle State = iota
	Draining
	Halted
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Draining:
		return "draining"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// Options configures a new Engine.
type Options struct {
	// SnapshotEveryN publishes a book snapshot after this many commands
	// have been dispatched. Zero disables periodic publication.
	SnapshotEveryN int64
	// SnapshotDepth is the number of price levels per side included in
	// each published snapshot.
	SnapshotDepth int
	// SpinBudget is the number of empty-poll iterations the drain loop
	// busy-spins before calling runtime.Gosched().
	SpinBudget int
}

// DefaultOptions returns the engine's default cadence knobs.
func DefaultOptions() Options {
	return Options{SnapshotEveryN: 1000, SnapshotDepth: 10, SpinBudget: 64}
}

// Engine is the single-writer driver owning a Book, a pair of SPSC
// rings, and the metrics/snapshot side channels. It is not safe for any
// goroutine other than the one calling Run to touch the Book.
type Engine struct {
	book      *book.Book
	commands  *queue.Ring[commandv1.Command]
	events    *queue.Ring[eventv1.Event]
	metrics   *obs.Metrics
	publisher *book.SnapshotPublisher
	log       *logger.Logger

	opts Options

	state        atomic.Uint32
	commandCount int64
}

// New builds an Engine wired to the given Book, command/event rings, and
// side channels. The Book is assumed freshly constructed and empty; the
// caller owns its construction (arena capacity is an engine deployment
// concern, not an engine-loop concern).
func New(b *book.Book, commands *queue.Ring[commandv1.Command], events *queue.Ring[eventv1.Event], metrics *obs.Metrics, publisher *book.SnapshotPublisher, log *logger.Logger, opts Options) *Engine {
	e := &Engine{
		book:      b,
		commands:  commands,
		events:    events,
		metrics:   metrics,
		publisher: publisher,
		log:       log,
		opts:      opts,
	}
	e.state.Store(uint32(Idle))
	return e
}

// State returns the engine's current lifecycle state. Safe to call from
// any goroutine.
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Run transitions Idle -> Draining and drives the loop until ctx is
// cancelled or a fatal invariant violation halts the engine. It returns
// the error that caused a halt, or nil on a clean ctx-cancellation stop.
func (e *Engine) Run(ctx context.Context) error {
	e.state.Store(uint32(Draining))
	e.log.Info("engine draining")

	idleSpins := 0
	for {
		if ctx.Err() != nil {
			e.state.Store(uint32(Idle))
			e.log.Info("engine stopped")
			return nil
		}

		cmd, err := e.commands.TryPop()
		if err != nil {
			idleSpins++
			if idleSpins >= e.opts.SpinBudget {
				runtime.Gosched()
				idleSpins = 0
			}
			continue
		}
		idleSpins = 0

		dequeuedAt := time.Now()
		haltErr := e.dispatch(cmd)
		e.metrics.ObserveCommandLatency(time.Since(dequeuedAt))
		if haltErr != nil {
			e.state.Store(uint32(Halted))
			e.metrics.IncHalt()
			e.log.Error(haltErr, logger.NewField("action", "dispatch"))
			return haltErr
		}
	}
}

// dispatch sends one command through the book and publishes its events.
// A non-nil return is always a fatal invariant violation (§4.4); every
// ordinary rejection is already encoded as a Rejected event by the book.
func (e *Engine) dispatch(cmd commandv1.Command) error {
	var (
		events []eventv1.Event
		err    error
	)

	switch cmd.Kind {
	case commandv1.Place:
		events, err = e.book.Place(cmd)
	case commandv1.Cancel:
		events, err = e.book.Cancel(cmd)
	case commandv1.Modify:
		events, err = e.book.Modify(cmd)
	default:
		events, err = []eventv1.Event{{Kind: eventv1.Rejected, Reason: eventv1.MalformedCommand, ClientTag: cmd.ClientTag}}, nil
	}
	if err != nil {
		return err
	}

	e.publishEvents(events)

	e.commandCount++
	if e.opts.SnapshotEveryN > 0 && e.commandCount%e.opts.SnapshotEveryN == 0 {
		e.publisher.Publish(e.book.Snapshot(e.opts.SnapshotDepth))
	}
	return nil
}

// publishEvents enqueues every event, spinning (never dropping) if the
// event ring is momentarily full (§4.5 backpressure).
func (e *Engine) publishEvents(events []eventv1.Event) {
	for _, ev := range events {
		for e.events.TryPush(ev) == queue.ErrFull {
			runtime.Gosched()
		}
		e.metrics.ObserveEvent(ev.Kind)
		if ev.Kind == eventv1.Rejected {
			e.metrics.ObserveReject(ev.Reason)
		}
	}
}
