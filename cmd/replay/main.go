// Command replay deterministically drives a standalone engine instance
// from a line-oriented text command file, printing every emitted event.
// It is an in-repo demonstration tool only (§6) — not part of the core.
//
// File format, one command per line, whitespace-separated:
//
//	PLACE   order_id user_id side(bid|ask) type(limit|market) tif(gtc|ioc|fok) price qty [client_tag]
//	CANCEL  order_id [client_tag]
//	MODIFY  order_id new_price new_qty [client_tag]
//
// Blank lines and lines starting with # are ignored.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cedrichaddad/flash-lob/internal/arena"
	"github.com/cedrichaddad/flash-lob/internal/book"
	commandv1 "github.com/cedrichaddad/flash-lob/internal/domain/command/v1"
	eventv1 "github.com/cedrichaddad/flash-lob/internal/domain/event/v1"
	"github.com/cedrichaddad/flash-lob/internal/engine"
	"github.com/cedrichaddad/flash-lob/internal/obs"
	"github.com/cedrichaddad/flash-lob/internal/queue"
	"github.com/cedrichaddad/flash-lob/pkg/config"
	"github.com/cedrichaddad/flash-lob/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: replay <command-file>")
		os.Exit(1)
	}

	cfg := &config.EngineConfig{}
	_ = config.Load(cfg) // defaults apply even if no env/file is present

	log, err := logger.New()
	if err != nil {
		panic(err)
	}

	file, err := os.Open(os.Args[1])
	if err != nil {
		log.Error(err, logger.NewField("action", "open_command_file"))
		os.Exit(1)
	}
	defer file.Close()

	b := book.New(cfg.ArenaCapacity)
	commands := queue.NewRing[commandv1.Command](1024)
	events := queue.NewRing[eventv1.Event](1024)
	metrics := obs.NewMetrics()
	publisher := book.NewSnapshotPublisher()

	eng := engine.New(b, commands, events, metrics, publisher, log, engine.Options{
		SnapshotEveryN: 0,
		SnapshotDepth:  cfg.SnapshotDepth,
		SpinBudget:     cfg.SpinBudgetIdleIter,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- eng.Run(ctx) }()

	drained := make(chan struct{})
	go printEvents(events, drained)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		cmd, err := parseLine(line)
		if err != nil {
			log.Error(err, logger.NewField("line", lineNo))
			continue
		}

		for commands.TryPush(cmd) == queue.ErrFull {
			time.Sleep(time.Millisecond)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error(err, logger.NewField("action", "scan_command_file"))
	}

	time.Sleep(200 * time.Millisecond) // let the engine drain the last lines
	cancel()
	close(drained)
	<-done
}

func printEvents(events *queue.Ring[eventv1.Event], stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			for {
				ev, err := events.TryPop()
				if err != nil {
					return
				}
				printEvent(ev)
			}
		default:
			ev, err := events.TryPop()
			if err != nil {
				time.Sleep(time.Millisecond)
				continue
			}
			printEvent(ev)
		}
	}
}

func printEvent(ev eventv1.Event) {
	switch ev.Kind {
	case eventv1.Trade:
		fmt.Printf("[%d] TRADE maker=%d taker=%d price=%d qty=%d maker_rem=%d taker_rem=%d\n",
			ev.Sequence, ev.MakerOrderID, ev.TakerOrderID, ev.TradePrice, ev.TradeQty, ev.MakerRemaining, ev.TakerRemaining)
	case eventv1.Accepted:
		fmt.Printf("[%d] ACCEPTED order=%d side=%s price=%d resting=%d\n",
			ev.Sequence, ev.OrderID, ev.Side, ev.Price, ev.RestingQty)
	case eventv1.Rejected:
		fmt.Printf("[%d] REJECTED order=%d reason=%s\n", ev.Sequence, ev.OrderID, ev.Reason)
	case eventv1.Cancelled:
		fmt.Printf("[%d] CANCELLED order=%d remaining=%d\n", ev.Sequence, ev.OrderID, ev.CancelledQty)
	case eventv1.Modified:
		fmt.Printf("[%d] MODIFIED order=%d price=%d resting=%d\n", ev.Sequence, ev.OrderID, ev.Price, ev.RestingQty)
	}
}

func parseLine(line string) (commandv1.Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return commandv1.Command{}, fmt.Errorf("empty command line")
	}

	switch strings.ToUpper(fields[0]) {
	case "PLACE":
		if len(fields) < 8 {
			return commandv1.Command{}, fmt.Errorf("PLACE requires 7 fields, got %d", len(fields)-1)
		}
		orderID, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return commandv1.Command{}, err
		}
		userID, err := strconv.ParseUint(fields[2], 10, 64)
		if err != nil {
			return commandv1.Command{}, err
		}
		side, err := parseSide(fields[3])
		if err != nil {
			return commandv1.Command{}, err
		}
		orderType, err := parseOrderType(fields[4])
		if err != nil {
			return commandv1.Command{}, err
		}
		tif, err := parseTIF(fields[5])
		if err != nil {
			return commandv1.Command{}, err
		}
		price, err := strconv.ParseInt(fields[6], 10, 64)
		if err != nil {
			return commandv1.Command{}, err
		}
		qty, err := strconv.ParseUint(fields[7], 10, 64)
		if err != nil {
			return commandv1.Command{}, err
		}
		clientTag := optionalUint(fields, 8)
		return commandv1.NewPlace(orderID, userID, side, orderType, tif, price, qty, clientTag), nil

	case "CANCEL":
		if len(fields) < 2 {
			return commandv1.Command{}, fmt.Errorf("CANCEL requires order_id")
		}
		orderID, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return commandv1.Command{}, err
		}
		clientTag := optionalUint(fields, 2)
		return commandv1.NewCancel(orderID, clientTag), nil

	case "MODIFY":
		if len(fields) < 4 {
			return commandv1.Command{}, fmt.Errorf("MODIFY requires order_id new_price new_qty")
		}
		orderID, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return commandv1.Command{}, err
		}
		newPrice, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return commandv1.Command{}, err
		}
		newQty, err := strconv.ParseUint(fields[3], 10, 64)
		if err != nil {
			return commandv1.Command{}, err
		}
		clientTag := optionalUint(fields, 4)
		return commandv1.NewModify(orderID, newPrice, newQty, clientTag), nil

	default:
		return commandv1.Command{}, fmt.Errorf("unknown command %q", fields[0])
	}
}

func optionalUint(fields []string, idx int) uint64 {
	if idx >= len(fields) {
		return 0
	}
	v, err := strconv.ParseUint(fields[idx], 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseSide(s string) (arena.Side, error) {
	switch strings.ToLower(s) {
	case "bid":
		return arena.Bid, nil
	case "ask":
		return arena.Ask, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func parseOrderType(s string) (arena.OrderType, error) {
	switch strings.ToLower(s) {
	case "limit":
		return arena.Limit, nil
	case "market":
		return arena.Market, nil
	default:
		return 0, fmt.Errorf("unknown order type %q", s)
	}
}

func parseTIF(s string) (arena.TimeInForce, error) {
	switch strings.ToLower(s) {
	case "gtc":
		return arena.GTC, nil
	case "ioc":
		return arena.IOC, nil
	case "fok":
		return arena.FOK, nil
	default:
		return 0, fmt.Errorf("unknown tif %q", s)
	}
}
