// Package stream relays broker event streams to an output printer.
package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"apcacli/internal/broker"
	"apcacli/internal/domain"
	"apcacli/internal/format"
)

// Relay prints every event of one subscription in arrival order. Handlers may
// be invoked from library goroutines, so writes are serialised.
type Relay struct {
	src     broker.Streaming
	printer *format.Printer
	log     *slog.Logger

	mu     sync.Mutex
	count  int
	err    error
	cancel context.CancelFunc
}

// NewRelay creates a relay reading from src and writing to printer.
func NewRelay(src broker.Streaming, printer *format.Printer, log *slog.Logger) *Relay {
	if log == nil {
		log = slog.Default()
	}
	return &Relay{src: src, printer: printer, log: log.With("component", "stream")}
}

// Count returns the number of events printed so far.
func (r *Relay) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// TradeUpdates relays the account trade-update stream until ctx is cancelled
// or the stream ends.
func (r *Relay) TradeUpdates(ctx context.Context) error {
	return r.run(ctx, "trade updates", func(ctx context.Context) error {
		return r.src.StreamTradeUpdates(ctx, r.handle)
	})
}

// MarketData relays the market-data stream for sub until ctx is cancelled or
// the stream ends.
func (r *Relay) MarketData(ctx context.Context, sub broker.Subscription) error {
	if len(sub.Symbols) == 0 {
		return errors.New("no symbols to subscribe to")
	}
	if !sub.Trades && !sub.Quotes && !sub.Bars {
		sub.Trades = true
	}
	return r.run(ctx, "market data", func(ctx context.Context) error {
		return r.src.StreamMarketData(ctx, sub, r.handle)
	})
}

func (r *Relay) run(parent context.Context, what string, stream func(context.Context) error) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	r.log.Info("relaying "+what, "broker", r.name())
	err := stream(ctx)

	r.mu.Lock()
	writeErr := r.err
	count := r.count
	r.mu.Unlock()
	r.log.Info("stream ended", "events", count)

	switch {
	case writeErr != nil:
		return fmt.Errorf("writing event: %w", writeErr)
	case err != nil && parent.Err() != nil && errors.Is(err, parent.Err()):
		// Interrupted by the user.
		return nil
	case err != nil:
		return fmt.Errorf("streaming %s: %w", what, err)
	}
	return nil
}

// handle prints one event. After the first write error the stream is
// cancelled and further events are dropped.
func (r *Relay) handle(ev domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return
	}
	if err := r.printer.Event(ev); err != nil {
		r.err = err
		if r.cancel != nil {
			r.cancel()
		}
		return
	}
	r.count++
	r.log.Debug("event", "kind", format.EventKind(ev))
}

func (r *Relay) name() string {
	if n, ok := r.src.(interface{ Name() string }); ok {
		return n.Name()
	}
	return "unknown"
}
