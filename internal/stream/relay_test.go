package stream

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"apcacli/internal/broker"
	"apcacli/internal/domain"
	"apcacli/internal/format"
)

type failingWriter struct{ writes int }

func (w *failingWriter) Write(p []byte) (int, error) {
	w.writes++
	return 0, errors.New("broken pipe")
}

func TestRelayTradeUpdates(t *testing.T) {
	sim := broker.NewSimulatorBroker()
	sim.QueueTradeUpdate(&domain.TradeUpdate{Event: "new", Order: domain.Order{ID: "1", Symbol: "AAPL"}})
	sim.QueueTradeUpdate(&domain.TradeUpdate{Event: "fill", Order: domain.Order{ID: "1", Symbol: "AAPL"}})

	var buf bytes.Buffer
	r := NewRelay(sim, format.New(&buf, format.ModeJSON, false), nil)
	if err := r.TradeUpdates(context.Background()); err != nil {
		t.Fatalf("TradeUpdates returned error: %v", err)
	}
	if r.Count() != 2 {
		t.Errorf("Count() = %d, want 2", r.Count())
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"event":"new"`) || !strings.Contains(lines[1], `"event":"fill"`) {
		t.Errorf("output out of order or incomplete:\n%s", buf.String())
	}
}

func TestRelayMarketDataDefaultsToTrades(t *testing.T) {
	sim := broker.NewSimulatorBroker()
	sim.QueueMarketData(&domain.Quote{Symbol: "AAPL"})
	sim.QueueMarketData(&domain.Trade{Symbol: "AAPL", Price: 10, Size: 1})

	var buf bytes.Buffer
	r := NewRelay(sim, format.New(&buf, format.ModeText, false), nil)
	if err := r.MarketData(context.Background(), broker.Subscription{Symbols: []string{"AAPL"}}); err != nil {
		t.Fatalf("MarketData returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "TRADE") || strings.Contains(out, "QUOTE") {
		t.Errorf("output = %q, want trades only", out)
	}
}

func TestRelayMarketDataRequiresSymbols(t *testing.T) {
	r := NewRelay(broker.NewSimulatorBroker(), format.New(&bytes.Buffer{}, format.ModeText, false), nil)
	if err := r.MarketData(context.Background(), broker.Subscription{Trades: true}); err == nil {
		t.Error("MarketData without symbols should fail")
	}
}

func TestRelayStopsOnWriteError(t *testing.T) {
	sim := broker.NewSimulatorBroker()
	for i := 0; i < 3; i++ {
		sim.QueueTradeUpdate(&domain.TradeUpdate{Event: "new"})
	}
	w := &failingWriter{}
	r := NewRelay(sim, format.New(w, format.ModeJSON, false), nil)
	err := r.TradeUpdates(context.Background())
	if err == nil || !strings.Contains(err.Error(), "broken pipe") {
		t.Fatalf("TradeUpdates error = %v, want write error", err)
	}
	if w.writes != 1 {
		t.Errorf("writes = %d, want 1", w.writes)
	}
}

func TestRelayCancelledContext(t *testing.T) {
	sim := broker.NewSimulatorBroker()
	sim.QueueTradeUpdate(&domain.TradeUpdate{Event: "new"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	r := NewRelay(sim, format.New(&buf, format.ModeText, false), nil)
	if err := r.TradeUpdates(ctx); err != nil {
		t.Fatalf("TradeUpdates returned error: %v", err)
	}
	if r.Count() != 0 {
		t.Errorf("Count() = %d after cancellation", r.Count())
	}
}
