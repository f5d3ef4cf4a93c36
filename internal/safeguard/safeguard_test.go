package safeguard

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"apcacli/internal/domain"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func position(sym, qty, entry, plpc string) domain.Position {
	return domain.Position{
		Symbol:         sym,
		Side:           domain.PositionSideLong,
		Qty:            decimal.RequireFromString(qty),
		AvgEntryPrice:  decimal.RequireFromString(entry),
		UnrealizedPLPC: dec(plpc),
		CurrentPrice:   dec(entry),
	}
}

func TestFactors(t *testing.T) {
	limit, stop := NewEvaluator(Options{}, nil).Factors()
	if !limit.Equal(decimal.RequireFromString("1.001")) || !stop.Equal(decimal.RequireFromString("1.01")) {
		t.Errorf("Factors() = %s, %s", limit, stop)
	}
	pct := int64(3)
	_, stop = NewEvaluator(Options{StopPercent: &pct}, nil).Factors()
	if !stop.Equal(decimal.RequireFromString("1.03")) {
		t.Errorf("stop factor with 3%% = %s", stop)
	}
}

func TestSubmitAdviceForUncoveredPosition(t *testing.T) {
	e := NewEvaluator(Options{MinGainPercent: 5}, nil)
	advice, err := e.Evaluate([]domain.Position{position("AAPL", "10", "100", "0.1")}, nil)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if len(advice) != 1 {
		t.Fatalf("len(advice) = %d, want 1", len(advice))
	}
	want := "apcacli order submit sell AAPL --quantity 10 --limit-price 100.10 --stop-price 101.00"
	if advice[0].Command != want {
		t.Errorf("Command = %q\nwant      %q", advice[0].Command, want)
	}
	if !strings.HasPrefix(advice[0].String(), "AAPL:\n") {
		t.Errorf("String() = %q", advice[0].String())
	}
}

func TestSkipsBelowThresholds(t *testing.T) {
	e := NewEvaluator(Options{MinGainPercent: 5}, nil)
	advice, err := e.Evaluate([]domain.Position{position("AAPL", "10", "100", "0.02")}, nil)
	if err != nil || len(advice) != 0 {
		t.Errorf("low gain: advice = %v, err = %v", advice, err)
	}

	minValue := decimal.NewFromInt(5000)
	e = NewEvaluator(Options{MinGainPercent: 5, MinValue: &minValue}, nil)
	advice, err = e.Evaluate([]domain.Position{position("AAPL", "10", "100", "0.5")}, nil)
	if err != nil || len(advice) != 0 {
		t.Errorf("low value: advice = %v, err = %v", advice, err)
	}
}

func TestChangeAdviceForStaleStopOrder(t *testing.T) {
	orders := []domain.Order{{
		ID:          "904837e3-3b76-47ec-b432-046db621571b",
		Symbol:      "AAPL",
		Side:        domain.OrderSideSell,
		TimeInForce: domain.TimeInForceGTC,
		Qty:         dec("5"),
		LimitPrice:  dec("100.10"),
		StopPrice:   dec("101"),
	}}
	e := NewEvaluator(Options{CLI: "/bin/apcacli"}, nil)
	advice, err := e.Evaluate([]domain.Position{position("AAPL", "10", "100", "0")}, orders)
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	want := "/bin/apcacli order change 904837e3-3b76-47ec-b432-046db621571b --quantity 10 --limit-price 100.10 --stop-price 101.00"
	if len(advice) != 1 || advice[0].Command != want {
		t.Errorf("advice = %v, want %q", advice, want)
	}

	orders[0].Qty = dec("10")
	advice, err = e.Evaluate([]domain.Position{position("AAPL", "10", "100", "0")}, orders)
	if err != nil || len(advice) != 0 {
		t.Errorf("satisfying order: advice = %v, err = %v", advice, err)
	}
}

func TestEvaluationErrors(t *testing.T) {
	gtc := domain.Order{Symbol: "AAPL", Side: domain.OrderSideSell, TimeInForce: domain.TimeInForceGTC, Qty: dec("1"), StopPrice: dec("1")}
	day := gtc
	day.TimeInForce = domain.TimeInForceDay
	notional := gtc
	notional.Qty = nil
	notional.Notional = dec("100")

	tests := []struct {
		name   string
		orders []domain.Order
		pos    domain.Position
		want   string
	}{
		{"multiple", []domain.Order{gtc, gtc}, position("AAPL", "1", "1", "0"), "multiple stop-loss orders"},
		{"day order", []domain.Order{day}, position("AAPL", "1", "1", "0"), "not valid-until-canceled"},
		{"notional", []domain.Order{notional}, position("AAPL", "1", "1", "0"), "notional"},
		{"short", nil, domain.Position{Symbol: "AAPL", Side: domain.PositionSideShort, Qty: decimal.NewFromInt(-1)}, "only long positions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvaluator(Options{}, nil).Evaluate([]domain.Position{tt.pos}, tt.orders)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
			if err != nil && !strings.Contains(err.Error(), "evaluating AAPL position") {
				t.Errorf("error = %v, missing position context", err)
			}
		})
	}
}

func TestSymbolFilterAndPartialFailure(t *testing.T) {
	positions := []domain.Position{
		position("AAPL", "1", "10", "0.2"),
		{Symbol: "TSLA", Side: domain.PositionSideShort, Qty: decimal.NewFromInt(-1)},
		position("MSFT", "2", "20", "0.2"),
	}
	advice, err := NewEvaluator(Options{Symbols: []string{"msft", "tsla"}}, nil).Evaluate(positions, nil)
	if err == nil {
		t.Error("expected an error for the short TSLA position")
	}
	if len(advice) != 1 || advice[0].Symbol != "MSFT" {
		t.Errorf("advice = %v, want MSFT only", advice)
	}
}
