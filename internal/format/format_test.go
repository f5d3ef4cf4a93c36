package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"apcacli/internal/domain"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestFormatInt(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-1234, "-1,234"},
	}
	for _, tt := range tests {
		if got := FormatInt(tt.n); got != tt.want {
			t.Errorf("FormatInt(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	if got := FormatCompact(2_500_000); got != "2.5M" {
		t.Errorf("FormatCompact(2.5e6) = %q", got)
	}
	if got := FormatCompact(999); got != "999" {
		t.Errorf("FormatCompact(999) = %q", got)
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		frac string
		want string
	}{
		{"0.0123", "+1.23%"},
		{"-0.05", "-5.00%"},
		{"0", "0.00%"},
		{"1.5", "+150%"},
	}
	for _, tt := range tests {
		if got := FormatPercent(decimal.RequireFromString(tt.frac)); got != tt.want {
			t.Errorf("FormatPercent(%s) = %q, want %q", tt.frac, got, tt.want)
		}
	}
	if got := FormatPercentPtr(nil); got != "-" {
		t.Errorf("FormatPercentPtr(nil) = %q", got)
	}
}

func TestFormatChange(t *testing.T) {
	if got := FormatChange(decimal.RequireFromString("12.3")); got != "+12.30" {
		t.Errorf("FormatChange(12.3) = %q", got)
	}
	if got := FormatChange(decimal.RequireFromString("-0.5")); got != "-0.50" {
		t.Errorf("FormatChange(-0.5) = %q", got)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeText, "JSON": ModeJSON, "yaml": ModeYAML} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("xml"); err == nil {
		t.Error("ParseMode(xml) should fail")
	}
}

func TestAccountText(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, ModeText, false)
	err := p.Account(&domain.Account{
		AccountNumber: "PA123",
		Status:        "ACTIVE",
		Currency:      "USD",
		Equity:        decimal.RequireFromString("10100"),
		LastEquity:    decimal.RequireFromString("10000"),
	})
	if err != nil {
		t.Fatalf("Account returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"account PA123", "ACTIVE", "10100.00 USD", "+100.00 USD (+1.00%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("output contains escape codes with color disabled:\n%s", out)
	}
}

func TestPositionsTable(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, ModeText, false)
	err := p.Positions([]domain.Position{
		{Symbol: "AAPL", Qty: decimal.NewFromInt(10), CostBasis: decimal.NewFromInt(1000), MarketValue: dec("1100"), UnrealizedPL: dec("100"), UnrealizedPLPC: dec("0.1")},
		{Symbol: "MSFT", Qty: decimal.NewFromInt(5), CostBasis: decimal.NewFromInt(1000), MarketValue: dec("950"), UnrealizedPL: dec("-50"), UnrealizedPLPC: dec("-0.05")},
	})
	if err != nil {
		t.Fatalf("Positions returned error: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"SYMBOL", "AAPL", "MSFT", "+100.00", "-5.00%", "total", "2050.00", "+2.50%"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, ModeText, false).Orders(nil); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(buf.String()); got != "(none)" {
		t.Errorf("empty listing = %q", got)
	}
}

func TestOrderJSON(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, ModeJSON, false)
	if err := p.Order(&domain.Order{ID: "abc", Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("3")}); err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if got["symbol"] != "AAPL" || got["qty"] != "3" {
		t.Errorf("decoded = %v", got)
	}
}

func TestAssetYAML(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, ModeYAML, false)
	if err := p.Asset(&domain.Asset{Symbol: "SPY", Tradable: true}); err != nil {
		t.Fatal(err)
	}
	var got domain.Asset
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if got.Symbol != "SPY" || !got.Tradable {
		t.Errorf("decoded = %+v", got)
	}
}

func TestMessage(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, ModeJSON, false).Message("order %s canceled", "x"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"message": "order x canceled"`) {
		t.Errorf("output = %s", buf.String())
	}
}

func TestEventJSONLines(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, ModeJSON, false)
	ts := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	if err := p.Event(&domain.Trade{Symbol: "AAPL", Price: 150.25, Size: 100, Timestamp: ts}); err != nil {
		t.Fatal(err)
	}
	if err := p.Event(&domain.TradeUpdate{Event: "fill", Order: domain.Order{Symbol: "AAPL"}}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(lines[1]), &env); err != nil {
		t.Fatal(err)
	}
	if env.Type != "trade_update" {
		t.Errorf("type = %q, want trade_update", env.Type)
	}
}

func TestEventLine(t *testing.T) {
	p := New(&bytes.Buffer{}, ModeText, false)
	line := p.EventLine(&domain.TradeUpdate{
		Event: "fill",
		Price: dec("101.5"),
		Qty:   dec("2"),
		Order: domain.Order{ID: "id-1", Symbol: "AAPL", Side: domain.OrderSideBuy, Qty: dec("2")},
	})
	for _, want := range []string{"FILL", "AAPL", "buy", "filled 2 @ 101.50", "position -", "id-1"} {
		if !strings.Contains(line, want) {
			t.Errorf("line %q missing %q", line, want)
		}
	}
	quote := p.EventLine(&domain.Quote{Symbol: "MSFT", BidPrice: 1, BidSize: 2, AskPrice: 3, AskSize: 4})
	if !strings.Contains(quote, "1.00 x 2 / 3.00 x 4") {
		t.Errorf("quote line = %q", quote)
	}
}

func TestBarsCompactVolume(t *testing.T) {
	var buf bytes.Buffer
	p := New(&buf, ModeText, false)
	bars := []domain.Bar{{Symbol: "SPY", Timestamp: time.Date(2024, 1, 2, 5, 0, 0, 0, time.UTC), Open: 470, Close: 472.5, Volume: 2_500_000}}
	if err := p.Bars(bars); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "2.5M") {
		t.Errorf("bars output missing compact volume:\n%s", buf.String())
	}
}
