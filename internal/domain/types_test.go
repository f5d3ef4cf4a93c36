package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestOrderRequestType(t *testing.T) {
	tests := []struct {
		name string
		req  OrderRequest
		want OrderType
	}{
		{"market", OrderRequest{}, OrderTypeMarket},
		{"limit", OrderRequest{LimitPrice: decPtr("10")}, OrderTypeLimit},
		{"stop", OrderRequest{StopPrice: decPtr("9")}, OrderTypeStop},
		{"stop limit", OrderRequest{LimitPrice: decPtr("10"), StopPrice: decPtr("9")}, OrderTypeStopLimit},
	}
	for _, tt := range tests {
		if got := tt.req.Type(); got != tt.want {
			t.Errorf("%s: Type() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestOrderRequestClass(t *testing.T) {
	if got := (OrderRequest{}).Class(); got != OrderClassSimple {
		t.Errorf("Class() = %q, want %q", got, OrderClassSimple)
	}
	if got := (OrderRequest{TakeProfitPrice: decPtr("12")}).Class(); got != OrderClassOTO {
		t.Errorf("Class() with take profit = %q, want %q", got, OrderClassOTO)
	}
}

func TestOrderChangeEmpty(t *testing.T) {
	if !(OrderChange{}).Empty() {
		t.Error("zero OrderChange should be empty")
	}
	if (OrderChange{TimeInForce: TimeInForceDay}).Empty() {
		t.Error("OrderChange with time-in-force should not be empty")
	}
}

func TestAccountConfigUpdateEmpty(t *testing.T) {
	if !(AccountConfigUpdate{}).Empty() {
		t.Error("zero AccountConfigUpdate should be empty")
	}
	on := true
	if (AccountConfigUpdate{Shorting: &on}).Empty() {
		t.Error("AccountConfigUpdate with shorting should not be empty")
	}
}

func TestAccountDayChange(t *testing.T) {
	a := Account{
		Equity:     decimal.RequireFromString("1050.25"),
		LastEquity: decimal.RequireFromString("1000"),
	}
	if got := a.DayChange().String(); got != "50.25" {
		t.Errorf("DayChange() = %s, want 50.25", got)
	}
}

func TestParseSide(t *testing.T) {
	if got, err := ParseSide("buy"); err != nil || got != OrderSideBuy {
		t.Errorf("ParseSide(buy) = %q, %v", got, err)
	}
	if got, err := ParseSide("SELL"); err != nil || got != OrderSideSell {
		t.Errorf("ParseSide(SELL) = %q, %v", got, err)
	}
	if _, err := ParseSide("hold"); !errors.Is(err, ErrInvalidSide) {
		t.Errorf("ParseSide(hold) error = %v, want ErrInvalidSide", err)
	}
}

func TestParseTimeInForce(t *testing.T) {
	want := map[string]TimeInForce{
		"today":               TimeInForceDay,
		"canceled":            TimeInForceGTC,
		"market-open":         TimeInForceOPG,
		"market-close":        TimeInForceCLS,
		"immediate-or-cancel": TimeInForceIOC,
		"fill-or-kill":        TimeInForceFOK,
	}
	for word, tif := range want {
		got, err := ParseTimeInForce(word)
		if err != nil {
			t.Fatalf("ParseTimeInForce(%q) returned error: %v", word, err)
		}
		if got != tif {
			t.Errorf("ParseTimeInForce(%q) = %q, want %q", word, got, tif)
		}
	}
	if len(TimeInForceWords) != len(want) {
		t.Errorf("len(TimeInForceWords) = %d, want %d", len(TimeInForceWords), len(want))
	}

	_, err := ParseTimeInForce("gtc")
	if !errors.Is(err, ErrInvalidTimeInForce) {
		t.Fatalf("ParseTimeInForce(gtc) error = %v, want ErrInvalidTimeInForce", err)
	}
	if err.Error() != "invalid time-in-force specifier: gtc" {
		t.Errorf("error message = %q", err.Error())
	}
}

func TestParseOrderID(t *testing.T) {
	got, err := ParseOrderID("904837E3-3B76-47EC-B432-046DB621571B")
	if err != nil {
		t.Fatalf("ParseOrderID returned error: %v", err)
	}
	if got != "904837e3-3b76-47ec-b432-046db621571b" {
		t.Errorf("ParseOrderID = %q", got)
	}
	if _, err := ParseOrderID("not-a-uuid"); !errors.Is(err, ErrInvalidOrderID) {
		t.Errorf("ParseOrderID(not-a-uuid) error = %v, want ErrInvalidOrderID", err)
	}
}

func TestParseCancelTarget(t *testing.T) {
	id, err := ParseCancelTarget("all")
	if err != nil || id != "" {
		t.Errorf("ParseCancelTarget(all) = %q, %v; want empty id", id, err)
	}
	id, err = ParseCancelTarget("904837e3-3b76-47ec-b432-046db621571b")
	if err != nil || id == "" {
		t.Errorf("ParseCancelTarget(uuid) = %q, %v", id, err)
	}
	if _, err := ParseCancelTarget("some"); !errors.Is(err, ErrInvalidOrderID) {
		t.Errorf("ParseCancelTarget(some) error = %v, want ErrInvalidOrderID", err)
	}
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("12.50")
	if err != nil {
		t.Fatalf("ParseAmount returned error: %v", err)
	}
	if !d.Equal(decimal.RequireFromString("12.5")) {
		t.Errorf("ParseAmount = %s, want 12.5", d)
	}
	for _, bad := range []string{"0", "-1", "abc", ""} {
		if _, err := ParseAmount(bad); !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", bad, err)
		}
	}
}

func TestParseDate(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}
	got, err := ParseDate("2024-03-15", loc)
	if err != nil {
		t.Fatalf("ParseDate returned error: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 15 || got.Location() != loc {
		t.Errorf("ParseDate = %v", got)
	}

	got, err = ParseDate("2024-03-15T14:30:00Z", loc)
	if err != nil {
		t.Fatalf("ParseDate(RFC3339) returned error: %v", err)
	}
	if got.Hour() != 14 {
		t.Errorf("ParseDate(RFC3339).Hour() = %d, want 14", got.Hour())
	}

	if _, err := ParseDate("15/03/2024", loc); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("ParseDate(15/03/2024) error = %v, want ErrInvalidDate", err)
	}
}

func TestParseTimeFrame(t *testing.T) {
	tests := []struct {
		in   string
		want TimeFrame
	}{
		{"1Min", TimeFrame{1, Minute}},
		{"15T", TimeFrame{15, Minute}},
		{"1Hour", TimeFrame{1, Hour}},
		{"4H", TimeFrame{4, Hour}},
		{"1Day", TimeFrame{1, Day}},
		{"1Week", TimeFrame{1, Week}},
		{"3Month", TimeFrame{3, Month}},
	}
	for _, tt := range tests {
		got, err := ParseTimeFrame(tt.in)
		if err != nil {
			t.Errorf("ParseTimeFrame(%q) returned error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTimeFrame(%q) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "Day", "0Min", "60Min", "2Day", "5Month", "1Year"} {
		if _, err := ParseTimeFrame(bad); !errors.Is(err, ErrInvalidTimeFrame) {
			t.Errorf("ParseTimeFrame(%q) error = %v, want ErrInvalidTimeFrame", bad, err)
		}
	}

	if s := (TimeFrame{15, Minute}).String(); s != "15Min" {
		t.Errorf("TimeFrame.String() = %q, want 15Min", s)
	}
}
