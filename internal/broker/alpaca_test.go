package broker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"

	"apcacli/internal/domain"
)

// apiCall is a request received by the fake API.
type apiCall struct {
	query string
	body  map[string]any
}

// fakeAPI answers requests with fixed JSON bodies keyed by "METHOD /path
// suffix" and records what it received.
type fakeAPI struct {
	t      *testing.T
	routes map[string]string

	mu    sync.Mutex
	calls map[string][]apiCall
}

func newFakeAPI(t *testing.T, routes map[string]string) (*fakeAPI, *httptest.Server) {
	f := &fakeAPI{t: t, routes: routes, calls: make(map[string][]apiCall)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	for key, resp := range f.routes {
		method, suffix, _ := strings.Cut(key, " ")
		if r.Method != method || !strings.HasSuffix(r.URL.Path, suffix) {
			continue
		}
		call := apiCall{query: r.URL.RawQuery}
		if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
			if err := json.Unmarshal(raw, &call.body); err != nil {
				f.t.Errorf("%s: request body is not JSON: %v", key, err)
			}
		}
		f.mu.Lock()
		f.calls[key] = append(f.calls[key], call)
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, resp)
		return
	}
	f.t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
	http.NotFound(w, r)
}

func (f *fakeAPI) last(key string) apiCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	calls := f.calls[key]
	if len(calls) == 0 {
		f.t.Fatalf("no %s request received", key)
	}
	return calls[len(calls)-1]
}

func testBroker(srv *httptest.Server) *AlpacaBroker {
	return NewAlpacaBroker(AlpacaOptions{
		APIKey:    "key",
		APISecret: "secret",
		BaseURL:   srv.URL,
		DataURL:   srv.URL,
	})
}

func TestAlpacaUpdateAccountConfigKeepsOtherSettings(t *testing.T) {
	current := `{"dtbp_check":"both","trade_confirm_email":"all","suspend_trade":false,"no_shorting":false}`
	updated := `{"dtbp_check":"both","trade_confirm_email":"all","suspend_trade":false,"no_shorting":true}`
	api, srv := newFakeAPI(t, map[string]string{
		"GET /account/configurations":   current,
		"PATCH /account/configurations": updated,
	})
	b := testBroker(srv)

	shorting := false
	cfg, err := b.UpdateAccountConfig(context.Background(), domain.AccountConfigUpdate{Shorting: &shorting})
	if err != nil {
		t.Fatalf("UpdateAccountConfig() error = %v", err)
	}
	if !cfg.NoShorting || !cfg.TradeConfirmEmail || cfg.DTBPCheck != "both" {
		t.Errorf("UpdateAccountConfig() = %+v", cfg)
	}

	body := api.last("PATCH /account/configurations").body
	want := map[string]any{
		"dtbp_check":          "both",
		"trade_confirm_email": "all",
		"suspend_trade":       false,
		"no_shorting":         true,
	}
	for k, v := range want {
		if body[k] != v {
			t.Errorf("PATCH body[%q] = %v, want %v", k, body[k], v)
		}
	}
}

func TestAlpacaUpdateAccountConfigEmail(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]string{
		"GET /account/configurations":   `{"dtbp_check":"entry","trade_confirm_email":"all","suspend_trade":true,"no_shorting":true}`,
		"PATCH /account/configurations": `{"dtbp_check":"entry","trade_confirm_email":"none","suspend_trade":true,"no_shorting":true}`,
	})
	b := testBroker(srv)

	email := false
	if _, err := b.UpdateAccountConfig(context.Background(), domain.AccountConfigUpdate{TradeConfirmEmail: &email}); err != nil {
		t.Fatalf("UpdateAccountConfig() error = %v", err)
	}
	body := api.last("PATCH /account/configurations").body
	if body["trade_confirm_email"] != "none" || body["suspend_trade"] != true || body["no_shorting"] != true || body["dtbp_check"] != "entry" {
		t.Errorf("PATCH body = %v", body)
	}
}

func TestAlpacaSubmitOrderRequest(t *testing.T) {
	resp := `{"id":"ord-1","symbol":"AAPL","side":"buy","type":"limit","order_class":"oto",` +
		`"time_in_force":"gtc","status":"accepted","qty":"2","limit_price":"100",` +
		`"legs":[{"id":"leg-1","symbol":"AAPL","side":"sell","type":"limit","limit_price":"110"}]}`

	tests := []struct {
		name     string
		word     string
		limit    string
		stop     string
		profit   string
		wantType string
		wantTIF  string
	}{
		{"market", "today", "", "", "", "market", "day"},
		{"limit with take profit", "canceled", "100", "", "110", "limit", "gtc"},
		{"stop", "fill-or-kill", "", "95", "", "stop", "fok"},
		{"stop limit", "immediate-or-cancel", "94", "95", "", "stop_limit", "ioc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, srv := newFakeAPI(t, map[string]string{"POST /orders": resp})
			b := testBroker(srv)

			tif, err := domain.ParseTimeInForce(tt.word)
			if err != nil {
				t.Fatal(err)
			}
			req := domain.OrderRequest{Symbol: "aapl", Side: domain.OrderSideBuy, Qty: dec("2"), TimeInForce: tif}
			if tt.limit != "" {
				req.LimitPrice = dec(tt.limit)
			}
			if tt.stop != "" {
				req.StopPrice = dec(tt.stop)
			}
			if tt.profit != "" {
				req.TakeProfitPrice = dec(tt.profit)
			}
			o, err := b.SubmitOrder(context.Background(), req)
			if err != nil {
				t.Fatalf("SubmitOrder() error = %v", err)
			}
			if o.ID != "ord-1" || len(o.Legs) != 1 {
				t.Errorf("SubmitOrder() = %+v", o)
			}

			body := api.last("POST /orders").body
			if body["symbol"] != "AAPL" || body["side"] != "buy" {
				t.Errorf("body symbol/side = %v/%v", body["symbol"], body["side"])
			}
			if body["type"] != tt.wantType {
				t.Errorf("body type = %v, want %s", body["type"], tt.wantType)
			}
			if body["time_in_force"] != tt.wantTIF {
				t.Errorf("body time_in_force = %v, want %s", body["time_in_force"], tt.wantTIF)
			}
			if tt.profit == "" {
				return
			}
			if body["order_class"] != "oto" {
				t.Errorf("body order_class = %v, want oto", body["order_class"])
			}
			tp, _ := body["take_profit"].(map[string]any)
			if tp == nil || tp["limit_price"] != "110" {
				t.Errorf("body take_profit = %v, want limit_price 110", body["take_profit"])
			}
		})
	}
}

func TestAlpacaGetNews(t *testing.T) {
	api, srv := newFakeAPI(t, map[string]string{
		"GET /news": `{"news":[{"id":42,"author":"Benzinga Newsdesk","headline":"Apple rallies",` +
			`"summary":"short","content":"<p>AAPL rose.</p>","url":"https://example.com/a",` +
			`"symbols":["AAPL"],"created_at":"2024-01-02T15:04:05Z","updated_at":"2024-01-02T15:04:05Z"}],` +
			`"next_page_token":null}`,
	})
	b := testBroker(srv)

	news, err := b.GetNews(context.Background(), domain.NewsQuery{Symbol: "aapl", Limit: 5})
	if err != nil {
		t.Fatalf("GetNews() error = %v", err)
	}
	if len(news) != 1 {
		t.Fatalf("len(news) = %d, want 1", len(news))
	}
	n := news[0]
	if n.ID != 42 || n.Author != "Benzinga Newsdesk" || n.Headline != "Apple rallies" || n.Content != "<p>AAPL rose.</p>" {
		t.Errorf("news[0] = %+v", n)
	}
	if !n.Time.Equal(time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)) {
		t.Errorf("news[0].Time = %v", n.Time)
	}
	if q := api.last("GET /news").query; !strings.Contains(q, "symbols=AAPL") {
		t.Errorf("news query = %q, want symbols=AAPL", q)
	}
}

func TestAlpacaGetWatchlist(t *testing.T) {
	_, srv := newFakeAPI(t, map[string]string{
		"GET /watchlists/wl-1": `{"id":"wl-1","name":"tech","created_at":"2024-01-02T15:04:05Z",` +
			`"updated_at":"2024-01-03T15:04:05.123Z","assets":[{"id":"a1","symbol":"AAPL","class":"us_equity",` +
			`"exchange":"NASDAQ","status":"active"}]}`,
	})
	b := testBroker(srv)

	w, err := b.GetWatchlist(context.Background(), "wl-1")
	if err != nil {
		t.Fatalf("GetWatchlist() error = %v", err)
	}
	if w.Name != "tech" || len(w.Assets) != 1 || w.Assets[0].Symbol != "AAPL" {
		t.Errorf("GetWatchlist() = %+v", w)
	}
	if !w.UpdatedAt.Equal(time.Date(2024, 1, 3, 15, 4, 5, 123_000_000, time.UTC)) {
		t.Errorf("UpdatedAt = %v", w.UpdatedAt)
	}
}

func TestToWatchlist(t *testing.T) {
	w, err := toWatchlist(alpaca.Watchlist{
		ID:        "wl-1",
		Name:      "tech",
		CreatedAt: "2024-01-02T15:04:05Z",
		UpdatedAt: "2024-01-02T16:00:00-05:00",
	})
	if err != nil {
		t.Fatalf("toWatchlist() error = %v", err)
	}
	if !w.CreatedAt.Equal(time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)) {
		t.Errorf("CreatedAt = %v", w.CreatedAt)
	}
	if !w.UpdatedAt.Equal(time.Date(2024, 1, 2, 21, 0, 0, 0, time.UTC)) {
		t.Errorf("UpdatedAt = %v", w.UpdatedAt)
	}

	if _, err := toWatchlist(alpaca.Watchlist{ID: "wl-2", CreatedAt: "yesterday"}); err == nil {
		t.Error("toWatchlist() with a malformed timestamp should fail")
	}
}
