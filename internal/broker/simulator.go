package broker

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"apcacli/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*SimulatorBroker)(nil)

// SimulatorBroker implements the Broker interface in memory without making
// external API calls. Orders are accepted but never filled. Stream methods
// replay the queued events and return, which ends the stream.
type SimulatorBroker struct {
	mu sync.Mutex

	account    domain.Account
	config     domain.AccountConfig
	activities []domain.Activity
	assets     map[string]domain.Asset
	orders     map[string]*domain.Order
	positions  map[string]*domain.Position
	bars       map[string][]domain.Bar
	news       map[string][]domain.NewsArticle
	watchlists map[string]*domain.Watchlist
	calendar   []domain.CalendarDay
	clock      domain.Clock

	updates    []domain.Event
	marketData []domain.Event

	now func() time.Time
}

// NewSimulatorBroker creates a new SimulatorBroker with empty state.
func NewSimulatorBroker() *SimulatorBroker {
	return &SimulatorBroker{
		account: domain.Account{
			ID:       uuid.NewString(),
			Status:   "ACTIVE",
			Currency: "USD",
		},
		config:     domain.AccountConfig{TradeConfirmEmail: true, DTBPCheck: "entry"},
		assets:     make(map[string]domain.Asset),
		orders:     make(map[string]*domain.Order),
		positions:  make(map[string]*domain.Position),
		bars:       make(map[string][]domain.Bar),
		news:       make(map[string][]domain.NewsArticle),
		watchlists: make(map[string]*domain.Watchlist),
		now:        time.Now,
	}
}

// Name returns "simulator".
func (b *SimulatorBroker) Name() string {
	return "simulator"
}

// ---------------------------------------------------------------------------
// Seeding
// ---------------------------------------------------------------------------

// SetAccount replaces the account snapshot returned by GetAccount.
func (b *SimulatorBroker) SetAccount(a domain.Account) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.account = a
}

// SetClock sets the market clock. A zero timestamp is filled in on read.
func (b *SimulatorBroker) SetClock(c domain.Clock) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clock = c
}

// SetCalendar sets the trading days served by GetCalendar.
func (b *SimulatorBroker) SetCalendar(days []domain.CalendarDay) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calendar = days
}

// AddAsset stores an asset keyed by its upper-cased symbol.
func (b *SimulatorBroker) AddAsset(a domain.Asset) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.assets[strings.ToUpper(a.Symbol)] = a
}

// AddPosition stores a position, replacing any position in the same symbol.
func (b *SimulatorBroker) AddPosition(p domain.Position) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.positions[strings.ToUpper(p.Symbol)] = &p
}

// AddOrder stores o as is; an empty ID is replaced with a fresh UUID.
func (b *SimulatorBroker) AddOrder(o domain.Order) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	b.orders[o.ID] = &o
	return o.ID
}

// AddActivity appends an account activity.
func (b *SimulatorBroker) AddActivity(a domain.Activity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.activities = append(b.activities, a)
}

// AddBars appends historical bars to their symbols.
func (b *SimulatorBroker) AddBars(bars ...domain.Bar) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, bar := range bars {
		sym := strings.ToUpper(bar.Symbol)
		b.bars[sym] = append(b.bars[sym], bar)
	}
}

// AddNews appends articles to the news of symbol.
func (b *SimulatorBroker) AddNews(symbol string, articles ...domain.NewsArticle) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sym := strings.ToUpper(symbol)
	b.news[sym] = append(b.news[sym], articles...)
}

// QueueTradeUpdate schedules an event for the next StreamTradeUpdates call.
func (b *SimulatorBroker) QueueTradeUpdate(ev domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, ev)
}

// QueueMarketData schedules an event for the next StreamMarketData call.
func (b *SimulatorBroker) QueueMarketData(ev domain.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.marketData = append(b.marketData, ev)
}

// ---------------------------------------------------------------------------
// Account
// ---------------------------------------------------------------------------

// GetAccount returns simulated account information.
func (b *SimulatorBroker) GetAccount(_ context.Context) (*domain.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a := b.account
	return &a, nil
}

func (b *SimulatorBroker) GetAccountConfig(_ context.Context) (*domain.AccountConfig, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.config
	return &c, nil
}

func (b *SimulatorBroker) UpdateAccountConfig(_ context.Context, upd domain.AccountConfigUpdate) (*domain.AccountConfig, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if upd.TradeConfirmEmail != nil {
		b.config.TradeConfirmEmail = *upd.TradeConfirmEmail
	}
	if upd.TradeSuspended != nil {
		b.config.TradeSuspended = *upd.TradeSuspended
	}
	if upd.Shorting != nil {
		b.config.NoShorting = !*upd.Shorting
	}
	c := b.config
	return &c, nil
}

func (b *SimulatorBroker) ListActivities(_ context.Context, q domain.ActivityQuery) ([]domain.Activity, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	types := make(map[string]bool, len(q.Types))
	for _, t := range q.Types {
		types[t] = true
	}

	var out []domain.Activity
	for _, a := range b.activities {
		if len(types) > 0 && !types[a.ActivityType] {
			continue
		}
		if !q.After.IsZero() && !a.Time.After(q.After) {
			continue
		}
		if !q.Until.IsZero() && !a.Time.Before(q.Until) {
			continue
		}
		out = append(out, a)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if q.Direction == "asc" {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].Time.After(out[j].Time)
	})
	if q.PageToken != "" {
		for i, a := range out {
			if a.ID == q.PageToken {
				out = out[i+1:]
				break
			}
		}
	}
	if q.PageSize > 0 && len(out) > q.PageSize {
		out = out[:q.PageSize]
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Assets
// ---------------------------------------------------------------------------

func (b *SimulatorBroker) GetAsset(_ context.Context, symbolOrID string) (*domain.Asset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a, ok := b.assets[strings.ToUpper(symbolOrID)]; ok {
		return &a, nil
	}
	for _, a := range b.assets {
		if a.ID == symbolOrID {
			return &a, nil
		}
	}
	return nil, fmt.Errorf("asset %s: %w", symbolOrID, ErrNotFound)
}

func (b *SimulatorBroker) ListAssets(_ context.Context, q domain.AssetQuery) ([]domain.Asset, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.Asset
	for _, a := range b.assets {
		if q.Status != "" && !strings.EqualFold(a.Status, q.Status) {
			continue
		}
		if q.Class != "" && a.Class != q.Class {
			continue
		}
		if q.Exchange != "" && !strings.EqualFold(a.Exchange, q.Exchange) {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// SubmitOrder records the order in memory with status accepted.
func (b *SimulatorBroker) SubmitOrder(_ context.Context, req domain.OrderRequest) (*domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	o := &domain.Order{
		ID:            uuid.NewString(),
		ClientOrderID: req.ClientOrderID,
		Symbol:        strings.ToUpper(req.Symbol),
		Side:          req.Side,
		Type:          req.Type(),
		Class:         req.Class(),
		TimeInForce:   req.TimeInForce,
		Status:        domain.OrderStatusAccepted,
		Qty:           req.Qty,
		Notional:      req.Notional,
		LimitPrice:    req.LimitPrice,
		StopPrice:     req.StopPrice,
		ExtendedHours: req.ExtendedHours,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if o.ClientOrderID == "" {
		o.ClientOrderID = uuid.NewString()
	}
	if req.TakeProfitPrice != nil {
		o.Legs = []domain.Order{{
			ID:          uuid.NewString(),
			Symbol:      o.Symbol,
			Side:        opposite(req.Side),
			Type:        domain.OrderTypeLimit,
			TimeInForce: req.TimeInForce,
			Status:      domain.OrderStatusAccepted,
			Qty:         req.Qty,
			LimitPrice:  req.TakeProfitPrice,
			CreatedAt:   now,
			UpdatedAt:   now,
		}}
	}
	b.orders[o.ID] = o
	out := *o
	return &out, nil
}

// ChangeOrder replaces the order with a new one carrying the changed fields
// and marks the old one replaced.
func (b *SimulatorBroker) ChangeOrder(_ context.Context, orderID string, chg domain.OrderChange) (*domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, ok := b.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if !isOpen(old.Status) {
		return nil, fmt.Errorf("order %s is %s and cannot be replaced", orderID, old.Status)
	}

	repl := applyChange(*old, chg)
	repl.ID = uuid.NewString()
	repl.CreatedAt = b.now()
	repl.UpdatedAt = repl.CreatedAt
	old.Status = domain.OrderStatusReplaced
	b.orders[repl.ID] = &repl
	out := repl
	return &out, nil
}

// CancelOrder marks the specified order as canceled.
func (b *SimulatorBroker) CancelOrder(_ context.Context, orderID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[orderID]
	if !ok {
		return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	if !isOpen(o.Status) {
		return fmt.Errorf("order %s is %s and cannot be canceled", orderID, o.Status)
	}
	o.Status = domain.OrderStatusCanceled
	return nil
}

func (b *SimulatorBroker) CancelAllOrders(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, o := range b.orders {
		if isOpen(o.Status) {
			o.Status = domain.OrderStatusCanceled
		}
	}
	return nil
}

func (b *SimulatorBroker) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	o, ok := b.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	out := *o
	return &out, nil
}

func (b *SimulatorBroker) ListOrders(_ context.Context, q domain.OrderQuery) ([]domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	symbols := make(map[string]bool, len(q.Symbols))
	for _, s := range q.Symbols {
		symbols[strings.ToUpper(s)] = true
	}

	var out []domain.Order
	for _, o := range b.orders {
		switch q.Status {
		case domain.OrderQueryOpen, "":
			if !isOpen(o.Status) {
				continue
			}
		case domain.OrderQueryClosed:
			if isOpen(o.Status) {
				continue
			}
		}
		if len(symbols) > 0 && !symbols[o.Symbol] {
			continue
		}
		if !q.Until.IsZero() && o.CreatedAt.After(q.Until) {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Positions
// ---------------------------------------------------------------------------

func (b *SimulatorBroker) GetPosition(_ context.Context, symbol string) (*domain.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.positions[strings.ToUpper(symbol)]
	if !ok {
		return nil, fmt.Errorf("position %s: %w", symbol, ErrNotFound)
	}
	out := *p
	return &out, nil
}

// ListPositions returns all simulated positions sorted by symbol.
func (b *SimulatorBroker) ListPositions(_ context.Context) ([]domain.Position, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	positions := make([]domain.Position, 0, len(b.positions))
	for _, p := range b.positions {
		positions = append(positions, *p)
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].Symbol < positions[j].Symbol })
	return positions, nil
}

func (b *SimulatorBroker) ClosePosition(_ context.Context, symbol string, req domain.ClosePositionRequest) (*domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	sym := strings.ToUpper(symbol)
	p, ok := b.positions[sym]
	if !ok {
		return nil, fmt.Errorf("position %s: %w", symbol, ErrNotFound)
	}
	o := closingOrder(*p, req, b.now())
	b.orders[o.ID] = &o
	if req.Qty.IsZero() && req.Percentage.IsZero() {
		delete(b.positions, sym)
	}
	out := o
	return &out, nil
}

func (b *SimulatorBroker) CloseAllPositions(_ context.Context, cancelOrders bool) ([]domain.Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cancelOrders {
		for _, o := range b.orders {
			if isOpen(o.Status) {
				o.Status = domain.OrderStatusCanceled
			}
		}
	}
	syms := make([]string, 0, len(b.positions))
	for sym := range b.positions {
		syms = append(syms, sym)
	}
	sort.Strings(syms)

	var out []domain.Order
	for _, sym := range syms {
		o := closingOrder(*b.positions[sym], domain.ClosePositionRequest{}, b.now())
		b.orders[o.ID] = &o
		out = append(out, o)
		delete(b.positions, sym)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Market
// ---------------------------------------------------------------------------

func (b *SimulatorBroker) GetClock(_ context.Context) (*domain.Clock, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.clock
	if c.Timestamp.IsZero() {
		c.Timestamp = b.now()
	}
	return &c, nil
}

func (b *SimulatorBroker) GetCalendar(_ context.Context, start, end time.Time) ([]domain.CalendarDay, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.CalendarDay
	for _, d := range b.calendar {
		day, err := time.Parse("2006-01-02", d.Date)
		if err != nil {
			continue
		}
		if !start.IsZero() && day.Before(truncateDay(start)) {
			continue
		}
		if !end.IsZero() && day.After(end) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (b *SimulatorBroker) GetBars(_ context.Context, q domain.BarQuery) ([]domain.Bar, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []domain.Bar
	for _, bar := range b.bars[strings.ToUpper(q.Symbol)] {
		if !q.Start.IsZero() && bar.Timestamp.Before(q.Start) {
			continue
		}
		if !q.End.IsZero() && bar.Timestamp.After(q.End) {
			continue
		}
		out = append(out, bar)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (b *SimulatorBroker) GetNews(_ context.Context, q domain.NewsQuery) ([]domain.NewsArticle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := append([]domain.NewsArticle(nil), b.news[strings.ToUpper(q.Symbol)]...)
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Watchlists
// ---------------------------------------------------------------------------

func (b *SimulatorBroker) ListWatchlists(_ context.Context) ([]domain.Watchlist, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.Watchlist, 0, len(b.watchlists))
	for _, w := range b.watchlists {
		wl := *w
		wl.Assets = nil
		out = append(out, wl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *SimulatorBroker) GetWatchlist(_ context.Context, id string) (*domain.Watchlist, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.watchlists[id]
	if !ok {
		return nil, fmt.Errorf("watchlist %s: %w", id, ErrNotFound)
	}
	out := *w
	return &out, nil
}

func (b *SimulatorBroker) CreateWatchlist(_ context.Context, name string, symbols []string) (*domain.Watchlist, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	w := &domain.Watchlist{ID: uuid.NewString(), Name: name, CreatedAt: now, UpdatedAt: now}
	for _, s := range symbols {
		w.Assets = append(w.Assets, b.assetLocked(s))
	}
	b.watchlists[w.ID] = w
	out := *w
	return &out, nil
}

func (b *SimulatorBroker) AddToWatchlist(_ context.Context, id, symbol string) (*domain.Watchlist, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.watchlists[id]
	if !ok {
		return nil, fmt.Errorf("watchlist %s: %w", id, ErrNotFound)
	}
	w.Assets = append(w.Assets, b.assetLocked(symbol))
	w.UpdatedAt = b.now()
	out := *w
	return &out, nil
}

func (b *SimulatorBroker) RemoveFromWatchlist(_ context.Context, id, symbol string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.watchlists[id]
	if !ok {
		return fmt.Errorf("watchlist %s: %w", id, ErrNotFound)
	}
	kept := w.Assets[:0]
	for _, a := range w.Assets {
		if !strings.EqualFold(a.Symbol, symbol) {
			kept = append(kept, a)
		}
	}
	w.Assets = kept
	return nil
}

func (b *SimulatorBroker) DeleteWatchlist(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.watchlists[id]; !ok {
		return fmt.Errorf("watchlist %s: %w", id, ErrNotFound)
	}
	delete(b.watchlists, id)
	return nil
}

// ---------------------------------------------------------------------------
// Streaming
// ---------------------------------------------------------------------------

func (b *SimulatorBroker) StreamTradeUpdates(ctx context.Context, handler func(domain.Event)) error {
	b.mu.Lock()
	events := b.updates
	b.updates = nil
	b.mu.Unlock()
	return replay(ctx, events, handler)
}

func (b *SimulatorBroker) StreamMarketData(ctx context.Context, sub Subscription, handler func(domain.Event)) error {
	b.mu.Lock()
	events := b.marketData
	b.marketData = nil
	b.mu.Unlock()

	want := make(map[string]bool, len(sub.Symbols))
	for _, s := range sub.Symbols {
		want[strings.ToUpper(s)] = true
	}
	var selected []domain.Event
	for _, ev := range events {
		var sym string
		switch e := ev.(type) {
		case *domain.Trade:
			if !sub.Trades {
				continue
			}
			sym = e.Symbol
		case *domain.Quote:
			if !sub.Quotes {
				continue
			}
			sym = e.Symbol
		case *domain.Bar:
			if !sub.Bars {
				continue
			}
			sym = e.Symbol
		}
		if want["*"] || want[strings.ToUpper(sym)] {
			selected = append(selected, ev)
		}
	}
	return replay(ctx, selected, handler)
}

func replay(ctx context.Context, events []domain.Event, handler func(domain.Event)) error {
	for _, ev := range events {
		if ctx.Err() != nil {
			return nil
		}
		handler(ev)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (b *SimulatorBroker) assetLocked(symbol string) domain.Asset {
	if a, ok := b.assets[strings.ToUpper(symbol)]; ok {
		return a
	}
	return domain.Asset{Symbol: strings.ToUpper(symbol)}
}

func isOpen(s domain.OrderStatus) bool {
	switch s {
	case domain.OrderStatusFilled, domain.OrderStatusCanceled, domain.OrderStatusExpired,
		domain.OrderStatusReplaced, domain.OrderStatusRejected:
		return false
	}
	return true
}

func opposite(s domain.OrderSide) domain.OrderSide {
	if s == domain.OrderSideBuy {
		return domain.OrderSideSell
	}
	return domain.OrderSideBuy
}

// applyChange returns o with the non-empty fields of chg applied.
func applyChange(o domain.Order, chg domain.OrderChange) domain.Order {
	if chg.Qty != nil {
		o.Qty = chg.Qty
	}
	if chg.LimitPrice != nil {
		o.LimitPrice = chg.LimitPrice
	}
	if chg.StopPrice != nil {
		o.StopPrice = chg.StopPrice
	}
	if chg.TimeInForce != "" {
		o.TimeInForce = chg.TimeInForce
	}
	return o
}

// closingOrder builds the market order liquidating (part of) a position.
func closingOrder(p domain.Position, req domain.ClosePositionRequest, now time.Time) domain.Order {
	qty := p.Qty.Abs()
	switch {
	case !req.Qty.IsZero():
		qty = req.Qty
	case !req.Percentage.IsZero():
		qty = qty.Mul(req.Percentage).Div(decimal.NewFromInt(100))
	}
	side := domain.OrderSideSell
	if p.Side == domain.PositionSideShort {
		side = domain.OrderSideBuy
	}
	return domain.Order{
		ID:          uuid.NewString(),
		Symbol:      p.Symbol,
		Side:        side,
		Type:        domain.OrderTypeMarket,
		TimeInForce: domain.TimeInForceDay,
		Status:      domain.OrderStatusAccepted,
		Qty:         &qty,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
