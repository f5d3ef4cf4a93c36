package broker

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata/stream"

	"apcacli/internal/domain"
)

// Compile-time interface check.
var _ Broker = (*AlpacaBroker)(nil)

// AlpacaOptions configures an AlpacaBroker.
type AlpacaOptions struct {
	APIKey    string
	APISecret string
	BaseURL   string
	DataURL   string
	StreamURL string
	Feed      string
	Logger    *slog.Logger
}

// AlpacaBroker implements the Broker interface using the Alpaca brokerage API.
// Each method issues one library call, except UpdateAccountConfig which reads
// the current settings first.
type AlpacaBroker struct {
	client *alpaca.Client
	data   *marketdata.Client
	opts   AlpacaOptions
	log    *slog.Logger
}

// NewAlpacaBroker creates a new AlpacaBroker configured with the given
// credentials and API endpoints.
func NewAlpacaBroker(opts AlpacaOptions) *AlpacaBroker {
	dataOpts := marketdata.ClientOpts{
		APIKey:    opts.APIKey,
		APISecret: opts.APISecret,
	}
	if opts.DataURL != "" {
		dataOpts.BaseURL = opts.DataURL
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &AlpacaBroker{
		client: alpaca.NewClient(alpaca.ClientOpts{
			APIKey:    opts.APIKey,
			APISecret: opts.APISecret,
			BaseURL:   opts.BaseURL,
		}),
		data: marketdata.NewClient(dataOpts),
		opts: opts,
		log:  log.With("component", "broker"),
	}
}

// Name returns "alpaca".
func (b *AlpacaBroker) Name() string {
	return "alpaca"
}

// ---------------------------------------------------------------------------
// Account
// ---------------------------------------------------------------------------

// GetAccount returns the current account information from the Alpaca API.
func (b *AlpacaBroker) GetAccount(_ context.Context) (*domain.Account, error) {
	acct, err := b.client.GetAccount()
	if err != nil {
		return nil, err
	}
	return toAccount(acct), nil
}

// GetAccountConfig returns the user-modifiable account settings.
func (b *AlpacaBroker) GetAccountConfig(_ context.Context) (*domain.AccountConfig, error) {
	cfg, err := b.client.GetAccountConfigurations()
	if err != nil {
		return nil, err
	}
	return toAccountConfig(cfg), nil
}

// UpdateAccountConfig changes the settings set in upd. The API replaces the
// whole configuration, so the current settings are read first and sent back
// unchanged for every nil field of upd.
func (b *AlpacaBroker) UpdateAccountConfig(_ context.Context, upd domain.AccountConfigUpdate) (*domain.AccountConfig, error) {
	cur, err := b.client.GetAccountConfigurations()
	if err != nil {
		return nil, fmt.Errorf("reading current configuration: %w", err)
	}
	req := alpaca.UpdateAccountConfigurationsRequest{
		DtbpCheck:         string(cur.DTBPCheck),
		TradeConfirmEmail: string(cur.TradeConfirmEmail),
		SuspendTrade:      cur.TradeSuspendedByUser,
		NoShorting:        cur.NoShorting,
	}
	if upd.TradeConfirmEmail != nil {
		req.TradeConfirmEmail = "none"
		if *upd.TradeConfirmEmail {
			req.TradeConfirmEmail = "all"
		}
	}
	if upd.TradeSuspended != nil {
		req.SuspendTrade = *upd.TradeSuspended
	}
	if upd.Shorting != nil {
		req.NoShorting = !*upd.Shorting
	}

	b.log.Debug("updating account configuration", "request", fmt.Sprintf("%+v", req))
	cfg, err := b.client.UpdateAccountConfigurations(req)
	if err != nil {
		return nil, err
	}
	return toAccountConfig(cfg), nil
}

// ListActivities returns account activities matching q. A zero PageSize
// asks for the API's default page size.
func (b *AlpacaBroker) ListActivities(_ context.Context, q domain.ActivityQuery) ([]domain.Activity, error) {
	activities, err := b.client.GetAccountActivities(alpaca.GetAccountActivitiesRequest{
		ActivityTypes: q.Types,
		After:         q.After,
		Until:         q.Until,
		Direction:     q.Direction,
		PageSize:      q.PageSize,
		PageToken:     q.PageToken,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Activity, 0, len(activities))
	for _, a := range activities {
		out = append(out, toActivity(a))
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Assets
// ---------------------------------------------------------------------------

// GetAsset looks up an asset by symbol or asset ID.
func (b *AlpacaBroker) GetAsset(_ context.Context, symbolOrID string) (*domain.Asset, error) {
	asset, err := b.client.GetAsset(symbolOrID)
	if err != nil {
		return nil, err
	}
	a := toAsset(*asset)
	return &a, nil
}

// ListAssets lists assets filtered by status, class and exchange.
func (b *AlpacaBroker) ListAssets(_ context.Context, q domain.AssetQuery) ([]domain.Asset, error) {
	assets, err := b.client.GetAssets(alpaca.GetAssetsRequest{
		Status:     q.Status,
		AssetClass: q.Class,
		Exchange:   q.Exchange,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.Asset, 0, len(assets))
	for _, a := range assets {
		out = append(out, toAsset(a))
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// SubmitOrder sends an order to the Alpaca API for execution.
func (b *AlpacaBroker) SubmitOrder(_ context.Context, req domain.OrderRequest) (*domain.Order, error) {
	preq := alpaca.PlaceOrderRequest{
		Symbol:        strings.ToUpper(req.Symbol),
		Qty:           req.Qty,
		Notional:      req.Notional,
		Side:          alpaca.Side(req.Side),
		Type:          alpaca.OrderType(req.Type()),
		TimeInForce:   alpaca.TimeInForce(req.TimeInForce),
		LimitPrice:    req.LimitPrice,
		StopPrice:     req.StopPrice,
		ExtendedHours: req.ExtendedHours,
		ClientOrderID: req.ClientOrderID,
	}
	if req.Class() != domain.OrderClassSimple {
		preq.OrderClass = alpaca.OrderClass(req.Class())
		preq.TakeProfit = &alpaca.TakeProfit{LimitPrice: req.TakeProfitPrice}
	}

	b.log.Debug("placing order", "symbol", preq.Symbol, "side", req.Side, "type", req.Type(), "tif", req.TimeInForce)
	order, err := b.client.PlaceOrder(preq)
	if err != nil {
		return nil, err
	}
	o := toOrder(*order)
	return &o, nil
}

// ChangeOrder replaces an open order, sending only the fields set in chg.
func (b *AlpacaBroker) ChangeOrder(_ context.Context, orderID string, chg domain.OrderChange) (*domain.Order, error) {
	req := alpaca.ReplaceOrderRequest{
		Qty:         chg.Qty,
		LimitPrice:  chg.LimitPrice,
		StopPrice:   chg.StopPrice,
		TimeInForce: alpaca.TimeInForce(chg.TimeInForce),
	}
	b.log.Debug("replacing order", "id", orderID)
	order, err := b.client.ReplaceOrder(orderID, req)
	if err != nil {
		return nil, err
	}
	o := toOrder(*order)
	return &o, nil
}

// CancelOrder requests cancellation of an open order via the Alpaca API.
func (b *AlpacaBroker) CancelOrder(_ context.Context, orderID string) error {
	return b.client.CancelOrder(orderID)
}

// CancelAllOrders requests cancellation of every open order.
func (b *AlpacaBroker) CancelAllOrders(_ context.Context) error {
	return b.client.CancelAllOrders()
}

// GetOrder returns an order by its ID.
func (b *AlpacaBroker) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	order, err := b.client.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	o := toOrder(*order)
	return &o, nil
}

// ListOrders lists orders matching q, newest first.
func (b *AlpacaBroker) ListOrders(_ context.Context, q domain.OrderQuery) ([]domain.Order, error) {
	orders, err := b.client.GetOrders(alpaca.GetOrdersRequest{
		Status:  string(q.Status),
		Limit:   q.Limit,
		Nested:  q.Nested,
		Symbols: q.Symbols,
		Until:   q.Until,
	})
	if err != nil {
		return nil, err
	}
	return toOrders(orders), nil
}

// ---------------------------------------------------------------------------
// Positions
// ---------------------------------------------------------------------------

// GetPosition returns the open position in symbol.
func (b *AlpacaBroker) GetPosition(_ context.Context, symbol string) (*domain.Position, error) {
	pos, err := b.client.GetPosition(strings.ToUpper(symbol))
	if err != nil {
		return nil, err
	}
	p := toPosition(*pos)
	return &p, nil
}

// ListPositions returns all current positions from the Alpaca account.
func (b *AlpacaBroker) ListPositions(_ context.Context) ([]domain.Position, error) {
	positions, err := b.client.GetPositions()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Position, 0, len(positions))
	for _, p := range positions {
		out = append(out, toPosition(p))
	}
	return out, nil
}

// ClosePosition liquidates all or part of a position and returns the
// closing order.
func (b *AlpacaBroker) ClosePosition(_ context.Context, symbol string, req domain.ClosePositionRequest) (*domain.Order, error) {
	order, err := b.client.ClosePosition(strings.ToUpper(symbol), alpaca.ClosePositionRequest{
		Qty:        req.Qty,
		Percentage: req.Percentage,
	})
	if err != nil {
		return nil, err
	}
	o := toOrder(*order)
	return &o, nil
}

// CloseAllPositions liquidates every position, optionally canceling open
// orders first, and returns the closing orders.
func (b *AlpacaBroker) CloseAllPositions(_ context.Context, cancelOrders bool) ([]domain.Order, error) {
	orders, err := b.client.CloseAllPositions(alpaca.CloseAllPositionsRequest{
		CancelOrders: cancelOrders,
	})
	if err != nil {
		return nil, err
	}
	return toOrders(orders), nil
}

// ---------------------------------------------------------------------------
// Market
// ---------------------------------------------------------------------------

// GetClock returns the market clock.
func (b *AlpacaBroker) GetClock(_ context.Context) (*domain.Clock, error) {
	clock, err := b.client.GetClock()
	if err != nil {
		return nil, err
	}
	return &domain.Clock{
		Timestamp: clock.Timestamp,
		IsOpen:    clock.IsOpen,
		NextOpen:  clock.NextOpen,
		NextClose: clock.NextClose,
	}, nil
}

// GetCalendar returns the trading days between start and end.
func (b *AlpacaBroker) GetCalendar(_ context.Context, start, end time.Time) ([]domain.CalendarDay, error) {
	days, err := b.client.GetCalendar(alpaca.GetCalendarRequest{
		Start: start,
		End:   end,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.CalendarDay, 0, len(days))
	for _, d := range days {
		out = append(out, domain.CalendarDay{Date: d.Date, Open: d.Open, Close: d.Close})
	}
	return out, nil
}

// GetBars fetches historical bars for a single symbol.
func (b *AlpacaBroker) GetBars(_ context.Context, q domain.BarQuery) ([]domain.Bar, error) {
	req := marketdata.GetBarsRequest{
		TimeFrame:  toTimeFrame(q.TimeFrame),
		Start:      q.Start,
		End:        q.End,
		TotalLimit: q.Limit,
	}
	if feed := b.feed(q.Feed); feed != "" {
		req.Feed = marketdata.Feed(feed)
	}
	if q.Adjustment != "" {
		req.Adjustment = marketdata.Adjustment(q.Adjustment)
	}

	symbol := strings.ToUpper(q.Symbol)
	bars, err := b.data.GetBars(symbol, req)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Bar, 0, len(bars))
	for _, ab := range bars {
		out = append(out, domain.Bar{
			Symbol:     symbol,
			Timestamp:  ab.Timestamp,
			Open:       ab.Open,
			High:       ab.High,
			Low:        ab.Low,
			Close:      ab.Close,
			Volume:     int64(ab.Volume),
			TradeCount: int64(ab.TradeCount),
			VWAP:       ab.VWAP,
		})
	}
	return out, nil
}

// GetNews fetches news articles mentioning a symbol, oldest first.
func (b *AlpacaBroker) GetNews(_ context.Context, q domain.NewsQuery) ([]domain.NewsArticle, error) {
	news, err := b.data.GetNews(marketdata.GetNewsRequest{
		Symbols:        []string{strings.ToUpper(q.Symbol)},
		Start:          q.Start,
		End:            q.End,
		TotalLimit:     q.Limit,
		IncludeContent: true,
		Sort:           marketdata.SortAsc,
	})
	if err != nil {
		return nil, err
	}
	out := make([]domain.NewsArticle, 0, len(news))
	for _, n := range news {
		out = append(out, domain.NewsArticle{
			ID:       int64(n.ID),
			Time:     n.CreatedAt,
			Author:   n.Author,
			Headline: n.Headline,
			Summary:  n.Summary,
			Content:  n.Content,
			URL:      n.URL,
			Symbols:  n.Symbols,
		})
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Watchlists
// ---------------------------------------------------------------------------

// ListWatchlists returns the account's watchlists.
func (b *AlpacaBroker) ListWatchlists(_ context.Context) ([]domain.Watchlist, error) {
	lists, err := b.client.GetWatchlists()
	if err != nil {
		return nil, err
	}
	out := make([]domain.Watchlist, 0, len(lists))
	for _, w := range lists {
		wl, err := toWatchlist(w)
		if err != nil {
			return nil, err
		}
		out = append(out, wl)
	}
	return out, nil
}

// GetWatchlist returns one watchlist with its assets.
func (b *AlpacaBroker) GetWatchlist(_ context.Context, id string) (*domain.Watchlist, error) {
	w, err := b.client.GetWatchlist(id)
	if err != nil {
		return nil, err
	}
	return watchlistPtr(w)
}

// CreateWatchlist creates a watchlist holding symbols.
func (b *AlpacaBroker) CreateWatchlist(_ context.Context, name string, symbols []string) (*domain.Watchlist, error) {
	w, err := b.client.CreateWatchlist(alpaca.CreateWatchlistRequest{Name: name, Symbols: symbols})
	if err != nil {
		return nil, err
	}
	return watchlistPtr(w)
}

// AddToWatchlist appends symbol to a watchlist.
func (b *AlpacaBroker) AddToWatchlist(_ context.Context, id, symbol string) (*domain.Watchlist, error) {
	w, err := b.client.AddSymbolToWatchlist(id, alpaca.AddSymbolToWatchlistRequest{Symbol: strings.ToUpper(symbol)})
	if err != nil {
		return nil, err
	}
	return watchlistPtr(w)
}

// RemoveFromWatchlist drops symbol from a watchlist.
func (b *AlpacaBroker) RemoveFromWatchlist(_ context.Context, id, symbol string) error {
	return b.client.RemoveSymbolFromWatchlist(id, alpaca.RemoveSymbolFromWatchlistRequest{Symbol: strings.ToUpper(symbol)})
}

// DeleteWatchlist deletes a watchlist.
func (b *AlpacaBroker) DeleteWatchlist(_ context.Context, id string) error {
	return b.client.DeleteWatchlist(id)
}

func watchlistPtr(w *alpaca.Watchlist) (*domain.Watchlist, error) {
	wl, err := toWatchlist(*w)
	if err != nil {
		return nil, err
	}
	return &wl, nil
}

// ---------------------------------------------------------------------------
// Streaming
// ---------------------------------------------------------------------------

// StreamTradeUpdates subscribes to the account's order events. It blocks
// until ctx is cancelled or the connection fails.
func (b *AlpacaBroker) StreamTradeUpdates(ctx context.Context, handler func(domain.Event)) error {
	b.log.Info("subscribing to trade updates")
	return b.client.StreamTradeUpdates(ctx, func(tu alpaca.TradeUpdate) {
		u := toTradeUpdate(tu)
		handler(&u)
	}, alpaca.StreamTradeUpdatesRequest{})
}

// StreamMarketData connects to the stock data stream and subscribes to the
// requested channels. It blocks until ctx is cancelled or the stream
// terminates.
func (b *AlpacaBroker) StreamMarketData(ctx context.Context, sub Subscription, handler func(domain.Event)) error {
	feed := b.feed(sub.Feed)
	if feed == "" {
		feed = "iex"
	}

	opts := []stream.StockOption{stream.WithCredentials(b.opts.APIKey, b.opts.APISecret)}
	if b.opts.StreamURL != "" {
		opts = append(opts, stream.WithBaseURL(b.opts.StreamURL))
	}
	if sub.Trades {
		opts = append(opts, stream.WithTrades(func(t stream.Trade) {
			handler(&domain.Trade{
				Symbol:    t.Symbol,
				Timestamp: t.Timestamp,
				Price:     t.Price,
				Size:      int64(t.Size),
				Exchange:  t.Exchange,
				ID:        t.ID,
			})
		}, sub.Symbols...))
	}
	if sub.Quotes {
		opts = append(opts, stream.WithQuotes(func(q stream.Quote) {
			handler(&domain.Quote{
				Symbol:    q.Symbol,
				Timestamp: q.Timestamp,
				BidPrice:  q.BidPrice,
				BidSize:   int64(q.BidSize),
				AskPrice:  q.AskPrice,
				AskSize:   int64(q.AskSize),
			})
		}, sub.Symbols...))
	}
	if sub.Bars {
		opts = append(opts, stream.WithBars(func(sb stream.Bar) {
			handler(&domain.Bar{
				Symbol:     sb.Symbol,
				Timestamp:  sb.Timestamp,
				Open:       sb.Open,
				High:       sb.High,
				Low:        sb.Low,
				Close:      sb.Close,
				Volume:     int64(sb.Volume),
				TradeCount: int64(sb.TradeCount),
				VWAP:       sb.VWAP,
			})
		}, sub.Symbols...))
	}

	c := stream.NewStocksClient(marketdata.Feed(feed), opts...)
	b.log.Info("connecting to market data stream", "feed", feed, "symbols", sub.Symbols)
	if err := c.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to market data stream: %w", err)
	}

	select {
	case <-ctx.Done():
		// Terminated reports the shutdown caused by the cancelled context.
		<-c.Terminated()
		return nil
	case err := <-c.Terminated():
		return err
	}
}

// feed returns the requested feed, else the configured default.
func (b *AlpacaBroker) feed(requested string) string {
	if requested != "" {
		return requested
	}
	return b.opts.Feed
}
