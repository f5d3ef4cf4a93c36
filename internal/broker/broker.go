// Package broker defines the Broker interface and provides implementations
// backed by the Alpaca API and by an in-memory simulator.
package broker

import (
	"context"
	"errors"
	"time"

	"apcacli/internal/domain"
)

// ErrNotFound is returned by the simulator for unknown orders, positions,
// assets and watchlists.
var ErrNotFound = errors.New("not found")

// Trading covers account, order, position and asset operations.
type Trading interface {
	// GetAccount returns a snapshot of the account's financial metrics.
	GetAccount(ctx context.Context) (*domain.Account, error)
	GetAccountConfig(ctx context.Context) (*domain.AccountConfig, error)
	// UpdateAccountConfig changes the non-nil settings of upd and returns the
	// resulting configuration.
	UpdateAccountConfig(ctx context.Context, upd domain.AccountConfigUpdate) (*domain.AccountConfig, error)
	ListActivities(ctx context.Context, q domain.ActivityQuery) ([]domain.Activity, error)

	// GetAsset looks up an asset by symbol or asset ID.
	GetAsset(ctx context.Context, symbolOrID string) (*domain.Asset, error)
	ListAssets(ctx context.Context, q domain.AssetQuery) ([]domain.Asset, error)

	// SubmitOrder sends an order to the brokerage for execution.
	SubmitOrder(ctx context.Context, req domain.OrderRequest) (*domain.Order, error)
	// ChangeOrder replaces an open order; the brokerage assigns a new ID.
	ChangeOrder(ctx context.Context, orderID string, chg domain.OrderChange) (*domain.Order, error)
	// CancelOrder requests cancellation of an open order by its ID.
	CancelOrder(ctx context.Context, orderID string) error
	CancelAllOrders(ctx context.Context) error
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, q domain.OrderQuery) ([]domain.Order, error)

	GetPosition(ctx context.Context, symbol string) (*domain.Position, error)
	// ListPositions returns all current positions held at the brokerage.
	ListPositions(ctx context.Context) ([]domain.Position, error)
	// ClosePosition liquidates a position and returns the closing order.
	ClosePosition(ctx context.Context, symbol string, req domain.ClosePositionRequest) (*domain.Order, error)
	CloseAllPositions(ctx context.Context, cancelOrders bool) ([]domain.Order, error)

	GetClock(ctx context.Context) (*domain.Clock, error)
	GetCalendar(ctx context.Context, start, end time.Time) ([]domain.CalendarDay, error)

	ListWatchlists(ctx context.Context) ([]domain.Watchlist, error)
	GetWatchlist(ctx context.Context, id string) (*domain.Watchlist, error)
	CreateWatchlist(ctx context.Context, name string, symbols []string) (*domain.Watchlist, error)
	AddToWatchlist(ctx context.Context, id, symbol string) (*domain.Watchlist, error)
	RemoveFromWatchlist(ctx context.Context, id, symbol string) error
	DeleteWatchlist(ctx context.Context, id string) error
}

// MarketData covers historical market data.
type MarketData interface {
	GetBars(ctx context.Context, q domain.BarQuery) ([]domain.Bar, error)
	GetNews(ctx context.Context, q domain.NewsQuery) ([]domain.NewsArticle, error)
}

// Subscription selects the market data channels to stream.
type Subscription struct {
	Symbols []string
	Trades  bool
	Quotes  bool
	Bars    bool
	Feed    string
}

// Streaming covers the realtime event sources. Both calls block until ctx
// is cancelled or the stream ends, invoking handler once per event.
type Streaming interface {
	StreamTradeUpdates(ctx context.Context, handler func(domain.Event)) error
	StreamMarketData(ctx context.Context, sub Subscription, handler func(domain.Event)) error
}

// Broker abstracts the brokerage.
type Broker interface {
	// Name returns the broker identifier (e.g. "alpaca", "simulator").
	Name() string

	Trading
	MarketData
	Streaming
}
