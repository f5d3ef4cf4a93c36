// Package domain defines the request and response types exchanged between
// the command layer, the broker and the formatters.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Enumerations
// ---------------------------------------------------------------------------

// OrderSide is the direction of an order.
type OrderSide string

const (
	OrderSideBuy  OrderSide = "buy"
	OrderSideSell OrderSide = "sell"
)

// OrderType is derived from the prices supplied with an order.
type OrderType string

const (
	OrderTypeMarket       OrderType = "market"
	OrderTypeLimit        OrderType = "limit"
	OrderTypeStop         OrderType = "stop"
	OrderTypeStopLimit    OrderType = "stop_limit"
	OrderTypeTrailingStop OrderType = "trailing_stop"
)

// OrderClass distinguishes simple orders from multi-leg ones.
type OrderClass string

const (
	OrderClassSimple  OrderClass = "simple"
	OrderClassBracket OrderClass = "bracket"
	OrderClassOTO     OrderClass = "oto"
	OrderClassOCO     OrderClass = "oco"
)

// TimeInForce is the API level validity of an order.
type TimeInForce string

const (
	TimeInForceDay TimeInForce = "day"
	TimeInForceGTC TimeInForce = "gtc"
	TimeInForceOPG TimeInForce = "opg"
	TimeInForceCLS TimeInForce = "cls"
	TimeInForceIOC TimeInForce = "ioc"
	TimeInForceFOK TimeInForce = "fok"
)

// OrderStatus is the lifecycle state reported by the brokerage.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "new"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusCanceled        OrderStatus = "canceled"
	OrderStatusExpired         OrderStatus = "expired"
	OrderStatusReplaced        OrderStatus = "replaced"
	OrderStatusPendingCancel   OrderStatus = "pending_cancel"
	OrderStatusRejected        OrderStatus = "rejected"
	OrderStatusAccepted        OrderStatus = "accepted"
	OrderStatusHeld            OrderStatus = "held"
)

// OrderQueryStatus selects which orders a listing returns.
type OrderQueryStatus string

const (
	OrderQueryOpen   OrderQueryStatus = "open"
	OrderQueryClosed OrderQueryStatus = "closed"
	OrderQueryAll    OrderQueryStatus = "all"
)

// PositionSide is the direction of a held position.
type PositionSide string

const (
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// ---------------------------------------------------------------------------
// Account
// ---------------------------------------------------------------------------

// Account is a snapshot of the brokerage account.
type Account struct {
	ID                   string          `json:"id" yaml:"id"`
	AccountNumber        string          `json:"account_number" yaml:"account_number"`
	Status               string          `json:"status" yaml:"status"`
	Currency             string          `json:"currency" yaml:"currency"`
	BuyingPower          decimal.Decimal `json:"buying_power" yaml:"buying_power"`
	Cash                 decimal.Decimal `json:"cash" yaml:"cash"`
	Equity               decimal.Decimal `json:"equity" yaml:"equity"`
	LastEquity           decimal.Decimal `json:"last_equity" yaml:"last_equity"`
	LongMarketValue      decimal.Decimal `json:"long_market_value" yaml:"long_market_value"`
	ShortMarketValue     decimal.Decimal `json:"short_market_value" yaml:"short_market_value"`
	DaytradeCount        int64           `json:"daytrade_count" yaml:"daytrade_count"`
	PatternDayTrader     bool            `json:"pattern_day_trader" yaml:"pattern_day_trader"`
	TradingBlocked       bool            `json:"trading_blocked" yaml:"trading_blocked"`
	TransfersBlocked     bool            `json:"transfers_blocked" yaml:"transfers_blocked"`
	AccountBlocked       bool            `json:"account_blocked" yaml:"account_blocked"`
	ShortingEnabled      bool            `json:"shorting_enabled" yaml:"shorting_enabled"`
	TradeSuspendedByUser bool            `json:"trade_suspended_by_user" yaml:"trade_suspended_by_user"`
	CreatedAt            time.Time       `json:"created_at" yaml:"created_at"`
}

// DayChange returns equity minus last equity.
func (a Account) DayChange() decimal.Decimal {
	return a.Equity.Sub(a.LastEquity)
}

// AccountConfig holds the user-modifiable account settings.
type AccountConfig struct {
	TradeConfirmEmail bool   `json:"trade_confirm_email" yaml:"trade_confirm_email"`
	TradeSuspended    bool   `json:"trade_suspended" yaml:"trade_suspended"`
	NoShorting        bool   `json:"no_shorting" yaml:"no_shorting"`
	DTBPCheck         string `json:"dtbp_check" yaml:"dtbp_check"`
}

// AccountConfigUpdate carries only the settings to change; nil fields are
// left as they are.
type AccountConfigUpdate struct {
	TradeConfirmEmail *bool
	TradeSuspended    *bool
	Shorting          *bool
}

// Empty reports whether the update changes nothing.
func (u AccountConfigUpdate) Empty() bool {
	return u.TradeConfirmEmail == nil && u.TradeSuspended == nil && u.Shorting == nil
}

// Activity is a single account activity entry (fill, dividend, fee, ...).
type Activity struct {
	ID           string          `json:"id" yaml:"id"`
	ActivityType string          `json:"activity_type" yaml:"activity_type"`
	Time         time.Time       `json:"time" yaml:"time"`
	Date         string          `json:"date,omitempty" yaml:"date,omitempty"`
	Symbol       string          `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Side         string          `json:"side,omitempty" yaml:"side,omitempty"`
	Qty          decimal.Decimal `json:"qty" yaml:"qty"`
	Price        decimal.Decimal `json:"price" yaml:"price"`
	NetAmount    decimal.Decimal `json:"net_amount" yaml:"net_amount"`
	Description  string          `json:"description,omitempty" yaml:"description,omitempty"`
	OrderID      string          `json:"order_id,omitempty" yaml:"order_id,omitempty"`
}

// ActivityQuery filters account activities.
type ActivityQuery struct {
	Types     []string
	After     time.Time
	Until     time.Time
	Direction string
	PageSize  int
	// PageToken continues a listing after the activity with this ID.
	PageToken string
}

// ---------------------------------------------------------------------------
// Assets
// ---------------------------------------------------------------------------

// Asset describes a tradable instrument.
type Asset struct {
	ID           string `json:"id" yaml:"id"`
	Symbol       string `json:"symbol" yaml:"symbol"`
	Name         string `json:"name" yaml:"name"`
	Class        string `json:"class" yaml:"class"`
	Exchange     string `json:"exchange" yaml:"exchange"`
	Status       string `json:"status" yaml:"status"`
	Tradable     bool   `json:"tradable" yaml:"tradable"`
	Marginable   bool   `json:"marginable" yaml:"marginable"`
	Shortable    bool   `json:"shortable" yaml:"shortable"`
	EasyToBorrow bool   `json:"easy_to_borrow" yaml:"easy_to_borrow"`
	Fractionable bool   `json:"fractionable" yaml:"fractionable"`
}

// AssetQuery filters the asset listing.
type AssetQuery struct {
	Status   string
	Class    string
	Exchange string
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

// Order is an order as reported by the brokerage.
type Order struct {
	ID             string           `json:"id" yaml:"id"`
	ClientOrderID  string           `json:"client_order_id" yaml:"client_order_id"`
	Symbol         string           `json:"symbol" yaml:"symbol"`
	Side           OrderSide        `json:"side" yaml:"side"`
	Type           OrderType        `json:"type" yaml:"type"`
	Class          OrderClass       `json:"order_class,omitempty" yaml:"order_class,omitempty"`
	TimeInForce    TimeInForce      `json:"time_in_force" yaml:"time_in_force"`
	Status         OrderStatus      `json:"status" yaml:"status"`
	Qty            *decimal.Decimal `json:"qty,omitempty" yaml:"qty,omitempty"`
	Notional       *decimal.Decimal `json:"notional,omitempty" yaml:"notional,omitempty"`
	FilledQty      decimal.Decimal  `json:"filled_qty" yaml:"filled_qty"`
	FilledAvgPrice *decimal.Decimal `json:"filled_avg_price,omitempty" yaml:"filled_avg_price,omitempty"`
	LimitPrice     *decimal.Decimal `json:"limit_price,omitempty" yaml:"limit_price,omitempty"`
	StopPrice      *decimal.Decimal `json:"stop_price,omitempty" yaml:"stop_price,omitempty"`
	ExtendedHours  bool             `json:"extended_hours" yaml:"extended_hours"`
	CreatedAt      time.Time        `json:"created_at" yaml:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" yaml:"updated_at"`
	FilledAt       *time.Time       `json:"filled_at,omitempty" yaml:"filled_at,omitempty"`
	Legs           []Order          `json:"legs,omitempty" yaml:"legs,omitempty"`
}

// OrderRequest is a new order to submit.
type OrderRequest struct {
	Symbol          string
	Side            OrderSide
	Qty             *decimal.Decimal
	Notional        *decimal.Decimal
	LimitPrice      *decimal.Decimal
	StopPrice       *decimal.Decimal
	TakeProfitPrice *decimal.Decimal
	TimeInForce     TimeInForce
	ExtendedHours   bool
	ClientOrderID   string
}

// Type derives the order type from the prices present.
func (r OrderRequest) Type() OrderType {
	switch {
	case r.LimitPrice != nil && r.StopPrice != nil:
		return OrderTypeStopLimit
	case r.LimitPrice != nil:
		return OrderTypeLimit
	case r.StopPrice != nil:
		return OrderTypeStop
	default:
		return OrderTypeMarket
	}
}

// Class derives the order class; a take-profit price turns the order into a
// one-triggers-other order.
func (r OrderRequest) Class() OrderClass {
	if r.TakeProfitPrice != nil {
		return OrderClassOTO
	}
	return OrderClassSimple
}

// OrderChange carries the fields of an order replacement; nil fields are
// left unchanged.
type OrderChange struct {
	Qty         *decimal.Decimal
	LimitPrice  *decimal.Decimal
	StopPrice   *decimal.Decimal
	TimeInForce TimeInForce
}

// Empty reports whether the change modifies nothing.
func (c OrderChange) Empty() bool {
	return c.Qty == nil && c.LimitPrice == nil && c.StopPrice == nil && c.TimeInForce == ""
}

// OrderQuery filters order listings.
type OrderQuery struct {
	Status  OrderQueryStatus
	Symbols []string
	Limit   int
	Nested  bool
	// Until keeps orders created no later than this time.
	Until time.Time
}

// ---------------------------------------------------------------------------
// Positions
// ---------------------------------------------------------------------------

// Position is an open position held at the brokerage.
type Position struct {
	Symbol           string           `json:"symbol" yaml:"symbol"`
	AssetID          string           `json:"asset_id" yaml:"asset_id"`
	Exchange         string           `json:"exchange" yaml:"exchange"`
	Side             PositionSide     `json:"side" yaml:"side"`
	Qty              decimal.Decimal  `json:"qty" yaml:"qty"`
	QtyAvailable     decimal.Decimal  `json:"qty_available" yaml:"qty_available"`
	AvgEntryPrice    decimal.Decimal  `json:"avg_entry_price" yaml:"avg_entry_price"`
	CostBasis        decimal.Decimal  `json:"cost_basis" yaml:"cost_basis"`
	CurrentPrice     *decimal.Decimal `json:"current_price,omitempty" yaml:"current_price,omitempty"`
	MarketValue      *decimal.Decimal `json:"market_value,omitempty" yaml:"market_value,omitempty"`
	UnrealizedPL     *decimal.Decimal `json:"unrealized_pl,omitempty" yaml:"unrealized_pl,omitempty"`
	UnrealizedPLPC   *decimal.Decimal `json:"unrealized_plpc,omitempty" yaml:"unrealized_plpc,omitempty"`
	IntradayPL       *decimal.Decimal `json:"unrealized_intraday_pl,omitempty" yaml:"unrealized_intraday_pl,omitempty"`
	IntradayPLPC     *decimal.Decimal `json:"unrealized_intraday_plpc,omitempty" yaml:"unrealized_intraday_plpc,omitempty"`
	ChangeToday      *decimal.Decimal `json:"change_today,omitempty" yaml:"change_today,omitempty"`
}

// ClosePositionRequest limits a liquidation to a quantity or a percentage.
// Both zero closes the whole position.
type ClosePositionRequest struct {
	Qty        decimal.Decimal
	Percentage decimal.Decimal
}

// ---------------------------------------------------------------------------
// Market
// ---------------------------------------------------------------------------

// Clock is the market clock.
type Clock struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	IsOpen    bool      `json:"is_open" yaml:"is_open"`
	NextOpen  time.Time `json:"next_open" yaml:"next_open"`
	NextClose time.Time `json:"next_close" yaml:"next_close"`
}

// CalendarDay is a single trading day.
type CalendarDay struct {
	Date  string `json:"date" yaml:"date"`
	Open  string `json:"open" yaml:"open"`
	Close string `json:"close" yaml:"close"`
}

// Bar is an OHLCV bar.
type Bar struct {
	Symbol     string    `json:"symbol" yaml:"symbol"`
	Timestamp  time.Time `json:"timestamp" yaml:"timestamp"`
	Open       float64   `json:"open" yaml:"open"`
	High       float64   `json:"high" yaml:"high"`
	Low        float64   `json:"low" yaml:"low"`
	Close      float64   `json:"close" yaml:"close"`
	Volume     int64     `json:"volume" yaml:"volume"`
	TradeCount int64     `json:"trade_count" yaml:"trade_count"`
	VWAP       float64   `json:"vwap" yaml:"vwap"`
}

// BarQuery selects historical bars for one symbol.
type BarQuery struct {
	Symbol     string
	TimeFrame  TimeFrame
	Start      time.Time
	End        time.Time
	Limit      int
	Feed       string
	Adjustment string
}

// NewsArticle is a single news item.
type NewsArticle struct {
	ID        int64     `json:"id" yaml:"id"`
	Time      time.Time `json:"time" yaml:"time"`
	Author    string    `json:"author" yaml:"author"`
	Headline  string    `json:"headline" yaml:"headline"`
	Summary   string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	Content   string    `json:"content,omitempty" yaml:"content,omitempty"`
	URL       string    `json:"url,omitempty" yaml:"url,omitempty"`
	Symbols   []string  `json:"symbols,omitempty" yaml:"symbols,omitempty"`
}

// NewsQuery selects news for a symbol.
type NewsQuery struct {
	Symbol string
	Start  time.Time
	End    time.Time
	Limit  int
}

// Watchlist is a named list of assets.
type Watchlist struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
	Assets    []Asset   `json:"assets,omitempty" yaml:"assets,omitempty"`
}

// ---------------------------------------------------------------------------
// Stream events
// ---------------------------------------------------------------------------

// TradeUpdate is an order lifecycle event from the account stream.
type TradeUpdate struct {
	Event       string           `json:"event" yaml:"event"`
	At          time.Time        `json:"at" yaml:"at"`
	Price       *decimal.Decimal `json:"price,omitempty" yaml:"price,omitempty"`
	Qty         *decimal.Decimal `json:"qty,omitempty" yaml:"qty,omitempty"`
	PositionQty *decimal.Decimal `json:"position_qty,omitempty" yaml:"position_qty,omitempty"`
	Order       Order            `json:"order" yaml:"order"`
}

// Trade is a market data trade print.
type Trade struct {
	Symbol    string    `json:"symbol" yaml:"symbol"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Price     float64   `json:"price" yaml:"price"`
	Size      int64     `json:"size" yaml:"size"`
	Exchange  string    `json:"exchange" yaml:"exchange"`
	ID        int64     `json:"id" yaml:"id"`
}

// Quote is a market data top-of-book quote.
type Quote struct {
	Symbol    string    `json:"symbol" yaml:"symbol"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	BidPrice  float64   `json:"bid_price" yaml:"bid_price"`
	BidSize   int64     `json:"bid_size" yaml:"bid_size"`
	AskPrice  float64   `json:"ask_price" yaml:"ask_price"`
	AskSize   int64     `json:"ask_size" yaml:"ask_size"`
}

// Event is anything the stream relay can print: *TradeUpdate, *Trade,
// *Quote or *Bar.
type Event interface{}
