package broker

import (
	"fmt"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"apcacli/internal/domain"
)

func toAccount(a *alpaca.Account) *domain.Account {
	return &domain.Account{
		ID:                   a.ID,
		AccountNumber:        a.AccountNumber,
		Status:               string(a.Status),
		Currency:             a.Currency,
		BuyingPower:          a.BuyingPower,
		Cash:                 a.Cash,
		Equity:               a.Equity,
		LastEquity:           a.LastEquity,
		LongMarketValue:      a.LongMarketValue,
		ShortMarketValue:     a.ShortMarketValue,
		DaytradeCount:        a.DaytradeCount,
		PatternDayTrader:     a.PatternDayTrader,
		TradingBlocked:       a.TradingBlocked,
		TransfersBlocked:     a.TransfersBlocked,
		AccountBlocked:       a.AccountBlocked,
		ShortingEnabled:      a.ShortingEnabled,
		TradeSuspendedByUser: a.TradeSuspendedByUser,
		CreatedAt:            a.CreatedAt,
	}
}

func toAccountConfig(c *alpaca.AccountConfigurations) *domain.AccountConfig {
	return &domain.AccountConfig{
		TradeConfirmEmail: string(c.TradeConfirmEmail) == "all",
		TradeSuspended:    c.TradeSuspendedByUser,
		NoShorting:        c.NoShorting,
		DTBPCheck:         string(c.DTBPCheck),
	}
}

func toActivity(a alpaca.AccountActivity) domain.Activity {
	return domain.Activity{
		ID:           a.ID,
		ActivityType: a.ActivityType,
		Time:         a.TransactionTime,
		Date:         a.Date.String(),
		Symbol:       a.Symbol,
		Side:         a.Side,
		Qty:          a.Qty,
		Price:        a.Price,
		NetAmount:    a.NetAmount,
		Description:  a.Description,
		OrderID:      a.OrderID,
	}
}

func toAsset(a alpaca.Asset) domain.Asset {
	return domain.Asset{
		ID:           a.ID,
		Symbol:       a.Symbol,
		Name:         a.Name,
		Class:        string(a.Class),
		Exchange:     a.Exchange,
		Status:       string(a.Status),
		Tradable:     a.Tradable,
		Marginable:   a.Marginable,
		Shortable:    a.Shortable,
		EasyToBorrow: a.EasyToBorrow,
		Fractionable: a.Fractionable,
	}
}

func toOrder(o alpaca.Order) domain.Order {
	out := domain.Order{
		ID:             o.ID,
		ClientOrderID:  o.ClientOrderID,
		Symbol:         o.Symbol,
		Side:           domain.OrderSide(o.Side),
		Type:           domain.OrderType(o.Type),
		Class:          domain.OrderClass(o.OrderClass),
		TimeInForce:    domain.TimeInForce(o.TimeInForce),
		Status:         domain.OrderStatus(o.Status),
		Qty:            o.Qty,
		Notional:       o.Notional,
		FilledQty:      o.FilledQty,
		FilledAvgPrice: o.FilledAvgPrice,
		LimitPrice:     o.LimitPrice,
		StopPrice:      o.StopPrice,
		ExtendedHours:  o.ExtendedHours,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		FilledAt:       o.FilledAt,
	}
	if len(o.Legs) > 0 {
		out.Legs = toOrders(o.Legs)
	}
	return out
}

func toOrders(orders []alpaca.Order) []domain.Order {
	out := make([]domain.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrder(o))
	}
	return out
}

func toPosition(p alpaca.Position) domain.Position {
	return domain.Position{
		Symbol:         p.Symbol,
		AssetID:        p.AssetID,
		Exchange:       p.Exchange,
		Side:           domain.PositionSide(p.Side),
		Qty:            p.Qty,
		QtyAvailable:   p.QtyAvailable,
		AvgEntryPrice:  p.AvgEntryPrice,
		CostBasis:      p.CostBasis,
		CurrentPrice:   p.CurrentPrice,
		MarketValue:    p.MarketValue,
		UnrealizedPL:   p.UnrealizedPL,
		UnrealizedPLPC: p.UnrealizedPLPC,
		IntradayPL:     p.UnrealizedIntradayPL,
		IntradayPLPC:   p.UnrealizedIntradayPLPC,
		ChangeToday:    p.ChangeToday,
	}
}

// toWatchlist converts a watchlist. The API reports its timestamps as
// RFC 3339 strings.
func toWatchlist(w alpaca.Watchlist) (domain.Watchlist, error) {
	created, err := time.Parse(time.RFC3339, w.CreatedAt)
	if err != nil {
		return domain.Watchlist{}, fmt.Errorf("watchlist %s created_at: %w", w.ID, err)
	}
	updated, err := time.Parse(time.RFC3339, w.UpdatedAt)
	if err != nil {
		return domain.Watchlist{}, fmt.Errorf("watchlist %s updated_at: %w", w.ID, err)
	}
	wl := domain.Watchlist{
		ID:        w.ID,
		Name:      w.Name,
		CreatedAt: created,
		UpdatedAt: updated,
	}
	for _, a := range w.Assets {
		wl.Assets = append(wl.Assets, toAsset(a))
	}
	return wl, nil
}

func toTradeUpdate(tu alpaca.TradeUpdate) domain.TradeUpdate {
	return domain.TradeUpdate{
		Event:       tu.Event,
		At:          tu.At,
		Price:       tu.Price,
		Qty:         tu.Qty,
		PositionQty: tu.PositionQty,
		Order:       toOrder(tu.Order),
	}
}

func toTimeFrame(tf domain.TimeFrame) marketdata.TimeFrame {
	if tf.N == 0 {
		return marketdata.OneDay
	}
	return marketdata.NewTimeFrame(tf.N, marketdata.TimeFrameUnit(tf.Unit))
}
