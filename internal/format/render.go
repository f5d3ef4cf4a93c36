package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"apcacli/internal/domain"
)

const timeLayout = "2006-01-02 15:04:05 MST"

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(domain.MarketTimeZone).Format(timeLayout)
}

func fmtTimePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return fmtTime(*t)
}

// Account prints an account snapshot.
func (p *Printer) Account(a *domain.Account) error {
	return p.emit(a, func() {
		cur := " " + a.Currency
		if a.Currency == "" {
			cur = ""
		}
		day := a.DayChange()
		var dayPct *decimal.Decimal
		if !a.LastEquity.IsZero() {
			pct := day.Div(a.LastEquity)
			dayPct = &pct
		}
		p.fields("account "+a.AccountNumber, []field{
			{"id", a.ID},
			{"status", a.Status},
			{"buying power", FormatMoney(a.BuyingPower) + cur},
			{"cash", FormatMoney(a.Cash) + cur},
			{"equity", FormatMoney(a.Equity) + cur},
			{"last equity", FormatMoney(a.LastEquity) + cur},
			{"day change", p.change(&day) + cur + " (" + p.percent(dayPct) + ")"},
			{"long value", FormatMoney(a.LongMarketValue) + cur},
			{"short value", FormatMoney(a.ShortMarketValue) + cur},
			{"day trades", fmt.Sprint(a.DaytradeCount)},
			{"pattern day trader", yesNo(a.PatternDayTrader)},
			{"shorting enabled", yesNo(a.ShortingEnabled)},
			{"trading blocked", yesNo(a.TradingBlocked)},
			{"transfers blocked", yesNo(a.TransfersBlocked)},
			{"account blocked", yesNo(a.AccountBlocked)},
			{"trading suspended", yesNo(a.TradeSuspendedByUser)},
			{"created", fmtTime(a.CreatedAt)},
		})
	})
}

// AccountConfig prints the user-modifiable account settings.
func (p *Printer) AccountConfig(c *domain.AccountConfig) error {
	return p.emit(c, func() {
		p.fields("", []field{
			{"trade confirmation emails", yesNo(c.TradeConfirmEmail)},
			{"trading suspended", yesNo(c.TradeSuspended)},
			{"shorting", yesNo(!c.NoShorting)},
			{"day trading buying power check", c.DTBPCheck},
		})
	})
}

// Activities prints account activities, newest as returned.
func (p *Printer) Activities(acts []domain.Activity) error {
	return p.emit(acts, func() {
		rows := make([][]string, 0, len(acts))
		for _, a := range acts {
			when := a.Date
			if !a.Time.IsZero() {
				when = fmtTime(a.Time)
			}
			qty, price, net := "", "", ""
			if !a.Qty.IsZero() {
				qty = FormatQty(a.Qty)
			}
			if !a.Price.IsZero() {
				price = FormatMoney(a.Price)
			}
			if !a.NetAmount.IsZero() {
				net = p.colorize(a.NetAmount, FormatChange(a.NetAmount))
			}
			rows = append(rows, []string{when, a.ActivityType, a.Symbol, a.Side, qty, price, net, a.Description})
		}
		p.table([]string{"TIME", "TYPE", "SYMBOL", "SIDE", "QTY", "PRICE", "NET", "DESCRIPTION"}, rows)
	})
}

// Asset prints a single asset.
func (p *Printer) Asset(a *domain.Asset) error {
	return p.emit(a, func() {
		p.fields(a.Symbol, []field{
			{"id", a.ID},
			{"name", a.Name},
			{"class", a.Class},
			{"exchange", a.Exchange},
			{"status", a.Status},
			{"tradable", yesNo(a.Tradable)},
			{"marginable", yesNo(a.Marginable)},
			{"shortable", yesNo(a.Shortable)},
			{"easy to borrow", yesNo(a.EasyToBorrow)},
			{"fractionable", yesNo(a.Fractionable)},
		})
	})
}

// Assets prints an asset listing.
func (p *Printer) Assets(assets []domain.Asset) error {
	return p.emit(assets, func() {
		rows := make([][]string, 0, len(assets))
		for _, a := range assets {
			rows = append(rows, []string{
				p.symbol.Render(a.Symbol), a.Name, a.Class, a.Exchange, a.Status,
				yesNo(a.Tradable), yesNo(a.Shortable), yesNo(a.Fractionable),
			})
		}
		p.table([]string{"SYMBOL", "NAME", "CLASS", "EXCHANGE", "STATUS", "TRADABLE", "SHORTABLE", "FRACTIONABLE"}, rows)
	})
}

// amount describes what an order trades: a share quantity or a notional.
func amount(o domain.Order) string {
	switch {
	case o.Qty != nil:
		return FormatQty(*o.Qty)
	case o.Notional != nil:
		return "$" + FormatMoney(*o.Notional)
	default:
		return "-"
	}
}

// Order prints a single order including its legs.
func (p *Printer) Order(o *domain.Order) error {
	return p.emit(o, func() {
		p.orderFields(*o, "")
	})
}

func (p *Printer) orderFields(o domain.Order, prefix string) {
	fs := []field{
		{"id", o.ID},
		{"client id", o.ClientOrderID},
		{"status", string(o.Status)},
		{"side", string(o.Side)},
		{"amount", amount(o)},
		{"type", string(o.Type)},
		{"limit price", FormatMoneyPtr(o.LimitPrice)},
		{"stop price", FormatMoneyPtr(o.StopPrice)},
		{"time in force", string(o.TimeInForce)},
		{"extended hours", yesNo(o.ExtendedHours)},
		{"filled", FormatQty(o.FilledQty)},
		{"avg fill price", FormatMoneyPtr(o.FilledAvgPrice)},
		{"created", fmtTime(o.CreatedAt)},
		{"updated", fmtTime(o.UpdatedAt)},
		{"filled at", fmtTimePtr(o.FilledAt)},
	}
	if o.Class != "" && o.Class != domain.OrderClassSimple {
		fs = append(fs, field{"class", string(o.Class)})
	}
	p.fields(prefix+o.Symbol, fs)
	for i, leg := range o.Legs {
		fmt.Fprintln(p.w)
		p.orderFields(leg, fmt.Sprintf("leg %d: ", i+1))
	}
}

// Orders prints an order listing. Legs of nested orders follow their parent
// with an indented symbol.
func (p *Printer) Orders(orders []domain.Order) error {
	return p.emit(orders, func() {
		var rows [][]string
		var add func(o domain.Order, indent string)
		add = func(o domain.Order, indent string) {
			rows = append(rows, []string{
				o.ID, indent + p.symbol.Render(o.Symbol), string(o.Side), amount(o), string(o.Type),
				FormatMoneyPtr(o.LimitPrice), FormatMoneyPtr(o.StopPrice), string(o.TimeInForce),
				string(o.Status), FormatQty(o.FilledQty),
			})
			for _, leg := range o.Legs {
				add(leg, indent+"  ")
			}
		}
		for _, o := range orders {
			add(o, "")
		}
		p.table([]string{"ID", "SYMBOL", "SIDE", "AMOUNT", "TYPE", "LIMIT", "STOP", "TIF", "STATUS", "FILLED"}, rows)
	})
}

// Position prints a single position.
func (p *Printer) Position(pos *domain.Position) error {
	return p.emit(pos, func() {
		p.fields(pos.Symbol, []field{
			{"side", string(pos.Side)},
			{"quantity", FormatQty(pos.Qty)},
			{"available", FormatQty(pos.QtyAvailable)},
			{"avg entry price", FormatMoney(pos.AvgEntryPrice)},
			{"cost basis", FormatMoney(pos.CostBasis)},
			{"current price", FormatMoneyPtr(pos.CurrentPrice)},
			{"market value", FormatMoneyPtr(pos.MarketValue)},
			{"unrealized p/l", p.change(pos.UnrealizedPL) + " (" + p.percent(pos.UnrealizedPLPC) + ")"},
			{"today p/l", p.change(pos.IntradayPL) + " (" + p.percent(pos.IntradayPLPC) + ")"},
			{"change today", p.percent(pos.ChangeToday)},
		})
	})
}

// Positions prints a position listing with a total row.
func (p *Printer) Positions(positions []domain.Position) error {
	return p.emit(positions, func() {
		rows := make([][]string, 0, len(positions)+1)
		var value, cost, pl, today decimal.Decimal
		for _, pos := range positions {
			rows = append(rows, []string{
				p.symbol.Render(pos.Symbol), FormatQty(pos.Qty), FormatMoney(pos.AvgEntryPrice),
				FormatMoneyPtr(pos.CurrentPrice), FormatMoneyPtr(pos.MarketValue),
				p.change(pos.UnrealizedPL), p.percent(pos.UnrealizedPLPC),
				p.change(pos.IntradayPL), p.percent(pos.IntradayPLPC),
			})
			cost = cost.Add(pos.CostBasis)
			if pos.MarketValue != nil {
				value = value.Add(*pos.MarketValue)
			}
			if pos.UnrealizedPL != nil {
				pl = pl.Add(*pos.UnrealizedPL)
			}
			if pos.IntradayPL != nil {
				today = today.Add(*pos.IntradayPL)
			}
		}
		if len(positions) > 1 {
			var plpc *decimal.Decimal
			if !cost.IsZero() {
				v := pl.Div(cost.Abs())
				plpc = &v
			}
			rows = append(rows, []string{
				p.dim.Render("total"), "", "", "", FormatMoney(value),
				p.change(&pl), p.percent(plpc), p.change(&today), "",
			})
		}
		p.table([]string{"SYMBOL", "QTY", "AVG ENTRY", "PRICE", "VALUE", "P/L", "P/L %", "TODAY", "TODAY %"}, rows)
	})
}

// Clock prints the market clock.
func (p *Printer) Clock(c *domain.Clock) error {
	return p.emit(c, func() {
		state := p.loss.Render("closed")
		if c.IsOpen {
			state = p.gain.Render("open")
		}
		p.fields("", []field{
			{"market", state},
			{"now", fmtTime(c.Timestamp)},
			{"next open", fmtTime(c.NextOpen)},
			{"next close", fmtTime(c.NextClose)},
		})
	})
}

// Calendar prints trading days.
func (p *Printer) Calendar(days []domain.CalendarDay) error {
	return p.emit(days, func() {
		rows := make([][]string, 0, len(days))
		for _, d := range days {
			rows = append(rows, []string{d.Date, d.Open, d.Close})
		}
		p.table([]string{"DATE", "OPEN", "CLOSE"}, rows)
	})
}

// Bars prints historical bars.
func (p *Printer) Bars(bars []domain.Bar) error {
	return p.emit(bars, func() {
		rows := make([][]string, 0, len(bars))
		for _, b := range bars {
			rows = append(rows, []string{
				fmtTime(b.Timestamp), FormatPrice(b.Open), FormatPrice(b.High), FormatPrice(b.Low),
				p.barClose(b), FormatCompact(float64(b.Volume)), FormatInt(b.TradeCount), FormatPrice(b.VWAP),
			})
		}
		p.table([]string{"TIME", "OPEN", "HIGH", "LOW", "CLOSE", "VOLUME", "TRADES", "VWAP"}, rows)
	})
}

// barClose colors the close against the open.
func (p *Printer) barClose(b domain.Bar) string {
	s := FormatPrice(b.Close)
	switch {
	case b.Close > b.Open:
		return p.gain.Render(s)
	case b.Close < b.Open:
		return p.loss.Render(s)
	default:
		return s
	}
}

// News prints news articles. excerpt maps an article to the text shown below
// its headline; nil shows the summary.
func (p *Printer) News(articles []domain.NewsArticle, excerpt func(domain.NewsArticle) string) error {
	return p.emit(articles, func() {
		if len(articles) == 0 {
			fmt.Fprintln(p.w, p.dim.Render("(none)"))
			return
		}
		for i, a := range articles {
			if i > 0 {
				fmt.Fprintln(p.w)
			}
			fmt.Fprintf(p.w, "%s  %s\n", p.dim.Render(fmtTime(a.Time)), p.dim.Render(a.Author))
			fmt.Fprintf(p.w, "  %s\n", p.symbol.Render(a.Headline))
			text := a.Summary
			if excerpt != nil {
				text = excerpt(a)
			}
			if text != "" {
				fmt.Fprintf(p.w, "  %s\n", text)
			}
			if a.URL != "" {
				fmt.Fprintf(p.w, "  %s\n", p.dim.Render(a.URL))
			}
		}
	})
}

// Watchlists prints a watchlist listing.
func (p *Printer) Watchlists(lists []domain.Watchlist) error {
	return p.emit(lists, func() {
		rows := make([][]string, 0, len(lists))
		for _, w := range lists {
			rows = append(rows, []string{w.ID, w.Name, fmtTime(w.UpdatedAt)})
		}
		p.table([]string{"ID", "NAME", "UPDATED"}, rows)
	})
}

// Watchlist prints one watchlist with its symbols.
func (p *Printer) Watchlist(w *domain.Watchlist) error {
	return p.emit(w, func() {
		syms := make([]string, 0, len(w.Assets))
		for _, a := range w.Assets {
			syms = append(syms, a.Symbol)
		}
		p.fields(w.Name, []field{
			{"id", w.ID},
			{"updated", fmtTime(w.UpdatedAt)},
			{"symbols", strings.Join(syms, " ")},
		})
	})
}
