package format

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"apcacli/internal/domain"
)

// envelope tags a stream event with its kind in the structured modes.
type envelope struct {
	Type string `json:"type" yaml:"type"`
	Data any    `json:"data" yaml:"data"`
}

// EventKind names the kind of a stream event.
func EventKind(ev domain.Event) string {
	switch ev.(type) {
	case *domain.TradeUpdate:
		return "trade_update"
	case *domain.Trade:
		return "trade"
	case *domain.Quote:
		return "quote"
	case *domain.Bar:
		return "bar"
	default:
		return "unknown"
	}
}

// Event prints a single stream event. JSON mode writes one compact object
// per line; YAML mode writes one document per event.
func (p *Printer) Event(ev domain.Event) error {
	env := envelope{Type: EventKind(ev), Data: ev}
	switch p.mode {
	case ModeJSON:
		return json.NewEncoder(p.w).Encode(env)
	case ModeYAML:
		out, err := yaml.Marshal(env)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.w, "---\n%s", out)
		return err
	}
	_, err := fmt.Fprintln(p.w, p.EventLine(ev))
	return err
}

// EventLine renders a stream event as one line of text.
func (p *Printer) EventLine(ev domain.Event) string {
	switch e := ev.(type) {
	case *domain.TradeUpdate:
		return p.tradeUpdateLine(e)
	case *domain.Trade:
		return fmt.Sprintf("%s  %-5s  %s  %s x %s  %s",
			p.dim.Render(fmtTime(e.Timestamp)), "TRADE", p.symbol.Render(e.Symbol),
			FormatPrice(e.Price), FormatInt(e.Size), e.Exchange)
	case *domain.Quote:
		return fmt.Sprintf("%s  %-5s  %s  %s x %s / %s x %s",
			p.dim.Render(fmtTime(e.Timestamp)), "QUOTE", p.symbol.Render(e.Symbol),
			FormatPrice(e.BidPrice), FormatInt(e.BidSize), FormatPrice(e.AskPrice), FormatInt(e.AskSize))
	case *domain.Bar:
		return fmt.Sprintf("%s  %-5s  %s  o %s h %s l %s c %s v %s",
			p.dim.Render(fmtTime(e.Timestamp)), "BAR", p.symbol.Render(e.Symbol),
			FormatPrice(e.Open), FormatPrice(e.High), FormatPrice(e.Low), p.barClose(*e), FormatInt(e.Volume))
	default:
		return fmt.Sprintf("%v", ev)
	}
}

func (p *Printer) tradeUpdateLine(tu *domain.TradeUpdate) string {
	o := tu.Order
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %-16s  %s %s %s",
		p.dim.Render(fmtTime(tu.At)), strings.ToUpper(tu.Event), p.symbol.Render(o.Symbol), o.Side, amount(o))
	switch {
	case tu.Price != nil && tu.Qty != nil:
		fmt.Fprintf(&b, "  filled %s @ %s", FormatQty(*tu.Qty), FormatMoney(*tu.Price))
	case o.LimitPrice != nil:
		fmt.Fprintf(&b, "  limit %s", FormatMoney(*o.LimitPrice))
	}
	fmt.Fprintf(&b, "  position %s", FormatQtyPtr(tu.PositionQty))
	fmt.Fprintf(&b, "  %s", p.dim.Render(o.ID))
	return b.String()
}
