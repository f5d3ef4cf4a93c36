// Package safeguard checks that long positions are covered by a
// valid-until-canceled stop-loss sell order priced above the entry price,
// and proposes the apcacli commands that would make them so.
package safeguard

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"apcacli/internal/domain"
)

// Markups over the average entry price, in basis points.
const (
	LimitMarkupBP = 10
	StopMarkupBP  = 100
)

var basis = decimal.NewFromInt(10_000)

// Options controls the evaluation.
type Options struct {
	// CLI is the command name used in proposed commands.
	CLI string
	// Symbols restricts the evaluation; empty means every position.
	Symbols []string
	// StopPercent overrides the stop markup, in percent of the entry price.
	StopPercent *int64
	// MinValue skips uncovered positions worth less than this.
	MinValue *decimal.Decimal
	// MinGainPercent skips uncovered positions gaining less than this.
	MinGainPercent int64
}

// Advice is a command that brings one position's stop-loss order in line.
type Advice struct {
	Symbol  string
	Command string
}

func (a Advice) String() string {
	return a.Symbol + ":\n" + a.Command
}

// Evaluator evaluates positions against open orders.
type Evaluator struct {
	opts Options
	log  *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts Options, log *slog.Logger) *Evaluator {
	if opts.CLI == "" {
		opts.CLI = "apcacli"
	}
	if log == nil {
		log = slog.Default()
	}
	return &Evaluator{opts: opts, log: log.With("component", "safeguard")}
}

// Factors returns the multipliers applied to the entry price for the limit
// and stop price.
func (e *Evaluator) Factors() (limit, stop decimal.Decimal) {
	stopBP := int64(StopMarkupBP)
	if e.opts.StopPercent != nil {
		stopBP = *e.opts.StopPercent * 100
	}
	limit = basis.Add(decimal.NewFromInt(LimitMarkupBP)).Div(basis)
	stop = basis.Add(decimal.NewFromInt(stopBP)).Div(basis)
	return limit, stop
}

// Evaluate returns advice for every selected position that lacks a
// satisfying stop-loss order. Positions that cannot be evaluated produce an
// error each; the other positions are still evaluated.
func (e *Evaluator) Evaluate(positions []domain.Position, orders []domain.Order) ([]Advice, error) {
	want := make(map[string]bool, len(e.opts.Symbols))
	for _, s := range e.opts.Symbols {
		want[strings.ToUpper(s)] = true
	}

	var advice []Advice
	var errs []error
	for _, p := range positions {
		if len(want) > 0 && !want[strings.ToUpper(p.Symbol)] {
			continue
		}
		a, err := e.evaluate(p, orders)
		if err != nil {
			errs = append(errs, fmt.Errorf("evaluating %s position: %w", p.Symbol, err))
			continue
		}
		if a != nil {
			advice = append(advice, *a)
		}
	}
	return advice, errors.Join(errs...)
}

func (e *Evaluator) evaluate(p domain.Position, orders []domain.Order) (*Advice, error) {
	log := e.log.With("symbol", p.Symbol)
	if p.Side == domain.PositionSideShort || p.Qty.IsNegative() {
		return nil, errors.New("only long positions are supported")
	}

	limitFactor, stopFactor := e.Factors()
	desiredLimit := p.AvgEntryPrice.Mul(limitFactor).Round(2)
	desiredStop := p.AvgEntryPrice.Mul(stopFactor).Round(2)

	var stopOrder *domain.Order
	for i := range orders {
		o := &orders[i]
		if o.Symbol != p.Symbol || o.Side != domain.OrderSideSell || o.StopPrice == nil {
			continue
		}
		if stopOrder != nil {
			return nil, errors.New("found multiple stop-loss orders")
		}
		if o.TimeInForce != domain.TimeInForceGTC {
			return nil, fmt.Errorf("opposing order %s is not valid-until-canceled", o.ID)
		}
		if o.Qty == nil {
			return nil, errors.New("notional orders are not supported")
		}
		stopOrder = o
	}

	if stopOrder != nil {
		limit := decimal.Zero
		if stopOrder.LimitPrice != nil {
			limit = *stopOrder.LimitPrice
		}
		if stopOrder.Qty.Equal(p.Qty) && !limit.LessThan(desiredLimit) && !stopOrder.StopPrice.LessThan(desiredStop) {
			log.Info("order is a satisfying stop-loss order", "id", stopOrder.ID)
			return nil, nil
		}
		return &Advice{
			Symbol: p.Symbol,
			Command: fmt.Sprintf("%s order change %s --quantity %s --limit-price %s --stop-price %s",
				e.opts.CLI, stopOrder.ID, p.Qty, desiredLimit.StringFixed(2), desiredStop.StringFixed(2)),
		}, nil
	}

	gain := decimal.Zero
	if p.UnrealizedPLPC != nil {
		gain = p.UnrealizedPLPC.Mul(decimal.NewFromInt(100))
	}
	if gain.LessThan(decimal.NewFromInt(e.opts.MinGainPercent)) {
		log.Info("total gain is below threshold", "gain_percent", gain.StringFixed(2), "min", e.opts.MinGainPercent)
		return nil, nil
	}
	if e.opts.MinValue != nil {
		price := decimal.Zero
		if p.CurrentPrice != nil {
			price = *p.CurrentPrice
		}
		value := p.Qty.Mul(price)
		if value.LessThan(*e.opts.MinValue) {
			log.Info("total value is below threshold", "value", value.StringFixed(2), "min", e.opts.MinValue.String())
			return nil, nil
		}
	}
	return &Advice{
		Symbol: p.Symbol,
		Command: fmt.Sprintf("%s order submit sell %s --quantity %s --limit-price %s --stop-price %s",
			e.opts.CLI, p.Symbol, p.Qty, desiredLimit.StringFixed(2), desiredStop.StringFixed(2)),
	}, nil
}
