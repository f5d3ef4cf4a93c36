package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"apcacli/internal/domain"
)

func newOrderCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "order",
		Short: "Submit, change, cancel and list orders",
	}
	cmd.AddCommand(
		newOrderSubmitCmd(app),
		newOrderChangeCmd(app),
		newOrderCancelCmd(app),
		newOrderGetCmd(app),
		newOrderListCmd(app),
	)
	return cmd
}

func newOrderSubmitCmd(app *App) *cobra.Command {
	var (
		qty, value, limit, stop, takeProfit amountValue
		tif                                 = tifValue{word: "canceled", v: domain.TimeInForceGTC}
		extended                            bool
		clientID                            string
	)
	cmd := &cobra.Command{
		Use:   "submit SIDE SYMBOL",
		Short: "Submit a new order",
		Long: `Submit a new order. SIDE is buy or sell. The order type follows from the
prices given: none is a market order, --limit-price a limit order,
--stop-price a stop order and both a stop-limit order. A --take-profit-price
attaches a closing limit order that is triggered once this one fills.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			side, err := domain.ParseSide(args[0])
			if err != nil {
				return err
			}
			req := domain.OrderRequest{
				Symbol:          strings.ToUpper(args[1]),
				Side:            side,
				Qty:             qty.v,
				Notional:        value.v,
				LimitPrice:      limit.v,
				StopPrice:       stop.v,
				TakeProfitPrice: takeProfit.v,
				TimeInForce:     tif.v,
				ExtendedHours:   extended,
				ClientOrderID:   clientID,
			}
			if err := validateOrderRequest(req); err != nil {
				return err
			}

			b, err := app.api()
			if err != nil {
				return err
			}
			o, err := b.SubmitOrder(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("submitting order: %w", err)
			}
			return app.printer.Order(o)
		},
	}
	f := cmd.Flags()
	f.Var(&qty, "quantity", "number of shares")
	f.Var(&value, "value", "dollar value to trade (notional order)")
	f.VarP(&limit, "limit-price", "l", "limit price")
	f.VarP(&stop, "stop-price", "s", "stop price")
	f.Var(&takeProfit, "take-profit-price", "limit price of a closing order triggered by a fill")
	f.VarP(&tif, "time-in-force", "t", "how long the order stays valid")
	f.BoolVar(&extended, "extended-hours", false, "allow execution in extended hours (limit orders valid for today only)")
	f.StringVar(&clientID, "client-id", "", "client assigned order id")
	cmd.MarkFlagsOneRequired("quantity", "value")
	cmd.MarkFlagsMutuallyExclusive("quantity", "value")
	return cmd
}

// validateOrderRequest checks combinations the flag parser cannot.
func validateOrderRequest(req domain.OrderRequest) error {
	if (req.Qty == nil) == (req.Notional == nil) {
		return errors.New("exactly one of --quantity and --value is required")
	}
	if req.ExtendedHours && (req.Type() != domain.OrderTypeLimit || req.TimeInForce != domain.TimeInForceDay) {
		return errors.New("extended hours orders must be limit orders valid for today")
	}
	if req.TakeProfitPrice != nil && req.Notional != nil {
		return errors.New("take-profit orders need a --quantity")
	}
	return nil
}

func newOrderChangeCmd(app *App) *cobra.Command {
	var (
		qty, limit, stop amountValue
		tif              tifValue
	)
	cmd := &cobra.Command{
		Use:   "change ID",
		Short: "Change an open order",
		Long: `Replace an open order. Only the given fields are sent; the brokerage
keeps the others and issues a new order id.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseOrderID(args[0])
			if err != nil {
				return err
			}
			chg := domain.OrderChange{Qty: qty.v, LimitPrice: limit.v, StopPrice: stop.v, TimeInForce: tif.v}
			if chg.Empty() {
				return errors.New("no order change given")
			}
			b, err := app.api()
			if err != nil {
				return err
			}
			o, err := b.ChangeOrder(cmd.Context(), id, chg)
			if err != nil {
				return fmt.Errorf("changing order %s: %w", id, err)
			}
			return app.printer.Order(o)
		},
	}
	f := cmd.Flags()
	f.Var(&qty, "quantity", "new number of shares")
	f.VarP(&limit, "limit-price", "l", "new limit price")
	f.VarP(&stop, "stop-price", "s", "new stop price")
	f.VarP(&tif, "time-in-force", "t", "new time in force")
	cmd.MarkFlagsOneRequired("quantity", "limit-price", "stop-price", "time-in-force")
	return cmd
}

func newOrderCancelCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID|all",
		Short: "Cancel an open order or all open orders",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseCancelTarget(args[0])
			if err != nil {
				return err
			}
			b, err := app.api()
			if err != nil {
				return err
			}
			if id == "" {
				if err := b.CancelAllOrders(cmd.Context()); err != nil {
					return fmt.Errorf("canceling all orders: %w", err)
				}
				return app.printer.Message("canceled all open orders")
			}
			if err := b.CancelOrder(cmd.Context(), id); err != nil {
				return fmt.Errorf("canceling order %s: %w", id, err)
			}
			return app.printer.Message("canceled order %s", id)
		},
	}
}

func newOrderGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show a single order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseOrderID(args[0])
			if err != nil {
				return err
			}
			b, err := app.api()
			if err != nil {
				return err
			}
			o, err := b.GetOrder(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("retrieving order %s: %w", id, err)
			}
			return app.printer.Order(o)
		},
	}
}

func newOrderListCmd(app *App) *cobra.Command {
	var (
		closed  bool
		symbols []string
		limit   int
		nested  bool
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List open (or closed) orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q := domain.OrderQuery{Status: domain.OrderQueryOpen, Limit: limit, Nested: nested}
			if closed {
				q.Status = domain.OrderQueryClosed
			}
			for _, s := range symbols {
				q.Symbols = append(q.Symbols, strings.ToUpper(s))
			}
			b, err := app.api()
			if err != nil {
				return err
			}
			orders, err := b.ListOrders(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("listing orders: %w", err)
			}
			return app.printer.Orders(orders)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&closed, "closed", false, "list closed instead of open orders")
	f.StringSliceVar(&symbols, "symbol", nil, "only orders for this symbol (repeatable)")
	f.IntVar(&limit, "limit", 0, "maximum number of orders (0 for the API default)")
	f.BoolVar(&nested, "nested", false, "show legs of multi-leg orders under their parent")
	return cmd
}
