package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"apcacli/internal/domain"
)

func newPositionCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "position",
		Short: "Inspect and close positions",
	}

	get := &cobra.Command{
		Use:   "get SYMBOL",
		Short: "Show a single position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			sym := strings.ToUpper(args[0])
			p, err := b.GetPosition(cmd.Context(), sym)
			if err != nil {
				return fmt.Errorf("retrieving position %s: %w", sym, err)
			}
			return app.printer.Position(p)
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List open positions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			positions, err := b.ListPositions(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing positions: %w", err)
			}
			return app.printer.Positions(positions)
		},
	}

	cmd.AddCommand(get, list, newPositionCloseCmd(app))
	return cmd
}

var hundredPercent = decimal.NewFromInt(100)

func newPositionCloseCmd(app *App) *cobra.Command {
	var (
		qty, pct     amountValue
		cancelOrders bool
	)
	cmd := &cobra.Command{
		Use:   "close SYMBOL|all",
		Short: "Liquidate a position or all positions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			all := args[0] == "all"
			switch {
			case all && (qty.v != nil || pct.v != nil):
				return errors.New("--quantity and --percentage apply to a single position only")
			case !all && cancelOrders:
				return errors.New("--cancel-orders applies to closing all positions only")
			case pct.v != nil && pct.v.GreaterThan(hundredPercent):
				return fmt.Errorf("percentage %s exceeds 100", pct.v)
			}

			b, err := app.api()
			if err != nil {
				return err
			}
			if all {
				orders, err := b.CloseAllPositions(cmd.Context(), cancelOrders)
				if err != nil {
					return fmt.Errorf("closing all positions: %w", err)
				}
				return app.printer.Orders(orders)
			}

			sym := strings.ToUpper(args[0])
			var req domain.ClosePositionRequest
			if qty.v != nil {
				req.Qty = *qty.v
			}
			if pct.v != nil {
				req.Percentage = *pct.v
			}
			o, err := b.ClosePosition(cmd.Context(), sym, req)
			if err != nil {
				return fmt.Errorf("closing position %s: %w", sym, err)
			}
			return app.printer.Order(o)
		},
	}
	f := cmd.Flags()
	f.Var(&qty, "quantity", "number of shares to close")
	f.Var(&pct, "percentage", "percentage of the position to close")
	f.BoolVar(&cancelOrders, "cancel-orders", false, "cancel open orders before closing all positions")
	cmd.MarkFlagsMutuallyExclusive("quantity", "percentage")
	return cmd
}
