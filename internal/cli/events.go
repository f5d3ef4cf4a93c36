package cli

import (
	"github.com/spf13/cobra"

	"apcacli/internal/broker"
	"apcacli/internal/stream"
)

func newEventsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream realtime events until interrupted",
	}

	account := newAccountEventsCmd(app, "account")
	account.Aliases = []string{"updates", "trades"}

	var trades, quotes, bars bool
	feed := newChoice("", "iex", "sip", "delayed_sip", "otc")
	data := &cobra.Command{
		Use:   "data SYMBOL...",
		Short: "Stream market data for symbols (use * for all)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			sub := broker.Subscription{
				Symbols: upperAll(args),
				Trades:  trades,
				Quotes:  quotes,
				Bars:    bars,
				Feed:    feed.v,
			}
			return stream.NewRelay(b, app.printer, app.log).MarketData(cmd.Context(), sub)
		},
	}
	data.Flags().BoolVar(&trades, "trades", false, "stream trades (the default)")
	data.Flags().BoolVar(&quotes, "quotes", false, "stream quotes")
	data.Flags().BoolVar(&bars, "bars", false, "stream minute bars")
	data.Flags().Var(feed, "feed", "data feed (default from configuration, else iex)")

	cmd.AddCommand(account, data)
	return cmd
}

// newUpdatesCmd is the top-level shortcut for "events account".
func newUpdatesCmd(app *App) *cobra.Command {
	cmd := newAccountEventsCmd(app, "updates")
	cmd.Short = "Stream account trade updates (shortcut for events account)"
	return cmd
}

func newAccountEventsCmd(app *App, use string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: "Stream order updates for the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			return stream.NewRelay(b, app.printer, app.log).TradeUpdates(cmd.Context())
		},
	}
}
