package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"apcacli/internal/domain"
	"apcacli/internal/safeguard"
)

// safeguardOrderLimit bounds the open orders inspected.
const safeguardOrderLimit = 500

// NewSafeguardCmd builds the apcacli-safeguard command. It prints, for every
// position lacking a proper stop-loss order, the apcacli command that would
// create or fix one. Nothing is submitted.
func NewSafeguardCmd(app *App) *cobra.Command {
	var (
		opts        safeguard.Options
		stopPercent uint64
		minValue    thresholdValue
	)
	cmd := &cobra.Command{
		Use:   "apcacli-safeguard [SYMBOL...]",
		Short: "Check that positions have accurate stop-loss orders",
		Long: `Check every long position (or only the given symbols) for a
valid-until-canceled stop-loss sell order above the entry price and print
the apcacli commands that would create or correct one.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Symbols = args
			if !cmd.Flags().Changed("apcacli") {
				if v := os.Getenv("APCACLI"); v != "" {
					opts.CLI = v
				}
			}
			if cmd.Flags().Changed("stop-percent") {
				sp := int64(stopPercent)
				opts.StopPercent = &sp
			}
			opts.MinValue = minValue.v

			b, err := app.api()
			if err != nil {
				return err
			}
			positions, err := b.ListPositions(cmd.Context())
			if err != nil {
				return fmt.Errorf("retrieving position information: %w", err)
			}
			orders, err := b.ListOrders(cmd.Context(), domain.OrderQuery{
				Status: domain.OrderQueryOpen,
				Limit:  safeguardOrderLimit,
			})
			if err != nil {
				return fmt.Errorf("retrieving order information: %w", err)
			}

			advice, err := safeguard.NewEvaluator(opts, app.log).Evaluate(positions, orders)
			for _, a := range advice {
				fmt.Fprintln(app.out(), a.String())
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.CLI, "apcacli", "apcacli", "command used in printed commands (default $APCACLI or apcacli)")
	f.Uint64VarP(&stopPercent, "stop-percent", "s", 0, "set the stop price this many percent above the entry price (default 1)")
	f.VarP(&minValue, "min-value", "m", "minimum position value for creating a stop-loss order")
	f.Int64VarP(&opts.MinGainPercent, "min-gain-percent", "g", 5, "minimum gain in percent for creating a stop-loss order")

	pf := cmd.PersistentFlags()
	pf.CountVarP(&app.verbose, "verbose", "v", "increase log verbosity (can be repeated)")
	pf.StringVar(&app.configPath, "config", "", "config file (default $APCACLI_CONFIG or <user config dir>/apcacli/config.yaml)")
	pf.BoolVar(&app.noColor, "no-color", false, "disable colored output")
	return cmd
}
