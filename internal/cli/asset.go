package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"apcacli/internal/domain"
)

func newAssetCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "asset",
		Short: "Retrieve information about assets",
	}

	get := &cobra.Command{
		Use:   "get SYMBOL|ID",
		Short: "Show a single asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			asset, err := b.GetAsset(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("retrieving asset %s: %w", args[0], err)
			}
			return app.printer.Asset(asset)
		},
	}

	var (
		class    = newChoice("", "us_equity", "crypto")
		status   = newChoice("active", "active", "inactive")
		exchange string
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			assets, err := b.ListAssets(cmd.Context(), domain.AssetQuery{
				Status:   status.v,
				Class:    class.v,
				Exchange: strings.ToUpper(exchange),
			})
			if err != nil {
				return fmt.Errorf("listing assets: %w", err)
			}
			return app.printer.Assets(assets)
		},
	}
	list.Flags().Var(class, "class", "asset class")
	list.Flags().Var(status, "status", "asset status")
	list.Flags().StringVar(&exchange, "exchange", "", "exchange, e.g. NASDAQ or NYSE")

	cmd.AddCommand(get, list)
	return cmd
}
