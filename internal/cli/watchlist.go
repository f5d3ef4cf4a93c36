package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newWatchlistCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watchlist",
		Short: "Manage watchlists",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List watchlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			lists, err := b.ListWatchlists(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing watchlists: %w", err)
			}
			return app.printer.Watchlists(lists)
		},
	}

	get := &cobra.Command{
		Use:   "get ID",
		Short: "Show a watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			w, err := b.GetWatchlist(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("retrieving watchlist %s: %w", args[0], err)
			}
			return app.printer.Watchlist(w)
		},
	}

	create := &cobra.Command{
		Use:   "create NAME [SYMBOL...]",
		Short: "Create a watchlist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			w, err := b.CreateWatchlist(cmd.Context(), args[0], upperAll(args[1:]))
			if err != nil {
				return fmt.Errorf("creating watchlist %s: %w", args[0], err)
			}
			return app.printer.Watchlist(w)
		},
	}

	add := &cobra.Command{
		Use:   "add ID SYMBOL",
		Short: "Add a symbol to a watchlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			sym := strings.ToUpper(args[1])
			w, err := b.AddToWatchlist(cmd.Context(), args[0], sym)
			if err != nil {
				return fmt.Errorf("adding %s to watchlist %s: %w", sym, args[0], err)
			}
			return app.printer.Watchlist(w)
		},
	}

	remove := &cobra.Command{
		Use:   "remove ID SYMBOL",
		Short: "Remove a symbol from a watchlist",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			sym := strings.ToUpper(args[1])
			if err := b.RemoveFromWatchlist(cmd.Context(), args[0], sym); err != nil {
				return fmt.Errorf("removing %s from watchlist %s: %w", sym, args[0], err)
			}
			return app.printer.Message("removed %s from watchlist %s", sym, args[0])
		},
	}

	del := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a watchlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			if err := b.DeleteWatchlist(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("deleting watchlist %s: %w", args[0], err)
			}
			return app.printer.Message("deleted watchlist %s", args[0])
		},
	}

	cmd.AddCommand(list, get, create, add, remove, del)
	return cmd
}

func upperAll(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, strings.ToUpper(s))
	}
	return out
}
