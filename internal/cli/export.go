package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"apcacli/internal/broker"
	"apcacli/internal/domain"
	"apcacli/internal/store"
)

// Page sizes used when exporting; each is the API maximum.
const (
	orderPageSize    = 500
	activityPageSize = 100
)

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write bars, orders or activities to a Parquet or SQLite file",
		Long: `Write fetched records to a local file. The format follows from the
file extension: .parquet (bars only) or .db/.sqlite (any record type).
Records already in the file are replaced when their key matches.`,
	}

	var to string
	cmd.PersistentFlags().StringVar(&to, "to", "", "output file (.parquet, .db or .sqlite)")
	_ = cmd.MarkPersistentFlagRequired("to")

	bars := &cobra.Command{
		Use:   "bars SYMBOL",
		Short: "Export historical bars",
		Args:  cobra.ExactArgs(1),
	}
	bf := newBarFlags(bars)
	bars.RunE = func(cmd *cobra.Command, args []string) error {
		b, err := app.api()
		if err != nil {
			return err
		}
		q := bf.query(args[0])
		data, err := b.GetBars(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("retrieving %s bars for %s: %w", q.TimeFrame, q.Symbol, err)
		}
		return app.export(cmd.Context(), to, "bars", len(data), func(ctx context.Context, e store.Exporter) error {
			return e.WriteBars(ctx, data)
		})
	}

	var closed bool
	orders := &cobra.Command{
		Use:   "orders",
		Short: "Export orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			q := domain.OrderQuery{Status: domain.OrderQueryAll, Nested: true}
			if closed {
				q.Status = domain.OrderQueryClosed
			}
			data, err := allOrders(cmd.Context(), b, q)
			if err != nil {
				return fmt.Errorf("listing orders: %w", err)
			}
			return app.export(cmd.Context(), to, "orders", len(data), func(ctx context.Context, e store.Exporter) error {
				return e.WriteOrders(ctx, data)
			})
		},
	}
	orders.Flags().BoolVar(&closed, "closed", false, "export closed orders only")

	var (
		types        []string
		after, until dateValue
	)
	activities := &cobra.Command{
		Use:   "activities",
		Short: "Export account activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			data, err := allActivities(cmd.Context(), b, activityQuery(types, after, until, "desc", 0))
			if err != nil {
				return fmt.Errorf("retrieving account activity: %w", err)
			}
			return app.export(cmd.Context(), to, "activities", len(data), func(ctx context.Context, e store.Exporter) error {
				return e.WriteActivities(ctx, data)
			})
		},
	}
	registerActivityFlags(activities, &types, &after, &until)

	cmd.AddCommand(bars, orders, activities)
	return cmd
}

// allOrders pages backwards through the orders matching q. Each page asks
// for orders created no later than the oldest order seen so far; orders
// sharing that timestamp come back again and are skipped.
func allOrders(ctx context.Context, b broker.Trading, q domain.OrderQuery) ([]domain.Order, error) {
	q.Limit = orderPageSize
	seen := make(map[string]bool)
	var out []domain.Order
	for {
		page, err := b.ListOrders(ctx, q)
		if err != nil {
			return nil, err
		}
		added := 0
		for _, o := range page {
			if seen[o.ID] {
				continue
			}
			seen[o.ID] = true
			out = append(out, o)
			added++
		}
		if len(page) < q.Limit || added == 0 {
			return out, nil
		}
		q.Until = page[len(page)-1].CreatedAt
	}
}

// allActivities follows page tokens until a short page is returned.
func allActivities(ctx context.Context, b broker.Trading, q domain.ActivityQuery) ([]domain.Activity, error) {
	q.PageSize = activityPageSize
	var out []domain.Activity
	for {
		page, err := b.ListActivities(ctx, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < q.PageSize {
			return out, nil
		}
		q.PageToken = page[len(page)-1].ID
	}
}

// export opens path, runs write and reports the number of records.
func (a *App) export(ctx context.Context, path, what string, n int, write func(context.Context, store.Exporter) error) error {
	e, err := store.Open(path)
	if err != nil {
		return err
	}
	if err := write(ctx, e); err != nil {
		e.Close()
		return fmt.Errorf("exporting %s to %s: %w", what, path, err)
	}
	if err := e.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	a.log.Info("export complete", "file", path, "records", n)
	return a.printer.Message("wrote %d %s to %s", n, what, path)
}
