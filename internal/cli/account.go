package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"apcacli/internal/domain"
)

func newAccountCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Retrieve information about the account",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the account summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			acct, err := b.GetAccount(cmd.Context())
			if err != nil {
				return fmt.Errorf("retrieving account information: %w", err)
			}
			return app.printer.Account(acct)
		},
	}

	activity := &cobra.Command{
		Use:   "activity",
		Short: "Retrieve account activity",
	}
	activity.AddCommand(newActivityGetCmd(app, "get"))

	cmd.AddCommand(get, newAccountConfigCmd(app), activity)
	return cmd
}

func newAccountConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Retrieve or modify the account configuration",
	}

	get := &cobra.Command{
		Use:   "get",
		Short: "Show the account configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			cfg, err := b.GetAccountConfig(cmd.Context())
			if err != nil {
				return fmt.Errorf("retrieving account configuration: %w", err)
			}
			return app.printer.AccountConfig(cfg)
		},
	}

	var confirm, noConfirm, suspend, noSuspend, shorting, noShorting bool
	set := &cobra.Command{
		Use:   "set",
		Short: "Modify the account configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			upd := domain.AccountConfigUpdate{
				TradeConfirmEmail: pairedBool(confirm, noConfirm),
				TradeSuspended:    pairedBool(suspend, noSuspend),
				Shorting:          pairedBool(shorting, noShorting),
			}
			if upd.Empty() {
				return fmt.Errorf("no configuration change given")
			}
			b, err := app.api()
			if err != nil {
				return err
			}
			cfg, err := b.UpdateAccountConfig(cmd.Context(), upd)
			if err != nil {
				return fmt.Errorf("updating account configuration: %w", err)
			}
			return app.printer.AccountConfig(cfg)
		},
	}
	f := set.Flags()
	f.BoolVar(&confirm, "confirm-email", false, "send trade confirmation emails")
	f.BoolVar(&noConfirm, "no-confirm-email", false, "do not send trade confirmation emails")
	f.BoolVar(&suspend, "trading-suspended", false, "suspend trading")
	f.BoolVar(&noSuspend, "no-trading-suspended", false, "resume trading")
	f.BoolVar(&shorting, "shorting", false, "enable short selling")
	f.BoolVar(&noShorting, "no-shorting", false, "disable short selling")
	set.MarkFlagsMutuallyExclusive("confirm-email", "no-confirm-email")
	set.MarkFlagsMutuallyExclusive("trading-suspended", "no-trading-suspended")
	set.MarkFlagsMutuallyExclusive("shorting", "no-shorting")
	set.MarkFlagsOneRequired("confirm-email", "no-confirm-email", "trading-suspended",
		"no-trading-suspended", "shorting", "no-shorting")

	cmd.AddCommand(get, set)
	return cmd
}

// pairedBool resolves a --x/--no-x flag pair; nil when neither was given.
func pairedBool(yes, no bool) *bool {
	switch {
	case yes:
		v := true
		return &v
	case no:
		v := false
		return &v
	default:
		return nil
	}
}

// newActivityCmd is the top-level shortcut for "account activity get".
func newActivityCmd(app *App) *cobra.Command {
	cmd := newActivityGetCmd(app, "activity")
	cmd.Short = "Retrieve account activity (shortcut for account activity get)"
	return cmd
}

func newActivityGetCmd(app *App, use string) *cobra.Command {
	var (
		types     []string
		after     dateValue
		until     dateValue
		direction = newChoice("desc", "asc", "desc")
		limit     int
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: "List account activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			acts, err := b.ListActivities(cmd.Context(), activityQuery(types, after, until, direction.v, limit))
			if err != nil {
				return fmt.Errorf("retrieving account activity: %w", err)
			}
			return app.printer.Activities(acts)
		},
	}
	registerActivityFlags(cmd, &types, &after, &until)
	cmd.Flags().Var(direction, "direction", "sort direction")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of activities (0 for the API default)")
	return cmd
}

func registerActivityFlags(cmd *cobra.Command, types *[]string, after, until *dateValue) {
	cmd.Flags().StringSliceVar(types, "type", nil, "activity type to include, e.g. FILL or DIV (repeatable)")
	cmd.Flags().Var(after, "after", "only activities after this date (YYYY-MM-DD or RFC3339)")
	cmd.Flags().Var(until, "until", "only activities until this date (YYYY-MM-DD or RFC3339)")
}

func activityQuery(types []string, after, until dateValue, direction string, limit int) domain.ActivityQuery {
	upper := make([]string, 0, len(types))
	for _, t := range types {
		upper = append(upper, strings.ToUpper(t))
	}
	return domain.ActivityQuery{
		Types:     upper,
		After:     after.v,
		Until:     until.v,
		Direction: direction,
		PageSize:  limit,
	}
}
