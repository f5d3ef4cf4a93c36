// Package cli implements the apcacli command tree.
package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"apcacli/internal/broker"
	"apcacli/internal/config"
	"apcacli/internal/format"
	"apcacli/internal/util"
)

// BrokerFactory creates the broker once configuration is loaded.
type BrokerFactory func(cfg *config.Config, log *slog.Logger) (broker.Broker, error)

// App carries the state shared by every command of one invocation.
type App struct {
	Version string

	// NewBroker creates the broker used by commands. Defaults to the Alpaca
	// API; tests substitute a simulator.
	NewBroker BrokerFactory

	// Global flags.
	verbose    int
	output     string
	noColor    bool
	configPath string
	dryRun     bool

	cfg     *config.Config
	log     *slog.Logger
	printer *format.Printer
	client  broker.Broker
}

// NewApp returns an App talking to the Alpaca API.
func NewApp(version string) *App {
	return &App{Version: version, NewBroker: AlpacaBroker}
}

// AlpacaBroker validates cfg and creates the Alpaca-backed broker.
func AlpacaBroker(cfg *config.Config, log *slog.Logger) (broker.Broker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return broker.NewAlpacaBroker(broker.AlpacaOptions{
		APIKey:    cfg.Alpaca.APIKey,
		APISecret: cfg.Alpaca.APISecret,
		BaseURL:   cfg.Alpaca.BaseURL,
		DataURL:   cfg.Alpaca.DataURL,
		StreamURL: cfg.Alpaca.StreamURL,
		Feed:      cfg.Alpaca.Feed,
		Logger:    log,
	}), nil
}

// NewRootCmd builds the apcacli command tree.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "apcacli",
		Short: "A command line client for the Alpaca trading API",
		Long: `apcacli manages an Alpaca brokerage account from the command line:
account details, orders, positions, assets, market data and realtime
event streams.

Credentials are read from APCA_API_KEY_ID and APCA_API_SECRET_KEY. The
API endpoint defaults to paper trading; set APCA_API_BASE_URL to change it.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: app.setup,
	}

	fs := root.PersistentFlags()
	fs.CountVarP(&app.verbose, "verbose", "v", "increase log verbosity (can be repeated)")
	fs.StringVarP(&app.output, "output", "o", "", "output format: text, json or yaml")
	fs.BoolVar(&app.noColor, "no-color", false, "disable colored output")
	fs.StringVar(&app.configPath, "config", "", "config file (default $APCACLI_CONFIG or <user config dir>/apcacli/config.yaml)")
	fs.BoolVar(&app.dryRun, "dry-run", false, "do not send any changes; show what would be done")

	root.AddCommand(
		newVersionCmd(app),
		newAccountCmd(app),
		newActivityCmd(app),
		newAssetCmd(app),
		newOrderCmd(app),
		newPositionCmd(app),
		newBarsCmd(app),
		newClockCmd(app),
		newCalendarCmd(app),
		newNewsCmd(app),
		newWatchlistCmd(app),
		newEventsCmd(app),
		newUpdatesCmd(app),
		newExportCmd(app),
	)
	return root
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.printer.Message("apcacli %s", app.Version)
		},
	}
}

// setup loads configuration and creates the logger and printer. The broker
// is created lazily so that commands without network access work without
// credentials.
func (a *App) setup(cmd *cobra.Command, _ []string) error {
	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	a.cfg = cfg

	level := cfg.Logging.Level
	if a.verbose > 0 {
		level = util.VerbosityLevel(a.verbose)
	}
	a.log = util.NewLogger(cmd.ErrOrStderr(), level)
	util.SetDefault(a.log)

	out := cfg.Output.Format
	if a.output != "" {
		out = a.output
	}
	mode, err := format.ParseMode(out)
	if err != nil {
		return err
	}
	a.printer = format.New(cmd.OutOrStdout(), mode, !(a.noColor || cfg.Output.NoColor))
	return nil
}

// api returns the broker, creating it on first use.
func (a *App) api() (broker.Broker, error) {
	if a.client != nil {
		return a.client, nil
	}
	b, err := a.NewBroker(a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	if a.dryRun {
		b = broker.NewDryRunBroker(b, a.log)
	}
	a.log.Debug("using broker", "name", b.Name())
	a.client = b
	return b, nil
}

// out returns the writer for raw command output.
func (a *App) out() io.Writer {
	return a.printer.Writer()
}
