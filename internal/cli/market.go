package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"apcacli/internal/domain"
	"apcacli/internal/news"
)

// now is replaced in tests.
var now = time.Now

// barFlags are the bar selection flags shared by "bars" and "export bars".
type barFlags struct {
	timeframe  timeFrameValue
	start, end dateValue
	limit      int
	feed       *choiceValue
	adjustment *choiceValue
}

func newBarFlags(cmd *cobra.Command) *barFlags {
	bf := &barFlags{
		timeframe:  timeFrameValue{v: domain.TimeFrame{N: 1, Unit: domain.Day}},
		feed:       newChoice("", "iex", "sip", "delayed_sip", "otc"),
		adjustment: newChoice("raw", "raw", "split", "dividend", "all"),
	}
	f := cmd.Flags()
	f.Var(&bf.timeframe, "timeframe", "bar period: <n>Min, <n>Hour, 1Day, 1Week or <n>Month")
	f.Var(&bf.start, "start", "first bar (YYYY-MM-DD or RFC3339; default depends on timeframe)")
	f.Var(&bf.end, "end", "last bar (YYYY-MM-DD or RFC3339; default now)")
	f.IntVar(&bf.limit, "limit", 0, "maximum number of bars (0 for no limit)")
	f.Var(bf.feed, "feed", "data feed (default from configuration, else iex)")
	f.Var(bf.adjustment, "adjustment", "corporate action adjustment")
	return bf
}

// defaultLookback is how far back bars start when --start is not given.
func defaultLookback(tf domain.TimeFrame) time.Duration {
	day := 24 * time.Hour
	switch tf.Unit {
	case domain.Minute:
		return day
	case domain.Hour:
		return 7 * day
	case domain.Week:
		return 365 * day
	case domain.Month:
		return 5 * 365 * day
	default:
		return 90 * day
	}
}

func (bf *barFlags) query(symbol string) domain.BarQuery {
	q := domain.BarQuery{
		Symbol:     strings.ToUpper(symbol),
		TimeFrame:  bf.timeframe.v,
		Start:      bf.start.v,
		End:        bf.end.v,
		Limit:      bf.limit,
		Feed:       bf.feed.v,
		Adjustment: bf.adjustment.v,
	}
	if q.Start.IsZero() {
		ref := q.End
		if ref.IsZero() {
			ref = now()
		}
		q.Start = ref.Add(-defaultLookback(q.TimeFrame))
	}
	return q
}

func newBarsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bars SYMBOL",
		Short: "Retrieve historical bars",
		Args:  cobra.ExactArgs(1),
	}
	bf := newBarFlags(cmd)
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		b, err := app.api()
		if err != nil {
			return err
		}
		q := bf.query(args[0])
		bars, err := b.GetBars(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("retrieving %s bars for %s: %w", q.TimeFrame, q.Symbol, err)
		}
		return app.printer.Bars(bars)
	}
	return cmd
}

func newClockCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "clock",
		Aliases: []string{"market"},
		Short:   "Show whether the market is open and its next open and close",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			clock, err := b.GetClock(cmd.Context())
			if err != nil {
				return fmt.Errorf("retrieving market clock: %w", err)
			}
			return app.printer.Clock(clock)
		},
	}
}

func newCalendarCmd(app *App) *cobra.Command {
	var start, end dateValue
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "List trading days with their open and close times",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to := start.v, end.v
			if from.IsZero() {
				from = now().In(domain.MarketTimeZone)
			}
			if to.IsZero() {
				to = from.AddDate(0, 0, 14)
			}
			if to.Before(from) {
				return fmt.Errorf("end %s is before start %s", to.Format("2006-01-02"), from.Format("2006-01-02"))
			}
			b, err := app.api()
			if err != nil {
				return err
			}
			days, err := b.GetCalendar(cmd.Context(), from, to)
			if err != nil {
				return fmt.Errorf("retrieving market calendar: %w", err)
			}
			return app.printer.Calendar(days)
		},
	}
	cmd.Flags().Var(&start, "start", "first day (default today)")
	cmd.Flags().Var(&end, "end", "last day (default two weeks after start)")
	return cmd
}

// excerptLength is the number of characters of article text shown.
const excerptLength = 400

func newNewsCmd(app *App) *cobra.Command {
	var (
		start, end dateValue
		limit      int
	)
	cmd := &cobra.Command{
		Use:   "news SYMBOL",
		Short: "Show news articles mentioning a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.api()
			if err != nil {
				return err
			}
			sym := strings.ToUpper(args[0])
			articles, err := b.GetNews(cmd.Context(), domain.NewsQuery{
				Symbol: sym,
				Start:  start.v,
				End:    end.v,
				Limit:  limit,
			})
			if err != nil {
				return fmt.Errorf("retrieving news for %s: %w", sym, err)
			}
			return app.printer.News(articles, func(a domain.NewsArticle) string {
				return news.Excerpt(a, sym, excerptLength)
			})
		},
	}
	cmd.Flags().Var(&start, "start", "oldest article (YYYY-MM-DD or RFC3339)")
	cmd.Flags().Var(&end, "end", "newest article (YYYY-MM-DD or RFC3339)")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of articles")
	return cmd
}
