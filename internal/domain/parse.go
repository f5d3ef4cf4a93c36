package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSide        = errors.New("invalid side")
	ErrInvalidTimeInForce = errors.New("invalid time-in-force")
	ErrInvalidOrderID     = errors.New("invalid order id")
	ErrInvalidTimeFrame   = errors.New("invalid timeframe")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDate        = errors.New("invalid date")
)

// ParseSide parses "buy" or "sell".
func ParseSide(s string) (OrderSide, error) {
	switch strings.ToLower(s) {
	case "buy":
		return OrderSideBuy, nil
	case "sell":
		return OrderSideSell, nil
	default:
		return "", fmt.Errorf("%w: %q is not a valid side specification (use 'buy' or 'sell')", ErrInvalidSide, s)
	}
}

// timeInForceWords maps the command line vocabulary onto API values.
var timeInForceWords = map[string]TimeInForce{
	"today":               TimeInForceDay,
	"canceled":            TimeInForceGTC,
	"market-open":         TimeInForceOPG,
	"market-close":        TimeInForceCLS,
	"immediate-or-cancel": TimeInForceIOC,
	"fill-or-kill":        TimeInForceFOK,
}

// TimeInForceWords lists the accepted time-in-force words in display order.
var TimeInForceWords = []string{
	"today", "canceled", "market-open", "market-close", "immediate-or-cancel", "fill-or-kill",
}

// ParseTimeInForce parses a time-in-force word such as "today" or
// "canceled".
func ParseTimeInForce(s string) (TimeInForce, error) {
	tif, ok := timeInForceWords[s]
	if !ok {
		return "", fmt.Errorf("%w specifier: %s", ErrInvalidTimeInForce, s)
	}
	return tif, nil
}

// ParseOrderID validates that id is a UUID and returns it in canonical
// hyphenated form.
func ParseOrderID(id string) (string, error) {
	u, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("%w %q: %v", ErrInvalidOrderID, id, err)
	}
	return u.String(), nil
}

// ParseCancelTarget accepts an order ID or "all". An empty ID with a nil
// error means all open orders.
func ParseCancelTarget(s string) (string, error) {
	if s == "all" {
		return "", nil
	}
	return ParseOrderID(s)
}

// ParseAmount parses a strictly positive decimal quantity, value or price.
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w %q: %v", ErrInvalidAmount, s, err)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w %q: must be positive", ErrInvalidAmount, s)
	}
	return d, nil
}

// MarketTimeZone is the exchange time zone. Dates without a time are
// interpreted in it.
var MarketTimeZone = loadMarketTimeZone()

func loadMarketTimeZone() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.UTC
	}
	return loc
}

// ParseDate accepts YYYY-MM-DD (interpreted in loc) or RFC3339.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w %q: use YYYY-MM-DD or RFC3339", ErrInvalidDate, s)
}

// ---------------------------------------------------------------------------
// Timeframes
// ---------------------------------------------------------------------------

// TimeFrameUnit is the unit of a bar timeframe.
type TimeFrameUnit string

const (
	Minute TimeFrameUnit = "Min"
	Hour   TimeFrameUnit = "Hour"
	Day    TimeFrameUnit = "Day"
	Week   TimeFrameUnit = "Week"
	Month  TimeFrameUnit = "Month"
)

// TimeFrame is a bar aggregation period such as 5Min or 1Day.
type TimeFrame struct {
	N    int
	Unit TimeFrameUnit
}

func (tf TimeFrame) String() string {
	return strconv.Itoa(tf.N) + string(tf.Unit)
}

var timeFrameRe = regexp.MustCompile(`^(\d+)(Min|T|Hour|H|Day|D|Week|W|Month|M)$`)

// ParseTimeFrame parses strings like "1Min", "15Min", "1Hour", "1Day".
func ParseTimeFrame(s string) (TimeFrame, error) {
	m := timeFrameRe.FindStringSubmatch(s)
	if m == nil {
		return TimeFrame{}, fmt.Errorf("%w %q", ErrInvalidTimeFrame, s)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return TimeFrame{}, fmt.Errorf("%w %q", ErrInvalidTimeFrame, s)
	}

	var unit TimeFrameUnit
	switch m[2] {
	case "Min", "T":
		unit = Minute
		if n > 59 {
			return TimeFrame{}, fmt.Errorf("%w %q: minutes must be 1-59", ErrInvalidTimeFrame, s)
		}
	case "Hour", "H":
		unit = Hour
		if n > 23 {
			return TimeFrame{}, fmt.Errorf("%w %q: hours must be 1-23", ErrInvalidTimeFrame, s)
		}
	case "Day", "D":
		unit = Day
		if n != 1 {
			return TimeFrame{}, fmt.Errorf("%w %q: only 1Day is supported", ErrInvalidTimeFrame, s)
		}
	case "Week", "W":
		unit = Week
		if n != 1 {
			return TimeFrame{}, fmt.Errorf("%w %q: only 1Week is supported", ErrInvalidTimeFrame, s)
		}
	case "Month", "M":
		unit = Month
		if n != 1 && n != 2 && n != 3 && n != 4 && n != 6 && n != 12 {
			return TimeFrame{}, fmt.Errorf("%w %q: months must be 1, 2, 3, 4, 6 or 12", ErrInvalidTimeFrame, s)
		}
	}
	return TimeFrame{N: n, Unit: unit}, nil
}
