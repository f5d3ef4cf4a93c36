package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"apcacli/internal/domain"
)

// Flag values that validate while the command line is parsed, so argument
// errors surface before any request is made.

// amountValue is an optional strictly positive decimal.
type amountValue struct{ v *decimal.Decimal }

func (a *amountValue) String() string {
	if a.v == nil {
		return ""
	}
	return a.v.String()
}

func (a *amountValue) Set(s string) error {
	d, err := domain.ParseAmount(s)
	if err != nil {
		return err
	}
	a.v = &d
	return nil
}

func (a *amountValue) Type() string { return "decimal" }

// thresholdValue is an optional decimal that may be zero but not negative.
type thresholdValue struct{ v *decimal.Decimal }

func (a *thresholdValue) String() string {
	if a.v == nil {
		return ""
	}
	return a.v.String()
}

func (a *thresholdValue) Set(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("%w %q: %v", domain.ErrInvalidAmount, s, err)
	}
	if d.IsNegative() {
		return fmt.Errorf("%w %q: must not be negative", domain.ErrInvalidAmount, s)
	}
	a.v = &d
	return nil
}

func (a *thresholdValue) Type() string { return "decimal" }

// tifValue is a time-in-force word.
type tifValue struct {
	word string
	v    domain.TimeInForce
}

func (t *tifValue) String() string { return t.word }

func (t *tifValue) Set(s string) error {
	tif, err := domain.ParseTimeInForce(s)
	if err != nil {
		return err
	}
	t.word, t.v = s, tif
	return nil
}

func (t *tifValue) Type() string { return strings.Join(domain.TimeInForceWords, "|") }

// dateValue is an optional date or timestamp.
type dateValue struct{ v time.Time }

func (d *dateValue) String() string {
	if d.v.IsZero() {
		return ""
	}
	return d.v.Format(time.RFC3339)
}

func (d *dateValue) Set(s string) error {
	t, err := domain.ParseDate(s, domain.MarketTimeZone)
	if err != nil {
		return err
	}
	d.v = t
	return nil
}

func (d *dateValue) Type() string { return "date" }

// timeFrameValue is a bar timeframe such as 5Min or 1Day.
type timeFrameValue struct{ v domain.TimeFrame }

func (tf *timeFrameValue) String() string { return tf.v.String() }

func (tf *timeFrameValue) Set(s string) error {
	v, err := domain.ParseTimeFrame(s)
	if err != nil {
		return err
	}
	tf.v = v
	return nil
}

func (tf *timeFrameValue) Type() string { return "timeframe" }

// choiceValue is a string restricted to a fixed set of choices.
type choiceValue struct {
	v       string
	choices []string
}

func newChoice(def string, choices ...string) *choiceValue {
	return &choiceValue{v: def, choices: choices}
}

func (c *choiceValue) String() string { return c.v }

func (c *choiceValue) Set(s string) error {
	for _, ch := range c.choices {
		if s == ch {
			c.v = s
			return nil
		}
	}
	return &choiceError{value: s, choices: c.choices}
}

func (c *choiceValue) Type() string { return strings.Join(c.choices, "|") }

type choiceError struct {
	value   string
	choices []string
}

func (e *choiceError) Error() string {
	return fmt.Sprintf("invalid value %q (want one of %s)", e.value, strings.Join(e.choices, ", "))
}
