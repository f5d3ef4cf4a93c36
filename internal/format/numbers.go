package format

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// FormatInt formats an integer with comma separators.
func FormatInt(n int64) string {
	s := fmt.Sprintf("%d", n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if len(s) <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	start := len(s) % 3
	if start > 0 {
		b.WriteString(s[:start])
	}
	for i := start; i < len(s); i += 3 {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// FormatCompact formats a large value with B/M/K suffixes.
func FormatCompact(v float64) string {
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%.1fB", v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%.1fM", v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%.1fK", v/1e3)
	default:
		return fmt.Sprintf("%.0f", v)
	}
}

// FormatPrice formats a float price with two decimals, or "-" for zero.
func FormatPrice(p float64) string {
	if p == 0 {
		return "-"
	}
	return fmt.Sprintf("%.2f", p)
}

// FormatMoney formats an amount with two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// FormatMoneyPtr formats an optional amount, "-" when absent.
func FormatMoneyPtr(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return FormatMoney(*d)
}

// FormatQty formats a quantity without trailing zeros.
func FormatQty(d decimal.Decimal) string {
	return d.String()
}

// FormatQtyPtr formats an optional quantity, "-" when absent.
func FormatQtyPtr(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return FormatQty(*d)
}

// FormatChange formats a signed amount with an explicit "+" for gains.
func FormatChange(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.IsPositive() {
		return "+" + s
	}
	return s
}

// FormatPercent formats a fraction (0.0123) as a signed percentage
// ("+1.23%"). Drops decimals for values of 100% or more to keep width
// compact.
func FormatPercent(frac decimal.Decimal) string {
	pct := frac.Mul(hundred)
	places := int32(2)
	if pct.Abs().GreaterThanOrEqual(hundred) {
		places = 0
	}
	s := pct.StringFixed(places)
	if pct.IsPositive() {
		s = "+" + s
	}
	return s + "%"
}

// FormatPercentPtr formats an optional fraction, "-" when absent.
func FormatPercentPtr(frac *decimal.Decimal) string {
	if frac == nil {
		return "-"
	}
	return FormatPercent(*frac)
}
