package engine

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Display helpers for the presentation layer. None of the derivations
// depend on these.

var (
	decThousand = decimal.NewFromInt(1_000)
	decMillion  = decimal.NewFromInt(1_000_000)
	decBillion  = decimal.NewFromInt(1_000_000_000)
)

// FormatCurrency renders an amount with the given ISO currency code,
// e.g. "$1,234.56". An unknown code falls back to USD.
func FormatCurrency(amount decimal.Decimal, code string) string {
	if money.GetCurrency(code) == nil {
		code = money.USD
	}
	return money.NewFromFloat(amount.InexactFloat64(), code).Display()
}

// FormatCompactCurrency renders large amounts with K/M/B suffixes, the
// shape dashboards use for TVL and volume figures.
func FormatCompactCurrency(amount decimal.Decimal) string {
	abs := amount.Abs()
	switch {
	case abs.GreaterThanOrEqual(decBillion):
		return fmt.Sprintf("$%sB", amount.Div(decBillion).StringFixed(2))
	case abs.GreaterThanOrEqual(decMillion):
		return fmt.Sprintf("$%sM", amount.Div(decMillion).StringFixed(2))
	case abs.GreaterThanOrEqual(decThousand):
		return fmt.Sprintf("$%sK", amount.Div(decThousand).StringFixed(2))
	default:
		return fmt.Sprintf("$%s", amount.StringFixed(2))
	}
}

// FormatPercent renders a signed percentage with two decimals, keeping an
// explicit "+" on gains so P/L readouts are unambiguous.
func FormatPercent(pct decimal.Decimal) string {
	if pct.Sign() > 0 {
		return "+" + pct.StringFixed(2) + "%"
	}
	return pct.StringFixed(2) + "%"
}

// FormatCount renders an integer count for badges and summaries.
func FormatCount(n int) string {
	if n == 1 {
		return "1 position"
	}
	return fmt.Sprintf("%d positions", n)
}
