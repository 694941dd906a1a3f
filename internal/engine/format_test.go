package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$1,234.56", FormatCurrency(decimal.NewFromFloat(1234.56), "USD"))
	assert.Equal(t, "-$50.00", FormatCurrency(decimal.NewFromInt(-50), "USD"))
	// Unknown codes fall back to USD.
	assert.Equal(t, "$1.00", FormatCurrency(decimal.NewFromInt(1), "NOPE"))
}

func TestFormatCompactCurrency(t *testing.T) {
	cases := map[string]string{
		"950":        "$950.00",
		"1500":       "$1.50K",
		"2500000":    "$2.50M",
		"7250000000": "$7.25B",
	}
	for in, want := range cases {
		d, err := decimal.NewFromString(in)
		assert.NoError(t, err)
		assert.Equal(t, want, FormatCompactCurrency(d), "input %s", in)
	}
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "+7.25%", FormatPercent(decimal.NewFromFloat(7.25)))
	assert.Equal(t, "-4.76%", FormatPercent(decimal.NewFromFloat(-4.76)))
	assert.Equal(t, "0.00%", FormatPercent(decimal.Zero))
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1 position", FormatCount(1))
	assert.Equal(t, "4 positions", FormatCount(4))
}
