package engine

import "github.com/shopspring/decimal"

// RiskTier is a coarse bucket derived from a numeric risk score.
type RiskTier string

const (
	TierLow    RiskTier = "Low"
	TierMedium RiskTier = "Medium"
	TierHigh   RiskTier = "High"
)

// Tier boundaries: score <= 3 is Low, 4..6 is Medium, >= 7 is High.
const (
	lowTierMax    = 3
	mediumTierMax = 6
)

// tierColors is the fixed tier-to-color lookup used by proportional charts.
var tierColors = map[RiskTier]string{
	TierLow:    ColorSuccess,
	TierMedium: ColorWarning,
	TierHigh:   ColorDanger,
}

// Display colors for the three risk tiers.
const (
	ColorSuccess = "#22c55e"
	ColorWarning = "#f59e0b"
	ColorDanger  = "#ef4444"
)

// RiskSlice is one segment of the risk distribution: a tier, the summed
// TVL of every protocol in it, and its chart color.
type RiskSlice struct {
	Tier  RiskTier
	TVL   decimal.Decimal
	Color string
}

// TierForScore maps a risk score to its tier.
func TierForScore(score int) RiskTier {
	switch {
	case score <= lowTierMax:
		return TierLow
	case score <= mediumTierMax:
		return TierMedium
	default:
		return TierHigh
	}
}

// ClassifyRiskDistribution buckets protocols into risk tiers and sums the
// TVL per tier. The result is always three slices in Low, Medium, High
// order so the tier totals partition the collection's total TVL exactly.
func ClassifyRiskDistribution(protocols []Protocol) []RiskSlice {
	totals := map[RiskTier]decimal.Decimal{
		TierLow:    decimal.Zero,
		TierMedium: decimal.Zero,
		TierHigh:   decimal.Zero,
	}

	for _, p := range protocols {
		tier := TierForScore(p.RiskScore)
		totals[tier] = totals[tier].Add(p.TVL)
	}

	slices := make([]RiskSlice, 0, 3)
	for _, tier := range []RiskTier{TierLow, TierMedium, TierHigh} {
		slices = append(slices, RiskSlice{
			Tier:  tier,
			TVL:   totals[tier],
			Color: tierColors[tier],
		})
	}
	return slices
}
