package engine

import "github.com/shopspring/decimal"

var dec100 = decimal.NewFromInt(100)

// PortfolioMetrics are the portfolio-level totals derived from the full
// position collection.
type PortfolioMetrics struct {
	TotalValue     decimal.Decimal
	TotalPnL       decimal.Decimal
	TotalPnLPct    decimal.Decimal
	PendingRewards decimal.Decimal
	WeightedAPY    decimal.Decimal
	AverageRisk    float64
	PositionCount  int
}

// AggregatePortfolio reduces the position collection into portfolio totals.
// An empty collection yields nil: the "no metrics" state the presentation
// layer renders distinctly instead of crashing on a division by zero.
//
// The P/L percentage is relative to cost basis (value minus P/L), defined
// as zero when the basis is zero. The weighted APY divides by total current
// value, defined as zero when that total is zero; a single zero-value
// position contributes nothing to the numerator and cannot fail on its own.
func AggregatePortfolio(positions []Position) *PortfolioMetrics {
	if len(positions) == 0 {
		return nil
	}

	totalValue := decimal.Zero
	totalPnL := decimal.Zero
	rewards := decimal.Zero
	weighted := decimal.Zero
	riskSum := 0

	for _, pos := range positions {
		totalValue = totalValue.Add(pos.CurrentValue)
		totalPnL = totalPnL.Add(pos.PnL)
		rewards = rewards.Add(pos.PendingRewards)
		weighted = weighted.Add(pos.APY.Mul(pos.CurrentValue))
		riskSum += pos.RiskLevel
	}

	pnlPct := decimal.Zero
	if basis := totalValue.Sub(totalPnL); !basis.IsZero() {
		pnlPct = totalPnL.Div(basis).Mul(dec100)
	}

	weightedAPY := decimal.Zero
	if !totalValue.IsZero() {
		weightedAPY = weighted.Div(totalValue)
	}

	return &PortfolioMetrics{
		TotalValue:     totalValue,
		TotalPnL:       totalPnL,
		TotalPnLPct:    pnlPct,
		PendingRewards: rewards,
		WeightedAPY:    weightedAPY,
		AverageRisk:    float64(riskSum) / float64(len(positions)),
		PositionCount:  len(positions),
	}
}
