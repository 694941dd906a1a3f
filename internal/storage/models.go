package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// MetricSnapshot is one refresh cycle's derived portfolio metrics, recorded
// for audit and export. Positionless cycles persist with zero totals and
// HasMetrics false.
type MetricSnapshot struct {
	TakenAt        time.Time
	HasMetrics     bool
	TotalValue     decimal.Decimal
	TotalPnL       decimal.Decimal
	TotalPnLPct    decimal.Decimal
	PendingRewards decimal.Decimal
	WeightedAPY    decimal.Decimal
	AverageRisk    float64
	PositionCount  int
	ProtocolCount  int
	TopProfit      decimal.Decimal
	Status         string
	Error          *string
	CreatedAt      time.Time
}

// AlertRecord captures an emitted arbitrage alert for auditing.
type AlertRecord struct {
	ID            int64
	TakenAt       time.Time
	OpportunityID string
	Pair          string
	Spread        string
	ProfitUSD     decimal.Decimal
	ThresholdUSD  decimal.Decimal
	Channels      []string
	CreatedAt     time.Time
}
