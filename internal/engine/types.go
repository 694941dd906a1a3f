package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category identifies a protocol vertical.
type Category string

const (
	CategoryAll         Category = "all"
	CategoryDEX         Category = "dex"
	CategoryLending     Category = "lending"
	CategoryYield       Category = "yield"
	CategoryDerivatives Category = "derivatives"
)

// Categories lists every concrete category, excluding the "all" selector.
var Categories = []Category{CategoryDEX, CategoryLending, CategoryYield, CategoryDerivatives}

// Protocol is one listing from the protocol collection. Immutable per
// snapshot; the whole collection is replaced on refresh.
type Protocol struct {
	ID        string
	Name      string
	Category  Category
	TVL       decimal.Decimal
	APY       decimal.Decimal
	RiskScore int
	Volume24h decimal.Decimal
	Change24h decimal.Decimal
	Active    bool
}

// Position is a single open strategy position. Risk levels arrive in the
// 1..10 range; values outside it are an upstream data-contract violation
// and pass through unvalidated.
type Position struct {
	ID             string
	Strategy       string
	Principal      decimal.Decimal
	CurrentValue   decimal.Decimal
	PnL            decimal.Decimal
	PnLPct         decimal.Decimal
	APY            decimal.Decimal
	RiskLevel      int
	EnteredAt      time.Time
	LastClaimAt    time.Time
	PendingRewards decimal.Decimal
}

// Opportunity is a detected cross-exchange price discrepancy. Execution is
// an external side effect that flips Executed.
type Opportunity struct {
	ID           string
	TokenA       string
	TokenB       string
	ExchangeA    string
	ExchangeB    string
	Profit       decimal.Decimal
	ProfitPct    decimal.Decimal
	DiscoveredAt time.Time
	Executed     bool
	GasCost      decimal.Decimal
}

// Snapshot bundles one consistent pull of the three source collections.
type Snapshot struct {
	Protocols     []Protocol
	Positions     []Position
	Opportunities []Opportunity
	TakenAt       time.Time
}
