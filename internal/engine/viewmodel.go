package engine

import "time"

// ViewModel is the presentation-ready aggregate derived from one snapshot.
// Portfolio is nil when the user holds no positions.
type ViewModel struct {
	GeneratedAt      time.Time
	Protocols        []Protocol
	RiskDistribution []RiskSlice
	Portfolio        *PortfolioMetrics
	TopOpportunities []Opportunity
}

// BuildViewModel runs every derivation over a snapshot. It is a pure
// function of its inputs: the snapshot collections are never mutated, so
// calling it twice on the same snapshot yields identical view models.
func BuildViewModel(snap Snapshot, opportunityLimit int) ViewModel {
	return ViewModel{
		GeneratedAt:      snap.TakenAt,
		Protocols:        FilterByCategory(snap.Protocols, CategoryAll),
		RiskDistribution: ClassifyRiskDistribution(snap.Protocols),
		Portfolio:        AggregatePortfolio(snap.Positions),
		TopOpportunities: RankOpportunities(snap.Opportunities, opportunityLimit),
	}
}

// TopProfit returns the best open opportunity's profit, or false when the
// ranked list is empty.
func (vm ViewModel) TopProfit() (Opportunity, bool) {
	if len(vm.TopOpportunities) == 0 {
		return Opportunity{}, false
	}
	return vm.TopOpportunities[0], true
}
