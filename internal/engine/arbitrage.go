package engine

import "sort"

// DefaultOpportunityLimit bounds the ranked list when the caller passes no
// explicit limit.
const DefaultOpportunityLimit = 5

// RankOpportunities drops executed opportunities, orders the remainder by
// profit potential descending, and truncates to limit. The sort is stable:
// equal profits keep their discovery order, so repeated calls over the same
// snapshot are deterministic. A limit <= 0 falls back to the default.
func RankOpportunities(opportunities []Opportunity, limit int) []Opportunity {
	if limit <= 0 {
		limit = DefaultOpportunityLimit
	}

	open := make([]Opportunity, 0, len(opportunities))
	for _, opp := range opportunities {
		if !opp.Executed {
			open = append(open, opp)
		}
	}

	sort.SliceStable(open, func(i, j int) bool {
		return open[i].Profit.GreaterThan(open[j].Profit)
	})

	if len(open) > limit {
		open = open[:limit]
	}
	return open
}
