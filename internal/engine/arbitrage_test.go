package engine

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeOpportunity(id string, profit float64, executed bool) Opportunity {
	return Opportunity{
		ID:           id,
		TokenA:       "ETH",
		TokenB:       "USDC",
		ExchangeA:    "uniswap",
		ExchangeB:    "curve",
		Profit:       decimal.NewFromFloat(profit),
		DiscoveredAt: time.Unix(1700000000, 0),
		Executed:     executed,
	}
}

func TestRankOpportunitiesExcludesExecuted(t *testing.T) {
	opportunities := []Opportunity{
		makeOpportunity("o1", 5, false),
		makeOpportunity("o2", 20, false),
		makeOpportunity("o3", 1, false),
		makeOpportunity("o4", 20, true),
	}

	got := RankOpportunities(opportunities, 3)
	require.Len(t, got, 3)

	assert.Equal(t, "o2", got[0].ID)
	assert.Equal(t, "o1", got[1].ID)
	assert.Equal(t, "o3", got[2].ID)
	for _, opp := range got {
		assert.False(t, opp.Executed)
	}
}

func TestRankOpportunitiesSortedDescending(t *testing.T) {
	opportunities := []Opportunity{
		makeOpportunity("a", 3, false),
		makeOpportunity("b", 12, false),
		makeOpportunity("c", 7, false),
		makeOpportunity("d", 9, false),
	}

	got := RankOpportunities(opportunities, 10)
	require.Len(t, got, 4)
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].Profit.GreaterThanOrEqual(got[i].Profit),
			"position %d out of order", i)
	}
}

func TestRankOpportunitiesStableOnTies(t *testing.T) {
	opportunities := []Opportunity{
		makeOpportunity("first", 10, false),
		makeOpportunity("second", 10, false),
		makeOpportunity("third", 10, false),
	}

	got := RankOpportunities(opportunities, 5)
	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].ID)
	assert.Equal(t, "second", got[1].ID)
	assert.Equal(t, "third", got[2].ID)
}

func TestRankOpportunitiesLimit(t *testing.T) {
	var opportunities []Opportunity
	for i := 0; i < 12; i++ {
		opportunities = append(opportunities, makeOpportunity("x", float64(i), false))
	}

	assert.Len(t, RankOpportunities(opportunities, 5), 5)
	// Non-positive limits fall back to the default bound.
	assert.Len(t, RankOpportunities(opportunities, 0), DefaultOpportunityLimit)
	assert.Len(t, RankOpportunities(opportunities, -1), DefaultOpportunityLimit)
}

func TestRankOpportunitiesDoesNotMutateInput(t *testing.T) {
	opportunities := []Opportunity{
		makeOpportunity("a", 1, false),
		makeOpportunity("b", 9, false),
		makeOpportunity("c", 5, false),
	}

	_ = RankOpportunities(opportunities, 2)
	assert.Equal(t, "a", opportunities[0].ID)
	assert.Equal(t, "b", opportunities[1].ID)
	assert.Equal(t, "c", opportunities[2].ID)
}
