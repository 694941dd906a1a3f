package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterByCategoryAllIsIdentity(t *testing.T) {
	protocols := []Protocol{
		makeProtocol("a", CategoryDEX, 100, 2),
		makeProtocol("b", CategoryLending, 200, 5),
		makeProtocol("c", CategoryYield, 300, 8),
	}

	got := FilterByCategory(protocols, CategoryAll)
	assert.Equal(t, protocols, got)

	// The result is a copy, not an alias of the source collection.
	got[0].ID = "mutated"
	assert.Equal(t, "a", protocols[0].ID)
}

func TestFilterByCategoryPreservesOrder(t *testing.T) {
	protocols := []Protocol{
		makeProtocol("a", CategoryDEX, 100, 2),
		makeProtocol("b", CategoryLending, 200, 5),
		makeProtocol("c", CategoryDEX, 300, 8),
		makeProtocol("d", CategoryDerivatives, 50, 6),
		makeProtocol("e", CategoryDEX, 10, 1),
	}

	got := FilterByCategory(protocols, CategoryDEX)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "e", got[2].ID)
}

func TestFilterByCategoryUnknownMatchesNothing(t *testing.T) {
	protocols := []Protocol{
		makeProtocol("a", CategoryDEX, 100, 2),
	}

	got := FilterByCategory(protocols, Category("options"))
	assert.Empty(t, got)
}

func TestFilterByCategoryEmptyInput(t *testing.T) {
	assert.Empty(t, FilterByCategory(nil, CategoryAll))
	assert.Empty(t, FilterByCategory(nil, CategoryLending))
}
