package fetcher

import (
	"context"

	"defiwatch/internal/engine"
)

// ProtocolSource retrieves the current protocol listings.
type ProtocolSource interface {
	FetchProtocols(ctx context.Context) ([]engine.Protocol, error)
}

// PositionSource retrieves a wallet's open positions.
type PositionSource interface {
	FetchPositions(ctx context.Context, wallet string) ([]engine.Position, error)
}

// OpportunitySource retrieves detected arbitrage opportunities.
type OpportunitySource interface {
	FetchOpportunities(ctx context.Context) ([]engine.Opportunity, error)
}

// Source bundles the three collections one refresh cycle pulls together.
// Every fetch failure is transient from the caller's perspective and is
// retried on the next cycle.
type Source interface {
	ProtocolSource
	PositionSource
	OpportunitySource
}
