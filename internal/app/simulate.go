package app

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"defiwatch/internal/engine"
	"defiwatch/internal/fetcher"
	"defiwatch/internal/refresh"
)

// SimulateAlert runs one refresh cycle against a static source whose top
// opportunity carries the given profit, exercising the full alert path.
func (a *App) SimulateAlert(ctx context.Context, profit decimal.Decimal) error {
	if !a.Config.Alerting.Enabled {
		return errors.New("alerting is not enabled")
	}

	notifier := a.newNotifier()
	if notifier == nil {
		return errors.New("no alert channel configured")
	}

	source := &staticSource{
		opportunities: []engine.Opportunity{
			{
				ID:           "simulated",
				TokenA:       "ETH",
				TokenB:       "USDC",
				ExchangeA:    "uniswap",
				ExchangeB:    "curve",
				Profit:       profit,
				ProfitPct:    decimal.NewFromFloat(0.5),
				DiscoveredAt: time.Now().UTC(),
			},
		},
	}

	controller := refresh.New(a.Config, source, nil, nil, notifier, a.Logger)
	return controller.RefreshNow(ctx)
}

type staticSource struct {
	protocols     []engine.Protocol
	positions     []engine.Position
	opportunities []engine.Opportunity
}

func (s *staticSource) FetchProtocols(ctx context.Context) ([]engine.Protocol, error) {
	return s.protocols, nil
}

func (s *staticSource) FetchPositions(ctx context.Context, wallet string) ([]engine.Position, error) {
	return s.positions, nil
}

func (s *staticSource) FetchOpportunities(ctx context.Context) ([]engine.Opportunity, error) {
	return s.opportunities, nil
}

var _ fetcher.Source = (*staticSource)(nil)
