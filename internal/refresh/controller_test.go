package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"defiwatch/internal/config"
	"defiwatch/internal/engine"
)

// fakeSource serves canned collections and can be flipped into a failing
// state between cycles.
type fakeSource struct {
	mu            sync.Mutex
	protocols     []engine.Protocol
	positions     []engine.Position
	opportunities []engine.Opportunity
	err           error
	fetches       int
}

func (f *fakeSource) setError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakeSource) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func (f *fakeSource) FetchProtocols(ctx context.Context) ([]engine.Protocol, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.protocols, nil
}

func (f *fakeSource) FetchPositions(ctx context.Context, wallet string) ([]engine.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.positions, nil
}

func (f *fakeSource) FetchOpportunities(ctx context.Context) ([]engine.Opportunity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.opportunities, nil
}

func testConfig(interval time.Duration) *config.Config {
	return &config.Config{
		Scheduler: config.SchedulerConfig{Interval: interval, AutoRefresh: true},
		Source:    config.SourceConfig{Wallet: "0xabc"},
		Arbitrage: config.ArbitrageConfig{TopN: 5},
	}
}

func newTestSource() *fakeSource {
	return &fakeSource{
		protocols: []engine.Protocol{
			{ID: "uni", Category: engine.CategoryDEX, TVL: decimal.NewFromInt(1000), RiskScore: 3},
		},
		positions: []engine.Position{
			{ID: "p1", CurrentValue: decimal.NewFromInt(100), PnL: decimal.NewFromInt(10), APY: decimal.NewFromInt(5), RiskLevel: 2, PendingRewards: decimal.NewFromInt(1)},
		},
		opportunities: []engine.Opportunity{
			{ID: "o1", Profit: decimal.NewFromInt(20)},
			{ID: "o2", Profit: decimal.NewFromInt(5), Executed: true},
		},
	}
}

func TestRefreshNowDerivesViewModel(t *testing.T) {
	source := newTestSource()
	c := New(testConfig(time.Hour), source, nil, nil, nil, zerolog.Nop())

	if _, ok := c.View(); ok {
		t.Fatal("view must be empty before the first refresh")
	}

	if err := c.RefreshNow(context.Background()); err != nil {
		t.Fatalf("manual refresh should succeed: %v", err)
	}

	vm, ok := c.View()
	if !ok {
		t.Fatal("view model missing after refresh")
	}
	if vm.Portfolio == nil || vm.Portfolio.PositionCount != 1 {
		t.Fatalf("unexpected portfolio: %+v", vm.Portfolio)
	}
	if len(vm.TopOpportunities) != 1 || vm.TopOpportunities[0].ID != "o1" {
		t.Fatalf("executed opportunity leaked into ranking: %+v", vm.TopOpportunities)
	}
	if c.LastError() != nil {
		t.Fatalf("lastError should be nil after success: %+v", c.LastError())
	}
}

func TestFetchFailurePreservesViewModel(t *testing.T) {
	source := newTestSource()
	c := New(testConfig(time.Hour), source, nil, nil, nil, zerolog.Nop())

	if err := c.RefreshNow(context.Background()); err != nil {
		t.Fatalf("priming refresh failed: %v", err)
	}
	before, _ := c.View()

	source.setError(errors.New("upstream down"))
	if err := c.RefreshNow(context.Background()); err == nil {
		t.Fatal("refresh should surface the fetch failure")
	}

	after, ok := c.View()
	if !ok {
		t.Fatal("view model lost after failed refresh")
	}
	if after.GeneratedAt != before.GeneratedAt {
		t.Fatal("failed refresh must not replace the view model")
	}

	lastErr := c.LastError()
	if lastErr == nil {
		t.Fatal("lastError should be recorded")
	}
	if lastErr.Message == "" || lastErr.At.IsZero() {
		t.Fatalf("lastError incomplete: %+v", lastErr)
	}

	// The next successful cycle clears the error.
	source.setError(nil)
	if err := c.RefreshNow(context.Background()); err != nil {
		t.Fatalf("recovery refresh failed: %v", err)
	}
	if c.LastError() != nil {
		t.Fatal("lastError should clear after a successful cycle")
	}
}

func TestTimerKeepsRunningAfterFailure(t *testing.T) {
	source := newTestSource()
	source.setError(errors.New("upstream down"))
	c := New(testConfig(10*time.Millisecond), source, nil, nil, nil, zerolog.Nop())

	c.Start(context.Background())
	defer c.Stop()

	deadline := time.After(2 * time.Second)
	for source.fetchCount() < 3 {
		select {
		case <-deadline:
			t.Fatalf("timer stalled after failures: %d fetches", source.fetchCount())
		case <-time.After(time.Millisecond):
		}
	}

	if _, ok := c.View(); ok {
		t.Fatal("no view model should exist when every cycle failed")
	}
	if c.LastError() == nil {
		t.Fatal("lastError should be populated while failing")
	}
}

func TestStopCancelsPendingTick(t *testing.T) {
	source := newTestSource()
	c := New(testConfig(50*time.Millisecond), source, nil, nil, nil, zerolog.Nop())

	c.Start(context.Background())
	if !c.Running() {
		t.Fatal("controller should report running after Start")
	}

	c.Stop()
	if c.Running() {
		t.Fatal("controller should report stopped after Stop")
	}

	count := source.fetchCount()
	time.Sleep(150 * time.Millisecond)
	if got := source.fetchCount(); got != count {
		t.Fatalf("ticks fired after Stop: %d -> %d", count, got)
	}
}

func TestStartRestartsTimer(t *testing.T) {
	source := newTestSource()
	c := New(testConfig(20*time.Millisecond), source, nil, nil, nil, zerolog.Nop())

	ctx := context.Background()
	c.Start(ctx)
	c.Start(ctx) // restart while running must not leak the first loop
	defer c.Stop()

	deadline := time.After(2 * time.Second)
	for source.fetchCount() < 2 {
		select {
		case <-deadline:
			t.Fatal("restarted timer never ticked")
		case <-time.After(time.Millisecond):
		}
	}
}

func TestManualRefreshWhileRunning(t *testing.T) {
	source := newTestSource()
	c := New(testConfig(10*time.Millisecond), source, nil, nil, nil, zerolog.Nop())

	c.Start(context.Background())
	defer c.Stop()

	// Manual triggers serialize with periodic cycles; hammering them must
	// not race or corrupt the view model.
	for i := 0; i < 10; i++ {
		if err := c.RefreshNow(context.Background()); err != nil {
			t.Fatalf("manual refresh %d failed: %v", i, err)
		}
	}

	if _, ok := c.View(); !ok {
		t.Fatal("view model missing after manual refreshes")
	}
}
