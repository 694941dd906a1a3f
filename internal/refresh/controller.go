package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"defiwatch/internal/alerting"
	"defiwatch/internal/config"
	"defiwatch/internal/engine"
	"defiwatch/internal/fetcher"
	"defiwatch/internal/scheduler"
	"defiwatch/internal/storage"
)

// RefreshError records a failed cycle: the message and the time the failure
// was observed. It is surfaced as data, never propagated to presentation.
type RefreshError struct {
	Message string
	At      time.Time
}

// Controller owns the periodic re-pull of the three source collections and
// the re-derivation of downstream metrics. Derivations are pure; the
// controller is the only stateful part of the engine and the sole owner of
// the auto-refresh timer.
//
// Consistency contract: each cycle is a full snapshot replace. If any of
// the three fetches fails the whole cycle is abandoned, so the previously
// derived view model is never partially overwritten. Manual refreshes
// serialize with periodic ones on the cycle mutex, keeping at most one
// derivation applying at a time. Stopping cancels the run context, which
// suppresses both the pending tick and any in-flight periodic fetch.
type Controller struct {
	source     fetcher.Source
	store      storage.SnapshotStore
	alertStore storage.AlertStore
	notifier   alerting.Notifier
	logger     zerolog.Logger

	wallet      string
	topN        int
	interval    time.Duration
	delay       time.Duration
	lockKey     int64
	locker      storage.AdvisoryLocker
	alertsOn    bool
	threshold   decimal.Decimal
	cooldown    time.Duration
	channels    []string
	lastAlertAt time.Time

	cycleMu sync.Mutex // serializes fetch+derive+apply cycles

	mu      sync.Mutex // guards view, lastErr, runCancel, runDone
	view    *engine.ViewModel
	lastErr *RefreshError

	runCancel context.CancelFunc
	runDone   chan struct{}
}

// New constructs the refresh controller.
func New(cfg *config.Config, source fetcher.Source, store storage.SnapshotStore, alertStore storage.AlertStore, notifier alerting.Notifier, logger zerolog.Logger) *Controller {
	threshold := decimal.Zero
	if cfg.Alerting.Enabled && cfg.Alerting.MinProfitUSD > 0 {
		threshold = decimal.NewFromFloat(cfg.Alerting.MinProfitUSD)
	}

	var locker storage.AdvisoryLocker
	if l, ok := store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	return &Controller{
		source:     source,
		store:      store,
		alertStore: alertStore,
		notifier:   notifier,
		logger:     logger.With().Str("component", "refresh").Logger(),
		wallet:     cfg.Source.Wallet,
		topN:       cfg.Arbitrage.TopN,
		interval:   cfg.Scheduler.Interval,
		delay:      cfg.Scheduler.StartupDelay,
		lockKey:    cfg.Scheduler.AdvisoryLockKey,
		locker:     locker,
		alertsOn:   cfg.Alerting.Enabled,
		threshold:  threshold,
		cooldown:   cfg.Alerting.Cooldown,
		channels:   cfg.Alerting.Channels,
	}
}

// Start enables auto-refresh: the periodic timer begins counting from zero.
// Calling Start while already running restarts the timer.
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.runCancel = cancel
	c.runDone = done

	sched := scheduler.New(scheduler.Options{
		Interval:     c.interval,
		StartupDelay: c.delay,
	}, c.logger)

	go func() {
		defer close(done)
		_ = sched.Run(runCtx, func(tickCtx context.Context, at time.Time) error {
			return c.refresh(tickCtx, at)
		})
	}()

	c.logger.Info().Dur("interval", c.interval).Msg("auto-refresh enabled")
}

// Stop disables auto-refresh. The pending tick is cancelled deterministically;
// an in-flight periodic cycle is suppressed through context cancellation, so
// its result is never applied after Stop returns alongside the loop exit.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

// stopLocked cancels the run loop and waits for it to exit. mu is released
// while waiting so an in-flight cycle can still take it without deadlocking.
func (c *Controller) stopLocked() {
	if c.runCancel == nil {
		return
	}
	c.runCancel()
	done := c.runDone
	c.runCancel = nil
	c.runDone = nil

	c.mu.Unlock()
	<-done
	c.mu.Lock()

	c.logger.Info().Msg("auto-refresh disabled")
}

// Running reports whether the periodic timer is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runCancel != nil
}

// RefreshNow performs one refresh cycle on demand, independent of the
// periodic timer.
func (c *Controller) RefreshNow(ctx context.Context) error {
	return c.refresh(ctx, time.Now().UTC())
}

// View returns the last successfully derived view model.
func (c *Controller) View() (engine.ViewModel, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.view == nil {
		return engine.ViewModel{}, false
	}
	return *c.view, true
}

// LastError returns the most recent fetch failure, or nil after a
// successful cycle.
func (c *Controller) LastError() *RefreshError {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr == nil {
		return nil
	}
	errCopy := *c.lastErr
	return &errCopy
}

func (c *Controller) refresh(ctx context.Context, at time.Time) error {
	c.cycleMu.Lock()
	defer c.cycleMu.Unlock()

	unlock, proceed, err := c.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		c.logger.Debug().Time("at", at).Msg("skip cycle because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	snap, err := c.fetchSnapshot(ctx, at)
	if err != nil {
		c.recordFailure(ctx, err)
		return err
	}

	vm := engine.BuildViewModel(snap, c.topN)
	c.apply(vm)

	c.logger.Info().Time("at", at).
		Int("protocols", len(vm.Protocols)).
		Int("opportunities", len(vm.TopOpportunities)).
		Bool("has_portfolio", vm.Portfolio != nil).
		Msg("view model refreshed")

	c.persist(ctx, vm)
	c.maybeAlert(ctx, vm)

	return nil
}

// fetchSnapshot pulls all three collections to completion before any
// derivation runs. The first failure aborts the snapshot.
func (c *Controller) fetchSnapshot(ctx context.Context, at time.Time) (engine.Snapshot, error) {
	protocols, err := c.source.FetchProtocols(ctx)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("fetch protocols: %w", err)
	}

	positions, err := c.source.FetchPositions(ctx, c.wallet)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("fetch positions: %w", err)
	}

	opportunities, err := c.source.FetchOpportunities(ctx)
	if err != nil {
		return engine.Snapshot{}, fmt.Errorf("fetch opportunities: %w", err)
	}

	return engine.Snapshot{
		Protocols:     protocols,
		Positions:     positions,
		Opportunities: opportunities,
		TakenAt:       at,
	}, nil
}

func (c *Controller) apply(vm engine.ViewModel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = &vm
	c.lastErr = nil
}

func (c *Controller) recordFailure(ctx context.Context, err error) {
	// A cancelled context means the controller was stopped mid-flight, not
	// that the source failed.
	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	c.lastErr = &RefreshError{Message: err.Error(), At: time.Now().UTC()}
	c.mu.Unlock()

	c.logger.Error().Err(err).Msg("refresh cycle failed; keeping previous view model")
}

func (c *Controller) persist(ctx context.Context, vm engine.ViewModel) {
	if c.store == nil {
		return
	}

	snapshot := storage.MetricSnapshot{
		TakenAt:       vm.GeneratedAt,
		ProtocolCount: len(vm.Protocols),
		Status:        "complete",
		CreatedAt:     time.Now().UTC(),
	}
	if m := vm.Portfolio; m != nil {
		snapshot.HasMetrics = true
		snapshot.TotalValue = m.TotalValue
		snapshot.TotalPnL = m.TotalPnL
		snapshot.TotalPnLPct = m.TotalPnLPct
		snapshot.PendingRewards = m.PendingRewards
		snapshot.WeightedAPY = m.WeightedAPY
		snapshot.AverageRisk = m.AverageRisk
		snapshot.PositionCount = m.PositionCount
	}
	if top, ok := vm.TopProfit(); ok {
		snapshot.TopProfit = top.Profit
	}

	if err := c.store.UpsertSnapshot(ctx, snapshot); err != nil {
		c.logger.Error().Err(err).Time("at", vm.GeneratedAt).Msg("failed to persist metric snapshot")
	}
}

func (c *Controller) maybeAlert(ctx context.Context, vm engine.ViewModel) {
	if !c.alertsOn || c.notifier == nil || c.threshold.IsZero() {
		return
	}

	top, ok := vm.TopProfit()
	if !ok || !top.Profit.GreaterThan(c.threshold) {
		return
	}

	if c.cooldown > 0 && !c.lastAlertAt.IsZero() && time.Since(c.lastAlertAt) < c.cooldown {
		c.logger.Debug().Str("opportunity", top.ID).Msg("alert suppressed by cooldown")
		return
	}

	note := alerting.Notification{
		TakenAt:       vm.GeneratedAt,
		OpportunityID: top.ID,
		TokenA:        top.TokenA,
		TokenB:        top.TokenB,
		ExchangeA:     top.ExchangeA,
		ExchangeB:     top.ExchangeB,
		ProfitUSD:     top.Profit,
		ProfitPct:     top.ProfitPct,
		GasCost:       top.GasCost,
		ThresholdUSD:  c.threshold,
		Channels:      c.channels,
	}

	if c.alertStore != nil {
		record := storage.AlertRecord{
			TakenAt:       vm.GeneratedAt,
			OpportunityID: top.ID,
			Pair:          note.Pair(),
			Spread:        note.Spread(),
			ProfitUSD:     top.Profit,
			ThresholdUSD:  c.threshold,
			Channels:      c.channels,
		}
		if _, err := c.alertStore.InsertAlert(ctx, record); err != nil {
			c.logger.Error().Err(err).Time("at", vm.GeneratedAt).Msg("failed to persist alert record")
		}
	}

	if err := c.notifier.Notify(ctx, note); err != nil {
		c.logger.Error().Err(err).Time("at", vm.GeneratedAt).Msg("failed to dispatch alert")
		return
	}
	c.lastAlertAt = time.Now().UTC()
}

func (c *Controller) acquireLock(ctx context.Context) (func(), bool, error) {
	if c.lockKey == 0 || c.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := c.locker.TryAdvisoryLock(ctx, c.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
