package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"defiwatch/internal/alerting"
	"defiwatch/internal/config"
	"defiwatch/internal/fetcher"
	"defiwatch/internal/refresh"
	"defiwatch/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newSource() fetcher.Source {
	return fetcher.NewClient(fetcher.ClientOptions{
		BaseURL:   a.Config.Source.BaseURL,
		Timeout:   a.Config.Source.RequestTimeout,
		UserAgent: a.Config.Source.UserAgent,
	}, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running refresh service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		a.Logger.Warn().Msg("database.dsn not configured; snapshot history disabled")
	}
	if closeStore != nil {
		defer closeStore()
	}

	var snapStore storage.SnapshotStore
	var alertStore storage.AlertStore
	if store != nil {
		snapStore = store
		alertStore = store
	}

	controller := refresh.New(a.Config, a.newSource(), snapStore, alertStore, a.newNotifier(), a.Logger)

	a.Logger.Info().Msg("starting refresh service")

	// Populate the view model immediately; a failure here is transient and
	// retried by the timer.
	if err := controller.RefreshNow(ctx); err != nil {
		a.Logger.Warn().Err(err).Msg("initial refresh failed; waiting for next cycle")
	}

	if a.Config.Scheduler.AutoRefresh {
		controller.Start(ctx)
		defer controller.Stop()
	} else {
		a.Logger.Info().Msg("auto-refresh disabled by configuration")
	}

	<-ctx.Done()

	if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("refresh service terminated with error")
		return err
	}

	a.Logger.Info().Msg("refresh service stopped")
	return nil
}

// ExportOptions hold parameters for exporting metric history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// PruneOptions configure the retention job.
type PruneOptions struct {
	KeepFor time.Duration
	DryRun  bool
}
