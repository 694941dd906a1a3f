package app

import (
	"context"
	"errors"
	"time"
)

// Prune deletes metric snapshots and alert records older than the
// retention window.
func (a *App) Prune(ctx context.Context, opts PruneOptions) error {
	if opts.KeepFor <= 0 {
		return errors.New("--keep must be greater than zero")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot prune")
	}
	if closeStore != nil {
		defer closeStore()
	}

	cutoff := time.Now().UTC().Add(-opts.KeepFor)

	before, err := store.CountSnapshots(ctx)
	if err != nil {
		return err
	}

	if opts.DryRun {
		a.Logger.Info().Time("cutoff", cutoff).Int64("snapshots", before).Msg("dry run; nothing deleted")
		return nil
	}

	if err := store.DeleteSnapshotsBefore(ctx, cutoff); err != nil {
		return err
	}
	if err := store.DeleteAlertsBefore(ctx, cutoff); err != nil {
		return err
	}

	after, err := store.CountSnapshots(ctx)
	if err != nil {
		return err
	}

	a.Logger.Info().Time("cutoff", cutoff).Int64("deleted", before-after).Int64("remaining", after).Msg("prune complete")
	return nil
}
