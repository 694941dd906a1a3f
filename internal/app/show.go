package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"defiwatch/internal/engine"
)

// Show prints recent metric snapshots.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show snapshots")
	}
	if closeStore != nil {
		defer closeStore()
	}

	snapshots, err := store.ListRecentSnapshots(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		fmt.Fprintln(os.Stdout, "no snapshots found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tValue\tP/L\tP/L%\tYield%\tRisk\tPositions\tTopArb\tStatus\tError")

	for _, snapshot := range snapshots {
		errMsg := ""
		if snapshot.Error != nil {
			errMsg = sanitizeInline(*snapshot.Error)
		}
		if !snapshot.HasMetrics {
			fmt.Fprintf(
				writer,
				"%s\t-\t-\t-\t-\t-\t0\t%s\t%s\t%s\n",
				snapshot.TakenAt.UTC().Format(time.RFC3339),
				formatDecimal(snapshot.TopProfit, 2),
				snapshot.Status,
				errMsg,
			)
			continue
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%.1f\t%d\t%s\t%s\t%s\n",
			snapshot.TakenAt.UTC().Format(time.RFC3339),
			engine.FormatCurrency(snapshot.TotalValue, a.Config.Display.Currency),
			engine.FormatCurrency(snapshot.TotalPnL, a.Config.Display.Currency),
			engine.FormatPercent(snapshot.TotalPnLPct),
			engine.FormatPercent(snapshot.WeightedAPY),
			snapshot.AverageRisk,
			snapshot.PositionCount,
			formatDecimal(snapshot.TopProfit, 2),
			snapshot.Status,
			errMsg,
		)
	}

	writer.Flush()
	return nil
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}

func formatDecimal(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}
