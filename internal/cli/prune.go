package cli

import (
	"time"

	"github.com/spf13/cobra"

	"defiwatch/internal/app"
)

var (
	pruneKeep   time.Duration
	pruneDryRun bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete snapshots and alerts older than the retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := app.PruneOptions{
			KeepFor: pruneKeep,
			DryRun:  pruneDryRun,
		}
		return getApp().Prune(cmd.Context(), opts)
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneKeep, "keep", 30*24*time.Hour, "Retention window, e.g. 720h")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "Report what would be deleted without deleting")
}
