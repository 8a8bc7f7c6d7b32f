package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/teampulse/calsync/internal/recon/scheduler"
)

var skipRepair bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one full reconciliation pass and exit",
	Run:   runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&skipRepair, "skip-repair", false, "validate and sync without repairing inconsistencies")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	app := newApp(cfg)

	ctx := context.Background()
	defer func() {
		if err := app.Stop(context.Background()); err != nil {
			slog.Warn("Error during shutdown", "error", err)
		}
	}()

	opts := scheduler.DefaultOptions()
	opts.SkipRepair = skipRepair

	results, err := app.Scheduler().ManualSync(ctx, opts)
	if err != nil {
		slog.Error("Reconciliation failed", "error", err)
		os.Exit(1)
	}

	fmt.Println(results.Summary)
}
