package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/teampulse/calsync/internal/infra/storage"
	"github.com/teampulse/calsync/internal/infra/storage/memory"
	"github.com/teampulse/calsync/internal/infra/storage/postgres"
	"github.com/teampulse/calsync/internal/notify"
	"github.com/teampulse/calsync/internal/recon/validate"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Validate calendar consistency without repairing anything",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	var store *storage.Store
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			slog.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() {
			_ = db.Close()
		}()
		store = postgres.NewStore(db)
	} else {
		store = memory.NewStore()
	}

	validator := validate.NewValidator(store, notify.NopSink{}, slog.Default())
	report, err := validator.Validate(ctx, validate.AllChecks())
	if err != nil {
		slog.Error("Validation failed", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "CHECK\tISSUES")
	_, _ = fmt.Fprintf(w, "orphaned events\t%d\n", report.Summary.OrphanedEvents)
	_, _ = fmt.Fprintf(w, "missing links\t%d\n", report.Summary.MissingLinks)
	_, _ = fmt.Fprintf(w, "broken references\t%d\n", report.Summary.BrokenReferences)
	_, _ = fmt.Fprintf(w, "invalid data\t%d\n", report.Summary.InvalidData)
	_, _ = fmt.Fprintf(w, "duplicate groups\t%d\n", report.Summary.Duplicates)
	_, _ = fmt.Fprintf(w, "stale events\t%d\n", report.Summary.StaleEvents)
	_ = w.Flush()

	if report.Summary.IsConsistent {
		fmt.Println("calendar is consistent")
	} else {
		fmt.Printf("%d issues found\n", report.Summary.TotalIssues)
		os.Exit(1)
	}
}
