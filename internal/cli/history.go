package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/teampulse/calsync/internal/infra/redis"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent reconciliation runs from Redis",
	Run:   runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if cfg.Redis.URL == "" {
		slog.Error("No Redis configured; run history is only kept when redis.url is set")
		os.Exit(1)
	}

	client, err := redis.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = client.Close()
	}()

	publisher := redis.NewStatusPublisher(client, slog.Default())
	runs, err := publisher.History(context.Background(), historyLimit)
	if err != nil {
		slog.Error("Failed to load sync history", "error", err)
		os.Exit(1)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded yet")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "COMPLETED\tTRIGGER\tSUMMARY")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", r.CompletedAt.Format(time.RFC3339), r.Trigger, r.Summary)
	}
	_ = w.Flush()
}
