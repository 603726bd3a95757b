package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stacklok/posting-sync/internal/app"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync cycle and exit",
		Long: `Run a single sync cycle over the configured keywords without starting the
HTTP server or the scheduler. Keyword locks are honoured, so the command is
safe to run next to a serving instance. Exits non-zero if any keyword failed.`,
		RunE: runSync,
	}
	addConfigFlag(cmd)
	cmd.Flags().StringSlice("keyword", nil, "Sync only these keywords (repeatable)")
	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	keywords, err := cmd.Flags().GetStringSlice("keyword")
	if err != nil {
		return fmt.Errorf("failed to get keyword flag: %w", err)
	}
	if len(keywords) > 0 {
		cfg.Sync.Keywords = keywords
	}

	syncApp, err := app.NewSyncApp(ctx, app.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer syncApp.Close()

	result, err := syncApp.RunCycle(ctx)
	for _, kr := range result.Keywords {
		slog.Info("Keyword sync finished",
			"keyword", kr.Keyword,
			"outcome", kr.Outcome,
			"inserted", kr.Inserted,
		)
	}
	if err != nil {
		return fmt.Errorf("sync cycle failed: %w", err)
	}

	slog.Info("Sync cycle complete", "duration", result.Duration, "keywords", len(result.Keywords))
	return nil
}
