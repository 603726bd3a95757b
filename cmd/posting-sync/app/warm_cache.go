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

func newWarmCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warm-cache",
		Short: "Copy all locations into the cache and exit",
		Long: `Load every location record from the database and write the ones missing
from the cache. Uses Redis when configured and the geo key prefix from the
configuration file. The geo section does not need to be enabled.`,
		RunE: runWarmCache,
	}
	addConfigFlag(cmd)
	return cmd
}

func runWarmCache(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.Geo.Enabled = true

	syncApp, err := app.NewSyncApp(ctx, app.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer syncApp.Close()

	result, err := syncApp.WarmCache(ctx)
	if err != nil {
		return fmt.Errorf("cache warm-up failed: %w", err)
	}

	slog.Info("Cache warm-up complete",
		"total", result.Total,
		"cached", result.Cached,
		"existing", result.Existing,
		"failed", result.Failed,
		"duration", result.Duration,
	)
	return nil
}
