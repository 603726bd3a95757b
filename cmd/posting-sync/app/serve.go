package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/posting-sync/internal/app"
	"github.com/stacklok/posting-sync/internal/config"
	"github.com/stacklok/posting-sync/internal/telemetry"
)

const defaultGracefulTimeout = 30 * time.Second // Kubernetes-friendly shutdown time

func newServeCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the sync service and its HTTP API",
		Long: `Start the posting sync service.

The service runs sync cycles on the configured cron schedule, serves the
status and notification API, and streams notifications to subscribers
connected to /v1/events. The configuration file (--config) specifies the
provider, keywords, lock backend, database and optional Redis settings.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, v)
		},
	}

	cmd.Flags().String("address", ":8080", "Address to listen on")
	cmd.Flags().Duration("shutdown-timeout", defaultGracefulTimeout, "Time allowed for graceful shutdown")
	addConfigFlag(cmd)

	for _, name := range []string{"address", "shutdown-timeout"} {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("failed to bind %s flag: %v", name, err))
		}
	}

	return cmd
}

func runServe(cmd *cobra.Command, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shut down telemetry", "error", err)
		}
	}()

	opts := []app.SyncAppOptions{
		app.WithConfig(cfg),
		app.WithAddress(v.GetString("address")),
	}
	if tel.Enabled() {
		opts = append(opts,
			app.WithMeterProvider(tel.MeterProvider()),
			app.WithTracerProvider(tel.TracerProvider()),
		)
	}
	if h := tel.MetricsHandler(); h != nil {
		opts = append(opts, app.WithMetricsHandler(h))
	}

	syncApp, err := app.NewSyncApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- syncApp.Start()
	}()

	select {
	case err := <-errCh:
		// Start only returns early on a listen failure
		_ = syncApp.Stop(v.GetDuration("shutdown-timeout"))
		return err
	case <-ctx.Done():
	}

	return syncApp.Stop(v.GetDuration("shutdown-timeout"))
}
