// Package app wires the posting sync service together and manages its lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/stacklok/posting-sync/internal/config"
	"github.com/stacklok/posting-sync/internal/geo"
	pkgsync "github.com/stacklok/posting-sync/internal/sync"
)

// ErrGeoDisabled is returned by WarmCache when the geo section is disabled
var ErrGeoDisabled = errors.New("geo cache warm-up is disabled")

// SyncApp encapsulates all components needed to run the posting sync service.
// It provides lifecycle management and graceful shutdown capabilities.
type SyncApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
	background sync.WaitGroup
}

// Start starts the background components and the HTTP server.
// It blocks until the HTTP server stops or encounters an error.
func (app *SyncApp) Start() error {
	app.background.Go(func() {
		app.components.PushRegistry.Run(app.ctx)
	})

	if app.components.GeoWarmer != nil {
		app.background.Go(func() {
			if _, err := app.components.GeoWarmer.WarmUp(app.ctx); err != nil {
				slog.Error("Location cache warm-up failed", "error", err)
			}
		})
	}

	app.background.Go(func() {
		if err := app.components.SyncCoordinator.Start(app.ctx); err != nil {
			slog.Error("Sync coordinator failed", "error", err)
		}
	})

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout.
// The running cycle finishes first, then open event streams are closed so
// the HTTP server can drain.
func (app *SyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app.components.PushRegistry.CloseAll(shutdownCtx)
	err := app.httpServer.Shutdown(shutdownCtx)

	if app.cancelFunc != nil {
		app.cancelFunc()
	}
	app.background.Wait()
	app.components.Storage.Cleanup()

	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// RunCycle runs one sync cycle over the configured keywords without the
// scheduler. Used by the sync command.
func (app *SyncApp) RunCycle(ctx context.Context) (pkgsync.CycleResult, error) {
	keywords := app.config.Sync.Keywords
	if err := app.components.States.Initialize(ctx, keywords); err != nil {
		return pkgsync.CycleResult{}, fmt.Errorf("failed to initialize keyword sync status: %w", err)
	}

	result := app.components.Synchronizer.SyncAll(ctx, keywords)
	err := result.Err()
	if result.Cancelled {
		err = errors.Join(err, fmt.Errorf("sync cycle cancelled: %w", context.Cause(ctx)))
	}
	return result, err
}

// WarmCache fills the location cache once. Used by the warm-cache command.
func (app *SyncApp) WarmCache(ctx context.Context) (geo.WarmResult, error) {
	if app.components.GeoWarmer == nil {
		return geo.WarmResult{}, ErrGeoDisabled
	}
	return app.components.GeoWarmer.WarmUp(ctx)
}

// Close releases the storage connections of an app that was never started
func (app *SyncApp) Close() {
	if app.cancelFunc != nil {
		app.cancelFunc()
	}
	app.components.Storage.Cleanup()
}

// GetConfig returns the application configuration
func (app *SyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *SyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
