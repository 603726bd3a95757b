package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/posting-sync/internal/api/common"
	"github.com/stacklok/posting-sync/internal/versions"
)

// readinessTimeout bounds a single readiness check
const readinessTimeout = 2 * time.Second

// ReadinessChecker reports whether a dependency can serve traffic.
// *pgxpool.Pool satisfies it.
type ReadinessChecker interface {
	Ping(ctx context.Context) error
}

// HealthRouter creates a router for health check endpoints
func HealthRouter(readiness ReadinessChecker) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/readiness", readinessHandler(readiness))
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles GET /health
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, HealthResponse{Status: "healthy"}, http.StatusOK)
}

// readinessHandler handles GET /readiness
func readinessHandler(readiness ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if readiness != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
			defer cancel()

			if err := readiness.Ping(ctx); err != nil {
				slog.WarnContext(r.Context(), "Readiness check failed", "error", err)
				common.WriteJSONResponse(w, ReadinessResponse{Status: "not ready", Error: "database unavailable"},
					http.StatusServiceUnavailable)
				return
			}
		}
		common.WriteJSONResponse(w, ReadinessResponse{Status: "ready"}, http.StatusOK)
	}
}

// versionHandler handles GET /version
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	common.WriteJSONResponse(w, versions.GetVersionInfo(), http.StatusOK)
}
