package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miklosbodnar/eventdeck-backend/pkg/config"
	"github.com/miklosbodnar/eventdeck-backend/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// Pinger is a dependency the readiness probe checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewOpsHandler returns the operational HTTP surface of the worker: liveness,
// readiness against the named dependencies, and prometheus metrics.
func NewOpsHandler(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", healthzHandler(cfg, logg))
	r.Get("/readyz", readyzHandler(cfg, logg, deps))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func healthzHandler(cfg *config.Config, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, logg, http.StatusOK, map[string]string{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

func readyzHandler(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		status := http.StatusOK
		checks := make(map[string]string, len(deps))
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				logg.Error(logg.WithField(ctx, "dependency", name), "readiness check failed", err)
				checks[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			checks[name] = "ok"
		}

		body := map[string]any{
			"status": "ok",
			"env":    cfg.App.Env,
			"checks": checks,
		}
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		writeJSON(w, r, logg, status, body)
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, logg *logger.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logg.Error(r.Context(), "failed to write ops response", err)
	}
}
