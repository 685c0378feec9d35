// Package httptransport assembles the public HTTP surface. It should delegate
// to domain services without embedding business logic so transport concerns
// remain isolated.
package httptransport

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loadvoice/internal/platform/middleware"
	"loadvoice/internal/verification/handler"
	"loadvoice/pkg/httputil"
)

// HealthCheck probes one backing dependency.
type HealthCheck func(ctx context.Context) error

// NewRouter wires the verification endpoint plus the operational surface.
func NewRouter(verify *handler.Handler, health map[string]HealthCheck) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.Recoverer)

	verify.Register(r)

	r.Get("/healthz", handleHealth(health))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

func handleHealth(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{"status": "ok"}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
				body[name] = err.Error()
			}
		}
		httputil.WriteJSON(w, status, body)
	}
}
