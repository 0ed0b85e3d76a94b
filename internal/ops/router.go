// Package ops serves operator endpoints on a separate listener.
package ops

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jgirmay/radlearn/internal/common/health"
	"github.com/jgirmay/radlearn/internal/metrics"
)

// NewRouter mounts /metrics and the health probes.
func NewRouter(m *metrics.Metrics, checker *health.HealthChecker) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)

	router.Handle("/metrics", m.Handler())
	router.Route("/health", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			status := checker.Check(r.Context())
			code := http.StatusOK
			if status.Status != "healthy" {
				code = http.StatusServiceUnavailable
			}
			writeJSON(w, code, status)
		})
		r.Get("/readiness", func(w http.ResponseWriter, r *http.Request) {
			ready := checker.IsReady(r.Context())
			code := http.StatusOK
			if !ready {
				code = http.StatusServiceUnavailable
			}
			writeJSON(w, code, map[string]bool{"ready": ready})
		})
		r.Get("/liveness", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"alive": checker.IsAlive()})
		})
	})
	return router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
