package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wigg/datalayer/pkg/logger"
)

// Check reports whether a dependency is usable.
type Check func(ctx context.Context) error

// RouterOption adds routes to NewRouter.
type RouterOption func(chi.Router)

// WithJSON serves the value returned by fn as JSON at GET path.
func WithJSON(path string, fn func(r *http.Request) any) RouterOption {
	return func(r chi.Router) {
		r.Get(path, func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, fn(req))
		})
	}
}

// NewRouter returns the operator router:
//
//	GET /healthz  liveness, always 200
//	GET /readyz   runs checks; 503 if any fails
//	GET /metrics  Prometheus exposition of gatherer
func NewRouter(log *slog.Logger, gatherer prometheus.Gatherer, checks map[string]Check, opts ...RouterOption) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
	})
	r.Get("/readyz", readiness(log, checks))
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	for _, opt := range opts {
		opt(r)
	}
	return r
}

type readyReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func readiness(log *slog.Logger, checks map[string]Check) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		report := readyReport{Status: "ready", Checks: make(map[string]string, len(names))}
		status := http.StatusOK
		for _, name := range names {
			if err := checks[name](r.Context()); err != nil {
				log.ErrorContext(r.Context(), "readiness check failed", slog.String("check", name), logger.Error(err))
				report.Checks[name] = err.Error()
				report.Status = "not_ready"
				status = http.StatusServiceUnavailable
				continue
			}
			report.Checks[name] = "ok"
		}
		writeJSON(w, status, report)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
