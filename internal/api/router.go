// Package api exposes the directory console over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/devplatform/ldap-console/internal/prometheus"
)

// Options configures the router
type Options struct {
	CORSOrigins     []string
	RateLimitRPM    int
	DefaultPageSize int
	// GraphQL is mounted at /graphql when set
	GraphQL http.Handler
}

// NewRouter builds the HTTP handler tree
func NewRouter(svc prometheus.DirectoryInterface, opts Options, logger *logrus.Logger) http.Handler {
	h := NewHandler(svc, opts.DefaultPageSize, logger)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(loggingMiddleware(logger))
	r.Use(metricsMiddleware)
	r.Use(corsMiddleware(opts.CORSOrigins))
	r.Use(newRateLimiter(opts.RateLimitRPM).Handler)

	// Health endpoint (liveness probe)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	})

	// Readiness endpoint: the cluster registry must be readable
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if _, err := svc.ListClusters(ctx); err != nil {
			logger.WithError(err).Warn("Readiness check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	r.Route("/api", func(api chi.Router) {
		api.Get("/clusters/list", h.ListClusters)
		api.Get("/password/check/{cluster}", h.CheckPassword)
		api.Post("/connection/connect", h.Connect)
		api.Get("/connection/status", h.ConnectionStatus)
		api.Get("/entries/search", h.Search)
		api.Get("/entries/stats", h.Stats)
		api.Get("/monitoring/health", h.Health)
		api.Get("/monitoring/nodes", h.NodeMetrics)
		api.Get("/logs/activity", h.Activity)
	})

	if opts.GraphQL != nil {
		r.Handle("/graphql", opts.GraphQL)
	}

	return r
}
