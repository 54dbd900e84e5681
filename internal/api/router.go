package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/dht-realtime/internal/auth"
)

// healthCheckTimeout bounds the transport health check in /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// Prometheus scrape endpoint (no auth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		// WebSocket authenticates with a single-use ticket, not the header.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.With(s.requirePermission(auth.PermStreamConnect)).Post("/auth/ws-ticket", s.handleWSTicket)

			r.Route("/readings", func(r chi.Router) {
				r.Use(s.requirePermission(auth.PermReadingsRead))
				r.Get("/", s.handleListReadings)
				r.Get("/*", s.handleGetReading)
			})

			r.Route("/selection", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermSelectionRead)).Get("/", s.handleGetSelection)
				r.With(s.requirePermission(auth.PermSelectionWrite)).Put("/", s.handleSetSelection)
			})
		})
	})

	return r
}

// handleHealth reports service status and, when known, transport health.
// A failing transport degrades the status but still answers 200 so the
// table remains readable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"status":  "ok",
		"version": s.version,
		"devices": s.view.DeviceCount(),
	}

	if s.transport != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		transport := map[string]any{"name": s.transportName, "healthy": true}
		if err := s.transport.HealthCheck(ctx); err != nil {
			transport["healthy"] = false
			transport["error"] = err.Error()
			resp["status"] = "degraded"
		}
		resp["transport"] = transport
	}

	writeJSON(w, http.StatusOK, resp)
}
