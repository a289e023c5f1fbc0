package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// healthCheckTimeout bounds the component checks of /health.
const healthCheckTimeout = 5 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.metricsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Handle("/metrics", s.metrics.handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.handleListItems)
			r.Post("/reload", s.handleReload)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetItem)
				r.Get("/state", s.handleGetState)
				r.Post("/command", s.handleCommand)
			})
		})

		r.Get("/resolve", s.handleResolve)
		r.Get("/locate", s.handleLocate)
		r.Get("/vocabulary", s.handleVocabulary)

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", s.handleListJobs)
			r.Post("/", s.handleScheduleJob)
			r.Delete("/{id}", s.handleCancelJob)
		})

		r.Get("/commands", s.handleListCommands)
	})

	return r
}

// handleHealth reports the server version and the state of every
// registered component. Any failing component turns the response into 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	components := make(map[string]string, len(s.health))
	for name, checker := range s.health {
		if err := checker.HealthCheck(ctx); err != nil {
			components[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	store := s.store()
	if store == nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	resp := map[string]any{
		"status":         status,
		"version":        s.version,
		"uptime_seconds": int64(time.Since(s.startTime).Seconds()),
		"components":     components,
	}
	if store != nil {
		resp["items"] = store.Len()
		resp["containment"] = string(store.Model())
	}
	writeJSON(w, code, resp)
}
