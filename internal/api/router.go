package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-codec/internal/auth"
	"github.com/nerrad567/gray-logic-codec/internal/datapoint"
)

// healthCheckTimeout bounds each component check in GET /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// ETS exports may exceed the JSON body limit.
		r.With(s.bodySizeLimit(datapoint.MaxImportSize), s.requireScope(auth.ScopeWrite)).
			Post("/datapoints/import", s.handleImportDatapoints)

		r.Group(func(r chi.Router) {
			r.Use(s.bodySizeLimit(maxRequestBodySize))

			if s.secCfg.Enabled {
				r.Post("/auth/token", s.handleToken)
			}

			r.Group(func(r chi.Router) {
				r.Use(s.requireScope(auth.ScopeRead))

				r.Get("/types", s.handleListTypes)
				r.Post("/resolve", s.handleResolve)
				r.Post("/decode", s.handleDecode)
				r.Post("/batch", s.handleBatch)

				r.Get("/datapoints", s.handleListDatapoints)
				r.Get("/datapoints/{name}", s.handleGetDatapoint)
				r.Post("/datapoints/{name}/decode", s.handleDecodeDatapoint)
				r.Get("/group-addresses/{address}", s.handleGetGroupAddress)
			})

			r.Group(func(r chi.Router) {
				r.Use(s.requireScope(auth.ScopeWrite))

				r.Post("/encode", s.handleEncode)
				r.Post("/datapoints/{name}/encode", s.handleEncodeDatapoint)
				r.Post("/datapoints", s.handleCreateDatapoint)
				r.Put("/datapoints/{name}", s.handleUpdateDatapoint)
				r.Delete("/datapoints/{name}", s.handleDeleteDatapoint)
			})
		})

		// WebSocket authenticates in the handler: browsers cannot set headers.
		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// wsPath returns the configured WebSocket route, "/ws" by default.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

// handleHealth reports the server version, catalog size, pipeline counters
// and the state of each registered component.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	components := make(map[string]string, len(s.checks))
	for name, c := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		if err := c.HealthCheck(ctx); err != nil {
			components[name] = err.Error()
			status = "degraded"
		} else {
			components[name] = "ok"
		}
		cancel()
	}

	resp := map[string]any{
		"status":     status,
		"version":    s.version,
		"datapoints": s.registry.Count(),
		"components": components,
	}
	if s.pipeline != nil {
		resp["pipeline"] = s.pipeline.Stats()
	}
	if s.hub != nil {
		resp["websocket_clients"] = s.hub.ClientCount()
	}
	writeJSON(w, http.StatusOK, resp)
}
