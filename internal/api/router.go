package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// healthCheckTimeout bounds the component checks behind /api/v1/health.
const healthCheckTimeout = 3 * time.Second

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)
	if s.secCfg.RateLimit.Enabled && s.secCfg.RateLimit.RequestsPerMinute > 0 {
		r.Use(httprate.LimitByIP(s.secCfg.RateLimit.RequestsPerMinute, time.Minute))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/lights", func(r chi.Router) {
			r.Get("/", s.handleListLights)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetLight)
				r.Post("/turn_on", s.handleTurnOn)
				r.Post("/turn_off", s.handleTurnOff)
				r.Get("/history", s.handleLightHistory)
			})
		})

		r.Get(s.wsCfg.Path, s.handleWebSocket)
	})

	return r
}

type componentHealth struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleHealth reports overall status plus each configured component.
// Any failing component turns the response into 503 "degraded".
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(s.checks))
	for name, c := range s.checks {
		if c != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	status := "ok"
	code := http.StatusOK
	components := make(map[string]componentHealth, len(names))
	for _, name := range names {
		if err := s.checks[name].HealthCheck(ctx); err != nil {
			components[name] = componentHealth{Status: "error", Error: err.Error()}
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		components[name] = componentHealth{Status: "ok"}
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"lights":     s.registry.Count(),
		"ws_clients": s.hub.ClientCount(),
		"components": components,
	})
}
