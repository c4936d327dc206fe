package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/atinyakov/Perseverance/internal/middleware"
)

// Handlers groups everything NewRouter mounts.
type Handlers struct {
	Auth        *AuthHandler
	Habits      *HabitHandler
	Completions *CompletionHandler
	// Tokens verifies bearer tokens on protected routes.
	Tokens middleware.TokenParser
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
	Metrics  *middleware.Metrics
}

// NewRouter constructs the HTTP handler serving the Remote API.
//
// Routes:
//
//	GET  /health
//	GET  /metrics
//	POST /api/auth/register, /api/auth/login
//	GET  /api/auth/me            PUT /api/auth/settings
//	GET  /api/habits             POST /api/habits
//	GET  /api/habits/{id}        PUT, DELETE /api/habits/{id}
//	GET  /api/completions        POST /api/completions
//	PUT, DELETE /api/completions/{id}
//	GET  /api/completions/stats/{habitId}
//
// Everything under /api except register and login requires a bearer token.
func NewRouter(h Handlers, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.WithRequestLogging(logger, h.Metrics))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if h.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(h.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		// Only allow requests with Content-Type: application/json
		r.Use(chiMiddleware.AllowContentType("application/json"))

		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)

		r.Group(func(r chi.Router) {
			r.Use(middleware.BearerAuth(h.Tokens))

			r.Get("/auth/me", h.Auth.Me)
			r.Put("/auth/settings", h.Auth.UpdateSettings)

			r.Route("/habits", func(r chi.Router) {
				r.Get("/", h.Habits.List)
				r.Post("/", h.Habits.Create)
				r.Get("/{id}", h.Habits.Get)
				r.Put("/{id}", h.Habits.Update)
				r.Delete("/{id}", h.Habits.Delete)
			})

			r.Route("/completions", func(r chi.Router) {
				r.Get("/", h.Completions.List)
				r.Post("/", h.Completions.Mark)
				r.Get("/stats/{habitId}", h.Completions.Stats)
				r.Put("/{id}", h.Completions.Update)
				r.Delete("/{id}", h.Completions.Delete)
			})
		})
	})

	return r
}
