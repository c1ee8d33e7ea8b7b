package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"podcast-kb/internal/handlers"
	"podcast-kb/internal/middleware"
	"podcast-kb/internal/websocket"
)

type Options struct {
	CORSOrigins []string
	AdminToken  string
	RateLimiter *middleware.RateLimiter
}

func New(
	messageHandler *handlers.MessageHandler,
	healthHandler *handlers.HealthHandler,
	statsHandler *handlers.StatsHandler,
	adminHandler *handlers.AdminHandler,
	wsHub *websocket.Hub,
	opts Options,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.CORS(opts.CORSOrigins))

	// Health check
	r.Get("/health", healthHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {

		// ──── Session push channel ────
		r.Get("/ws", wsHub.HandleWebSocket)

		// ──── Operation requests (rate limited per client) ────
		r.Group(func(r chi.Router) {
			if opts.RateLimiter != nil {
				r.Use(opts.RateLimiter.Middleware)
			}
			r.Post("/messages", messageHandler.Post)
		})

		r.Get("/stats", statsHandler.Stats)

		// ──── Operator routes ────
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.AdminToken(opts.AdminToken))
			r.Post("/circuit-breaker/reset", adminHandler.ResetCircuitBreaker)
		})
	})

	return r
}
