package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/portfolio-engine/internal/api/handlers"
	custommiddleware "github.com/ndewijer/portfolio-engine/internal/api/middleware"
	"github.com/ndewijer/portfolio-engine/internal/config"
	"github.com/ndewijer/portfolio-engine/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	statisticsService *service.StatisticsService,
	cfg *config.Config,
	logger zerolog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)
	if cfg.Server.RateLimit > 0 {
		r.Use(custommiddleware.RateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))
	}

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/users/{uuid}", func(r chi.Router) {
			r.Use(custommiddleware.ValidateUUIDMiddleware)

			statisticsHandler := handlers.NewStatisticsHandler(statisticsService)
			r.Get("/statistics", statisticsHandler.Statistics)
			r.Get("/positions", statisticsHandler.Positions)
			r.Get("/upcoming", statisticsHandler.Upcoming)
		})
	})

	return r
}
