package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zapponejosh/saju-api/internal/config"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET  /health                              table coverage and store health
//	GET  /api/v1/locations                    named locations of the correction profile
//	POST /api/v1/analyze                      full chart analysis
//	GET  /api/v1/cycles/annual                ?birth_year=&start_age=&day_stem=
//	GET  /api/v1/cycles/monthly               ?year=&day_stem=
//	GET  /api/v1/calendar/{year}/{month}      month grid with day pillars
//
// Everything under /api/v1 requires X-API-Key when API_KEY is set.
func SetupRoutes(handlers *Handlers, cfg *config.Config, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RequestIDMiddleware(),
		RecoveryMiddleware(logger),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusNotFound, "Route not found", "NOT_FOUND")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg, logger))

		r.Get("/locations", handlers.ListLocations)
		r.Post("/analyze", handlers.Analyze)
		r.Get("/cycles/annual", handlers.AnnualCycle)
		r.Get("/cycles/monthly", handlers.MonthlyCycle)
		r.Get("/calendar/{year}/{month}", handlers.MonthView)
	})

	return r
}
