// Package api serves derived Hijri calendars over HTTP.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// SetupRoutes configures all HTTP routes and returns the router.
//
// Route structure:
//
//	GET /health
//	GET /api/v1/calendar?start=YYYY&end=YYYY&mode=observed|fixed
//	GET /api/v1/calendar.ics?start=YYYY&end=YYYY&mode=observed|fixed
//	GET /api/v1/years/{year}?mode=observed|fixed
//	GET /api/v1/phases?from=YYYY-MM-DD&to=YYYY-MM-DD
//	GET /api/v1/derivations/{id}
func SetupRoutes(handlers *Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(
		RecoveryMiddleware(logger),
		middleware.RealIP,
		RequestIDMiddleware(),
		LoggingMiddleware(logger),
		CORSMiddleware(),
	)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteNotFound(w, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed", "METHOD_NOT_ALLOWED")
	})

	r.Get("/health", handlers.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/calendar", handlers.GetCalendar)
		r.Get("/calendar.ics", handlers.GetCalendarICS)
		r.Get("/years/{year}", handlers.GetYear)
		r.Get("/phases", handlers.GetPhases)
		r.Get("/derivations/{id}", handlers.GetDerivation)
	})

	return r
}
