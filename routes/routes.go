package routes

import (
	"github.com/Madhav-Gupta-28/olist-insights/handlers"
	customMiddleware "github.com/Madhav-Gupta-28/olist-insights/middleware"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes registers the public and /api routes. The /api group requires
// a bearer token only when jwtSecret is set.
func SetupRoutes(e *echo.Echo, h *handlers.Handler, jwtSecret string) {
	// Public routes
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	if jwtSecret != "" {
		api.Use(customMiddleware.BearerAuth(jwtSecret))
	}

	// Report routes
	api.GET("/queries", h.ListQueries)
	api.GET("/queries/:id", h.RunQuery)
}
