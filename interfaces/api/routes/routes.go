package routes

import (
	"github.com/gofiber/fiber/v2"

	"faceclock/domain/services"
	"faceclock/interfaces/api/handlers"
	"faceclock/interfaces/api/middleware"
	"faceclock/pkg/config"
)

func SetupRoutes(app *fiber.App, h *handlers.Handlers, authService services.AuthService, cfg *config.Config) {
	// Setup health and root routes
	SetupHealthRoutes(app, h.Health)

	// API version group behind the general limiter
	api := app.Group("/api/v1", middleware.RateLimiter(&cfg.RateLimit))

	// Setup all route groups
	SetupAuthRoutes(api, h, authService, &cfg.RateLimit)
	SetupAttendanceRoutes(api, h, authService, &cfg.RateLimit)
	SetupPersonRoutes(api, h, authService)
	SetupAuditRoutes(api, h, authService)
	SetupLogRoutes(api, h)

	// Setup WebSocket routes (needs app, not api group)
	SetupWebSocketRoutes(app, authService)
}
