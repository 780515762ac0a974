package routes

import (
	"github.com/gofiber/fiber/v2"

	"faceclock/domain/services"
	"faceclock/interfaces/api/handlers"
	"faceclock/interfaces/api/middleware"
)

func SetupAuditRoutes(api fiber.Router, h *handlers.Handlers, authService services.AuthService) {
	// Audit trail is admin-only
	api.Get("/audit", middleware.Protected(authService), middleware.AdminOnly(), h.Audit.List)
}
