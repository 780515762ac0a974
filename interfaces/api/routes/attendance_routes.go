package routes

import (
	"github.com/gofiber/fiber/v2"

	"faceclock/domain/services"
	"faceclock/interfaces/api/handlers"
	"faceclock/interfaces/api/middleware"
	"faceclock/pkg/config"
)

func SetupAttendanceRoutes(api fiber.Router, h *handlers.Handlers, authService services.AuthService, rateCfg *config.RateLimitConfig) {
	attendance := api.Group("/attendance")

	// The kiosk check carries no session; the face is the credential.
	// Its limiter is tighter than the general one since every request
	// costs an embedding extraction.
	attendance.Post("/check", middleware.CheckRateLimiter(rateCfg), h.Attendance.Check)

	// Personal history
	protected := middleware.Protected(authService)
	attendance.Get("/me", protected, h.Attendance.Me)
	attendance.Get("/me/today", protected, h.Attendance.Today)

	// Admin views and corrections
	admin := middleware.AdminOnly()
	attendance.Get("/", protected, admin, h.Attendance.List)
	attendance.Patch("/:id", protected, admin, h.Attendance.Correct)
}
