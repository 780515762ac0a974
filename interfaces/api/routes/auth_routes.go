package routes

import (
	"github.com/gofiber/fiber/v2"

	"faceclock/domain/services"
	"faceclock/interfaces/api/handlers"
	"faceclock/interfaces/api/middleware"
	"faceclock/pkg/config"
)

func SetupAuthRoutes(api fiber.Router, h *handlers.Handlers, authService services.AuthService, rateCfg *config.RateLimitConfig) {
	auth := api.Group("/auth")

	// Credential endpoints get the stricter limiter
	authLimiter := middleware.AuthRateLimiter(rateCfg)

	auth.Post("/login", authLimiter, h.Auth.Login)
	auth.Post("/refresh", authLimiter, h.Auth.Refresh)

	// Google OAuth
	auth.Get("/google", h.Auth.GoogleLogin)
	auth.Get("/google/callback", h.Auth.GoogleCallback)

	// Protected routes
	protected := middleware.Protected(authService)
	auth.Get("/me", protected, h.Auth.Me)
	auth.Post("/logout", protected, h.Auth.Logout)
	auth.Post("/logout-all", protected, h.Auth.LogoutAll)
	auth.Get("/sessions", protected, h.Auth.Sessions)
	auth.Delete("/sessions/:sessionId", protected, h.Auth.RevokeSession)
}
