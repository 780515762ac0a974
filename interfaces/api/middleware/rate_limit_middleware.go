package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"faceclock/pkg/config"
)

func passthrough(c *fiber.Ctx) error {
	return c.Next()
}

// ipLimiter builds a fixed-window limiter keyed by client IP.
func ipLimiter(max, windowSeconds int, code, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        max,
		Expiration: time.Duration(windowSeconds) * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"success": false,
				"error": fiber.Map{
					"code":    code,
					"message": message,
				},
			})
		},
	})
}

// RateLimiter covers the whole API surface
func RateLimiter(cfg *config.RateLimitConfig) fiber.Handler {
	if !cfg.Enabled {
		return passthrough
	}
	return ipLimiter(cfg.MaxRequests, cfg.WindowSeconds,
		"RATE_LIMIT_EXCEEDED", "Too many requests. Please try again later.")
}

// AuthRateLimiter is the stricter limit on login and refresh, slowing down
// credential guessing.
func AuthRateLimiter(cfg *config.RateLimitConfig) fiber.Handler {
	if !cfg.Enabled {
		return passthrough
	}
	return ipLimiter(cfg.AuthMaxRequests, cfg.AuthWindowSeconds,
		"AUTH_RATE_LIMIT_EXCEEDED", "Too many authentication attempts. Please try again later.")
}

// CheckRateLimiter caps the unauthenticated kiosk check endpoint per IP.
// Every accepted request costs an embedding extraction, so this sits well
// below the general limit.
func CheckRateLimiter(cfg *config.RateLimitConfig) fiber.Handler {
	if !cfg.Enabled {
		return passthrough
	}
	return ipLimiter(cfg.CheckMaxRequests, cfg.CheckWindowSeconds,
		"CHECK_RATE_LIMIT_EXCEEDED", "Too many check attempts. Please wait before retrying.")
}
