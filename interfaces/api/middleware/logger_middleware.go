package middleware

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"faceclock/pkg/logger"
	"faceclock/pkg/observability"
)

// LoggerMiddleware writes one API log line per request and feeds the HTTP
// duration histogram. The route pattern, not the raw path, keys the metric
// so path parameters don't blow up label cardinality.
func LoggerMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
		}

		duration := time.Since(start)
		route := c.Route().Path
		if route == "" {
			route = c.Path()
		}

		observability.HTTPRequestDuration.
			WithLabelValues(c.Method(), route, strconv.Itoa(status)).
			Observe(duration.Seconds())

		logger.API("request", "Request handled", map[string]interface{}{
			"method":      c.Method(),
			"path":        c.Path(),
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"ip":          c.IP(),
		})

		return err
	}
}

// CorsMiddleware configures cross-origin access for browser clients
func CorsMiddleware() fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Admin-Token",
	})
}
