package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"faceclock/domain/services"
	"faceclock/pkg/utils"
)

// Protected validates the bearer token and confirms its session is still
// active before letting the request through. A structurally valid token
// whose session was revoked or rotated is rejected here, not deeper in.
func Protected(authService services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return utils.UnauthorizedResponse(c, "Missing authorization header")
		}

		token := utils.ExtractTokenFromHeader(authHeader)
		if token == "" {
			return utils.UnauthorizedResponse(c, "Invalid authorization header format")
		}

		principal, err := authService.Validate(c.Context(), token)
		if err != nil {
			return rejectToken(c, err)
		}

		// Set person context in fiber locals
		c.Locals("person", &utils.PersonContext{
			ID:        principal.PersonID,
			SessionID: principal.SessionID,
			Name:      principal.Name,
			Role:      principal.Role,
		})

		return c.Next()
	}
}

// RequireRole middleware checks if the caller has a specific role
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		person, err := utils.GetPersonFromContext(c)
		if err != nil {
			return utils.UnauthorizedResponse(c, "Not authenticated")
		}

		if person.Role != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Insufficient permissions",
				"error":   "Access denied",
			})
		}

		return c.Next()
	}
}

// AdminOnly middleware ensures only admin persons can access
func AdminOnly() fiber.Handler {
	return RequireRole("admin")
}

// OptionalWithQueryToken checks both header and query parameter for a token
// and continues anonymously when neither validates. Used for WebSocket
// connections where the Authorization header can't be sent.
func OptionalWithQueryToken(authService services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string

		// First try Authorization header
		authHeader := c.Get("Authorization")
		if authHeader != "" {
			token = utils.ExtractTokenFromHeader(authHeader)
		}

		// If no header token, try query parameter
		if token == "" {
			token = c.Query("token")
		}

		if token == "" {
			return c.Next() // No token, continue as anonymous
		}

		principal, err := authService.Validate(c.Context(), token)
		if err != nil {
			return c.Next() // Invalid token, continue as anonymous
		}

		c.Locals("person", &utils.PersonContext{
			ID:        principal.PersonID,
			SessionID: principal.SessionID,
			Name:      principal.Name,
			Role:      principal.Role,
		})
		return c.Next()
	}
}

func rejectToken(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, utils.ErrExpiredToken):
		return utils.UnauthorizedResponse(c, "Token has expired")
	case errors.Is(err, utils.ErrInvalidToken):
		return utils.UnauthorizedResponse(c, "Invalid token")
	case errors.Is(err, utils.ErrMissingToken):
		return utils.UnauthorizedResponse(c, "Missing token")
	case errors.Is(err, services.ErrSessionNotFound):
		return utils.UnauthorizedResponse(c, "Session is no longer active")
	case errors.Is(err, services.ErrPersonDisabled):
		return utils.UnauthorizedResponse(c, "Account is deactivated")
	default:
		return utils.UnauthorizedResponse(c, "Token validation failed")
	}
}
