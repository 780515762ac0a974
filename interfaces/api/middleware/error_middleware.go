package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"faceclock/domain/services"
	"faceclock/pkg/logger"
	"faceclock/pkg/utils"
)

// ErrorHandler maps domain errors that escape a handler onto HTTP statuses.
// Handlers return service errors as-is; the mapping lives in one place.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var suppressed *services.SuppressedError
		if errors.As(err, &suppressed) {
			return utils.TooSoonResponse(c, "Attendance already recorded, wait before checking again", suppressed.Remaining)
		}

		code := statusFor(err)

		if code >= fiber.StatusInternalServerError {
			logger.Error(logger.CategoryAPI, "error_handler", "Request error occurred", err, map[string]interface{}{"status_code": code, "path": c.Path(), "method": c.Method()})
		}

		return utils.ErrorResponse(c, code, messageFor(err, code), err)
	}
}

func statusFor(err error) int {
	var persistErr *services.PersistenceError
	var upstreamErr *services.UpstreamError
	var fiberErr *fiber.Error

	switch {
	case errors.Is(err, services.ErrInvalidDescriptor),
		errors.Is(err, services.ErrInvalidEventType),
		errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrNoSamples):
		return fiber.StatusBadRequest

	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrPersonDisabled),
		errors.Is(err, services.ErrNotRegistered),
		errors.Is(err, utils.ErrExpiredToken),
		errors.Is(err, utils.ErrInvalidToken),
		errors.Is(err, utils.ErrMissingToken):
		return fiber.StatusUnauthorized

	case errors.Is(err, services.ErrNoMatch),
		errors.Is(err, services.ErrAmbiguousMatch),
		errors.Is(err, services.ErrNoFaceDetected),
		errors.Is(err, services.ErrPersonNotFound),
		errors.Is(err, services.ErrEventNotFound):
		return fiber.StatusNotFound

	case errors.As(err, &upstreamErr):
		return fiber.StatusBadGateway

	case errors.As(err, &persistErr):
		return fiber.StatusInternalServerError

	case errors.As(err, &fiberErr):
		return fiberErr.Code

	default:
		return fiber.StatusInternalServerError
	}
}

func messageFor(err error, code int) string {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Message != "" {
		return fiberErr.Message
	}

	switch code {
	case fiber.StatusBadRequest:
		return "Invalid request"
	case fiber.StatusUnauthorized:
		return "Not authenticated"
	case fiber.StatusNotFound:
		return "Not found"
	case fiber.StatusBadGateway:
		return "Upstream service unavailable"
	default:
		return "An error occurred"
	}
}
