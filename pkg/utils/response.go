package utils

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Response is the envelope every endpoint returns.
// ClearSession rides on 401 responses and tells the client to drop its
// stored token and sign in again.
type Response struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message,omitempty"`
	Data         interface{} `json:"data,omitempty"`
	Error        string      `json:"error,omitempty"`
	ClearSession bool        `json:"clear_session,omitempty"`
}

func SuccessResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func CreatedResponse(c *fiber.Ctx, message string, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *fiber.Ctx, statusCode int, message string, err error) error {
	errStr := ""
	if err != nil {
		errStr = err.Error()
	}
	return c.Status(statusCode).JSON(Response{
		Success:      false,
		Message:      message,
		Error:        errStr,
		ClearSession: statusCode == fiber.StatusUnauthorized,
	})
}

func UnauthorizedResponse(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(Response{
		Success:      false,
		Message:      message,
		ClearSession: true,
	})
}

// TooSoonResponse answers a suppressed attendance check with the remaining
// wait, both in the Retry-After header and the body.
func TooSoonResponse(c *fiber.Ctx, message string, remaining time.Duration) error {
	seconds := int(remaining.Round(time.Second).Seconds())
	if seconds < 1 {
		seconds = 1
	}
	c.Set("Retry-After", strconv.Itoa(seconds))
	return c.Status(fiber.StatusTooManyRequests).JSON(Response{
		Success: false,
		Message: message,
		Data: fiber.Map{
			"retry_after_seconds": seconds,
		},
	})
}
