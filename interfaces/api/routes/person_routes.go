package routes

import (
	"github.com/gofiber/fiber/v2"

	"faceclock/domain/services"
	"faceclock/interfaces/api/handlers"
	"faceclock/interfaces/api/middleware"
)

func SetupPersonRoutes(api fiber.Router, h *handlers.Handlers, authService services.AuthService) {
	protected := middleware.Protected(authService)
	admin := middleware.AdminOnly()

	// Enrollment management is an admin concern
	persons := api.Group("/persons", protected, admin)

	persons.Post("/", h.Person.Register)
	persons.Get("/", h.Person.List)
	persons.Get("/:id", h.Person.Get)
	persons.Post("/:id/faces", h.Person.AddFaces)
	persons.Delete("/:id/faces", h.Person.ClearFaces)
	persons.Patch("/:id/active", h.Person.SetActive)

	// Identify without recording an event (enrollment verification)
	api.Post("/recognize", protected, admin, h.Attendance.Recognize)
}
