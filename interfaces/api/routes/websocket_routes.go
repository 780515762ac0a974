package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"faceclock/domain/services"
	"faceclock/interfaces/api/middleware"
	websocketHandler "faceclock/interfaces/api/websocket"
)

func SetupWebSocketRoutes(app *fiber.App, authService services.AuthService) {
	wsHandler := websocketHandler.NewWebSocketHandler()

	// WebSocket with optional authentication (supports query token for WS connections)
	app.Use("/ws", middleware.OptionalWithQueryToken(authService), wsHandler.WebSocketUpgrade)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))
}
