package websocket

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	websocketManager "faceclock/infrastructure/websocket"
	"faceclock/pkg/logger"
	"faceclock/pkg/utils"
)

type WebSocketHandler struct{}

func NewWebSocketHandler() *WebSocketHandler {
	return &WebSocketHandler{}
}

func (h *WebSocketHandler) WebSocketUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// HandleWebSocket runs one client connection. Authenticated persons get
// their personal feed on top of the broadcast stream; anonymous clients
// (kiosk dashboards) receive broadcasts only.
func (h *WebSocketHandler) HandleWebSocket(c *websocket.Conn) {
	var personID uuid.UUID

	// Try to get person from context (set by the optional auth middleware)
	if personContext := c.Locals("person"); personContext != nil {
		if person, ok := personContext.(*utils.PersonContext); ok {
			personID = person.ID
		}
	}

	if personID == uuid.Nil {
		logger.WebSocket("anonymous_connected", "Anonymous client connected", nil)
	} else {
		logger.WebSocket("authenticated_connected", "Authenticated person connected", map[string]interface{}{"person_id": personID.String()})
	}

	websocketManager.Manager.RegisterClient(c, personID)

	defer func() {
		websocketManager.Manager.UnregisterClient(c)
	}()

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			logger.WebSocketError("read_message", "WebSocket read error", err, map[string]interface{}{"person_id": personID.String()})
			break
		}

		websocketManager.HandleWebSocketMessage(c, messageType, message)
	}
}
