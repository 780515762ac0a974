package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"faceclock/pkg/logger"
	"faceclock/pkg/observability"
)

// Manager is the process-wide connection registry for the live attendance feed.
var Manager = NewWebSocketManager()

type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type clientInfo struct {
	PersonID    uuid.UUID
	ConnectedAt time.Time
}

type WebSocketManager struct {
	clients map[*websocket.Conn]*clientInfo
	mu      sync.RWMutex
}

func NewWebSocketManager() *WebSocketManager {
	return &WebSocketManager{
		clients: make(map[*websocket.Conn]*clientInfo),
	}
}

// RegisterClient adds a connection to the registry. personID is uuid.Nil for
// anonymous dashboard viewers.
func (m *WebSocketManager) RegisterClient(conn *websocket.Conn, personID uuid.UUID) {
	m.mu.Lock()
	m.clients[conn] = &clientInfo{
		PersonID:    personID,
		ConnectedAt: time.Now(),
	}
	count := len(m.clients)
	m.mu.Unlock()

	observability.WSConnections.Inc()
	logger.WebSocket("client_registered", "WebSocket client registered", map[string]interface{}{
		"person_id":    personID.String(),
		"client_count": count,
	})
}

func (m *WebSocketManager) UnregisterClient(conn *websocket.Conn) {
	m.mu.Lock()
	_, ok := m.clients[conn]
	if ok {
		delete(m.clients, conn)
	}
	count := len(m.clients)
	m.mu.Unlock()

	if !ok {
		return
	}

	observability.WSConnections.Dec()
	logger.WebSocket("client_unregistered", "WebSocket client unregistered", map[string]interface{}{
		"client_count": count,
	})
}

// BroadcastToAll sends a message to every connected client. A connection that
// fails to accept the write is dropped from the registry.
func (m *WebSocketManager) BroadcastToAll(messageType string, data interface{}) {
	msg := Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now(),
	}

	m.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(m.clients))
	for conn := range m.clients {
		conns = append(conns, conn)
	}
	m.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			logger.WebSocketError("broadcast", "WebSocket write failed, dropping client", err, nil)
			m.UnregisterClient(conn)
			conn.Close()
		}
	}
}

// BroadcastToPerson sends a message only to connections bound to one person.
func (m *WebSocketManager) BroadcastToPerson(personID uuid.UUID, messageType string, data interface{}) {
	msg := Message{
		Type:      messageType,
		Data:      data,
		Timestamp: time.Now(),
	}

	m.mu.RLock()
	conns := make([]*websocket.Conn, 0)
	for conn, info := range m.clients {
		if info.PersonID == personID {
			conns = append(conns, conn)
		}
	}
	m.mu.RUnlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(msg); err != nil {
			logger.WebSocketError("broadcast_person", "WebSocket write failed, dropping client", err, map[string]interface{}{
				"person_id": personID.String(),
			})
			m.UnregisterClient(conn)
			conn.Close()
		}
	}
}

func (m *WebSocketManager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// HandleWebSocketMessage processes one inbound client message. Clients only
// send keepalive pings; everything else is ignored.
func HandleWebSocketMessage(conn *websocket.Conn, messageType int, message []byte) {
	if messageType != websocket.TextMessage {
		return
	}

	var msg Message
	if err := json.Unmarshal(message, &msg); err != nil {
		return
	}

	if msg.Type == "ping" {
		pong := Message{Type: "pong", Timestamp: time.Now()}
		if err := conn.WriteJSON(pong); err != nil {
			logger.WebSocketError("pong", "WebSocket pong failed", err, nil)
		}
	}
}
