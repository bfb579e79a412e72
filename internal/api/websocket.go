package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/fpp-modeler/backend/internal/modeler"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WebSocket message types
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypePong      = "pong"
	MsgTypeError     = "error"
	// Model events are sent with their event kind as the type,
	// e.g. "model:reloaded" and "model:changed".
)

const (
	clientBufferSize = 32
	writeTimeout     = 10 * time.Second
)

// WSMessage is the envelope of every WebSocket message
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSErrorPayload is the payload of an error message
type WSErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type wsClient struct {
	conn *websocket.Conn
	send chan WSMessage
}

// EventHub pushes model events to every connected WebSocket client.
// Clients that fall behind are disconnected.
type EventHub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu      sync.Mutex
	clients map[*wsClient]struct{}
}

// NewEventHub creates a hub with no clients
func NewEventHub(logger *slog.Logger) *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  4 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		logger:  logger.With("component", "ws"),
		clients: make(map[*wsClient]struct{}),
	}
}

// Publish broadcasts a model event. It never blocks on a slow client.
// Register it with modeler.Manager.Subscribe.
func (h *EventHub) Publish(ev modeler.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("encoding model event", "error", err)
		return
	}
	msg := WSMessage{
		Type:      string(ev.Kind),
		Payload:   payload,
		Timestamp: ev.At.UnixMilli(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for cl := range h.clients {
		select {
		case cl.send <- msg:
		default:
			h.logger.Warn("client too slow, disconnecting")
			h.dropLocked(cl)
		}
	}
}

// ClientCount returns the number of connected clients
func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the connection and streams model events until
// the client disconnects
func (h *EventHub) HandleWebSocket(c echo.Context) error {
	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	cl := &wsClient{conn: ws, send: make(chan WSMessage, clientBufferSize)}
	h.mu.Lock()
	h.clients[cl] = struct{}{}
	h.mu.Unlock()
	h.logger.Debug("client connected", "remote", c.RealIP())

	go h.writeLoop(cl)
	h.enqueue(cl, WSMessage{Type: MsgTypeConnected, Timestamp: time.Now().UnixMilli()})

	for {
		var msg WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				h.logger.Warn("connection error", "error", err)
			}
			break
		}

		switch msg.Type {
		case MsgTypePing:
			h.enqueue(cl, WSMessage{Type: MsgTypePong, ID: msg.ID, Timestamp: time.Now().UnixMilli()})
		default:
			payload, _ := json.Marshal(WSErrorPayload{Message: "Unknown message type: " + msg.Type, Code: "INVALID_TYPE"})
			h.enqueue(cl, WSMessage{Type: MsgTypeError, ID: msg.ID, Payload: payload, Timestamp: time.Now().UnixMilli()})
		}
	}

	h.mu.Lock()
	h.dropLocked(cl)
	h.mu.Unlock()
	h.logger.Debug("client disconnected", "remote", c.RealIP())
	return nil
}

func (h *EventHub) enqueue(cl *wsClient, msg WSMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[cl]; !ok {
		return
	}
	select {
	case cl.send <- msg:
	default:
		h.dropLocked(cl)
	}
}

// dropLocked unregisters a client. h.mu must be held.
func (h *EventHub) dropLocked(cl *wsClient) {
	if _, ok := h.clients[cl]; !ok {
		return
	}
	delete(h.clients, cl)
	close(cl.send)
}

func (h *EventHub) writeLoop(cl *wsClient) {
	defer cl.conn.Close()
	for msg := range cl.send {
		cl.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := cl.conn.WriteJSON(msg); err != nil {
			h.logger.Debug("write failed", "error", err)
			return
		}
	}
	cl.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}
