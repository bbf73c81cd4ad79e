package ws

import (
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrDeliveryUnreachable is returned when a push targets a connection
// that no longer exists. Callers treat it as best-effort loss, not a
// failure: the persisted record remains the source of truth.
var ErrDeliveryUnreachable = errors.New("ws: connection is not attached")

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// SessionHandler receives connection lifecycle events from the gateway.
// Implemented by the presence directory.
type SessionHandler interface {
	Enter(connectionID, userID, communityID string) error
	Leave(connectionID string)
}

// Event is one frame pushed to a client.
type Event struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload,omitempty"`
}

// clientFrame is what clients send: announce a community binding or
// drop the session explicitly.
type clientFrame struct {
	Action      string `json:"action"`
	CommunityID string `json:"community_id,omitempty"`
}

type connection struct {
	id     string
	userID string
	ws     *websocket.Conn
	send   chan Event
	done   chan struct{}
	once   sync.Once
}

// close signals the write loop to stop. The send channel is never
// closed: a Push racing a disconnect may still hold the connection, and
// sending on a closed channel would panic. A frame buffered after close
// is simply never read.
func (c *connection) close() {
	c.once.Do(func() {
		close(c.done)
	})
}

// Manager is the delivery gateway: it owns every live websocket
// connection and offers a best-effort, non-blocking Push to one of them.
type Manager struct {
	upgrader   websocket.Upgrader
	handler    SessionHandler
	sendBuffer int

	mu    sync.RWMutex
	conns map[string]*connection
}

// NewManager creates a gateway feeding lifecycle events into handler.
func NewManager(handler SessionHandler, sendBuffer int) *Manager {
	if sendBuffer <= 0 {
		sendBuffer = 16
	}
	return &Manager{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Browser clients authenticate with a bearer token, origin
			// checking happens at the CORS layer.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		handler:    handler,
		sendBuffer: sendBuffer,
		conns:      make(map[string]*connection),
	}
}

// ServeHTTP upgrades the request and runs the connection until the
// client goes away. The caller must have authenticated userID already.
func (m *Manager) ServeHTTP(c *gin.Context, userID string) {
	ws, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed for user %s: %v", userID, err)
		return
	}

	conn := &connection{
		id:     uuid.New().String(),
		userID: userID,
		ws:     ws,
		send:   make(chan Event, m.sendBuffer),
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.conns[conn.id] = conn
	m.mu.Unlock()

	// Announce the session globally; clients bind to a community with a
	// follow-up enter frame.
	if err := m.handler.Enter(conn.id, userID, ""); err != nil {
		log.Printf("[WS] Rejected connection for user %s: %v", userID, err)
		m.drop(conn)
		return
	}

	go m.writeLoop(conn)
	m.readLoop(conn)
}

// Push sends one event to one connection. It never blocks: an unknown
// or closing connection reports ErrDeliveryUnreachable, and a slow
// consumer's frame is dropped and reported the same way so callers do
// not count it as delivered.
func (m *Manager) Push(connectionID, event string, payload interface{}) error {
	m.mu.RLock()
	conn, ok := m.conns[connectionID]
	m.mu.RUnlock()

	if !ok {
		return ErrDeliveryUnreachable
	}

	select {
	case <-conn.done:
		return ErrDeliveryUnreachable
	default:
	}

	select {
	case conn.send <- Event{Event: event, Payload: payload}:
		return nil
	case <-conn.done:
		return ErrDeliveryUnreachable
	default:
		log.Printf("[WS] Dropping %s event for slow connection %s", event, connectionID)
		return ErrDeliveryUnreachable
	}
}

// ConnectionCount returns the number of attached connections.
func (m *Manager) ConnectionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.conns)
}

// Shutdown closes every connection.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	conns := make([]*connection, 0, len(m.conns))
	for _, conn := range m.conns {
		conns = append(conns, conn)
	}
	m.mu.Unlock()

	for _, conn := range conns {
		m.drop(conn)
	}
}

func (m *Manager) readLoop(conn *connection) {
	defer m.drop(conn)

	conn.ws.SetReadLimit(4096)
	_ = conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	conn.ws.SetPongHandler(func(string) error {
		return conn.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var frame clientFrame
		if err := conn.ws.ReadJSON(&frame); err != nil {
			return
		}

		switch frame.Action {
		case "enter":
			if err := m.handler.Enter(conn.id, conn.userID, frame.CommunityID); err != nil {
				log.Printf("[WS] Enter rejected for connection %s: %v", conn.id, err)
			}
		case "leave":
			// Explicit leave destroys the session but keeps the socket,
			// so the client can re-enter without reconnecting.
			m.handler.Leave(conn.id)
		default:
			// Unknown frames are ignored; the protocol is append-only.
		}
	}
}

func (m *Manager) writeLoop(conn *connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.ws.Close()
	}()

	for {
		select {
		case event := <-conn.send:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteJSON(event); err != nil {
				return
			}
		case <-conn.done:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.ws.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			_ = conn.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// drop detaches the connection and reports the disconnect exactly once
// from the registry's point of view (duplicate leaves are no-ops there).
func (m *Manager) drop(conn *connection) {
	m.mu.Lock()
	_, attached := m.conns[conn.id]
	delete(m.conns, conn.id)
	m.mu.Unlock()

	if attached {
		m.handler.Leave(conn.id)
	}
	conn.close()
	_ = conn.ws.Close()
}
