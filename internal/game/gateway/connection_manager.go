package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Joshuahobby/mindarena/internal/game/events"
)

// MessageHandler receives inbound traffic and connection lifecycle
// notifications from the connection manager.
type MessageHandler interface {
	// HandleMessage is called for every text frame read from a client.
	HandleMessage(c *Connection, data []byte)
	// HandleDisconnect is called once when an authenticated connection
	// that still held its player binding goes away.
	HandleDisconnect(c *Connection)
}

// ConnectionConfig holds configuration for WebSocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  4096,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Allow all origins in development - restrict in production
			return true
		},
	}
}

// ConnectionManager is the connection registry: it maps a stable player
// id to its live connection. Registration is last-wins; a reconnect
// supersedes the prior binding without force-closing it.
type ConnectionManager struct {
	players map[string]*Connection
	mu      sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	handler  MessageHandler
}

// NewConnectionManager creates a new WebSocket connection manager. The
// handler is attached later via SetHandler to break the construction
// cycle with the protocol dispatcher.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		players: make(map[string]*Connection),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// SetHandler attaches the inbound message handler. Must be called
// before the first upgrade.
func (cm *ConnectionManager) SetHandler(handler MessageHandler) {
	cm.handler = handler
}

// UpgradeConnection upgrades an HTTP request to a WebSocket connection
// and starts its read/write pumps. The connection is anonymous until an
// auth event binds it to a player id.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		id:          uuid.New().String(),
		conn:        conn,
		sendCh:      make(chan []byte, 64),
		manager:     cm,
		connectedAt: time.Now(),
	}
	connection.lastPing.Store(time.Now().UnixNano())

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.id).
		Str("remote", r.RemoteAddr).
		Msg("WebSocket connection established")

	connection.Send(mustEvent(events.EventTypeWelcome, events.WelcomePayload{
		Message: "connected to mindarena",
	}))
	return nil
}

// Register binds a live connection to a player id, replacing any prior
// binding for that id (last registration wins).
func (cm *ConnectionManager) Register(c *Connection, playerID, displayName string) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	c.playerID = playerID
	c.displayName = displayName
	if prev, ok := cm.players[playerID]; ok && prev != c {
		log.Info().
			Str("player_id", playerID).
			Str("old_connection", prev.id).
			Str("new_connection", c.id).
			Msg("player rebound to new connection")
	}
	cm.players[playerID] = c
}

// Lookup returns the live connection for a player id.
func (cm *ConnectionManager) Lookup(playerID string) (*Connection, bool) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	c, ok := cm.players[playerID]
	return c, ok
}

// unbind removes the player binding only when it still points at this
// connection. Returns whether the binding was removed; superseded or
// anonymous connections report false.
func (cm *ConnectionManager) unbind(c *Connection) bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if c.playerID == "" {
		return false
	}
	if current, ok := cm.players[c.playerID]; !ok || current != c {
		return false
	}
	delete(cm.players, c.playerID)
	log.Info().
		Str("connection_id", c.id).
		Str("player_id", c.playerID).
		Msg("connection unregistered")
	return true
}

// GetConnectionStats returns statistics about bound connections.
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	players := make(map[string]interface{}, len(cm.players))
	for id, c := range cm.players {
		players[id] = map[string]interface{}{
			"connected_at": c.connectedAt.UTC().Format(time.RFC3339),
			"last_ping":    time.Unix(0, c.lastPing.Load()).UTC().Format(time.RFC3339),
		}
	}

	return map[string]interface{}{
		"online_players": len(cm.players),
		"players":        players,
	}
}

// Connection represents one WebSocket client. It implements the
// engine's PlayerConn capability once authenticated.
type Connection struct {
	id      string
	conn    *websocket.Conn
	sendCh  chan []byte
	manager *ConnectionManager

	connectedAt time.Time
	// lastPing holds unix nanos; the pumps store it while the stats
	// endpoint reads it.
	lastPing atomic.Int64

	// Set on auth, read-only afterwards.
	playerID    string
	displayName string

	closeOnce sync.Once
}

// PlayerID returns the bound player id, empty while anonymous.
func (c *Connection) PlayerID() string { return c.playerID }

// DisplayName returns the bound display name.
func (c *Connection) DisplayName() string { return c.displayName }

// Send queues an event for delivery. A client that cannot keep up with
// its send buffer is dropped.
func (c *Connection) Send(ev *events.Event) {
	if ev == nil {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.id).Msg("failed to marshal event")
		return
	}
	select {
	case c.sendCh <- data:
	default:
		log.Warn().
			Str("connection_id", c.id).
			Str("player_id", c.playerID).
			Msg("send buffer full, closing connection")
		c.close()
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}

// writePump handles sending messages to the WebSocket connection.
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case message, ok := <-c.sendCh:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			c.lastPing.Store(time.Now().UnixNano())
		}
	}
}

// readPump handles reading messages from the WebSocket connection.
func (c *Connection) readPump() {
	defer func() {
		bound := c.manager.unbind(c)
		c.close()
		if bound && c.manager.handler != nil {
			c.manager.handler.HandleDisconnect(c)
		}
	}()

	c.conn.SetReadLimit(c.manager.config.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
		c.lastPing.Store(time.Now().UnixNano())
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("unexpected WebSocket close error")
			}
			break
		}

		if c.manager.handler != nil {
			c.manager.handler.HandleMessage(c, message)
		}
		c.conn.SetReadDeadline(time.Now().Add(c.manager.config.ReadTimeout))
	}
}

// mustEvent builds an event for payloads that cannot fail to marshal.
func mustEvent(eventType events.EventType, payload any) *events.Event {
	ev, err := events.New(eventType, payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", string(eventType)).Msg("failed to build event")
		return nil
	}
	return ev
}
