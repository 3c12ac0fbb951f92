package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/voteroom/go/internal/models"
	"github.com/mcdev12/voteroom/go/internal/room"
	"github.com/rs/zerolog/log"
)

// ConnectionManager upgrades websocket connections and binds each to a session.
type ConnectionManager struct {
	connections map[*Connection]struct{}
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	registry *room.Registry
}

// Connection is one websocket client and its session.
type Connection struct {
	ID      uuid.UUID
	Conn    *websocket.Conn
	Session *room.Session
	Manager *ConnectionManager

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for websocket connections.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default websocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  64 * 1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		CheckOrigin:     OriginChecker(nil),
	}
}

// OriginChecker accepts upgrades whose Origin header is in allowed. An empty
// list or "*" accepts any origin. Requests without an Origin header come from
// non-browser clients and are accepted.
func OriginChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.ToLower(o)] = struct{}{}
	}
	if len(set) == 0 {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[strings.ToLower(origin)]
		if !ok {
			log.Warn().Str("origin", origin).Msg("rejected websocket origin")
		}
		return ok
	}
}

func NewConnectionManager(config ConnectionConfig, registry *room.Registry) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[*Connection]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:   config,
		registry: registry,
	}
}

// UpgradeConnection upgrades an HTTP request and starts the connection pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		Conn:        conn,
		Manager:     cm,
		send:        make(chan []byte, cm.config.SendBuffer),
		done:        make(chan struct{}),
		ConnectedAt: time.Now(),
	}
	connection.Session = room.NewSession(cm.registry, connection)
	connection.ID = connection.Session.ID()

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("session_id", connection.ID.String()).
		Str("remote_addr", r.RemoteAddr).
		Msg("WebSocket connection established")

	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.connections[conn] = struct{}{}

	log.Debug().
		Str("session_id", conn.ID.String()).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, ok := cm.connections[conn]; ok {
		delete(cm.connections, conn)
		log.Info().
			Str("session_id", conn.ID.String()).
			Dur("connected_for", time.Since(conn.ConnectedAt)).
			Msg("connection unregistered")
	}
}

// Count returns the number of live connections.
func (cm *ConnectionManager) Count() int {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return len(cm.connections)
}

// CloseAll closes every connection. Each read pump then disconnects its session.
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for c := range cm.connections {
		conns = append(conns, c)
	}
	cm.mu.RUnlock()

	for _, c := range conns {
		c.close()
	}
}

// Send queues msg for the client without blocking. A client whose buffer is
// full is too slow to keep up and gets disconnected.
func (c *Connection) Send(msg models.Outbound) bool {
	data, err := encodeOutbound(msg)
	if err != nil {
		log.Error().Err(err).Str("session_id", c.ID.String()).Str("type", string(msg.Type)).Msg("failed to encode outbound message")
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- data:
		return true
	default:
		log.Warn().
			Str("session_id", c.ID.String()).
			Msg("connection send buffer full, closing connection")
		c.close()
		return false
	}
}

func (c *Connection) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.Conn.Close()
	})
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return

		case message := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("session_id", c.ID.String()).
					Msg("failed to write message to WebSocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("session_id", c.ID.String()).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump dispatches frames one at a time, so a client's requests are
// handled in the order they were sent.
func (c *Connection) readPump() {
	defer func() {
		c.close()
		c.Manager.unregisterConnection(c)
		c.Session.Disconnect()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("session_id", c.ID.String()).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		c.handleClientMessage(message)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

func (c *Connection) handleClientMessage(message []byte) {
	var in InboundMessage
	if err := json.Unmarshal(message, &in); err != nil {
		c.Send(errorResponse(0, "", models.CodeArgument, "malformed message"))
		return
	}

	switch in.Kind {
	case KindRequest:
		resp := c.Session.HandleRequest(models.Request{ID: in.ID, Type: in.Type, Payload: in.Payload})
		c.Send(models.Outbound{Response: &resp})
	case KindCommand:
		// failures are reported to the client by the session
		if err := c.Session.HandleCommand(models.Command{Type: in.Type, Payload: in.Payload}); err != nil {
			log.Debug().Err(err).Str("session_id", c.ID.String()).Str("type", string(in.Type)).Msg("command rejected")
		}
	default:
		c.Send(errorResponse(in.ID, in.Type, models.CodeUnknownMessage, fmt.Sprintf("unknown message kind %q", in.Kind)))
	}
}
