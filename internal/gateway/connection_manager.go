// Package gateway pushes game updates to viewer devices over WebSocket.
// Connections register per game id; change notifications consumed from
// NATS are broadcast to every connection watching that game.
package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionManager manages viewer WebSocket connections per game.
type ConnectionManager struct {
	gameConnections map[uuid.UUID]map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection represents one WebSocket viewer.
type Connection struct {
	ID      string
	GameID  uuid.UUID
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds WebSocket tuning.
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage is one payload destined for every viewer of a game.
type BroadcastMessage struct {
	GameID  uuid.UUID
	Payload []byte
}

// DefaultConnectionConfig returns default WebSocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// Viewer links are capability URLs; any origin may open one.
			return true
		},
	}
}

// NewConnectionManager creates a WebSocket connection manager.
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		gameConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start processes broadcast messages until the context ends.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// Broadcast queues a payload for every viewer of a game.
func (cm *ConnectionManager) Broadcast(gameID uuid.UUID, payload []byte) {
	select {
	case cm.broadcastCh <- BroadcastMessage{GameID: gameID, Payload: payload}:
	default:
		log.Warn().Str("game_id", gameID.String()).Msg("broadcast channel full, dropping message")
	}
}

// UpgradeConnection upgrades an HTTP request to a WebSocket viewer
// connection and starts its pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	connection := &Connection{
		ID:          uuid.NewString(),
		GameID:      gameID,
		Conn:        conn,
		Send:        make(chan []byte, 64),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	cm.register(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("game_id", gameID.String()).
		Msg("viewer connected")
	return nil
}

// ConnectionCount reports live connections per game and in total.
func (cm *ConnectionManager) ConnectionCount() (total int, games int) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	for _, conns := range cm.gameConnections {
		total += len(conns)
	}
	return total, len(cm.gameConnections)
}

func (cm *ConnectionManager) register(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.gameConnections[c.GameID] == nil {
		cm.gameConnections[c.GameID] = make(map[*Connection]bool)
	}
	cm.gameConnections[c.GameID][c] = true
}

func (cm *ConnectionManager) unregister(c *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if conns, ok := cm.gameConnections[c.GameID]; ok {
		if conns[c] {
			delete(conns, c)
			close(c.Send)
		}
		if len(conns) == 0 {
			delete(cm.gameConnections, c.GameID)
		}
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	// Sends happen under the read lock while Send channels are only ever
	// closed under the write lock, so a concurrent unregister cannot
	// close a channel mid-send.
	var slow []*Connection
	cm.mu.RLock()
	for c := range cm.gameConnections[message.GameID] {
		select {
		case c.Send <- message.Payload:
		default:
			slow = append(slow, c)
		}
	}
	cm.mu.RUnlock()

	for _, c := range slow {
		// Slow consumer; drop it rather than stall the broadcast.
		log.Warn().
			Str("connection_id", c.ID).
			Msg("send buffer full, dropping connection")
		cm.unregister(c)
		if c.Conn != nil {
			c.Conn.Close()
		}
	}
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for gameID, conns := range cm.gameConnections {
		for c := range conns {
			close(c.Send)
			if c.Conn != nil {
				c.Conn.Close()
			}
		}
		delete(cm.gameConnections, gameID)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	// Viewers never send application messages; the loop exists to
	// process control frames and detect disconnects.
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}
