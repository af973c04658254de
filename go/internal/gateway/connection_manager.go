package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/matchboard/go/internal/feed"
	"github.com/rs/zerolog/log"
)

// ErrConnectionClosed is returned when writing to a closed connection.
var ErrConnectionClosed = errors.New("connection closed")

// Kind distinguishes the canonical record stream from overlay connections.
type Kind string

const (
	KindStream  Kind = "stream"
	KindOverlay Kind = "overlay"
)

// ConnectionManager tracks websocket connections per match and fans the
// change feed out to stream connections.
type ConnectionManager struct {
	matchConnections map[uuid.UUID]map[*Connection]bool
	mu               sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	clock    clockwork.Clock

	source   feed.Subscriber
	snapshot MatchReader
}

// Connection is one websocket client.
type Connection struct {
	ID      string
	OwnerID string
	Kind    Kind
	Conn    *websocket.Conn
	Manager *ConnectionManager

	// guarded by Manager.mu
	matchID uuid.UUID

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	onMessage func(c *Connection, msg ClientMessage)
	onClose   func()

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
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default websocket configuration.
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBufferSize:  64,
		CheckOrigin: func(r *http.Request) bool {
			// overlays are embedded by broadcast software from any origin
			return true
		},
	}
}

// Stats is a point-in-time summary of open connections.
type Stats struct {
	TotalConnections   int            `json:"total_connections"`
	StreamConnections  int            `json:"stream_connections"`
	OverlayConnections int            `json:"overlay_connections"`
	ActiveMatches      int            `json:"active_matches"`
	MatchConnections   map[string]int `json:"match_connections"`
}

func NewConnectionManager(config ConnectionConfig, source feed.Subscriber, snapshot MatchReader, clock clockwork.Clock) *ConnectionManager {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = DefaultConnectionConfig().SendBufferSize
	}
	return &ConnectionManager{
		matchConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:   config,
		clock:    clock,
		source:   source,
		snapshot: snapshot,
	}
}

// Start relays the change feed to stream connections until ctx is done.
// A lagged feed is resubscribed and every watched match gets a fresh
// snapshot.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")
	for {
		sub := cm.source.Subscribe(feed.Filter{})
		err := cm.relay(ctx, sub)
		sub.Close()

		if ctx.Err() != nil {
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		}
		if !errors.Is(err, feed.ErrLagged) {
			log.Error().Err(err).Msg("change feed ended, closing connections")
			cm.closeAll()
			return
		}
		log.Warn().Msg("connection manager lagged, resyncing watched matches")
		cm.resync(ctx)
	}
}

func (cm *ConnectionManager) relay(ctx context.Context, sub *feed.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case c, ok := <-sub.C():
			if !ok {
				if err := sub.Err(); err != nil {
					return err
				}
				return feed.ErrClosed
			}
			cm.broadcast(c.MatchID, changeMessage(c))
		}
	}
}

func (cm *ConnectionManager) resync(ctx context.Context) {
	cm.mu.RLock()
	ids := make([]uuid.UUID, 0, len(cm.matchConnections))
	for id := range cm.matchConnections {
		ids = append(ids, id)
	}
	cm.mu.RUnlock()

	for _, id := range ids {
		m, err := cm.snapshot.Get(ctx, id)
		if err != nil {
			log.Warn().Err(err).Str("match_id", id.String()).Msg("resync snapshot failed")
			continue
		}
		cm.broadcast(id, snapshotMessage(m))
	}
}

// UpgradeConnection upgrades the request and registers the connection under
// matchID. The returned connection is already running its pumps.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, kind Kind, ownerID string, matchID uuid.UUID) (*Connection, error) {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to upgrade connection")
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		OwnerID:     ownerID,
		Kind:        kind,
		Conn:        conn,
		Manager:     cm,
		matchID:     matchID,
		send:        make(chan []byte, cm.config.SendBufferSize),
		done:        make(chan struct{}),
		ConnectedAt: cm.clock.Now(),
	}
	cm.registerConnection(connection)

	log.Info().
		Str("connection_id", connection.ID).
		Str("owner_id", ownerID).
		Str("kind", string(kind)).
		Str("match_id", matchID.String()).
		Msg("websocket connection established")

	return connection, nil
}

// Run starts the read and write pumps. Handlers must be set before.
func (c *Connection) Run() {
	go c.writePump()
	go c.readPump()
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.addLocked(conn, conn.matchID)
}

func (cm *ConnectionManager) addLocked(conn *Connection, matchID uuid.UUID) {
	if cm.matchConnections[matchID] == nil {
		cm.matchConnections[matchID] = make(map[*Connection]bool)
	}
	cm.matchConnections[matchID][conn] = true
	conn.matchID = matchID
}

func (cm *ConnectionManager) removeLocked(conn *Connection) bool {
	connections, ok := cm.matchConnections[conn.matchID]
	if !ok || !connections[conn] {
		return false
	}
	delete(connections, conn)
	if len(connections) == 0 {
		delete(cm.matchConnections, conn.matchID)
	}
	return true
}

// move re-registers an overlay connection under another match.
func (cm *ConnectionManager) move(conn *Connection, matchID uuid.UUID) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.removeLocked(conn) {
		cm.addLocked(conn, matchID)
	}
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	removed := cm.removeLocked(conn)
	cm.mu.Unlock()

	if removed {
		log.Info().
			Str("connection_id", conn.ID).
			Str("owner_id", conn.OwnerID).
			Str("match_id", conn.MatchID().String()).
			Msg("connection unregistered")
	}
}

// broadcast queues msg on every stream connection watching matchID.
func (cm *ConnectionManager) broadcast(matchID uuid.UUID, msg Message) {
	cm.mu.RLock()
	var targets []*Connection
	for conn := range cm.matchConnections[matchID] {
		if conn.Kind == KindStream {
			targets = append(targets, conn)
		}
	}
	cm.mu.RUnlock()

	if len(targets) == 0 {
		return
	}

	data, err := sonic.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal message for broadcast")
		return
	}
	for _, conn := range targets {
		_ = conn.enqueue(data)
	}

	log.Debug().
		Str("type", string(msg.Type)).
		Str("match_id", matchID.String()).
		Int64("revision", msg.Revision).
		Int("connections", len(targets)).
		Msg("message broadcasted")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	var all []*Connection
	for _, conns := range cm.matchConnections {
		for conn := range conns {
			all = append(all, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range all {
		conn.Close()
	}
}

// GetConnectionStats returns statistics about active connections.
func (cm *ConnectionManager) GetConnectionStats() Stats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := Stats{
		ActiveMatches:    len(cm.matchConnections),
		MatchConnections: make(map[string]int, len(cm.matchConnections)),
	}
	for matchID, connections := range cm.matchConnections {
		stats.MatchConnections[matchID.String()] = len(connections)
		stats.TotalConnections += len(connections)
		for conn := range connections {
			if conn.Kind == KindOverlay {
				stats.OverlayConnections++
			} else {
				stats.StreamConnections++
			}
		}
	}
	return stats
}

// MatchID returns the match the connection currently watches.
func (c *Connection) MatchID() uuid.UUID {
	c.Manager.mu.RLock()
	defer c.Manager.mu.RUnlock()
	return c.matchID
}

// SendMessage encodes and queues msg.
func (c *Connection) SendMessage(msg Message) error {
	data, err := sonic.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}
	return c.enqueue(data)
}

// enqueue never blocks. A client that cannot keep up is disconnected.
func (c *Connection) enqueue(data []byte) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	default:
	}
	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrConnectionClosed
	default:
		log.Warn().
			Str("connection_id", c.ID).
			Str("owner_id", c.OwnerID).
			Msg("connection send buffer full, closing connection")
		c.Close()
		return ErrConnectionClosed
	}
}

// Close unregisters the connection and stops its pumps. Safe to call more
// than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		c.Manager.unregisterConnection(c)
		close(c.done)
		c.Conn.Close()
		if c.onClose != nil {
			go c.onClose()
		}
	})
}

// Done is closed once the connection is closed.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to websocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer c.Close()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected websocket close error")
			}
			return
		}
		c.handleClientMessage(data)
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}

func (c *Connection) handleClientMessage(data []byte) {
	var msg ClientMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("malformed client message")
		_ = c.SendMessage(Message{Type: MessageError, Error: "malformed message"})
		return
	}
	if c.onMessage == nil {
		log.Debug().
			Str("connection_id", c.ID).
			Str("type", string(msg.Type)).
			Msg("ignoring client message")
		return
	}
	c.onMessage(c, msg)
}
