package wsgateway

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mohamedkhairy/chatts-server/internal/auth"
	"github.com/mohamedkhairy/chatts-server/internal/config"
	"github.com/mohamedkhairy/chatts-server/internal/storage"
	"github.com/mohamedkhairy/chatts-server/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origins are validated at the reverse proxy
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub owns the connection lifecycle and the shared registry/presence state.
// It is constructed once at server start and injected wherever events need to
// be emitted; there is no ambient global instance.
type Hub struct {
	cfg config.SocketConfig

	registry   *Registry
	presence   *Presence
	resolver   *Resolver
	dispatcher *Dispatcher

	tokens   *auth.TokenManager
	users    storage.UserStore
	chats    storage.ChatStore
	messages storage.MessageStore

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub creates a hub over the given collaborators
func NewHub(cfg config.SocketConfig, tokens *auth.TokenManager, users storage.UserStore, chats storage.ChatStore, messages storage.MessageStore) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	registry := NewRegistry()
	return &Hub{
		cfg:        cfg,
		registry:   registry,
		presence:   NewPresence(),
		resolver:   NewResolver(registry),
		dispatcher: NewDispatcher(registry),
		tokens:     tokens,
		users:      users,
		chats:      chats,
		messages:   messages,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start launches the connection health monitor
func (h *Hub) Start() {
	h.wg.Add(1)
	go h.monitorConnections()
}

// Stop closes every connection and waits for all pumps to exit
func (h *Hub) Stop() {
	logger.Info("Stopping WebSocket hub")
	h.cancel()
	for _, conn := range h.registry.All() {
		conn.Close()
	}
	h.wg.Wait()
	logger.Info("WebSocket hub stopped")
}

// ConnectionCount returns the number of open connections
func (h *Hub) ConnectionCount() int {
	return h.registry.Count()
}

// OnlineUsers returns the current presence snapshot
func (h *Hub) OnlineUsers() []string {
	return h.presence.Snapshot()
}

// ServeWS authenticates and upgrades an incoming WebSocket request. The
// credential is verified before the upgrade: a connection that cannot be tied
// to a user is rejected with 401 and never reaches the registry.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	if h.registry.Count() >= h.cfg.MaxConnections {
		logger.Warn("Max connections reached, rejecting new connection",
			logger.Int("max_connections", h.cfg.MaxConnections),
		)
		http.Error(w, "Max connections reached", http.StatusServiceUnavailable)
		return
	}

	token, err := h.tokens.FromRequest(r)
	if err != nil {
		authRejections.Inc()
		http.Error(w, "Please login to access this route", http.StatusUnauthorized)
		return
	}
	userID, err := h.tokens.Verify(token)
	if err != nil {
		authRejections.Inc()
		logger.Warn("Invalid socket credential, rejecting connection",
			logger.ErrorField(err),
		)
		http.Error(w, "Please login to access this route", http.StatusUnauthorized)
		return
	}

	lookupCtx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	user, err := h.users.FindUserByID(lookupCtx, userID)
	if err != nil {
		authRejections.Inc()
		logger.Warn("Socket credential resolved to unknown user",
			logger.String("user_id", userID),
			logger.ErrorField(err),
		)
		http.Error(w, "Please login to access this route", http.StatusUnauthorized)
		return
	}

	sock, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("Failed to upgrade connection",
			logger.ErrorField(err),
		)
		return
	}

	conn := NewConnection(uuid.New().String(), user.ID, user.Username, sock, h.cfg.SendBufferSize)
	h.Register(conn)

	logger.Info("WebSocket connection established",
		logger.String("connection_id", conn.ID),
		logger.String("user_id", conn.UserID),
		logger.String("remote_addr", r.RemoteAddr),
	)
}

// Register admits an authenticated connection and starts its pumps
func (h *Hub) Register(conn *Connection) {
	h.registry.Register(conn)
	connectionsTotal.Inc()
	connectionsActive.Set(float64(h.registry.Count()))

	logger.Info("Connection registered",
		logger.String("connection_id", conn.ID),
		logger.String("user_id", conn.UserID),
		logger.Int("total_connections", h.registry.Count()),
	)

	h.wg.Add(2)
	go h.writePump(conn)
	go h.readPump(conn)
}

// Unregister tears a connection down. Idempotent: repeated disconnect
// signals for the same connection are no-ops, and a disconnect for an
// already-superseded connection leaves the user's newer registration and
// presence untouched.
func (h *Hub) Unregister(conn *Connection) {
	removed := h.registry.Unregister(conn.UserID, conn.ID)
	conn.Close()
	connectionsActive.Set(float64(h.registry.Count()))

	logger.Info("Connection unregistered",
		logger.String("connection_id", conn.ID),
		logger.String("user_id", conn.UserID),
		logger.Bool("was_current", removed),
		logger.Duration("session_duration", time.Since(conn.createdAt)),
		logger.Int("total_connections", h.registry.Count()),
	)

	if removed {
		h.presence.MarkOffline(conn.UserID)
		h.dispatcher.EmitToAllExcept(conn.ID, EventOnlineUsers, h.presence.Snapshot())
	}
}

// EmitToUsers delivers a server-originated event to the given users' live
// connections. Used by HTTP handlers for ALERT / REFETCH_CHATS / NEW_REQUEST
// style notifications.
func (h *Hub) EmitToUsers(userIDs []string, event string, data interface{}) {
	h.dispatcher.EmitToConnections(h.resolver.ResolveUsers(userIDs), event, data)
}

// writePump pumps queued messages to the socket and keeps the ping cycle
func (h *Hub) writePump(conn *Connection) {
	defer h.wg.Done()
	defer h.Unregister(conn)

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-conn.Done():
			return

		case message := <-conn.Outbound():
			conn.sock.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.sock.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			conn.sock.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := conn.sock.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump reads inbound events and hands them to the handlers
func (h *Hub) readPump(conn *Connection) {
	defer h.wg.Done()
	defer h.Unregister(conn)

	conn.sock.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.sock.SetPongHandler(func(string) error {
		conn.UpdateLastPong()
		conn.sock.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("WebSocket error",
					logger.ErrorField(err),
					logger.String("connection_id", conn.ID),
				)
			}
			return
		}
		h.handleEvent(conn, message)
	}
}

// handleEvent decodes the inbound envelope and routes it to the matching
// handler. Events form a closed set; anything else is answered with ERROR.
func (h *Hub) handleEvent(conn *Connection, raw []byte) {
	var envelope ClientEvent
	if err := json.Unmarshal(raw, &envelope); err != nil {
		h.dispatcher.EmitToOne(conn.ID, EventError, ErrorPayload{
			Code:    "invalid_message",
			Message: "failed to parse message",
		})
		return
	}
	eventsReceived.WithLabelValues(envelope.Event).Inc()

	var err error
	switch envelope.Event {
	case EventNewMessage:
		var payload NewMessagePayload
		if err = json.Unmarshal(envelope.Data, &payload); err == nil {
			h.handleNewMessage(conn, payload)
		}
	case EventStartTyping:
		var payload TypingPayload
		if err = json.Unmarshal(envelope.Data, &payload); err == nil {
			h.handleTyping(conn, payload, EventStartTyping)
		}
	case EventStopTyping:
		var payload TypingPayload
		if err = json.Unmarshal(envelope.Data, &payload); err == nil {
			h.handleTyping(conn, payload, EventStopTyping)
		}
	case EventChatJoined:
		var payload PresencePayload
		if err = json.Unmarshal(envelope.Data, &payload); err == nil {
			h.handleChatJoined(conn, payload)
		}
	case EventChatLeaved:
		var payload PresencePayload
		if err = json.Unmarshal(envelope.Data, &payload); err == nil {
			h.handleChatLeaved(conn, payload)
		}
	default:
		h.dispatcher.EmitToOne(conn.ID, EventError, ErrorPayload{
			Code:    "unknown_event",
			Message: "unknown event: " + envelope.Event,
		})
		return
	}

	if err != nil {
		h.dispatcher.EmitToOne(conn.ID, EventError, ErrorPayload{
			Code:    "invalid_payload",
			Message: "failed to parse " + envelope.Event + " payload",
		})
	}
}

// monitorConnections reaps connections whose pongs stopped arriving
func (h *Hub) monitorConnections() {
	defer h.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()
			staleThreshold := h.cfg.ReadTimeout * 2
			for _, conn := range h.registry.All() {
				if idle := now.Sub(conn.LastPong()); idle > staleThreshold {
					logger.Info("Removing stale connection",
						logger.String("connection_id", conn.ID),
						logger.String("user_id", conn.UserID),
						logger.Duration("idle_time", idle),
					)
					h.Unregister(conn)
				}
			}
		}
	}
}
