package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/config"
	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/logging"
)

// WebSocket message types.
const (
	WSTypeSubscribe   = "subscribe"
	WSTypeUnsubscribe = "unsubscribe"
	WSTypePing        = "ping"
	WSTypePong        = "pong"
	WSTypeEvent       = "event"
	WSTypeResponse    = "response"
	WSTypeError       = "error"

	wsSendBufferSize = 256
)

// Fallbacks for zero WebSocket config values.
const (
	defaultWSMaxMessageSize = 8192
	defaultWSPingInterval   = 30 * time.Second
	defaultWSPongTimeout    = 10 * time.Second
)

// WSMessage is the envelope for every frame in either direction.
type WSMessage struct {
	Type      string `json:"type"`
	ID        string `json:"id,omitempty"`
	EventType string `json:"event_type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// WSSubscribePayload is the payload of subscribe and unsubscribe messages.
type WSSubscribePayload struct {
	Channels []string `json:"channels"`
}

// Hub fans events out to WebSocket clients by channel. It implements
// device.Broadcaster.
type Hub struct {
	cfg     config.WebSocketConfig
	logger  *logging.Logger
	mu      sync.RWMutex
	clients map[*WSClient]struct{}
}

// WSClient is one connected WebSocket peer.
type WSClient struct {
	hub           *Hub
	conn          *websocket.Conn
	send          chan []byte
	mu            sync.RWMutex
	subscriptions map[string]struct{}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS middleware.
	CheckOrigin: func(_ *http.Request) bool { return true },
}

// NewHub creates an empty hub.
func NewHub(cfg config.WebSocketConfig, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:     cfg,
		logger:  logger,
		clients: make(map[*WSClient]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Register adds a client.
func (h *Hub) Register(c *WSClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n)
}

// Unregister removes a client. Only the call that actually removes it
// closes the send channel.
func (h *Hub) Unregister(c *WSClient) {
	h.mu.Lock()
	_, existed := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if existed {
		close(c.send)
	}
	h.logger.Debug("websocket client disconnected", "clients", n)
}

// Broadcast sends an event to every client subscribed to channel. Slow
// clients whose buffer is full miss the event.
func (h *Hub) Broadcast(channel string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      WSTypeEvent,
		EventType: channel,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		h.logger.Error("failed to marshal broadcast message", "channel", channel, "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*WSClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	sent := 0
	for _, c := range clients {
		if c.isSubscribed(channel) {
			c.trySend(data)
			sent++
		}
	}
	if sent > 0 {
		h.logger.Debug("broadcast sent", "channel", channel, "recipients", sent)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		if c.conn != nil {
			c.conn.Close()
		}
		delete(h.clients, c)
	}
}

// handleWebSocket upgrades the connection. Channels listed in the optional
// ?channels=a,b query are subscribed immediately.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &WSClient{
		hub:           s.hub,
		conn:          conn,
		send:          make(chan []byte, wsSendBufferSize),
		subscriptions: make(map[string]struct{}),
	}
	for _, ch := range strings.Split(r.URL.Query().Get("channels"), ",") {
		if ch = strings.TrimSpace(ch); ch != "" {
			client.subscriptions[ch] = struct{}{}
		}
	}

	s.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

func (h *Hub) timings() (maxSize int64, pingInterval, pongWait time.Duration) {
	maxSize = int64(h.cfg.MaxMessageSize)
	if maxSize <= 0 {
		maxSize = defaultWSMaxMessageSize
	}
	pingInterval = time.Duration(h.cfg.PingInterval) * time.Second
	if pingInterval <= 0 {
		pingInterval = defaultWSPingInterval
	}
	pongWait = time.Duration(h.cfg.PongTimeout) * time.Second
	if pongWait <= 0 {
		pongWait = defaultWSPongTimeout
	}
	return maxSize, pingInterval, pongWait
}

func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	maxSize, pingInterval, pongWait := c.hub.timings()
	c.conn.SetReadLimit(maxSize)
	//nolint:errcheck // best-effort deadline
	c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		//nolint:errcheck // best-effort deadline
		c.conn.SetReadDeadline(time.Now().Add(pingInterval + pongWait))
		c.handleMessage(message)
	}
}

func (c *WSClient) writePump() {
	_, pingInterval, pongWait := c.hub.timings()
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				//nolint:errcheck // best-effort close frame
				c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			//nolint:errcheck // write error is caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			//nolint:errcheck // write error is caught below
			c.conn.SetWriteDeadline(time.Now().Add(pongWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *WSClient) handleMessage(data []byte) {
	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		c.sendError("", "invalid JSON message")
		return
	}

	switch msg.Type {
	case WSTypeSubscribe:
		c.updateSubscriptions(msg, true)
	case WSTypeUnsubscribe:
		c.updateSubscriptions(msg, false)
	case WSTypePing:
		c.sendResponse(msg.ID, WSTypePong, nil)
	default:
		c.sendError(msg.ID, "unknown message type: "+msg.Type)
	}
}

func (c *WSClient) updateSubscriptions(msg WSMessage, subscribe bool) {
	raw, err := json.Marshal(msg.Payload)
	if err != nil {
		c.sendError(msg.ID, "invalid payload")
		return
	}
	var sub WSSubscribePayload
	if err := json.Unmarshal(raw, &sub); err != nil {
		c.sendError(msg.ID, "invalid "+msg.Type+" payload")
		return
	}

	c.mu.Lock()
	for _, ch := range sub.Channels {
		if subscribe {
			c.subscriptions[ch] = struct{}{}
		} else {
			delete(c.subscriptions, ch)
		}
	}
	c.mu.Unlock()

	key := "unsubscribed"
	if subscribe {
		key = "subscribed"
		c.hub.logger.Debug("websocket client subscribed", "channels", sub.Channels)
	}
	c.sendResponse(msg.ID, WSTypeResponse, map[string]any{key: sub.Channels})
}

// trySend drops the frame when the buffer is full or the client is gone.
func (c *WSClient) trySend(data []byte) {
	defer func() {
		recover() //nolint:errcheck // send on a channel closed by Unregister
	}()

	select {
	case c.send <- data:
	default:
	}
}

func (c *WSClient) isSubscribed(channel string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.subscriptions[channel]
	return ok
}

func (c *WSClient) sendResponse(id, msgType string, payload any) {
	data, err := json.Marshal(WSMessage{
		Type:      msgType,
		ID:        id,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Payload:   payload,
	})
	if err != nil {
		return
	}
	c.trySend(data)
}

func (c *WSClient) sendError(id, message string) {
	c.sendResponse(id, WSTypeError, map[string]string{"message": message})
}
