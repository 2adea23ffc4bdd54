package player

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"WaveFM/logger"
	"WaveFM/model"

	"github.com/gorilla/websocket"
)

// MessageType discriminates the websocket envelope.
type MessageType string

const (
	MsgTypeState   MessageType = "state"   // server -> client, full playback state
	MsgTypeCommand MessageType = "command" // client -> server, control action
	MsgTypeError   MessageType = "error"   // server -> client
	MsgTypePing    MessageType = "ping"
	MsgTypePong    MessageType = "pong"

	// Surface lifecycle reports from the connection driving audio.
	MsgTypeProgress MessageType = "progress" // playback position update
	MsgTypeDuration MessageType = "duration" // media metadata loaded
	MsgTypeEnded    MessageType = "ended"    // track played to the end

	MsgTypeSurface MessageType = "surface" // active surface change
)

// WSMessage is the websocket envelope.
type WSMessage struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Surface   string          `json:"surface,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// CommandData carries a control action from a surface.
type CommandData struct {
	Action     string  `json:"action"` // select, playPause, seek, volume, mute, fullscreen, advance
	SongID     string  `json:"songId,omitempty"`
	Time       float64 `json:"time,omitempty"`
	Volume     float64 `json:"volume,omitempty"`
	FullScreen bool    `json:"fullScreen,omitempty"`
	Direction  string  `json:"direction,omitempty"` // next, previous
}

// LifecycleData carries a progress, duration, or ended report.
type LifecycleData struct {
	SongID  string  `json:"songId"`
	Seconds float64 `json:"seconds,omitempty"`
}

// SurfaceData reports an active-surface change.
type SurfaceData struct {
	FullScreen bool `json:"fullScreen"`
}

// ErrorData carries error details to a client.
type ErrorData struct {
	Message string `json:"message"`
}

// Client is one websocket connection bound to a session surface.
type Client struct {
	Hub       *Hub
	Conn      *websocket.Conn
	Send      chan []byte
	SessionID string
	Surface   model.Surface

	mu     sync.Mutex
	closed bool
}

// enqueue queues data for the write pump. It reports false when the send
// buffer is full; messages to a closed client are swallowed.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.Send <- data:
		return true
	default:
		return false
	}
}

// shutdown closes the send channel exactly once. A handler still holding a
// kicked client keeps enqueueing into a no-op instead of panicking.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

// broadcastEnvelope is a queued session broadcast.
type broadcastEnvelope struct {
	sessionID string
	message   []byte
}

// Hub fans playback state out to the websocket surfaces of each session.
// A session has at most one connection per surface; a new connection on
// the same surface kicks the old one, matching a remounted page.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]map[*Client]bool
	surfaces map[string]*Client // key: sessionID:surface

	register   chan *Client
	unregister chan *Client
	broadcast  chan *broadcastEnvelope

	done chan struct{}
}

// NewHub creates a player hub. Call Run to start its loop.
func NewHub() *Hub {
	return &Hub{
		sessions:   make(map[string]map[*Client]bool),
		surfaces:   make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *broadcastEnvelope, 256),
		done:       make(chan struct{}),
	}
}

// Run drives the hub loop until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.broadcastToSession(msg)

		case <-h.done:
			h.cleanup()
			return
		}
	}
}

// Stop terminates the hub loop and closes every client.
func (h *Hub) Stop() {
	close(h.done)
}

// Register attaches a client to its session.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister detaches a client.
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	surfaceKey := h.surfaceKey(client.SessionID, client.Surface)
	if old, exists := h.surfaces[surfaceKey]; exists {
		h.removeClient(old)
	}

	if h.sessions[client.SessionID] == nil {
		h.sessions[client.SessionID] = make(map[*Client]bool)
	}
	h.sessions[client.SessionID][client] = true
	h.surfaces[surfaceKey] = client

	logger.Info("player surface connected",
		logger.String("sessionId", client.SessionID),
		logger.String("surface", string(client.Surface)))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeClient(client)
}

// removeClient detaches a client. Caller holds the lock.
func (h *Hub) removeClient(client *Client) {
	sessionID := client.SessionID
	surfaceKey := h.surfaceKey(sessionID, client.Surface)

	if clients, ok := h.sessions[sessionID]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			client.shutdown()
			if len(clients) == 0 {
				delete(h.sessions, sessionID)
			}
		}
	}

	if h.surfaces[surfaceKey] == client {
		delete(h.surfaces, surfaceKey)
	}

	logger.Info("player surface disconnected",
		logger.String("sessionId", sessionID),
		logger.String("surface", string(client.Surface)))
}

func (h *Hub) broadcastToSession(msg *broadcastEnvelope) {
	h.mu.RLock()
	clients, ok := h.sessions[msg.sessionID]
	if !ok {
		h.mu.RUnlock()
		return
	}

	clientList := make([]*Client, 0, len(clients))
	for client := range clients {
		clientList = append(clientList, client)
	}
	h.mu.RUnlock()

	for _, client := range clientList {
		if !client.enqueue(msg.message) {
			// Send buffer full, drop the client. This already runs in the
			// hub goroutine, so detach directly: a send on h.unregister
			// would block on the loop itself.
			h.unregisterClient(client)
		}
	}
}

func (h *Hub) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.sessions {
		for client := range clients {
			client.shutdown()
		}
	}
	h.sessions = make(map[string]map[*Client]bool)
	h.surfaces = make(map[string]*Client)
}

func (h *Hub) surfaceKey(sessionID string, surface model.Surface) string {
	return fmt.Sprintf("%s:%s", sessionID, surface)
}

// BroadcastState pushes a state snapshot to every surface of a session.
func (h *Hub) BroadcastState(sessionID string, state model.PlaybackState) {
	data, err := json.Marshal(state)
	if err != nil {
		logger.Error("failed to marshal playback state", logger.ErrorField(err))
		return
	}
	msg := &WSMessage{
		Type:      MsgTypeState,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		logger.Error("failed to marshal state envelope", logger.ErrorField(err))
		return
	}

	select {
	case h.broadcast <- &broadcastEnvelope{sessionID: sessionID, message: payload}:
	case <-h.done:
	}
}

// SessionClientCount reports the connected surface count of a session.
func (h *Hub) SessionClientCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions[sessionID])
}

// ========== Client methods ==========

// ReadPump reads envelopes off the connection until it drops, answering
// pings inline and handing everything else to handler.
func (c *Client) ReadPump(ctx context.Context, handler func(ctx context.Context, client *Client, msg *WSMessage)) {
	defer func() {
		c.Hub.Unregister(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(4096) // 4KB
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, message, err := c.Conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logger.Warn("websocket read error",
						logger.ErrorField(err),
						logger.String("sessionId", c.SessionID),
						logger.String("surface", string(c.Surface)))
				}
				return
			}

			var msg WSMessage
			if err := json.Unmarshal(message, &msg); err != nil {
				logger.Warn("invalid message format",
					logger.ErrorField(err),
					logger.String("sessionId", c.SessionID))
				continue
			}

			if msg.Type == MsgTypePing {
				pong := &WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()}
				if data, err := json.Marshal(pong); err == nil {
					c.enqueue(data)
				}
				continue
			}

			handler(ctx, c, &msg)
		}
	}
}

// WritePump drains the send channel onto the connection and keeps the
// connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendMessage queues an envelope for this client, dropping it when the
// buffer is full or the client has been detached.
func (c *Client) SendMessage(msg *WSMessage) error {
	msg.Timestamp = time.Now().UnixMilli()
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	c.enqueue(data)
	return nil
}

// SendError reports an error to this client only.
func (c *Client) SendError(message string) {
	data, err := json.Marshal(ErrorData{Message: message})
	if err != nil {
		return
	}
	c.SendMessage(&WSMessage{Type: MsgTypeError, SessionID: c.SessionID, Data: data})
}
