package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"gitea.kood.tech/petrkubec/campus-compass/backend/compass"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ClientMessage is what a browser sends over the chat socket
type ClientMessage struct {
	Type string `json:"type"` // "message" | "history"
	Body string `json:"body,omitempty"`
}

// ServerEvent represents a server-sent event
type ServerEvent struct {
	Type string `json:"type"` // "message" | "history" | "info" | "error"
	Data any    `json:"data,omitempty"`
}

// ChatEvent is the payload of a "message" event
type ChatEvent struct {
	Speaker compass.Speaker `json:"speaker"`
	Text    string          `json:"text"`
	Rule    string          `json:"rule,omitempty"`
	Ts      time.Time       `json:"ts"`
}

// Client represents a WebSocket client connection
type Client struct {
	sessionID string
	conn      *websocket.Conn
	send      chan ServerEvent
}

// Hub fans events out to every socket of a session. A session may have
// several tabs open; sessions never see each other's events.
type Hub struct {
	clientsBySession map[string]map[*Client]bool
	mu               sync.RWMutex
	log              *zap.Logger
}

func newHub(log *zap.Logger) *Hub {
	return &Hub{
		clientsBySession: make(map[string]map[*Client]bool),
		log:              log,
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clientsBySession[c.sessionID] == nil {
		h.clientsBySession[c.sessionID] = make(map[*Client]bool)
	}
	h.clientsBySession[c.sessionID][c] = true
}

// unregister removes c and closes its send channel. Safe to call twice.
func (h *Hub) unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	peers, ok := h.clientsBySession[c.sessionID]
	if !ok || !peers[c] {
		return false
	}
	delete(peers, c)
	if len(peers) == 0 {
		delete(h.clientsBySession, c.sessionID)
	}
	close(c.send)
	return true
}

// closeSession disconnects every socket of a session that has ended.
func (h *Hub) closeSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clientsBySession[sessionID] {
		close(c.send)
	}
	delete(h.clientsBySession, sessionID)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, peers := range h.clientsBySession {
		for c := range peers {
			close(c.send)
		}
		delete(h.clientsBySession, id)
	}
}

// sendToSession fans evt out to every socket of a session. A socket whose
// buffer is full is disconnected rather than left with a gap in its stream;
// the browser reconnects and asks for history.
func (h *Hub) sendToSession(sessionID string, evt ServerEvent) {
	var lagging []*Client
	h.mu.RLock()
	for c := range h.clientsBySession[sessionID] {
		select {
		case c.send <- evt:
		default:
			lagging = append(lagging, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range lagging {
		if h.unregister(c) {
			h.log.Debug("dropping lagging chat socket",
				zap.String("session_id", sessionID),
				zap.String("event", evt.Type),
			)
		}
	}
}

// sendToClient delivers to one socket if it is still registered.
func (h *Hub) sendToClient(c *Client, evt ServerEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.clientsBySession[c.sessionID][c] {
		return
	}
	select {
	case c.send <- evt:
	default:
		h.log.Debug("chat socket buffer full, event dropped",
			zap.String("session_id", c.sessionID),
			zap.String("event", evt.Type),
		)
	}
}

func (h *Hub) count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, peers := range h.clientsBySession {
		n += len(peers)
	}
	return n
}

// publishExchange pushes both sides of a turn, user first.
func (h *Hub) publishExchange(sessionID string, ex compass.Exchange) {
	now := time.Now().UTC()
	h.sendToSession(sessionID, ServerEvent{Type: "message", Data: ChatEvent{Speaker: ex.User.Speaker, Text: ex.User.Text, Ts: now}})
	h.sendToSession(sessionID, ServerEvent{Type: "message", Data: ChatEvent{Speaker: ex.Reply.Speaker, Text: ex.Reply.Text, Rule: ex.Rule, Ts: now}})
}

// POST /chat
func chatHandler(a *app) http.HandlerFunc {
	return a.requireSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
		var req ChatRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidJSON)
			return
		}

		ex, transcript, ok, err := s.Chat(req.Text, a.catalog)
		if errors.Is(err, errRateLimited) {
			writeError(w, http.StatusTooManyRequests, codeRateLimited)
			return
		}
		if err != nil {
			a.log.Error("chat turn failed", zap.String("session_id", s.ID), zap.Error(err))
			writeError(w, http.StatusInternalServerError, codeInternal)
			return
		}
		if !ok {
			// blank input is ignored
			w.WriteHeader(http.StatusNoContent)
			return
		}

		a.metrics.chatReplies.WithLabelValues(ex.Rule).Inc()
		a.hub.publishExchange(s.ID, ex)

		writeJSON(w, http.StatusOK, ChatResponse{
			Rule:       ex.Rule,
			Reply:      ex.Reply.Text,
			Transcript: transcript.Messages(),
		})
	})
}

// GET /chat/history
func chatHistoryHandler(a *app) http.HandlerFunc {
	return a.requireSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
		writeJSON(w, http.StatusOK, map[string][]compass.ChatMessage{"transcript": s.Transcript().Messages()})
	})
}

func newUpgrader(allowed []string) websocket.Upgrader {
	allow := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		allow[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// non-browser clients send no Origin
			return origin == "" || allow[origin]
		},
	}
}

// GET /ws/chat?token=...
func wsChatHandler(a *app) http.HandlerFunc {
	upgrader := newUpgrader(a.cfg.AllowedOrigins)

	return a.requireSession(func(w http.ResponseWriter, r *http.Request, s *Session) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			a.log.Debug("ws upgrade failed", zap.String("session_id", s.ID), zap.Error(err))
			return
		}

		client := &Client{
			sessionID: s.ID,
			conn:      conn,
			send:      make(chan ServerEvent, 16),
		}
		a.hub.register(client)
		a.metrics.wsClients.Inc()

		// Announce connection to this client
		a.hub.sendToClient(client, ServerEvent{Type: "info", Data: "connected"})

		go clientWriter(client)
		a.clientReader(client)
	})
}

func (a *app) clientReader(c *Client) {
	defer func() {
		a.hub.unregister(c)
		a.metrics.wsClients.Dec()
	}()

	c.conn.SetReadLimit(8 << 10)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	for {
		_, payload, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			a.hub.sendToClient(c, ServerEvent{Type: "error", Data: "invalid message format"})
			continue
		}

		// the session may have ended while the socket was open
		s, ok := a.sessions.Get(c.sessionID)
		if !ok {
			a.hub.sendToClient(c, ServerEvent{Type: "error", Data: codeSessionExpired})
			return
		}

		switch msg.Type {
		case "message":
			ex, _, ok, err := s.Chat(msg.Body, a.catalog)
			if errors.Is(err, errRateLimited) {
				a.hub.sendToClient(c, ServerEvent{Type: "error", Data: codeRateLimited})
				continue
			}
			if err != nil {
				a.log.Error("chat turn failed", zap.String("session_id", s.ID), zap.Error(err))
				a.hub.sendToClient(c, ServerEvent{Type: "error", Data: codeInternal})
				continue
			}
			if !ok {
				continue
			}
			a.metrics.chatReplies.WithLabelValues(ex.Rule).Inc()
			a.hub.publishExchange(s.ID, ex)

		case "history":
			a.hub.sendToClient(c, ServerEvent{Type: "history", Data: s.Transcript().Messages()})

		default:
			a.log.Debug("unknown ws message type", zap.String("session_id", c.sessionID), zap.String("type", msg.Type))
			a.hub.sendToClient(c, ServerEvent{Type: "error", Data: "unknown message type"})
		}
	}
}

func clientWriter(c *Client) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case evt, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			// ping to keep the connection alive
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
