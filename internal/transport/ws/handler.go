package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"livepoll/internal/model"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	joinTimeout    = 5 * time.Second
)

// StaffAuthenticator validates staff bearer tokens
type StaffAuthenticator interface {
	ValidateStaffToken(ctx context.Context, token string) (*model.StaffClaims, error)
}

// TokenResolver resolves anonymous participant tokens
type TokenResolver interface {
	Resolve(ctx context.Context, token string) (*model.Participant, bool, error)
}

// Handler handles WebSocket connections
type Handler struct {
	hub      *Hub
	auth     StaffAuthenticator
	tokens   TokenResolver
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. allowedOrigin "*" accepts any origin.
func NewHandler(hub *Hub, auth StaffAuthenticator, tokens TokenResolver, allowedOrigin string) *Handler {
	return &Handler{
		hub:    hub,
		auth:   auth,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigin),
		},
	}
}

func originChecker(allowed string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return allowed == "" || allowed == "*" || origin == "" || origin == allowed
	}
}

// StaffWS handles GET /v1/ws/staff
func (h *Handler) StaffWS(w http.ResponseWriter, r *http.Request) {
	token := tokenFrom(r)
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.auth.ValidateStaffToken(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}

	conn := NewStaffConnection(claims.Identity())
	slog.Info("staff connected", "user_id", claims.UserID, "conn_id", conn.ID)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

// AudienceWS handles GET /v1/ws/audience
func (h *Handler) AudienceWS(w http.ResponseWriter, r *http.Request) {
	token := tokenFrom(r)
	if token == "" {
		http.Error(w, "anonymous token required", http.StatusUnauthorized)
		return
	}

	p, _, err := h.tokens.Resolve(r.Context(), token)
	if err != nil {
		slog.Error("anonymous token lookup failed", "err", err)
		http.Error(w, "authentication error", http.StatusUnauthorized)
		return
	}
	if p == nil {
		http.Error(w, "invalid anonymous token", http.StatusUnauthorized)
		return
	}
	if !p.SessionActive {
		http.Error(w, "session is no longer active", http.StatusForbidden)
		return
	}

	wsConn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}

	conn := NewAudienceConnection(p)
	h.hub.JoinAudience(conn)
	slog.Info("participant connected", "session_id", p.SessionID, "participant_id", p.ID, "conn_id", conn.ID)

	go h.writePump(wsConn, conn)
	go h.readPump(wsConn, conn)
}

func tokenFrom(r *http.Request) string {
	if t := r.URL.Query().Get("token"); t != "" {
		return t
	}
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func (h *Handler) readPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Disconnect(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket read error", "conn_id", conn.ID, "err", err)
			}
			break
		}
		if conn.Kind == KindStaff {
			h.handleStaffMessage(conn, data)
		}
	}
}

// handleStaffMessage processes room membership requests. Malformed or
// unauthorized requests are ignored without a reply.
func (h *Handler) handleStaffMessage(conn *Connection, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	switch msg.Type {
	case MsgJoinSession:
		sessionID, err := sessionIDFrom(msg.Payload)
		if err != nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), joinTimeout)
		defer cancel()
		if !h.hub.JoinStaff(ctx, conn, sessionID) {
			slog.Debug("staff join dropped", "session_id", sessionID, "user_id", conn.Staff.UserID)
		}
	case MsgLeaveSession:
		sessionID, err := sessionIDFrom(msg.Payload)
		if err != nil {
			return
		}
		if current, ok := conn.Room(); ok && current == sessionID {
			h.hub.Leave(conn)
		}
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
