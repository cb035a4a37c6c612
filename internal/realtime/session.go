package realtime

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Cross-origin policy is enforced by the CORS layer on the HTTP side;
	// the handshake itself only requires a valid credential.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// session is one websocket connection bound to a resolved identity.
type session struct {
	id    identity.Identity
	conn  *websocket.Conn
	send  chan ServerEvent
	rooms map[string]struct{}
}

// clientMessage is what connected clients send: join_chat, leave_chat, typing.
type clientMessage struct {
	Event  string `json:"event"`
	ChatID string `json:"chat_id,omitempty"`
}

// Handler upgrades authenticated requests into hub sessions.
type Handler struct {
	Hub      *Hub
	Resolver *identity.Resolver
}

// NewHandler creates a websocket handler backed by the hub and resolver.
func NewHandler(hub *Hub, resolver *identity.Resolver) *Handler {
	return &Handler{Hub: hub, Resolver: resolver}
}

// Serve is the gin handler for the websocket endpoint. The credential is
// taken from the Authorization header or the token query parameter and
// validated before the upgrade; connections without a valid credential
// are rejected at handshake.
func (h *Handler) Serve(c *gin.Context) {
	tokenString, err := utilities.ExtractBearerToken(c)
	if err != nil {
		tokenString = c.Query("token")
	}
	if tokenString == "" {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: "Missing credential"})
		return
	}

	id, err := h.Resolver.Resolve(c.Request.Context(), tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: "Invalid credential"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("realtime: upgrade failed: %v", err)
		return
	}

	s := newSession(id)
	s.conn = conn
	h.Hub.register(s)

	go s.writePump(h.Hub)
	go s.readPump(h.Hub)
}

// readPump consumes client messages until the connection drops. Joining a
// chat room requires no check beyond the connection credential.
func (s *session) readPump(hub *Hub) {
	defer func() {
		hub.unregister(s)
		close(s.send)
		_ = s.conn.Close()
	}()

	s.conn.SetReadLimit(4 * 1024)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Event {
		case "join_chat":
			if msg.ChatID != "" {
				hub.join(s, ChatRoom(msg.ChatID))
			}
		case "leave_chat":
			if msg.ChatID != "" {
				hub.leave(s, ChatRoom(msg.ChatID))
			}
		case "typing":
			if msg.ChatID != "" {
				hub.EmitToChat(msg.ChatID, "typing", map[string]interface{}{
					"chat_id":    msg.ChatID,
					"account_id": s.id.AccountID,
				})
			}
		}
	}
}

// writePump flushes queued events and keeps the connection alive with pings.
func (s *session) writePump(hub *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case ev, ok := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
