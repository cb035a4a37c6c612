// Package realtime implements the websocket delivery channel: session to
// identity binding and room based broadcast. Push is an optimization; the
// persisted notification record is the durable fallback, so undeliverable
// events are dropped, never queued.
package realtime

import (
	"sync"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
)

// StaffBroadcastRoom is the shared room every staff session joins.
const StaffBroadcastRoom = "staff-broadcast"

// UserRoom keys the private room of one account.
func UserRoom(accountID string) string {
	return "user:" + accountID
}

// ChatRoom keys the room of one chat conversation.
func ChatRoom(chatID string) string {
	return "chat:" + chatID
}

// ServerEvent is the envelope pushed to clients.
type ServerEvent struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
}

// Hub tracks connected sessions and their room membership. It is the only
// process-wide mutable state shared across requests, so all access is
// mutex-guarded.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*session]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*session]struct{})}
}

// register binds a session to its identity rooms.
func (h *Hub) register(s *session) {
	h.join(s, UserRoom(s.id.AccountID.String()))
	if s.id.Role == model.RoleStaff {
		h.join(s, StaffBroadcastRoom)
	}
}

func (h *Hub) join(s *session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*session]struct{})
		h.rooms[room] = members
	}
	members[s] = struct{}{}
	s.rooms[room] = struct{}{}
}

func (h *Hub) leave(s *session, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(s, room)
}

func (h *Hub) leaveLocked(s *session, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	delete(s.rooms, room)
}

// unregister removes the session from every room it joined.
func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for room := range s.rooms {
		h.leaveLocked(s, room)
	}
}

// emitToRoom queues the event on every session in the room. A session with
// a full send buffer skips the event rather than blocking the caller.
func (h *Hub) emitToRoom(room string, ev ServerEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.rooms[room] {
		select {
		case s.send <- ev:
		default:
			// slow consumer, drop
		}
	}
}

// EmitToUser delivers to the account's private room; dropped when no
// session is connected.
func (h *Hub) EmitToUser(accountID string, event string, payload interface{}) {
	h.emitToRoom(UserRoom(accountID), ServerEvent{Event: event, Payload: payload})
}

// EmitToStaffBroadcast delivers to every connected staff session.
func (h *Hub) EmitToStaffBroadcast(event string, payload interface{}) {
	h.emitToRoom(StaffBroadcastRoom, ServerEvent{Event: event, Payload: payload})
}

// EmitToChat delivers to every session currently joined to the chat room.
func (h *Hub) EmitToChat(chatID string, event string, payload interface{}) {
	h.emitToRoom(ChatRoom(chatID), ServerEvent{Event: event, Payload: payload})
}

// RoomSize reports how many sessions are in a room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// newSession builds an unstarted session bound to an identity.
func newSession(id identity.Identity) *session {
	return &session{
		id:    id,
		send:  make(chan ServerEvent, 32),
		rooms: make(map[string]struct{}),
	}
}
