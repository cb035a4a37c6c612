package realtime

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
)

func TestRegisterJoinsIdentityRooms(t *testing.T) {
	h := NewHub()

	applicant := newSession(identity.Identity{AccountID: uuid.New(), Role: model.RoleApplicant})
	staff := newSession(identity.Identity{AccountID: uuid.New(), Role: model.RoleStaff})

	h.register(applicant)
	h.register(staff)

	assert.Equal(t, 1, h.RoomSize(UserRoom(applicant.id.AccountID.String())))
	assert.Equal(t, 1, h.RoomSize(UserRoom(staff.id.AccountID.String())))

	// Only staff sessions join the broadcast room
	assert.Equal(t, 1, h.RoomSize(StaffBroadcastRoom))

	h.unregister(staff)
	assert.Zero(t, h.RoomSize(StaffBroadcastRoom))
	assert.Zero(t, h.RoomSize(UserRoom(staff.id.AccountID.String())))
	assert.Equal(t, 1, h.RoomSize(UserRoom(applicant.id.AccountID.String())))
}

func TestEmitToUser(t *testing.T) {
	h := NewHub()
	s := newSession(identity.Identity{AccountID: uuid.New(), Role: model.RoleApplicant})
	h.register(s)

	h.EmitToUser(s.id.AccountID.String(), "application_update", map[string]interface{}{"id": 1})

	require.Len(t, s.send, 1)
	ev := <-s.send
	assert.Equal(t, "application_update", ev.Event)

	// Nobody listening: dropped, not queued
	h.EmitToUser(uuid.NewString(), "application_update", nil)
}

func TestEmitToStaffBroadcast(t *testing.T) {
	h := NewHub()
	staff1 := newSession(identity.Identity{AccountID: uuid.New(), Role: model.RoleStaff})
	staff2 := newSession(identity.Identity{AccountID: uuid.New(), Role: model.RoleStaff})
	applicant := newSession(identity.Identity{AccountID: uuid.New(), Role: model.RoleApplicant})
	h.register(staff1)
	h.register(staff2)
	h.register(applicant)

	h.EmitToStaffBroadcast("new_application", nil)

	assert.Len(t, staff1.send, 1)
	assert.Len(t, staff2.send, 1)
	assert.Empty(t, applicant.send)
}

func TestChatRoomJoinLeave(t *testing.T) {
	h := NewHub()
	chatID := uuid.NewString()

	a := newSession(identity.Identity{AccountID: uuid.New(), Role: model.RoleApplicant})
	b := newSession(identity.Identity{AccountID: uuid.New(), Role: model.RoleStaff})
	h.register(a)
	h.register(b)
	h.join(a, ChatRoom(chatID))
	h.join(b, ChatRoom(chatID))

	h.EmitToChat(chatID, "new_message", map[string]interface{}{"content": "hi"})
	assert.Len(t, a.send, 1)
	assert.Len(t, b.send, 1)

	h.leave(a, ChatRoom(chatID))
	h.EmitToChat(chatID, "new_message", nil)
	assert.Len(t, a.send, 1)
	assert.Len(t, b.send, 2)

	// Unregistering clears chat membership too
	h.unregister(b)
	assert.Zero(t, h.RoomSize(ChatRoom(chatID)))
}

func TestSlowConsumerDropped(t *testing.T) {
	h := NewHub()
	s := newSession(identity.Identity{AccountID: uuid.New(), Role: model.RoleApplicant})
	h.register(s)

	// Fill the send buffer past capacity; extra events must not block
	for i := 0; i < cap(s.send)+10; i++ {
		h.EmitToUser(s.id.AccountID.String(), "application_update", i)
	}

	assert.Len(t, s.send, cap(s.send))
}
