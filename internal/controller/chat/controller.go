// Package chat provides HTTP handlers for the applicant-staff chat
// subsystem. Real-time delivery rides on the realtime hub; the persisted
// message row is the source of truth.
package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/notify"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/realtime"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// Controller handles chat related endpoints
type Controller struct {
	DB     *database.DBinstanceStruct
	Fanout *notify.Fanout
	Hub    *realtime.Hub
}

// NewController creates a new instance of Controller. hub may be nil.
func NewController(db *database.DBinstanceStruct, fanout *notify.Fanout, hub *realtime.Hub) *Controller {
	return &Controller{DB: db, Fanout: fanout, Hub: hub}
}

// Open finds or creates the chat between the caller and the given
// counterpart. Applicants open chats with staff and vice versa.
// @Summary Open (or get) a chat with a counterpart
// @Tags Chat
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.Chat "Chat already existed"
// @Success 201 {object} model.Chat "Chat created"
// @Failure 400 {object} utilities.ErrorResponse "Invalid counterpart"
// @Router /chat [post]
func (ctl *Controller) Open(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	var body struct {
		CounterpartID uuid.UUID `json:"counterpart_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "counterpart_id must be provided"})
		return
	}

	var applicantID, staffID uuid.UUID
	switch id.Role {
	case model.RoleApplicant:
		applicantID = id.ProfileID
		staffID = body.CounterpartID
		var staff model.StaffProfile
		if err := ctl.DB.Where("id = ?", staffID).First(&staff).Error; err != nil {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Counterpart staff member not found"})
			return
		}
	case model.RoleStaff:
		staffID = id.ProfileID
		applicantID = body.CounterpartID
		var applicant model.ApplicantProfile
		if err := ctl.DB.Where("id = ?", applicantID).First(&applicant).Error; err != nil {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Counterpart applicant not found"})
			return
		}
	default:
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{Error: "Only applicants and staff can chat"})
		return
	}

	var chat model.Chat
	err = ctl.DB.Where("applicant_id = ? AND staff_id = ?", applicantID, staffID).First(&chat).Error
	if err == nil {
		c.JSON(http.StatusOK, chat)
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve chat: %s", err.Error()),
		})
		return
	}

	chat = model.Chat{ApplicantID: applicantID, StaffID: staffID}
	if err := ctl.DB.Create(&chat).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create chat: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusCreated, chat)
}

// ListMine returns the chats the caller participates in.
// @Summary List my chats
// @Tags Chat
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Chat
// @Router /chat [get]
func (ctl *Controller) ListMine(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	q := ctl.DB.Order("created_at DESC")
	switch id.Role {
	case model.RoleApplicant:
		q = q.Where("applicant_id = ?", id.ProfileID)
	case model.RoleStaff:
		q = q.Where("staff_id = ?", id.ProfileID)
	default:
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{Error: "Only applicants and staff can chat"})
		return
	}

	var chats []model.Chat
	if err := q.Find(&chats).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list chats: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, chats)
}

// loadOwnChat fetches a chat and checks the caller participates in it.
func (ctl *Controller) loadOwnChat(c *gin.Context, id identity.Identity) (*model.Chat, bool) {
	chatID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid chat id"})
		return nil, false
	}

	var chat model.Chat
	if err := ctl.DB.Where("id = ?", chatID).First(&chat).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Chat not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve chat: %s", err.Error()),
		})
		return nil, false
	}

	participant := (id.Role == model.RoleApplicant && chat.ApplicantID == id.ProfileID) ||
		(id.Role == model.RoleStaff && chat.StaffID == id.ProfileID)
	if !participant && id.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{Error: "Not a participant of this chat"})
		return nil, false
	}

	return &chat, true
}

// ListMessages returns the messages of one chat, oldest first.
// @Summary List messages of a chat
// @Tags Chat
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.ChatMessage
// @Failure 403 {object} utilities.ErrorResponse "Not a participant"
// @Router /chat/{id}/messages [get]
func (ctl *Controller) ListMessages(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	chat, ok := ctl.loadOwnChat(c, id)
	if !ok {
		return
	}

	var messages []model.ChatMessage
	if err := ctl.DB.Where("chat_id = ?", chat.ID).Order("sent_at ASC").Find(&messages).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list messages: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, messages)
}

// PostMessage persists a message, pushes it to the chat room, and fans a
// notification out to the other participant.
// @Summary Post a message to a chat
// @Tags Chat
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 201 {object} model.ChatMessage
// @Failure 403 {object} utilities.ErrorResponse "Not a participant"
// @Router /chat/{id}/messages [post]
func (ctl *Controller) PostMessage(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	chat, ok := ctl.loadOwnChat(c, id)
	if !ok {
		return
	}

	var body struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "body must be provided"})
		return
	}

	message := model.ChatMessage{
		ChatID:          chat.ID,
		SenderAccountID: id.AccountID,
		Body:            body.Body,
	}
	if err := ctl.DB.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to store message: %s", err.Error()),
		})
		return
	}

	if ctl.Hub != nil {
		ctl.Hub.EmitToChat(chat.ID.String(), "new_message", message)
	}

	ctl.notifyCounterpart(c, id, chat, body.Body)

	c.JSON(http.StatusCreated, message)
}

// notifyCounterpart fans a chat_message notification out to the other
// participant. Best-effort.
func (ctl *Controller) notifyCounterpart(c *gin.Context, id identity.Identity, chat *model.Chat, body string) {
	if ctl.Fanout == nil {
		return
	}

	ctx := c.Request.Context()

	var recipient uuid.UUID
	var err error
	if id.Role == model.RoleApplicant {
		recipient, err = notify.ResolveAccountID(ctx, ctl.DB, &model.StaffProfile{}, chat.StaffID)
	} else {
		recipient, err = notify.ResolveAccountID(ctx, ctl.DB, &model.ApplicantProfile{}, chat.ApplicantID)
	}
	if err != nil {
		return
	}

	ctl.Fanout.Dispatch(ctx, notify.Event{
		Kind:               notify.EventChatMessage,
		ChatID:             chat.ID,
		ChatBody:           body,
		SenderName:         ctl.senderDisplayName(ctx, id),
		RecipientAccountID: recipient,
	})
}

// senderDisplayName resolves the caller's profile name for the message
// preview. Falls back to the role when the lookup comes back empty.
func (ctl *Controller) senderDisplayName(ctx context.Context, id identity.Identity) string {
	var first, last string
	switch id.Role {
	case model.RoleApplicant:
		var p model.ApplicantProfile
		if err := ctl.DB.WithContext(ctx).Where("id = ?", id.ProfileID).First(&p).Error; err == nil {
			first, last = p.FirstName, p.LastName
		}
	case model.RoleStaff:
		var p model.StaffProfile
		if err := ctl.DB.WithContext(ctx).Where("id = ?", id.ProfileID).First(&p).Error; err == nil {
			first, last = p.FirstName, p.LastName
		}
	}
	if name := strings.TrimSpace(first + " " + last); name != "" {
		return name
	}
	return id.Role
}
