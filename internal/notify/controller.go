package notify

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// Controller handles notification related endpoints
type Controller struct {
	DB     *database.DBinstanceStruct
	Fanout *Fanout
	Pusher Pusher
}

// NewController creates a new instance of Controller with the provided
// database connection and fan-out.
func NewController(db *database.DBinstanceStruct, fanout *Fanout, pusher Pusher) *Controller {
	return &Controller{DB: db, Fanout: fanout, Pusher: pusher}
}

// ListMine returns the caller's notifications, newest first. Unread-only
// with ?unread=true.
// @Summary List my notifications
// @Tags Notification
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {array} model.Notification
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Router /notification [get]
func (ctl *Controller) ListMine(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	q := ctl.DB.Where("account_id = ?", id.AccountID).Order("created_at DESC")
	if c.Query("unread") == "true" {
		q = q.Where("is_read = ?", false)
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil && limit > 0 {
		q = q.Limit(limit)
	}

	var notifications []model.Notification
	if err := q.Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to list notifications: %s", err.Error()),
		})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkRead flips a single notification of the caller to read.
// @Summary Mark one of my notifications as read
// @Tags Notification
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 200 {object} model.Notification
// @Failure 404 {object} utilities.ErrorResponse "Notification not found"
// @Router /notification/{id}/read [put]
func (ctl *Controller) MarkRead(c *gin.Context) {
	id, err := identity.FromContext(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	notificationID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid notification id"})
		return
	}

	var notification model.Notification
	err = ctl.DB.Where("id = ? AND account_id = ?", notificationID, id.AccountID).First(&notification).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Notification not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve notification: %s", err.Error()),
		})
		return
	}

	if !notification.IsRead {
		if err := ctl.DB.Model(&notification).UpdateColumn("is_read", true).Error; err != nil {
			c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
				Error: fmt.Sprintf("Failed to update notification: %s", err.Error()),
			})
			return
		}
		notification.IsRead = true
	}

	c.JSON(http.StatusOK, notification)
}

// Create lets admin or staff issue a manual system notification to an account.
// @Summary Send a system notification (admin/staff only)
// @Tags Notification
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Success 201 {object} model.Notification
// @Failure 400 {object} utilities.ErrorResponse "Invalid body"
// @Router /notification [post]
func (ctl *Controller) Create(c *gin.Context) {
	var info struct {
		AccountID uuid.UUID `json:"account_id" binding:"required"`
		Title     string    `json:"title" binding:"required"`
		Content   string    `json:"content" binding:"required"`
		ActionURL string    `json:"action_url"`
	}
	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}

	notification := model.Notification{
		AccountID: info.AccountID,
		Type:      model.NotificationTypeSystem,
		Title:     info.Title,
		Content:   info.Content,
		ActionURL: info.ActionURL,
	}
	if err := ctl.DB.Create(&notification).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to create notification: %s", err.Error()),
		})
		return
	}

	if ctl.Pusher != nil {
		ctl.Pusher.EmitToUser(notification.AccountID.String(), "new_notification", notification)
	}

	c.JSON(http.StatusCreated, notification)
}
