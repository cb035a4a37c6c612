package model

import (
	"time"

	"github.com/google/uuid"
)

var (
	// NotificationTypeJobApplication is sent to the hr contact when a new application arrives
	NotificationTypeJobApplication = "job_application"
	// NotificationTypeApplicationUpdate is sent to the applicant on a status change
	NotificationTypeApplicationUpdate = "application_update"
	// NotificationTypeInterviewAssignment is sent to a staff member assigned as interviewer
	NotificationTypeInterviewAssignment = "interview_assignment"
	// NotificationTypeChatMessage is sent to the other party of a chat
	NotificationTypeChatMessage = "chat_message"
	// NotificationTypeSystem is a manually issued platform notice
	NotificationTypeSystem = "system"
)

var (
	// RelatedApplication tags a RelatedRef pointing at an Application
	RelatedApplication = "application"
	// RelatedJob tags a RelatedRef pointing at a Job
	RelatedJob = "job"
	// RelatedChat tags a RelatedRef pointing at a Chat
	RelatedChat = "chat"
)

// RelatedRef is a tagged back-reference to the entity that caused a
// notification. It is lookup-only and never implies ownership.
type RelatedRef struct {
	RelatedKind string `gorm:"type:text" json:"related_kind,omitempty"`
	RelatedID   string `gorm:"type:text" json:"related_id,omitempty"`
}

// ApplicationRef builds a RelatedRef for an application id.
func ApplicationRef(id uint) RelatedRef {
	return RelatedRef{RelatedKind: RelatedApplication, RelatedID: uintString(id)}
}

// ChatRef builds a RelatedRef for a chat id.
func ChatRef(id uuid.UUID) RelatedRef {
	return RelatedRef{RelatedKind: RelatedChat, RelatedID: id.String()}
}

// Notification is a persisted per-recipient message. The recipient is
// always an Account id; fan-out resolves profile ids before writing.
type Notification struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;not null;index" json:"account_id"`
	Account   Account   `gorm:"foreignKey:AccountID;references:ID" json:"-"`

	Type    string `gorm:"type:text;not null" json:"type"`
	Title   string `gorm:"type:text" json:"title"`
	Content string `gorm:"type:text" json:"content"`

	RelatedRef `gorm:"embedded"`
	ActionURL  string `gorm:"type:text" json:"action_url,omitempty"`

	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
}
