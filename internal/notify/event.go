// Package notify translates lifecycle transitions into per-recipient
// notification records and best-effort real-time pushes.
package notify

import (
	"github.com/google/uuid"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
)

const (
	// EventSubmitted is emitted when a new application is created
	EventSubmitted = "submitted"
	// EventStatusChanged is emitted when an application changes status
	EventStatusChanged = "status_changed"
	// EventChatMessage is emitted when a chat message is posted
	EventChatMessage = "chat_message"
)

// Event is a snapshot of a lifecycle transition handed to the fan-out.
// Recipient fields are account ids, resolved by the emitter or by
// Dispatch before mapping.
type Event struct {
	Kind string

	Application model.Application
	JobTitle    string

	PrevStatus string
	NewStatus  string

	// ApplicantAccountID receives status-change notifications
	ApplicantAccountID uuid.UUID
	// HRAccountID receives the submitted notification
	HRAccountID uuid.UUID
	// InterviewerAccountID receives the assignment notification when
	// InterviewerAssigned is set
	InterviewerAccountID uuid.UUID
	InterviewerAssigned  bool

	// Chat fields, only set for EventChatMessage
	ChatID             uuid.UUID
	ChatBody           string
	SenderName         string
	RecipientAccountID uuid.UUID
}
