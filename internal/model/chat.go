package model

import (
	"time"

	"github.com/google/uuid"
)

// Chat is a conversation between one applicant and one staff member
type Chat struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`

	ApplicantID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_chat_pair" json:"applicant_id"`
	Applicant   ApplicantProfile `gorm:"foreignKey:ApplicantID;references:ID" json:"-"`

	StaffID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_chat_pair" json:"staff_id"`
	Staff   StaffProfile `gorm:"foreignKey:StaffID;references:ID" json:"-"`

	CreatedAt time.Time     `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
	Messages  []ChatMessage `gorm:"foreignKey:ChatID;constraint:OnDelete:CASCADE" json:"messages,omitempty"`
}

// ChatMessage is a single message inside a chat
type ChatMessage struct {
	ID     uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID uuid.UUID `gorm:"type:uuid;not null;index" json:"chat_id"`
	Chat   Chat      `gorm:"foreignKey:ChatID;references:ID" json:"-"`

	// SenderAccountID identifies the sender in the account identity space
	SenderAccountID uuid.UUID `gorm:"type:uuid;not null" json:"sender_account_id"`
	Body            string    `gorm:"type:text;not null" json:"body"`
	SentAt          time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"sent_at"`
}
