package model

import (
	"time"

	"github.com/google/uuid"
)

var (
	// ApplicationStatusPending indicates that the application is awaiting review
	ApplicationStatusPending = "pending"
	// ApplicationStatusReviewed indicates that hr has looked at the application
	ApplicationStatusReviewed = "reviewed"
	// ApplicationStatusShortlisted indicates that the applicant made the shortlist
	ApplicationStatusShortlisted = "shortlisted"
	// ApplicationStatusInterview indicates that an interview has been scheduled
	ApplicationStatusInterview = "interview"
	// ApplicationStatusAccepted indicates a terminal positive outcome
	ApplicationStatusAccepted = "accepted"
	// ApplicationStatusRejected indicates a terminal negative outcome
	ApplicationStatusRejected = "rejected"
)

// ApplicationStatuses is the closed set of valid application statuses
var ApplicationStatuses = []string{
	ApplicationStatusPending,
	ApplicationStatusReviewed,
	ApplicationStatusShortlisted,
	ApplicationStatusInterview,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
}

// Application represents a job application record.
// The compound unique index on (job_id, applicant_id) is the authority for
// duplicate prevention under concurrent submits.
type Application struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	JobID uint `gorm:"not null;uniqueIndex:idx_application_job_applicant" json:"job_id"`
	Job   Job  `gorm:"foreignKey:JobID;references:ID" json:"-"`

	ApplicantID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_application_job_applicant" json:"applicant_id"`
	Applicant   ApplicantProfile `gorm:"foreignKey:ApplicantID;references:ID" json:"-"`

	// HRID is copied from Job.ContacterID at submit time
	HRID uuid.UUID    `gorm:"type:uuid;not null;index" json:"hr_id"`
	HR   StaffProfile `gorm:"foreignKey:HRID;references:ID" json:"-"`

	// InterviewerID is assigned when the application moves to interview
	InterviewerID *uuid.UUID    `gorm:"type:uuid;index" json:"interviewer_id,omitempty"`
	Interviewer   *StaffProfile `gorm:"foreignKey:InterviewerID;references:ID" json:"-"`

	// CompanyID is copied from the job at submit time for fast scoping
	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	Company   CompanyProfile `gorm:"foreignKey:CompanyID;references:ID" json:"-"`

	ResumeID int    `gorm:"not null" json:"resume_id"`
	Resume   Resume `gorm:"foreignKey:ResumeID;references:ID" json:"-"`

	Status    string    `gorm:"type:text;not null;index" json:"status"`
	AppliedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"applied_at"`
	UpdatedAt time.Time `gorm:"type:timestamp" json:"status_updated_at"`
}

// ValidStatus reports whether s is a member of the closed status set.
func ValidStatus(s string) bool {
	for _, v := range ApplicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether the application has reached a terminal status.
func (a *Application) Terminal() bool {
	return a.Status == ApplicationStatusAccepted || a.Status == ApplicationStatusRejected
}
