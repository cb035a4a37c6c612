package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

var (
	// JobStatusDraft indicates the posting is not yet visible to applicants
	JobStatusDraft = "draft"
	// JobStatusActive indicates the posting accepts applications
	JobStatusActive = "active"
	// JobStatusClosed indicates the posting no longer accepts applications
	JobStatusClosed = "closed"
)

// EditableJobInfo is the part of a job posting that the owning company can edit
type EditableJobInfo struct {
	Title     string         `gorm:"type:text" json:"title"`
	Desc      string         `gorm:"type:text" json:"desc"`
	Location  string         `gorm:"type:text" json:"location"`
	Type      string         `gorm:"type:text" json:"type"`
	Category  string         `gorm:"type:text" json:"category"`
	Skills    pq.StringArray `gorm:"type:text[]" json:"skills"`
	SalaryMin int64          `json:"salary_min"`
	SalaryMax int64          `json:"salary_max"`
	Currency  string         `gorm:"type:text" json:"currency"`
	Deadline  *time.Time     `gorm:"type:timestamp" json:"deadline,omitempty"`
}

// Job is gorm model for a job posting.
// ContacterID must resolve to an active hr StaffProfile of the same company.
type Job struct {
	ID        uint           `gorm:"primaryKey;autoIncrement;->" json:"id"`
	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index;<-:create" json:"company_id"`
	Company   CompanyProfile `gorm:"foreignKey:CompanyID;references:ID" json:"-"`

	// ContacterID is the hr staff member responsible for this posting
	ContacterID uuid.UUID    `gorm:"type:uuid;not null" json:"contacter_id"`
	Contacter   StaffProfile `gorm:"foreignKey:ContacterID;references:ID" json:"-"`

	EditableJobInfo
	Status   string    `gorm:"type:text;default:active" json:"status"`
	PostTime time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"post_time"`

	// ApplicationCount is denormalized and incremented atomically on submit
	ApplicationCount int64         `gorm:"default:0" json:"application_count"`
	Applications     []Application `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"applications,omitempty"`
}

// SavedJob is a bookmark from an applicant to a job posting
type SavedJob struct {
	ID          uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	ApplicantID uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_saved_applicant_job" json:"applicant_id"`
	Applicant   ApplicantProfile `gorm:"foreignKey:ApplicantID;references:ID" json:"-"`
	JobID       uint             `gorm:"not null;uniqueIndex:idx_saved_applicant_job" json:"job_id"`
	Job         Job              `gorm:"foreignKey:JobID;references:ID;constraint:OnDelete:CASCADE" json:"job,omitempty"`
	SavedAt     time.Time        `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"saved_at"`
}

// Resume is an uploaded résumé document owned by an applicant
type Resume struct {
	ID          int              `gorm:"primaryKey" json:"id"`
	ApplicantID uuid.UUID        `gorm:"type:uuid;not null;index" json:"applicant_id"`
	Applicant   ApplicantProfile `gorm:"foreignKey:ApplicantID;references:ID" json:"-"`
	FileName    string           `gorm:"type:text" json:"file_name"`
	Content     []byte           `json:"-"`
	Extension   string           `gorm:"type:text" json:"extension"`
	UploadedAt  time.Time        `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"uploaded_at"`
}

// BelongsTo reports whether the resume is owned by the given applicant profile.
func (r *Resume) BelongsTo(applicantID uuid.UUID) bool {
	return r.ApplicantID == applicantID
}
