package model

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	// StaffPositionHR marks a staff member who owns job postings and reviews applications
	StaffPositionHR = "hr"
	// StaffPositionInterviewer marks a staff member who can be assigned interviews
	StaffPositionInterviewer = "interviewer"
	// StaffPositionOther marks any other company employee
	StaffPositionOther = "other"
)

var (
	// CompanyStatusPending indicates the company is awaiting admin verification
	CompanyStatusPending = "pending"
	// CompanyStatusVerified indicates the company has been verified by an admin
	CompanyStatusVerified = "verified"
	// CompanyStatusRejected indicates the company verification was rejected
	CompanyStatusRejected = "rejected"
)

// ContactInfo holds shared contact fields embedded in profiles
type ContactInfo struct {
	Tel   *string `json:"tel"`
	Email *string `json:"email"`
}

// ApplicantProfile is the role profile of a job seeker account
type ApplicantProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	Account   Account   `gorm:"foreignKey:AccountID;references:ID" json:"-"`

	ContactInfo `gorm:"embedded"`
	FirstName   string         `gorm:"type:text" json:"first_name"`
	LastName    string         `gorm:"type:text" json:"last_name"`
	Headline    string         `gorm:"type:text" json:"headline"`
	Skills      pq.StringArray `gorm:"type:text[]" json:"skills"`

	Resumes      []Resume      `gorm:"foreignKey:ApplicantID" json:"resumes,omitempty"`
	SavedJobs    []SavedJob    `gorm:"foreignKey:ApplicantID" json:"saved_jobs,omitempty"`
	Applications []Application `gorm:"foreignKey:ApplicantID" json:"applications,omitempty"`
}

// CompanyProfile is the role profile of a company account
type CompanyProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	Account   Account   `gorm:"foreignKey:AccountID;references:ID" json:"-"`

	Name     string `gorm:"type:text;not null" json:"name"`
	Slug     string `gorm:"type:text;uniqueIndex" json:"slug"`
	About    string `gorm:"type:text" json:"about"`
	Website  string `gorm:"type:text" json:"website"`
	Industry string `gorm:"type:text" json:"industry"`
	// EmailDomain is used to derive staff email addresses, e.g. "acme.io"
	EmailDomain    string `gorm:"type:text" json:"email_domain"`
	VerifiedStatus string `gorm:"type:text;default:pending" json:"verified_status"`

	Staff []StaffProfile `gorm:"foreignKey:CompanyID" json:"staff,omitempty"`
	Jobs  []Job          `gorm:"foreignKey:CompanyID" json:"jobs,omitempty"`
}

var slugStripPattern = regexp.MustCompile(`[^a-z0-9]+`)

// BeforeCreate derives the unique slug from the company name.
func (cp *CompanyProfile) BeforeCreate(_ *gorm.DB) error {
	if cp.Slug == "" {
		cp.Slug = Slugify(cp.Name)
	}
	return nil
}

// Slugify lowercases a name and collapses non-alphanumeric runs into dashes.
func Slugify(name string) string {
	s := slugStripPattern.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}

// StaffProfile is the role profile of a company employee account.
// Each staff member belongs to exactly one company.
type StaffProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	Account   Account   `gorm:"foreignKey:AccountID;references:ID" json:"-"`

	CompanyID uuid.UUID      `gorm:"type:uuid;not null;index" json:"company_id"`
	Company   CompanyProfile `gorm:"foreignKey:CompanyID;references:ID" json:"-"`

	ContactInfo `gorm:"embedded"`
	FirstName   string `gorm:"type:text" json:"first_name"`
	LastName    string `gorm:"type:text" json:"last_name"`
	Position    string `check:"position IN ('hr', 'interviewer', 'other')" gorm:"type:text;not null" json:"position"`
	Active      bool   `gorm:"default:true" json:"active"`
}

// AdminProfile is the minimal role profile of an administrator account
type AdminProfile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	AccountID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"account_id"`
	Account   Account   `gorm:"foreignKey:AccountID;references:ID" json:"-"`
	CreatedAt time.Time `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
}
