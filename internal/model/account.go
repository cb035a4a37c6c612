// Package model contain gorm model for recording data to database
package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// RoleApplicant is the role of a job seeker account
	RoleApplicant = "applicant"
	// RoleCompany is the role of a company owner account
	RoleCompany = "company"
	// RoleStaff is the role of a company employee account (hr / interviewer)
	RoleStaff = "staff"
	// RoleAdmin is the role of a platform administrator account
	RoleAdmin = "admin"
)

// AllRoles lists every valid account role
var AllRoles = []string{RoleApplicant, RoleCompany, RoleStaff, RoleAdmin}

// Account is the authentication identity. Exactly one role profile
// (ApplicantProfile / CompanyProfile / StaffProfile / AdminProfile)
// exists per account, matching Role.
type Account struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	Email    string    `gorm:"type:text;uniqueIndex;not null" json:"email"`
	Password string    `gorm:"type:text" json:"-"`
	Role     string    `gorm:"type:text;not null;index" json:"role"`

	Verified          bool       `gorm:"default:false" json:"verified"`
	VerifyToken       *string    `gorm:"type:text" json:"-"`
	VerifyTokenExpiry *time.Time `gorm:"type:timestamp" json:"-"`
	ResetToken        *string    `gorm:"type:text" json:"-"`
	ResetTokenExpiry  *time.Time `gorm:"type:timestamp" json:"-"`

	LastLoginAt *time.Time `gorm:"type:timestamp" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;->" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"type:timestamp" json:"-"`
}

// BeforeCreate normalizes the email so uniqueness is case-insensitive.
func (a *Account) BeforeCreate(_ *gorm.DB) error {
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	return nil
}

// AccessToken struct holds the access token data
type AccessToken struct {
	Token string `json:"token"`
}

// AuthResponse struct holds the response data for login or registration
type AuthResponse struct {
	Account     Account     `json:"account"`
	Profile     interface{} `json:"profile,omitempty"`
	AccessToken string      `json:"access_token"`
}
