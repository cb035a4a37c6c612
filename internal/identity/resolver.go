// Package identity resolves a bearer credential into the canonical
// (account, role, role profile) tuple every other subsystem depends on.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/auth"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/database"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
)

var (
	// ErrInvalidCredential means the token is malformed, expired or badly signed
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrAccountNotFound means the token subject does not match any account
	ErrAccountNotFound = errors.New("account not found")
	// ErrRoleProfileMissing means the account role implies a profile that
	// does not exist yet (possible briefly right after registration)
	ErrRoleProfileMissing = errors.New("role profile missing")
	// ErrStaffInactive means the staff profile has been deactivated by its company
	ErrStaffInactive = errors.New("staff profile deactivated")
)

// Identity is the resolved caller of a request. It is immutable and is
// computed at most once per request.
type Identity struct {
	AccountID uuid.UUID
	Role      string
	// ProfileID is the role profile id (applicant/company/staff/admin profile)
	ProfileID uuid.UUID
	// CompanyID is set for staff (their employer) and company (their own
	// profile id); zero otherwise
	CompanyID uuid.UUID
}

// Resolver turns bearer tokens into identities.
type Resolver struct {
	DB *database.DBinstanceStruct
}

// NewResolver creates a new Resolver with the provided database connection.
func NewResolver(db *database.DBinstanceStruct) *Resolver {
	return &Resolver{DB: db}
}

// Resolve validates the token, loads the account and its role profile, and
// returns the caller identity. Read-only.
func (r *Resolver) Resolve(ctx context.Context, tokenString string) (Identity, error) {

	token, err := auth.ValidatedToken(tokenString)
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Issuer != auth.JwtIssuer {
		return Identity{}, ErrInvalidCredential
	}

	accountID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: bad subject", ErrInvalidCredential)
	}

	var account model.Account
	if err := r.DB.WithContext(ctx).Where("id = ?", accountID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Identity{}, ErrAccountNotFound
		}
		return Identity{}, err
	}

	id := Identity{AccountID: account.ID, Role: account.Role}

	switch account.Role {
	case model.RoleApplicant:
		var profile model.ApplicantProfile
		if err := r.DB.WithContext(ctx).Where("account_id = ?", account.ID).First(&profile).Error; err != nil {
			return Identity{}, profileErr(err)
		}
		id.ProfileID = profile.ID
	case model.RoleCompany:
		var profile model.CompanyProfile
		if err := r.DB.WithContext(ctx).Where("account_id = ?", account.ID).First(&profile).Error; err != nil {
			return Identity{}, profileErr(err)
		}
		id.ProfileID = profile.ID
		id.CompanyID = profile.ID
	case model.RoleStaff:
		var profile model.StaffProfile
		if err := r.DB.WithContext(ctx).Where("account_id = ?", account.ID).First(&profile).Error; err != nil {
			return Identity{}, profileErr(err)
		}
		if !profile.Active {
			return Identity{}, ErrStaffInactive
		}
		id.ProfileID = profile.ID
		id.CompanyID = profile.CompanyID
	case model.RoleAdmin:
		// Admin needs no profile beyond the account itself. The AdminProfile
		// row is informational; tolerate its absence.
		var profile model.AdminProfile
		if err := r.DB.WithContext(ctx).Where("account_id = ?", account.ID).First(&profile).Error; err == nil {
			id.ProfileID = profile.ID
		}
	default:
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrInvalidCredential, account.Role)
	}

	return id, nil
}

func profileErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRoleProfileMissing
	}
	return err
}

const contextKey = "identity"

// IntoContext attaches the resolved identity to the gin context.
func IntoContext(c *gin.Context, id Identity) {
	c.Set(contextKey, id)
}

// FromContext extracts the identity previously attached by RequireAuth.
func FromContext(c *gin.Context) (Identity, error) {
	v, ok := c.Get(contextKey)
	if !ok {
		return Identity{}, errors.New("identity not resolved")
	}
	id, ok := v.(Identity)
	if !ok {
		return Identity{}, errors.New("failed to assert identity type")
	}
	return id, nil
}
