// Package authz is the single source of truth for role checks and
// row-level scoping. Every list/read path goes through a scope here.
package authz

import (
	"errors"
	"fmt"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/model"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// ErrForbidden means the caller is authenticated but lacks the required role.
var ErrForbidden = errors.New("forbidden")

// Authorize accepts the request when the identity's role is in the
// required set. Deterministic, no side effects.
func Authorize(id identity.Identity, requiredRoles ...string) error {
	if utilities.Contains(requiredRoles, id.Role) {
		return nil
	}
	return fmt.Errorf("%w: role %q not in required set", ErrForbidden, id.Role)
}

// ApplicationScope derives the row-level predicate restricting which
// applications the identity may see. Applicants see their own, staff and
// companies see their company's, admins see everything.
func ApplicationScope(id identity.Identity) map[string]interface{} {
	switch id.Role {
	case model.RoleApplicant:
		return map[string]interface{}{"applicant_id": id.ProfileID}
	case model.RoleStaff, model.RoleCompany:
		return map[string]interface{}{"company_id": id.CompanyID}
	case model.RoleAdmin:
		return map[string]interface{}{}
	}
	// Unknown roles match nothing
	return map[string]interface{}{"applicant_id": nil}
}

// AssignedScope restricts to applications a staff member is personally
// responsible for: hr contacts see their assigned pipeline, interviewers
// their interviews. Non-staff fall back to ApplicationScope.
func AssignedScope(id identity.Identity) map[string]interface{} {
	if id.Role != model.RoleStaff {
		return ApplicationScope(id)
	}
	return map[string]interface{}{"hr_id": id.ProfileID}
}

// InterviewerScope restricts to applications where the staff member is the
// assigned interviewer.
func InterviewerScope(id identity.Identity) map[string]interface{} {
	if id.Role != model.RoleStaff {
		return ApplicationScope(id)
	}
	return map[string]interface{}{"interviewer_id": id.ProfileID}
}

// CanTouchApplication reports whether the identity may mutate the given
// application's status: staff or company of the owning company, or admin.
func CanTouchApplication(id identity.Identity, app *model.Application) bool {
	switch id.Role {
	case model.RoleAdmin:
		return true
	case model.RoleStaff, model.RoleCompany:
		return id.CompanyID == app.CompanyID
	}
	return false
}
