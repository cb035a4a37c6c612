// Package middleware contain utilities middleware code
package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// RequireAuth validates the Bearer token in the Authorization header,
// resolves the caller identity exactly once, and attaches it to the
// request context for downstream handlers.
func RequireAuth(resolver *identity.Resolver) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := utilities.ExtractBearerToken(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, utilities.ErrorResponse{
				Error: err.Error(),
			})
			return
		}

		id, err := resolver.Resolve(ctx.Request.Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, identity.ErrInvalidCredential):
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
					Error: fmt.Sprintf("Failed to validate token: %s", err.Error()),
				})
			case errors.Is(err, identity.ErrAccountNotFound):
				ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
					Error: "Account not exist",
				})
			case errors.Is(err, identity.ErrRoleProfileMissing):
				// Account exists but its profile row is not there yet,
				// distinct from an authentication failure
				ctx.AbortWithStatusJSON(http.StatusForbidden, utilities.ErrorResponse{
					Error: "Role profile not available yet, retry shortly",
				})
			case errors.Is(err, identity.ErrStaffInactive):
				ctx.AbortWithStatusJSON(http.StatusForbidden, utilities.ErrorResponse{
					Error: "Staff profile has been deactivated",
				})
			default:
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, utilities.ErrorResponse{
					Error: fmt.Sprintf("Failed to resolve identity: %s", err.Error()),
				})
			}
			return
		}

		identity.IntoContext(ctx, id)
		ctx.Next()
	}
}
