package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pelongngoan/jobbuilder-server-sub000/internal/authz"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/identity"
	"github.com/pelongngoan/jobbuilder-server-sub000/internal/utilities"
)

// CheckRole will protect endpoint from caller that is not a specific roles
func CheckRole(roles ...string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		id, err := identity.FromContext(ctx)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, utilities.ErrorResponse{
				Error: err.Error(),
			})
			return
		}

		if err := authz.Authorize(id, roles...); err != nil {
			ctx.AbortWithStatusJSON(http.StatusForbidden, utilities.ErrorResponse{
				Error: "User doesn't have permission to access",
			})
		}
	}
}
