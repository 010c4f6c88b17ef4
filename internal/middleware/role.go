package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/models"
	"github.com/yukikurage/taskboard-api/internal/policy"
)

// RequireRole lets the request through only when the caller holds one of
// the allowed roles. It must run after RequireAuth.
func RequireRole(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := policy.RequireRole(GetCaller(c), allowed...); err != nil {
			if errors.Is(err, policy.ErrUnauthenticated) {
				apierrors.Unauthorized(c, "")
			} else {
				apierrors.Forbidden(c, "You do not have permission to access this resource")
			}
			c.Abort()
			return
		}
		c.Next()
	}
}
