package middleware

import (
	"errors"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/taskboard-api/internal/auth"
	"github.com/yukikurage/taskboard-api/internal/constants"
	apierrors "github.com/yukikurage/taskboard-api/internal/errors"
	"github.com/yukikurage/taskboard-api/internal/policy"
)

// bearerToken returns the credential from the Authorization header, falling
// back to the token stored in the session at login.
func bearerToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", false
		}
		return strings.TrimSpace(parts[1]), true
	}

	session := sessions.Default(c)
	if token, ok := session.Get(constants.SessionKeyToken).(string); ok && token != "" {
		return token, true
	}
	return "", false
}

// RequireAuth checks that the request carries a valid token and stores the
// caller in the context.
func RequireAuth(issuer *auth.TokenIssuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		claims, err := issuer.Parse(token)
		if err != nil {
			message := "Invalid token"
			if errors.Is(err, auth.ErrTokenExpired) {
				message = "Token expired"
			}
			apierrors.Unauthorized(c, message)
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, claims.UserID)
		c.Set(constants.ContextKeyCaller, policy.Caller{
			ID:            claims.UserID,
			Name:          claims.Name,
			Email:         claims.Email,
			Role:          claims.Role,
			Authenticated: true,
		})
		c.Next()
	}
}

// GetCaller retrieves the authenticated caller from context. Without one it
// returns the unauthenticated zero value.
func GetCaller(c *gin.Context) policy.Caller {
	value, exists := c.Get(constants.ContextKeyCaller)
	if !exists {
		return policy.Caller{}
	}
	caller, ok := value.(policy.Caller)
	if !ok {
		return policy.Caller{}
	}
	return caller
}

// GetUserID retrieves the current user ID from context
func GetUserID(c *gin.Context) (uint64, bool) {
	userID, exists := c.Get(constants.ContextKeyUserID)
	if !exists {
		return 0, false
	}

	switch v := userID.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case int:
		if v < 0 {
			return 0, false
		}
		return uint64(v), true
	default:
		return 0, false
	}
}
