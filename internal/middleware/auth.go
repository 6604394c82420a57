package middleware

import (
	"slices"
	"strings"

	"mailbox-server/internal/auth"
	"mailbox-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextRoles    = "userRoles"
)

// AuthMiddleware creates a middleware for JWT authentication.
func AuthMiddleware(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			return
		}

		scheme, tokenString, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(tokenString) == "" {
			utils.Unauthorized(c, "Invalid authorization header format")
			return
		}

		claims, err := tokens.Validate(strings.TrimSpace(tokenString))
		if err != nil {
			utils.Unauthorized(c, "Invalid or expired token")
			return
		}

		// Set user information in context for downstream handlers
		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUsername, claims.Username)
		c.Set(ContextRoles, claims.Roles)

		c.Next()
	}
}

// RoleAuthMiddleware rejects callers whose token carries none of the allowed
// roles. It must run after AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, ok := GetUserRolesFromContext(c)
		if !ok {
			utils.InternalServerError(c, "User roles not found in context")
			return
		}

		if !slices.ContainsFunc(roles, func(r string) bool { return slices.Contains(allowedRoles, r) }) {
			utils.Forbidden(c, "You do not have permission to access this resource")
			return
		}

		c.Next()
	}
}

// GetUserIDFromContext returns the authenticated user's id.
func GetUserIDFromContext(c *gin.Context) (uint, bool) {
	userID, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := userID.(uint)
	return id, ok && id != 0
}

// GetUserRolesFromContext returns the roles carried by the session token.
func GetUserRolesFromContext(c *gin.Context) ([]string, bool) {
	roles, exists := c.Get(ContextRoles)
	if !exists {
		return nil, false
	}
	r, ok := roles.([]string)
	return r, ok
}
