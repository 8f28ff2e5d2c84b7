package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"casaflow/pm/internal/auth"
	"casaflow/pm/internal/models"
)

const (
	// ContextKeyUserID holds the key for user ID in Gin context.
	ContextKeyUserID = "userID"
	// ContextKeyRole holds the key for the caller's role in Gin context.
	ContextKeyRole = "role"
)

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}"})
			return
		}

		tokenString := parts[1]
		claims, err := auth.ValidateJWT(tokenString, jwtSecret)
		if err != nil {
			errMsg := fmt.Sprintf("Invalid or expired token: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMsg})
			return
		}

		// Set user info in context for handlers to use
		c.Set(ContextKeyUserID, claims.UserID)
		c.Set(ContextKeyRole, claims.Role)

		c.Next()
	}
}

// RoleMiddleware creates a Gin middleware restricting a route group to the
// given roles. Assumes AuthMiddleware runs first. The role set comes from
// config so the privileged set can evolve without touching pipeline logic.
func RoleMiddleware(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[models.Role]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[models.Role(r)] = struct{}{}
	}
	return func(c *gin.Context) {
		roleVal, exists := c.Get(ContextKeyRole)
		if !exists {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Role information missing"})
			return
		}
		role, ok := roleVal.(models.Role)
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Role information missing"})
			return
		}
		if _, ok := allowedSet[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient privileges for this operation"})
			return
		}
		c.Next()
	}
}

// CallerID returns the authenticated user's ID from the Gin context.
func CallerID(c *gin.Context) string {
	if v, ok := c.Get(ContextKeyUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// CallerRole returns the authenticated user's role from the Gin context.
func CallerRole(c *gin.Context) models.Role {
	if v, ok := c.Get(ContextKeyRole); ok {
		if r, ok := v.(models.Role); ok {
			return r
		}
	}
	return ""
}
