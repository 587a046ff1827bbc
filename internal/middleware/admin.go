package middleware

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"race_access/internal/domain" // Roles
	"race_access/internal/store"  // User lookup
)

// AdminOnlyMiddleware checks the user's roles from the database on each request
func AdminOnlyMiddleware(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey) // Set by JWTAuthMiddleware
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		user, err := st.User(c.Request.Context(), userID)
		// Unknown users and non-admins are treated alike
		if err != nil || !user.HasRole(domain.RoleAdmin) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
