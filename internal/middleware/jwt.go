package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // Header parsing

	"github.com/gin-gonic/gin" // Gin web framework

	"race_access/internal/utils" // Token parsing
)

// UserIDKey is the gin context key holding the authenticated user id
const UserIDKey = "userID"

// JWTAuthMiddleware authenticates the bearer token and stores its user id
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		claims, err := utils.ParseJWT(raw, secret) // Signature, algorithm and expiry
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		// User ids are opaque strings; a blank id or a subject naming someone else is forged
		userID := strings.TrimSpace(claims.UserID)
		if userID == "" || (claims.Subject != "" && claims.Subject != userID) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token subject"})
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// bearerToken extracts the token from an Authorization header value
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
