package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"race_access/internal/domain"     // Error taxonomy
	"race_access/internal/middleware" // Context keys
)

// respondError writes the status mapped from the error kind. Only
// validation messages reach the client; everything else stays generic.
func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)                    // Classify the error
	status := domain.MetadataFor(kind).HTTPStatus // Status for the kind
	msg := http.StatusText(status)                // Generic message by default
	var derr *domain.Error
	if kind == domain.KindValidation && errors.As(err, &derr) && derr.Msg != "" {
		msg = derr.Msg // Validation messages are safe to show
	}
	c.JSON(status, gin.H{"error": msg})
}

// currentUser returns the authenticated user id set by the JWT middleware
func currentUser(c *gin.Context) (string, bool) {
	userID, exists := c.Get(middleware.UserIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}
	return id, true
}
