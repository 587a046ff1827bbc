package api

import (
	"net/http" // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework

	"race_access/internal/access" // Access gate
)

// AccessResponse is the body of a granted access request
type AccessResponse struct {
	Granted         bool          `json:"granted"`                   // Always true here
	Reason          access.Reason `json:"reason"`                    // How access was obtained
	AlreadyUnlocked bool          `json:"alreadyUnlocked,omitempty"` // Set when nothing was charged
}

// RequestAccessHandler unlocks a race's forecasts for the authenticated user
func RequestAccessHandler(gate *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		res, err := gate.RequestAccess(c.Request.Context(), userID, c.Param("meetingId"), c.Param("raceId"))
		if err != nil {
			respondError(c, err) // 400 on bad identifiers, 500 otherwise
			return
		}
		// Not enough gold is an answer, not a failure
		if !res.Granted {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"granted":        false,               // Denied
				"reason":         res.Reason,          // insufficient_gold
				"goldRequired":   *res.GoldRequired,   // Cost of one race
				"currentBalance": *res.CurrentBalance, // Gold held
			})
			return
		}
		c.JSON(http.StatusOK, AccessResponse{Granted: true, Reason: res.Reason, AlreadyUnlocked: res.AlreadyUnlocked()})
	}
}

// AccessStatusHandler reports free quota use and unlocked races for a meeting
func AccessStatusHandler(gate *access.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := currentUser(c)
		if !ok {
			return
		}
		st, err := gate.Status(c.Request.Context(), userID, c.Param("meetingId"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, st)
	}
}
