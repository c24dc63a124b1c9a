package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"planmatch-backend/internal/shared/telemetry"
)

// Logging emits a structured log per request.
func Logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		if strings.EqualFold(c.Request.Method, "OPTIONS") {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()
		latency := time.Since(start)
		status := c.Writer.Status()
		reqID := RequestIDFromContext(c)

		userID, _ := c.Get(userIDKey)
		role, _ := c.Get(userRoleKey)
		bidRequestID, _ := c.Get("bidRequestId")
		attemptID, _ := c.Get("matchAttemptId")

		telemetry.Info("request.complete", map[string]any{
			"request_id":     reqID,
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"status":         status,
			"duration_ms":    float64(latency.Microseconds()) / 1000.0,
			"user_id":        userID,
			"role":           role,
			"bid_request_id": bidRequestID,
			"attempt_id":     attemptID,
			"client_ip":      c.ClientIP(),
			"user_agent":     c.Request.UserAgent(),
		})
	}
}
