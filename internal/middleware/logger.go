package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/secdesk/backend/internal/logger"
	"github.com/sirupsen/logrus"
)

// CustomLoggerMiddleware logs one line per HTTP request.
func CustomLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		// Zero when the route is public or auth failed.
		userID, _ := CurrentUserID(c)

		entry := logger.GetLogger().WithFields(logrus.Fields{
			"component": "http",
			"method":    c.Request.Method,
			"path":      c.Request.URL.Path,
			"status":    c.Writer.Status(),
			"latency":   latency.String(),
			"client_ip": c.ClientIP(),
			"user_id":   userID,
		})
		if len(c.Errors) > 0 {
			entry = entry.WithField("errors", c.Errors.String())
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("API request")
		case status >= 400:
			entry.Warn("API request")
		default:
			entry.Info("API request")
		}
	}
}
