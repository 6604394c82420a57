package middleware

import (
	"time"

	"mailbox-server/internal/logging"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs one line per request once the handler chain is done.
// Server errors log at error level, client errors at warn.
func RequestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if userID, ok := GetUserIDFromContext(c); ok {
			args = append(args, "user_id", userID)
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.Error(ctx, "request failed", args...)
		case status >= 400:
			log.Warn(ctx, "request rejected", args...)
		default:
			log.Info(ctx, "request handled", args...)
		}
	}
}
