package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/irfndi/heartguard-ai-go/internal/logging"
)

const (
	requestIDContextKey = "request_id"
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"
)

// RequestID propagates the caller's X-Request-ID or generates one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(requestIDContextKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the request id set by RequestID, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDContextKey)
}

// RequestLogger writes one structured access log line per request. Static
// assets are not logged.
func RequestLogger(logger *logging.StandardLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		if SkipTracing(c.Request.URL.Path) && c.Request.URL.Path != "/health" {
			return
		}
		logger.LogAPIRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start).Milliseconds(), SessionID(c))
		if len(c.Errors) > 0 {
			logger.WithRequestID(GetRequestID(c)).Error("Request failed", "session_id", SessionID(c), "errors", c.Errors.String())
		}
	}
}
