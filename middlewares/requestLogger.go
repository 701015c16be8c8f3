package middlewares

import (
	"time"

	"github.com/Churchly/initializers"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propagates the caller's X-Request-ID or assigns a new one.
func RequestID(c *gin.Context) {
	requestID := c.GetHeader(RequestIDHeader)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	c.Set("requestId", requestID)
	c.Header(RequestIDHeader, requestID)
	c.Next()
}

func RequestLogger(c *gin.Context) {
	start := time.Now()
	c.Next()

	entry := initializers.Log.WithFields(logrus.Fields{
		"method":    c.Request.Method,
		"path":      c.Request.URL.Path,
		"status":    c.Writer.Status(),
		"latency":   time.Since(start).String(),
		"clientIp":  c.ClientIP(),
		"requestId": c.GetString("requestId"),
	})

	if len(c.Errors) > 0 {
		entry = entry.WithField("errors", c.Errors.String())
	}

	switch status := c.Writer.Status(); {
	case status >= 500:
		entry.Error("request failed")
	case status >= 400:
		entry.Warn("request rejected")
	default:
		entry.Info("request handled")
	}
}
