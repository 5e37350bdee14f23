package rest

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/terraskye/stroming"
)

// CorrelationHeader carries the correlation ID of a request and its response.
const CorrelationHeader = "X-Correlation-ID"

// correlation puts the caller's correlation ID, or a fresh one, on the
// request context and echoes it back.
func correlation() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := stroming.WithCorrelationIDValue(c.Request.Context(), c.GetHeader(CorrelationHeader))
		c.Request = c.Request.WithContext(ctx)
		c.Header(CorrelationHeader, stroming.CorrelationIDFromContext(ctx))
		c.Next()
	}
}

func requestLogger(logger *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		c.Next()

		e := logger.WithContext(c.Request.Context()).WithFields(logrus.Fields{
			"method":         c.Request.Method,
			"path":           c.Request.URL.Path,
			"status":         c.Writer.Status(),
			"duration":       time.Since(started),
			"correlation_id": stroming.CorrelationIDFromContext(c.Request.Context()),
		})
		if stream := stroming.StreamNameFromContext(c.Request.Context()); stream != "" {
			e = e.WithField("stream", stream)
		}
		switch {
		case c.Writer.Status() >= 500:
			e.Error("request failed")
		case c.Writer.Status() >= 400:
			e.Info("request rejected")
		default:
			e.Debug("request served")
		}
	}
}
