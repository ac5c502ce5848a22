package logger

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	RequestIDHeader = "X-Request-ID"
	ctxKey          = "logger"
)

// Middleware tags each request with an id, stores a request-scoped logger in
// the gin context and logs the outcome.
func Middleware(base *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Header(RequestIDHeader, reqID)

		log := base.With("request_id", reqID)
		c.Set(ctxKey, log)

		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		}
		switch {
		case c.Writer.Status() >= 500:
			log.Error("request", attrs...)
		case c.Writer.Status() >= 400:
			log.Warn("request", attrs...)
		default:
			log.Info("request", attrs...)
		}
	}
}

// FromContext returns the request logger set by Middleware, or fallback.
func FromContext(c *gin.Context, fallback *slog.Logger) *slog.Logger {
	if v, ok := c.Get(ctxKey); ok {
		if l, ok := v.(*slog.Logger); ok {
			return l
		}
	}
	if fallback == nil {
		return slog.Default()
	}
	return fallback
}
