package web

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dharma/internal/logging"
	"dharma/internal/services"
)

const (
	requestIDHeader = "X-Request-Id"
	requestIDKey    = "request_id"
)

// trackInflight counts handlers still running so Stop can wait for them.
func trackInflight(wg *sync.WaitGroup) gin.HandlerFunc {
	return func(c *gin.Context) {
		wg.Add(1)
		defer wg.Done()
		c.Next()
	}
}

// requestID injects a unique X-Request-Id header into every request/response
// and carries it on the request context for pipeline logging.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.New().String()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// recovery recovers from handler panics and logs the stack.
func recovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.ErrorWithContext(logging.WithContext(c.Request.Context(), logger), "panic recovered", "http_panic",
					logging.String("error", fmt.Sprintf("%v", rec)),
					logging.String("stack", string(debug.Stack())),
					logging.String("path", c.Request.URL.Path),
					logging.String("method", c.Request.Method),
					logging.String(logging.FieldErrorHint, "inspect the stack trace and the failing handler"),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// requestLogger logs every request with method, path, status, and latency.
// Health checks are only logged at debug level.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		path := c.Request.URL.Path
		if q := c.Request.URL.RawQuery; q != "" {
			path = path + "?" + q
		}

		attrs := []logging.Attr{
			logging.String(logging.FieldEventType, "http_request"),
			logging.String("method", c.Request.Method),
			logging.String("path", path),
			logging.Int("status", status),
			logging.Duration("latency", latency),
			logging.String("client", c.ClientIP()),
		}
		if status >= http.StatusInternalServerError {
			attrs = append(attrs, logging.Int("size", c.Writer.Size()))
		}

		log := logging.WithContext(c.Request.Context(), logger)
		switch {
		case c.Request.URL.Path == "/healthz":
			log.Debug("request", logging.Args(attrs...)...)
		case status >= http.StatusInternalServerError:
			log.Error("request", logging.Args(attrs...)...)
		case status >= http.StatusBadRequest:
			log.Warn("request", logging.Args(attrs...)...)
		default:
			log.Info("request", logging.Args(attrs...)...)
		}
	}
}
