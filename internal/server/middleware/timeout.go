package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// Timeout sets a deadline on the request context. Handlers run on the
// request goroutine and observe the deadline through the context; a handler
// that gave up without writing a response gets a 504.
func Timeout(timeout time.Duration, logger observability.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		if timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			logger.Warn("request timeout",
				observability.String("method", c.Request.Method),
				observability.String("path", c.Request.URL.Path),
				observability.Duration("timeout", timeout),
			)
			apperr.Abort(c, apperr.Upstream("request timed out", ctx.Err()))
		}
	}
}
