package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// Recovery returns a middleware that turns a panic into an internal error
// response.
func Recovery(logger observability.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = observability.NopLogger()
	}

	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			err := fmt.Errorf("panic: %v", rec)

			logger.Error("panic recovered",
				observability.Any("error", rec),
				observability.String("method", c.Request.Method),
				observability.String("path", c.Request.URL.Path),
				observability.String("request_id", GetRequestID(c)),
				observability.String("stack", string(debug.Stack())),
			)
			trace.SpanFromContext(c.Request.Context()).RecordError(err)

			apperr.Abort(c, apperr.Internal("an unexpected error occurred", err))
		}()

		c.Next()
	}
}
