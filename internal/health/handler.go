package health

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves GET /health.
func (c *Checker) HealthHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, c.Health())
	}
}

// ReadinessHandler serves GET /ready. It answers 503 when a check fails.
func (c *Checker) ReadinessHandler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		response := c.Readiness(ctx.Request.Context())

		statusCode := http.StatusOK
		if response.Status != StatusHealthy {
			statusCode = http.StatusServiceUnavailable
		}
		ctx.JSON(statusCode, response)
	}
}

// RegisterRoutes registers /health and /ready on r.
func (c *Checker) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", c.HealthHandler())
	r.GET("/ready", c.ReadinessHandler())
}
