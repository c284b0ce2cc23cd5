package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/restaurant/internal/config"
)

// corsContext holds pre-computed values for CORS middleware.
type corsContext struct {
	origins          map[string]bool
	allowAllOrigins  bool
	allowCredentials bool
	allowMethodsStr  string
	allowHeadersStr  string
	maxAgeStr        string
}

func newCORSContext(cfg config.CORSConfig) *corsContext {
	defaults := config.DefaultConfig().Server.CORS
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = defaults.AllowOrigins
	}
	if len(cfg.AllowMethods) == 0 {
		cfg.AllowMethods = defaults.AllowMethods
	}
	if len(cfg.AllowHeaders) == 0 {
		cfg.AllowHeaders = defaults.AllowHeaders
	}

	ctx := &corsContext{
		origins:          make(map[string]bool, len(cfg.AllowOrigins)),
		allowCredentials: cfg.AllowCredentials,
		allowMethodsStr:  strings.Join(cfg.AllowMethods, ", "),
		allowHeadersStr:  strings.Join(cfg.AllowHeaders, ", "),
		maxAgeStr:        strconv.Itoa(cfg.MaxAge),
	}
	for _, origin := range cfg.AllowOrigins {
		if origin == "*" {
			ctx.allowAllOrigins = true
		}
		ctx.origins[origin] = true
	}
	return ctx
}

// CORS returns a middleware that answers cross-origin requests. Preflight
// requests from an allowed origin end with 204.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	ctx := newCORSContext(cfg)

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" || (!ctx.allowAllOrigins && !ctx.origins[origin]) {
			c.Next()
			return
		}

		if ctx.allowAllOrigins && !ctx.allowCredentials {
			c.Header("Access-Control-Allow-Origin", "*")
		} else {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		if ctx.allowCredentials {
			c.Header("Access-Control-Allow-Credentials", "true")
		}

		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", ctx.allowMethodsStr)
			c.Header("Access-Control-Allow-Headers", ctx.allowHeadersStr)
			c.Header("Access-Control-Max-Age", ctx.maxAgeStr)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
