package authz

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
	"github.com/vyrodovalexey/restaurant/internal/auth/jwt"
	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// Guard names used in metrics.
const (
	guardAuthenticated = "authenticated"
	guardAdmin         = "admin"
	guardSelf          = "self"
)

// IdentityVerifier verifies a raw bearer token.
type IdentityVerifier interface {
	Verify(ctx context.Context, raw string) (*jwt.Identity, error)
}

// Guard decides whether an authenticated caller may proceed. It returns nil
// to allow and an apperr error to reject.
type Guard func(c *gin.Context, id *jwt.Identity) error

// Gate authenticates requests and applies guards in order.
type Gate struct {
	extractor jwt.TokenExtractor
	verifier  IdentityVerifier
	roles     *RoleResolver
	logger    observability.Logger
	metrics   *Metrics
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger.
func WithGateLogger(logger observability.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithGateMetrics sets the metrics.
func WithGateMetrics(metrics *Metrics) GateOption {
	return func(g *Gate) {
		g.metrics = metrics
	}
}

// NewGate creates a gate.
func NewGate(verifier IdentityVerifier, roles *RoleResolver, opts ...GateOption) *Gate {
	g := &Gate{
		extractor: jwt.BearerExtractor(),
		verifier:  verifier,
		roles:     roles,
		logger:    observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.metrics == nil {
		g.metrics = NewMetrics("")
	}
	return g
}

// Protect authenticates the request and then runs guards in order. The first
// failing step aborts the chain with its error; later guards and the route
// handler do not run. Protect with no guards only requires authentication.
func (g *Gate) Protect(guards ...Guard) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := g.authenticate(c)
		if err != nil {
			g.metrics.RecordDecision(guardAuthenticated, resultDeny)
			g.logger.WithContext(c.Request.Context()).Warn("authentication failed",
				observability.String("path", c.Request.URL.Path),
				observability.String("method", c.Request.Method),
				observability.Error(err))
			apperr.Abort(c, apperr.Unauthorized(err))
			return
		}
		g.metrics.RecordDecision(guardAuthenticated, resultAllow)

		c.Request = c.Request.WithContext(jwt.ContextWithIdentity(c.Request.Context(), id))

		for _, guard := range guards {
			if err := guard(c, id); err != nil {
				g.logger.WithContext(c.Request.Context()).Warn("access denied",
					observability.String("path", c.Request.URL.Path),
					observability.String("method", c.Request.Method),
					observability.Error(err))
				apperr.Abort(c, err)
				return
			}
		}

		c.Next()
	}
}

func (g *Gate) authenticate(c *gin.Context) (*jwt.Identity, error) {
	ctx, span := authzTracer.Start(c.Request.Context(), "authz.Authenticate")
	defer span.End()

	raw, err := g.extractor.Extract(c.Request)
	if err != nil {
		return nil, err
	}
	id, err := g.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Bool("authz.authenticated", true))
	return id, nil
}

// RequireAdmin allows callers whose stored role is exactly admin.
func (g *Gate) RequireAdmin() Guard {
	return func(c *gin.Context, id *jwt.Identity) error {
		if id == nil {
			g.metrics.RecordDecision(guardAdmin, resultError)
			return apperr.Unauthorized(ErrNoIdentity)
		}

		isAdmin, err := g.roles.IsAdmin(c.Request.Context(), id.Email)
		if err != nil {
			g.metrics.RecordDecision(guardAdmin, resultError)
			return err
		}
		if !isAdmin {
			g.metrics.RecordDecision(guardAdmin, resultDeny)
			return apperr.Forbidden(ErrNotAdmin)
		}
		g.metrics.RecordDecision(guardAdmin, resultAllow)
		return nil
	}
}

// RequireSelf allows callers whose email equals the path parameter param.
// The comparison is case-sensitive.
func (g *Gate) RequireSelf(param string) Guard {
	return func(c *gin.Context, id *jwt.Identity) error {
		if id == nil {
			g.metrics.RecordDecision(guardSelf, resultError)
			return apperr.Unauthorized(ErrNoIdentity)
		}
		if c.Param(param) != id.Email {
			g.metrics.RecordDecision(guardSelf, resultDeny)
			return apperr.Forbidden(ErrNotOwner)
		}
		g.metrics.RecordDecision(guardSelf, resultAllow)
		return nil
	}
}
