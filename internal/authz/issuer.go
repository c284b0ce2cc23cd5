package authz

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
	"github.com/vyrodovalexey/restaurant/internal/auth/jwt"
	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// TokenSigner signs an identity payload.
type TokenSigner interface {
	Issue(ctx context.Context, payload map[string]any) (string, error)
}

// TokenResponse is the body of a successful issuance.
type TokenResponse struct {
	Token string `json:"token"`
}

// Issuer serves token issuance. By default the submitted payload is signed
// as given. With RequireKnownAccount the payload email must belong to a
// stored account.
type Issuer struct {
	signer       TokenSigner
	roles        *RoleResolver
	requireKnown bool
	logger       observability.Logger
}

// NewIssuer creates an issuer. roles may be nil when requireKnown is false.
func NewIssuer(signer TokenSigner, roles *RoleResolver, requireKnown bool, logger observability.Logger) *Issuer {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Issuer{signer: signer, roles: roles, requireKnown: requireKnown, logger: logger}
}

// Handle handles POST /jwt.
func (i *Issuer) Handle(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		apperr.Abort(c, apperr.BadRequest("invalid identity payload", err))
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}

	ctx := c.Request.Context()
	if i.requireKnown {
		email, _ := payload[jwt.ClaimEmail].(string)
		if email == "" || i.roles == nil {
			apperr.Abort(c, apperr.Unauthorized(ErrUnknownAccount))
			return
		}
		acc, err := i.roles.FindAccount(ctx, email)
		if err != nil {
			apperr.Abort(c, err)
			return
		}
		if acc == nil {
			i.logger.WithContext(ctx).Debug("issuance refused for unknown account",
				observability.String("email", email))
			apperr.Abort(c, apperr.Unauthorized(ErrUnknownAccount))
			return
		}
	}

	token, err := i.signer.Issue(ctx, payload)
	if err != nil {
		apperr.Abort(c, apperr.Internal("token issuance failed", err))
		return
	}
	c.JSON(http.StatusOK, TokenResponse{Token: token})
}
