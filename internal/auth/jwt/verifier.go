package jwt

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// Verifier checks bearer tokens and turns them into identities.
type Verifier struct {
	config Config
	opts   *options
}

// NewVerifier creates a verifier.
func NewVerifier(cfg Config, opts ...Option) (*Verifier, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Verifier{config: cfg, opts: newOptions(opts)}, nil
}

// Verify validates the signature and time claims of raw and returns the
// identity it carries. Every failure wraps ErrTokenExpired, ErrMissingEmail
// or ErrInvalidToken.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	start := time.Now()
	id, err := v.verify(raw)
	duration := time.Since(start)

	switch {
	case err == nil:
		v.opts.metrics.RecordVerification(resultSuccess, duration)
		v.opts.logger.WithContext(ctx).Debug("token verified", observability.String("email", id.Email))
	case errors.Is(err, ErrTokenExpired):
		v.opts.metrics.RecordVerification(resultExpired, duration)
	case errors.Is(err, ErrMissingEmail):
		v.opts.metrics.RecordVerification(resultMissingEmail, duration)
	default:
		v.opts.metrics.RecordVerification(resultInvalid, duration)
	}
	return id, err
}

func (v *Verifier) verify(raw string) (*Identity, error) {
	parseOpts := []jwxjwt.ParseOption{
		jwxjwt.WithKey(jwa.HS256, v.config.Secret),
		jwxjwt.WithValidate(true),
		jwxjwt.WithClock(jwxjwt.ClockFunc(v.opts.now)),
		jwxjwt.WithAcceptableSkew(v.config.ClockSkew),
	}
	if v.config.Issuer != "" {
		parseOpts = append(parseOpts, jwxjwt.WithIssuer(v.config.Issuer))
	}

	tok, err := jwxjwt.Parse([]byte(raw), parseOpts...)
	if err != nil {
		if errors.Is(err, jwxjwt.ErrTokenExpired()) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims := maps.Clone(tok.PrivateClaims())
	if claims == nil {
		claims = map[string]any{}
	}
	email, _ := claims[ClaimEmail].(string)
	if email == "" {
		return nil, ErrMissingEmail
	}

	return &Identity{
		Email:     email,
		Claims:    claims,
		ExpiresAt: tok.Expiration(),
		IssuedAt:  tok.IssuedAt(),
		TokenID:   tok.JwtID(),
	}, nil
}
