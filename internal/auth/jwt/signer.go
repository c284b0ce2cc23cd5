package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	jwxjwt "github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// registeredClaims are always controlled by the server. Values for them in
// an issuance payload are discarded.
var registeredClaims = map[string]struct{}{
	jwxjwt.ExpirationKey: {},
	jwxjwt.IssuedAtKey:   {},
	jwxjwt.NotBeforeKey:  {},
	jwxjwt.IssuerKey:     {},
	jwxjwt.SubjectKey:    {},
	jwxjwt.AudienceKey:   {},
	jwxjwt.JwtIDKey:      {},
}

// Signer issues HS256 bearer tokens.
type Signer struct {
	config Config
	opts   *options
}

// NewSigner creates a signer.
func NewSigner(cfg Config, opts ...Option) (*Signer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.TTL == 0 {
		cfg.TTL = DefaultTTL
	}
	return &Signer{config: cfg, opts: newOptions(opts)}, nil
}

// Issue signs payload with the configured TTL. The payload is trusted as
// given; callers that need to vouch for it must do so before calling Issue.
func (s *Signer) Issue(ctx context.Context, payload map[string]any) (string, error) {
	start := time.Now()
	token, err := s.issue(payload)
	if err != nil {
		s.opts.metrics.RecordIssue(statusError, time.Since(start))
		s.opts.logger.WithContext(ctx).Warn("token issuance failed", observability.Error(err))
		return "", err
	}
	s.opts.metrics.RecordIssue(statusSuccess, time.Since(start))
	return token, nil
}

func (s *Signer) issue(payload map[string]any) (string, error) {
	now := s.opts.now()
	tok := jwxjwt.New()

	for k, v := range payload {
		if _, reserved := registeredClaims[k]; reserved {
			continue
		}
		if err := tok.Set(k, v); err != nil {
			return "", fmt.Errorf("%w: claim %q: %w", ErrSigningFailed, k, err)
		}
	}

	std := map[string]any{
		jwxjwt.IssuedAtKey:   now,
		jwxjwt.NotBeforeKey:  now,
		jwxjwt.ExpirationKey: now.Add(s.config.TTL),
		jwxjwt.JwtIDKey:      uuid.NewString(),
	}
	if s.config.Issuer != "" {
		std[jwxjwt.IssuerKey] = s.config.Issuer
	}
	if email, ok := payload[ClaimEmail].(string); ok && email != "" {
		std[jwxjwt.SubjectKey] = email
	}
	for k, v := range std {
		if err := tok.Set(k, v); err != nil {
			return "", fmt.Errorf("%w: claim %q: %w", ErrSigningFailed, k, err)
		}
	}

	signed, err := jwxjwt.Sign(tok, jwxjwt.WithKey(jwa.HS256, s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}
	return string(signed), nil
}

// TTL returns the lifetime of issued tokens.
func (s *Signer) TTL() time.Duration {
	return s.config.TTL
}
