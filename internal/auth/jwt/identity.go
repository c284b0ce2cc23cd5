package jwt

import (
	"context"
	"time"
)

// ClaimEmail is the payload field that carries the caller's email.
const ClaimEmail = "email"

// Identity is the verified payload of a bearer token.
type Identity struct {
	// Email is the caller's email, the join key for roles and cart ownership.
	Email string

	// Claims holds every non-registered payload field, email included.
	Claims map[string]any

	ExpiresAt time.Time
	IssuedAt  time.Time
	TokenID   string
}

type identityKey struct{}

// ContextWithIdentity attaches id to ctx.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the identity attached to ctx, if any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok && id != nil
}
