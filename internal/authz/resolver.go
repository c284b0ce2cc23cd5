package authz

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/vyrodovalexey/restaurant/internal/apperr"
	"github.com/vyrodovalexey/restaurant/internal/cache"
	"github.com/vyrodovalexey/restaurant/internal/observability"
	"github.com/vyrodovalexey/restaurant/internal/resource"
	"github.com/vyrodovalexey/restaurant/internal/store"
)

var authzTracer = otel.Tracer("restaurant/authz")

const roleKeyPrefix = "role:"

// RoleNone is the resolved role of every account that is not an admin,
// including unknown emails.
const RoleNone = ""

// AccountLookup finds a single account.
type AccountLookup interface {
	FindOne(ctx context.Context, filter store.Filter) (*resource.Account, error)
}

// RoleResolver resolves the stored role of an email. Lookups never create
// accounts.
type RoleResolver struct {
	accounts AccountLookup
	cache    cache.Cache
	ttl      time.Duration
	logger   observability.Logger
	metrics  *Metrics
}

// ResolverOption configures a RoleResolver.
type ResolverOption func(*RoleResolver)

// WithResolverLogger sets the logger.
func WithResolverLogger(logger observability.Logger) ResolverOption {
	return func(r *RoleResolver) {
		r.logger = logger
	}
}

// WithResolverMetrics sets the metrics.
func WithResolverMetrics(metrics *Metrics) ResolverOption {
	return func(r *RoleResolver) {
		r.metrics = metrics
	}
}

// WithRoleCache caches resolved roles for ttl. A zero ttl uses the cache default.
func WithRoleCache(c cache.Cache, ttl time.Duration) ResolverOption {
	return func(r *RoleResolver) {
		r.cache = c
		r.ttl = ttl
	}
}

// NewRoleResolver creates a role resolver over accounts.
func NewRoleResolver(accounts AccountLookup, opts ...ResolverOption) *RoleResolver {
	r := &RoleResolver{
		accounts: accounts,
		cache:    cache.Disabled(),
		logger:   observability.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.metrics == nil {
		r.metrics = NewMetrics("")
	}
	return r
}

// Resolve returns resource.RoleAdmin when the account with email exists and
// its role is exactly the admin marker, RoleNone otherwise. Store failures
// are reported as upstream errors.
func (r *RoleResolver) Resolve(ctx context.Context, email string) (string, error) {
	ctx, span := authzTracer.Start(ctx, "authz.ResolveRole")
	defer span.End()

	start := time.Now()
	key := roleKeyPrefix + email

	if cached, err := r.cache.Get(ctx, key); err == nil {
		role := normalizeRole(string(cached))
		r.metrics.RecordRoleLookup(sourceCache, roleResult(role), time.Since(start))
		span.SetAttributes(attribute.Bool("authz.cached", true))
		return role, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) && !errors.Is(err, cache.ErrCacheDisabled) {
		r.logger.Warn("role cache lookup failed", observability.Error(err))
	}

	acc, err := r.accounts.FindOne(ctx, store.Filter{"email": email})
	if err != nil {
		r.metrics.RecordRoleLookup(sourceStore, resultError, time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "role lookup failed")
		return RoleNone, apperr.Upstream("role lookup failed", err)
	}

	role := RoleNone
	if acc.IsAdmin() {
		role = resource.RoleAdmin
	}
	r.metrics.RecordRoleLookup(sourceStore, roleResult(role), time.Since(start))
	span.SetAttributes(attribute.Bool("authz.cached", false))

	if err := r.cache.Set(ctx, key, []byte(role), r.ttl); err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		r.logger.Warn("role cache store failed", observability.Error(err))
	}
	return role, nil
}

// IsAdmin reports whether email resolves to the admin role.
func (r *RoleResolver) IsAdmin(ctx context.Context, email string) (bool, error) {
	role, err := r.Resolve(ctx, email)
	if err != nil {
		return false, err
	}
	return role == resource.RoleAdmin, nil
}

// Invalidate drops the cached role of email.
func (r *RoleResolver) Invalidate(ctx context.Context, email string) {
	if err := r.cache.Delete(ctx, roleKeyPrefix+email); err != nil {
		r.logger.Warn("role cache invalidation failed", observability.Error(err))
	}
}

// FindAccount returns the account with email, or nil when there is none.
func (r *RoleResolver) FindAccount(ctx context.Context, email string) (*resource.Account, error) {
	acc, err := r.accounts.FindOne(ctx, store.Filter{"email": email})
	if err != nil {
		return nil, apperr.Upstream("account lookup failed", err)
	}
	return acc, nil
}

func normalizeRole(role string) string {
	if role == resource.RoleAdmin {
		return resource.RoleAdmin
	}
	return RoleNone
}

func roleResult(role string) string {
	if role == resource.RoleAdmin {
		return "admin"
	}
	return "none"
}
