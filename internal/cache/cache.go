package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vyrodovalexey/restaurant/internal/config"
	"github.com/vyrodovalexey/restaurant/internal/observability"
)

// Common cache errors.
var (
	// ErrCacheMiss indicates that the key was not found in the cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheDisabled indicates that caching is disabled.
	ErrCacheDisabled = errors.New("cache disabled")

	// ErrInvalidConfig indicates that the cache configuration is invalid.
	ErrInvalidConfig = errors.New("invalid cache configuration")

	// ErrConnectionFailed indicates that the cache backend could not be reached.
	ErrConnectionFailed = errors.New("cache connection failed")
)

// Cache stores opaque values by key.
type Cache interface {
	// Get returns ErrCacheMiss if the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value. A zero TTL uses the configured default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close() error
}

// Stats contains cache statistics.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int64
}

// HitRate returns the hit rate as a percentage.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// Option configures a cache.
type Option func(*cacheOptions)

type cacheOptions struct {
	metrics *Metrics
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *Metrics) Option {
	return func(o *cacheOptions) {
		o.metrics = m
	}
}

// New creates a cache from configuration.
func New(cfg *config.CacheConfig, logger observability.Logger, opts ...Option) (Cache, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if !cfg.Enabled {
		return Disabled(), nil
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	o := &cacheOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = NewMetrics("restaurant")
	}

	switch cfg.Type {
	case config.CacheTypeMemory, "":
		return NewMemory(cfg.MaxEntries, cfg.TTL.Duration(), logger, o.metrics), nil
	case config.CacheTypeRedis:
		return newRedisCache(cfg, logger, o.metrics)
	default:
		return nil, fmt.Errorf("%w: unknown cache type %q", ErrInvalidConfig, cfg.Type)
	}
}

type disabledCache struct{}

// Disabled returns a cache that stores nothing.
func Disabled() Cache {
	return disabledCache{}
}

func (disabledCache) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheDisabled }

func (disabledCache) Set(context.Context, string, []byte, time.Duration) error {
	return ErrCacheDisabled
}

func (disabledCache) Delete(context.Context, string) error { return nil }

func (disabledCache) Close() error { return nil }
