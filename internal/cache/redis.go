package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/restaurant/internal/config"
	"github.com/vyrodovalexey/restaurant/internal/observability"
)

const (
	defaultKeyPrefix = "restaurant:"
	pingTimeout      = 5 * time.Second
)

// RedisCache is a Redis-backed cache.
type RedisCache struct {
	logger     observability.Logger
	metrics    *Metrics
	client     *redis.Client
	keyPrefix  string
	defaultTTL time.Duration
}

func newRedisCache(cfg *config.CacheConfig, logger observability.Logger, metrics *Metrics) (*RedisCache, error) {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		return nil, fmt.Errorf("%w: redis url is required", ErrInvalidConfig)
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis url: %w", ErrInvalidConfig, err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	prefix := cfg.Redis.KeyPrefix
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	logger.Info("redis cache initialized",
		observability.String("addr", opts.Addr),
		observability.String("keyPrefix", prefix),
		observability.Duration("defaultTTL", cfg.TTL.Duration()))

	return &RedisCache{
		logger:     logger,
		metrics:    metrics,
		client:     client,
		keyPrefix:  prefix,
		defaultTTL: cfg.TTL.Duration(),
	}, nil
}

func (c *RedisCache) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("cache.backend", backendRedis)),
	)
}

// Get retrieves a value.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, span := c.startSpan(ctx, "cache.Get")
	defer span.End()
	defer c.metrics.observe(backendRedis, "get", time.Now())

	val, err := c.client.Get(ctx, c.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.metrics.misses.WithLabelValues(backendRedis).Inc()
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, ErrCacheMiss
	}
	if err != nil {
		c.recordError(span, "get", err)
		return nil, fmt.Errorf("redis get: %w", err)
	}

	c.metrics.hits.WithLabelValues(backendRedis).Inc()
	span.SetAttributes(attribute.Bool("cache.hit", true))
	return val, nil
}

// Set stores a value.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, span := c.startSpan(ctx, "cache.Set")
	defer span.End()
	defer c.metrics.observe(backendRedis, "set", time.Now())

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	if err := c.client.Set(ctx, c.keyPrefix+key, value, ttl).Err(); err != nil {
		c.recordError(span, "set", err)
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes a value.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	ctx, span := c.startSpan(ctx, "cache.Delete")
	defer span.End()
	defer c.metrics.observe(backendRedis, "delete", time.Now())

	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		c.recordError(span, "delete", err)
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) recordError(span trace.Span, op string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	c.metrics.errors.WithLabelValues(backendRedis, op).Inc()
	c.logger.Warn("redis cache operation failed",
		observability.String("operation", op),
		observability.Error(err))
}
