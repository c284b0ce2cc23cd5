package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vyrodovalexey/restaurant/internal/observability"
)

const (
	tracerName        = "restaurant/cache"
	defaultMaxEntries = 10000
	cleanupInterval   = time.Minute
	backendMemory     = "memory"
	backendRedis      = "redis"
)

// MemoryCache is an in-process LRU cache with per-entry expiry.
type MemoryCache struct {
	logger     observability.Logger
	metrics    *Metrics
	maxEntries int
	defaultTTL time.Duration
	now        func() time.Time

	mu       sync.Mutex
	items    map[string]*list.Element
	eviction *list.List

	hits   int64
	misses int64

	stopOnce sync.Once
	stopCh   chan struct{}
}

type memoryEntry struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// NewMemory creates an in-memory cache and starts its cleanup loop.
func NewMemory(maxEntries int, defaultTTL time.Duration, logger observability.Logger, metrics *Metrics) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = defaultMaxEntries
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	if metrics == nil {
		metrics = NewMetrics("restaurant")
	}

	c := &MemoryCache{
		logger:     logger,
		metrics:    metrics,
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		now:        time.Now,
		items:      make(map[string]*list.Element),
		eviction:   list.New(),
		stopCh:     make(chan struct{}),
	}

	go c.cleanupLoop()

	logger.Info("memory cache initialized",
		observability.Int("maxEntries", maxEntries),
		observability.Duration("defaultTTL", defaultTTL))

	return c
}

// Get retrieves a value.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	_, span := otel.Tracer(tracerName).Start(ctx, "cache.Get",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("cache.backend", backendMemory)),
	)
	defer span.End()
	defer c.metrics.observe(backendMemory, "get", time.Now())

	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if ok {
		entry := elem.Value.(*memoryEntry)
		if c.expired(entry) {
			c.removeElement(elem)
			ok = false
		}
	}
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		c.metrics.misses.WithLabelValues(backendMemory).Inc()
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, ErrCacheMiss
	}

	c.eviction.MoveToFront(elem)
	atomic.AddInt64(&c.hits, 1)
	c.metrics.hits.WithLabelValues(backendMemory).Inc()
	span.SetAttributes(attribute.Bool("cache.hit", true))

	return elem.Value.(*memoryEntry).value, nil
}

// Set stores a value.
func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, span := otel.Tracer(tracerName).Start(ctx, "cache.Set",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("cache.backend", backendMemory)),
	)
	defer span.End()
	defer c.metrics.observe(backendMemory, "set", time.Now())

	if ttl == 0 {
		ttl = c.defaultTTL
	}
	entry := &memoryEntry{key: key, value: value}
	if ttl > 0 {
		entry.expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		elem.Value = entry
		c.eviction.MoveToFront(elem)
		return nil
	}

	c.items[key] = c.eviction.PushFront(entry)
	for c.eviction.Len() > c.maxEntries {
		c.removeElement(c.eviction.Back())
		c.metrics.evictions.WithLabelValues(backendMemory).Inc()
	}
	c.metrics.size.WithLabelValues(backendMemory).Set(float64(c.eviction.Len()))

	return nil
}

// Delete removes a value.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	_, span := otel.Tracer(tracerName).Start(ctx, "cache.Delete",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("cache.backend", backendMemory)),
	)
	defer span.End()
	defer c.metrics.observe(backendMemory, "delete", time.Now())

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
	return nil
}

// Close stops the cleanup loop and drops every entry.
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stopCh) })

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element)
	c.eviction.Init()
	return nil
}

// Stats returns cache statistics.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	size := int64(c.eviction.Len())
	c.mu.Unlock()

	return Stats{
		Hits:   atomic.LoadInt64(&c.hits),
		Misses: atomic.LoadInt64(&c.misses),
		Size:   size,
	}
}

func (c *MemoryCache) expired(e *memoryEntry) bool {
	return !e.expiresAt.IsZero() && c.now().After(e.expiresAt)
}

// removeElement must be called with c.mu held.
func (c *MemoryCache) removeElement(elem *list.Element) {
	c.eviction.Remove(elem)
	delete(c.items, elem.Value.(*memoryEntry).key)
}

func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCh:
			return
		}
	}
}

func (c *MemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if c.expired(elem.Value.(*memoryEntry)) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	if removed > 0 {
		c.metrics.size.WithLabelValues(backendMemory).Set(float64(c.eviction.Len()))
		c.logger.Debug("cache cleanup completed", observability.Int("removed", removed))
	}
}
