// Package cache provides the byte-oriented cache used to memoize role
// lookups.
//
// Two backends are available: an in-process LRU with TTL expiry and a Redis
// backend built on go-redis. New picks one from configuration and returns a
// disabled cache when caching is turned off, so callers never need a nil
// check:
//
//	c, err := cache.New(&cfg.Cache, logger)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	if v, err := c.Get(ctx, key); errors.Is(err, cache.ErrCacheMiss) {
//	    // load and Set
//	}
package cache
