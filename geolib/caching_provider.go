package geolib

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
)

type cachingProvider struct {
	Provider

	cache *ristretto.Cache
	ttl   time.Duration
}

func (c cachingProvider) Lookup(ctx context.Context, query Query) (NormalizedRecord, error) {
	cacheKey := query.String()

	if value, ok := c.cache.Get(cacheKey); ok {
		return value.(NormalizedRecord).clone(), nil
	}

	result, err := c.Provider.Lookup(ctx, query)
	if err != nil {
		return NormalizedRecord{}, err
	}

	c.cache.SetWithTTL(cacheKey, result.clone(), 1, c.ttl)

	return result, nil
}

// NewCachingProvider wraps a provider with in-memory cache of
// successful lookups. Failures are never cached.
func NewCachingProvider(provider Provider, itemsCount uint, ttl time.Duration) Provider {
	cacheConfig := &ristretto.Config{
		MaxCost:     int64(itemsCount),
		NumCounters: 10 * int64(itemsCount),
		Metrics:     false,
		BufferItems: 64,
	}

	cache, err := ristretto.NewCache(cacheConfig)
	if err != nil {
		panic(err)
	}

	return cachingProvider{
		Provider: provider,
		cache:    cache,
		ttl:      ttl,
	}
}
