package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Digital-Shane/title-fetch/internal/episode"
	"github.com/patrickmn/go-cache"
)

// CachingProvider memoizes successful fetches of the wrapped provider.
type CachingProvider struct {
	Provider
	cache *cache.Cache
}

// WithCache wraps p with a TTL cache. A non-positive ttl returns p unchanged.
func WithCache(p Provider, ttl time.Duration) Provider {
	if ttl <= 0 {
		return p
	}
	return &CachingProvider{
		Provider: p,
		cache:    cache.New(ttl, 2*ttl),
	}
}

// CacheKey identifies a query for a provider. The API key is not part of it.
func CacheKey(kind Kind, query episode.Query) string {
	return fmt.Sprintf("%s:%d:%s:%d", kind, query.AnimeID, strings.ToLower(query.Name()), query.Year)
}

// Fetch returns a cached result when present, otherwise delegates.
func (c *CachingProvider) Fetch(ctx context.Context, query episode.Query) (*episode.Result, error) {
	if err := ValidateQuery(c, query); err != nil {
		return nil, err
	}

	key := CacheKey(c.Kind(), query)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(*episode.Result), nil
	}

	result, err := c.Provider.Fetch(ctx, query)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, result)
	return result, nil
}

// Flush drops every cached entry.
func (c *CachingProvider) Flush() {
	c.cache.Flush()
}
