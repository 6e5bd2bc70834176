package market

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"skinsignal-api/internal/cache"
	"skinsignal-api/internal/model"

	"go.uber.org/zap"
)

// DefaultListingTTL bounds how long one item's listings are reused.
const DefaultListingTTL = 90 * time.Second

// ListingCache memoizes a ListingSource per case-insensitive item name.
// Entries are process-wide (or fleet-wide on Redis); concurrent misses may both
// fetch and the last write wins.
type ListingCache struct {
	source ListingSource
	store  cache.Cache
	ttl    time.Duration
	log    *zap.Logger
}

// NewListingCache wraps source with store. A zero ttl uses DefaultListingTTL.
func NewListingCache(source ListingSource, store cache.Cache, ttl time.Duration, log *zap.Logger) *ListingCache {
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	return &ListingCache{source: source, store: store, ttl: ttl, log: log.Named("listing_cache")}
}

// CacheKey normalizes an item name into its cache key.
func CacheKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// GetListings returns cached listings for name, fetching on a miss.
// Fetch failures are returned and never cached.
func (c *ListingCache) GetListings(ctx context.Context, name string) ([]model.Listing, error) {
	key := CacheKey(name)

	raw, err := c.store.GetOrSet(ctx, key, c.ttl, func() ([]byte, error) {
		listings, err := c.source.FetchListings(ctx, name)
		if err != nil {
			return nil, err
		}
		if listings == nil {
			listings = []model.Listing{}
		}
		return json.Marshal(listings)
	})
	if err != nil {
		return nil, err
	}

	var listings []model.Listing
	if err := json.Unmarshal(raw, &listings); err != nil {
		c.log.Warn("dropping unreadable cache entry", zap.String("key", key), zap.Error(err))
		_ = c.store.Delete(ctx, key)
		return c.source.FetchListings(ctx, name)
	}
	return listings, nil
}

// Invalidate drops the cached entry for name.
func (c *ListingCache) Invalidate(ctx context.Context, name string) error {
	return c.store.Delete(ctx, CacheKey(name))
}

// Cached reports whether listings for name are currently cached.
func (c *ListingCache) Cached(ctx context.Context, name string) (bool, error) {
	return c.store.Exists(ctx, CacheKey(name))
}

// Purge drops every cached listing.
func (c *ListingCache) Purge(ctx context.Context) error {
	return c.store.Clear(ctx)
}

// Entries reports how many entries the backing store holds, when the store can tell.
func (c *ListingCache) Entries() (int, bool) {
	if counter, ok := c.store.(interface{ Len() int }); ok {
		return counter.Len(), true
	}
	return 0, false
}
