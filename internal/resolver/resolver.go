// Package resolver implements the cache-aside slug lookup in front of the
// entry store.
package resolver

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/ricwein/shurl/internal/cache"
	"github.com/ricwein/shurl/internal/redirect"
)

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shurl_slug_cache_hits_total",
		Help: "Slug resolutions answered from the cache",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shurl_slug_cache_misses_total",
		Help: "Slug resolutions that fell through to the store",
	})
)

// Resolver answers slug lookups cache-first, falling back to the store
// and populating the cache on miss. It performs no tracking, so it is
// safe to call speculatively (previews, API lookups).
type Resolver struct {
	store  redirect.Store
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a resolver. A nil cache disables caching entirely; every
// lookup then hits the store.
func New(store redirect.Store, c cache.Cache, ttl time.Duration, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:  store,
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// Resolve returns the resolved entry for slug, or redirect.ErrNotFound.
//
// Cached entries are trusted verbatim and never re-validated against the
// store. Negative results are not cached: repeated misses always re-hit
// the store, trading some enumeration load for immediate visibility of
// new entries. Concurrent misses for one slug may each write the cache;
// last write wins, which is harmless because writes are idempotent for a
// given slug.
func (r *Resolver) Resolve(ctx context.Context, slug string) (*redirect.Resolved, error) {
	if r.cache == nil {
		return r.store.FindActiveBySlug(ctx, slug)
	}

	key := cache.Key("slug_", slug)

	var cached redirect.Resolved

	hit, err := r.cache.Get(ctx, key, &cached)
	if err != nil {
		// A broken cache degrades to store lookups.
		r.logger.Warn("slug cache read failed", zap.String("slug", slug), zap.Error(err))
	}

	if hit {
		cacheHits.Inc()
		return &cached, nil
	}

	cacheMisses.Inc()

	resolved, err := r.store.FindActiveBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, resolved, r.ttl); err != nil {
		r.logger.Warn("slug cache write failed", zap.String("slug", slug), zap.Error(err))
	}

	return resolved, nil
}
