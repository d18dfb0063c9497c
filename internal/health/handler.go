// Package health exposes the readiness endpoint covering the store and
// the cache backend.
package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"github.com/redis/go-redis/v9"
)

// Checker reports whether a dependency is reachable.
type Checker interface {
	Ping(ctx context.Context) error
}

// RedisChecker adapts redis.Client to Checker.
type RedisChecker struct {
	client *redis.Client
}

// NewRedisChecker creates a Redis health checker.
func NewRedisChecker(client *redis.Client) *RedisChecker {
	return &RedisChecker{client: client}
}

// Ping checks Redis connectivity.
func (r *RedisChecker) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Handler handles health check operations. Either checker may be nil
// when the dependency is not configured.
type Handler struct {
	store Checker
	cache Checker
}

// NewHandler creates a health handler over the given dependencies.
func NewHandler(store, cache Checker) *Handler {
	return &Handler{store: store, cache: cache}
}

// Response is the response for the health check endpoint.
type Response struct {
	Body struct {
		Status string `json:"status"`
		Store  string `json:"store,omitempty"`
		Cache  string `json:"cache,omitempty"`
	}
}

// Check probes the configured dependencies. A failing store degrades
// the service, a failing cache only degrades it softly since lookups
// fall through to the store.
func (h *Handler) Check(ctx context.Context, _ *struct{}) (*Response, error) {
	resp := &Response{}
	resp.Body.Status = "ok"

	if h.store != nil {
		if err := h.store.Ping(ctx); err != nil {
			resp.Body.Store = "unhealthy"
			resp.Body.Status = "degraded"
		} else {
			resp.Body.Store = "healthy"
		}
	}

	if h.cache != nil {
		if err := h.cache.Ping(ctx); err != nil {
			resp.Body.Cache = "unhealthy"
			if resp.Body.Status == "ok" {
				resp.Body.Status = "degraded"
			}
		} else {
			resp.Body.Cache = "healthy"
		}
	}

	return resp, nil
}

// RegisterRoutes registers the health check route.
func RegisterRoutes(api huma.API, h *Handler) {
	huma.Get(api, "/health", h.Check)
}
