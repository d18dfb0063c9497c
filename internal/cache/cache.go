// Package cache defines the key-value cache boundary used for slug
// lookups, passthrough content and counters.
package cache

import (
	"context"
	"strings"
	"time"
)

// Cache is a TTL'd key-value cache. Get and Set must be atomic per key;
// no cross-key guarantees are needed. Values round-trip through the
// implementation's own encoding, so dest must be a pointer.
type Cache interface {
	// Get loads the value for key into dest. The boolean reports whether
	// the key was present.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores value under key for ttl. A zero ttl stores without
	// expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Backing caches restrict the usable key character set, so raw input like
// slugs is mapped onto safe substitutes before use.
var keySanitizer = strings.NewReplacer(
	"{", "|",
	"}", "|",
	"(", "|",
	")", "|",
	"/", ".",
	"\\", ".",
	"@", "-",
	":", "_",
)

// Key builds a namespaced cache key from a prefix and raw, possibly
// unsafe input.
func Key(prefix, raw string) string {
	return prefix + keySanitizer.Replace(raw)
}
