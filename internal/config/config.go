package config

import (
	"strings"
	"time"
)

// Config holds the full, explicit configuration of a shurl instance.
// It is built once at startup and passed into components by construction;
// there is no global config state.
type Config struct {
	// Development disables permanent redirects and renders raw errors.
	Development bool

	// RootURL is the public base URL shortened links are built from.
	RootURL string

	Cache    Cache
	Redirect Redirect
	Tracking Tracking
	Slug     Slug
}

// Cache configures the slug lookup cache and the passthrough content cache.
type Cache struct {
	Enabled bool
	// Engine selects the cache backend, "redis" or "memory".
	Engine string
	// TTL applies to slug lookups and cached passthrough content.
	TTL time.Duration
	// Passthrough enables caching of fetched origin content.
	Passthrough bool
}

// Redirect configures how the dispatcher answers resolved slugs.
type Redirect struct {
	// Permanent selects 301 over 302. Ignored in development mode.
	Permanent bool
	// Wait is the client-side refresh delay in seconds for html mode.
	Wait int
}

// Tracking configures visit recording.
type Tracking struct {
	Enabled     bool
	RespectDNT  bool
	SkipOnError bool

	StoreIP        bool
	StoreUserAgent bool
	StoreReferrer  bool
}

// Slug configures the identifier codec and slug validation.
type Slug struct {
	Alphabet  string
	Salt      string
	MinLength int
	// Hash names the digest algorithm for URL content hashes
	// (md5, sha1, sha256 or sha512).
	Hash     string
	Reserved []string
}

// DefaultAlphabet is case-sensitive and vowel-free to keep generated
// slugs short without spelling anything unfortunate.
const DefaultAlphabet = "bcdfghjklmnpqrstvwxyzBCDFGHJKLMNPQRSTVWXYZ0123456789"

// Default returns the baseline configuration, matching a plain
// single-node deployment.
func Default() Config {
	return Config{
		Development: false,
		RootURL:     "http://localhost:8080",
		Cache: Cache{
			Enabled:     true,
			Engine:      "redis",
			TTL:         time.Hour,
			Passthrough: true,
		},
		Redirect: Redirect{
			Permanent: false,
			Wait:      1,
		},
		Tracking: Tracking{
			Enabled:        true,
			RespectDNT:     true,
			SkipOnError:    true,
			StoreIP:        true,
			StoreUserAgent: true,
			StoreReferrer:  true,
		},
		Slug: Slug{
			Alphabet:  DefaultAlphabet,
			Salt:      "",
			MinLength: 3,
			Hash:      "sha256",
			Reserved:  []string{"assets", "api", "preview"},
		},
	}
}

// IsReserved reports whether s is in the reserved slug list.
func (s Slug) IsReserved(candidate string) bool {
	candidate = strings.TrimSpace(candidate)
	for _, r := range s.Reserved {
		if candidate == r {
			return true
		}
	}

	return false
}
