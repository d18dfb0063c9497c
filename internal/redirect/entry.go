package redirect

import (
	"context"
	"strings"
	"time"
)

// CanonicalURL is a deduplicated destination URL. Two adds of the same
// trimmed URL share one row, keyed by the (url, hash) pair.
type CanonicalURL struct {
	ID   int64
	URL  string
	Hash string
}

// Entry is a single redirect: a slug pointing at a canonical URL, with an
// optional validity window. Entries are soft-deleted via Enabled.
type Entry struct {
	ID        int64
	URLID     int64
	Slug      string
	ValidFrom *time.Time
	ValidTo   *time.Time
	Mode      Mode
	Enabled   bool
	Created   time.Time
}

// Resolved is the read-only projection of an entry joined with its URL.
// It is the unit stored in the lookup cache, so cache hits and store hits
// are indistinguishable to callers.
type Resolved struct {
	RedirectID  int64  `json:"redirectId"`
	Slug        string `json:"slug"`
	OriginalURL string `json:"originalUrl"`
	Mode        Mode   `json:"mode"`
	// Hash is the content hash of the original URL, reused as the
	// passthrough cache key.
	Hash string `json:"hash"`
}

// Shortened builds the public short URL for this entry.
func (r Resolved) Shortened(rootURL string) string {
	return strings.TrimRight(rootURL, "/") + "/" + r.Slug
}

// Visit is one recorded hit on a redirect. IP, UserAgent and Referrer are
// optional; empty values mean "not recorded".
type Visit struct {
	RedirectID int64
	VisitedAt  time.Time
	Origin     string
	IP         []byte
	UserAgent  string
	Referrer   string
}

// UpsertRedirectParams carries the write arguments for a redirect entry.
type UpsertRedirectParams struct {
	URLID     int64
	Slug      string
	ValidFrom *time.Time
	ValidTo   *time.Time
	Mode      Mode
}

// ListedEntry is a read model for administrative listings.
type ListedEntry struct {
	Entry
	OriginalURL string
	Hits        int64
}

// Store is the persistence boundary for canonical URLs and redirect
// entries. Implementations must be safe for concurrent use.
type Store interface {
	// UpsertURL trims the URL, computes its content hash and inserts or
	// returns the existing id for the (url, hash) pair.
	UpsertURL(ctx context.Context, url string) (int64, error)

	// UpsertRedirect inserts or updates the redirect keyed by
	// (urlID, slug), re-enabling it. Rejects reserved slugs.
	UpsertRedirect(ctx context.Context, params UpsertRedirectParams) (int64, error)

	// FindActiveBySlug returns the resolved entry for a slug, or
	// ErrNotFound if no enabled entry is currently within its validity
	// window.
	FindActiveBySlug(ctx context.Context, slug string) (*Resolved, error)

	// Disable soft-deletes a redirect entry.
	Disable(ctx context.Context, redirectID int64) error

	// CountActive counts entries passing the same validity filter as
	// FindActiveBySlug.
	CountActive(ctx context.Context) (int64, error)

	// List returns entries for administrative listings, most recent
	// first. With activeOnly, disabled and out-of-window entries are
	// skipped. limit <= 0 means no limit.
	List(ctx context.Context, activeOnly bool, limit int) ([]ListedEntry, error)
}

// VisitStore persists visit records.
type VisitStore interface {
	SaveVisit(ctx context.Context, visit *Visit) error
}
