package redirect

import "errors"

var (
	// ErrNotFound is returned when no enabled, currently valid entry
	// exists for a slug.
	ErrNotFound = errors.New("unknown slug, url not found")

	// ErrSlugReserved is returned when a write uses a reserved slug.
	ErrSlugReserved = errors.New("slug is reserved")

	// ErrInvalidMode is returned for redirect modes outside the known set.
	ErrInvalidMode = errors.New("invalid redirect mode")

	// ErrConfiguration is returned for unusable codec or hash settings.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrStoreUnreachable wraps infrastructure failures of the backing store.
	ErrStoreUnreachable = errors.New("store unreachable")
)
