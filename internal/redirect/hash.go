package redirect

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
)

// ContentHash digests the URL text with the named algorithm and returns
// the hex-encoded result. The hash deduplicates canonical URLs and keys
// the passthrough content cache.
func ContentHash(algorithm, url string) (string, error) {
	var h hash.Hash

	switch algorithm {
	case "md5":
		h = md5.New()
	case "sha1":
		h = sha1.New()
	case "sha256":
		h = sha256.New()
	case "sha512":
		h = sha512.New()
	default:
		return "", fmt.Errorf("%w: unknown hash algorithm %q", ErrConfiguration, algorithm)
	}

	h.Write([]byte(url))

	return hex.EncodeToString(h.Sum(nil)), nil
}
