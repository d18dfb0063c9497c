// Package slug turns numeric row identifiers into short, stable path
// segments and back.
package slug

import (
	"fmt"
	"math"

	"github.com/speps/go-hashids/v2"

	"github.com/ricwein/shurl/internal/config"
	"github.com/ricwein/shurl/internal/redirect"
)

// Codec encodes row ids into slugs using a salted, alphabet-based
// obfuscation. Encoding is deterministic for a given (salt, alphabet, id)
// triple: slugs are persisted and must round-trip as lookup keys forever,
// so changing salt or alphabet invalidates all existing links.
type Codec struct {
	engine *hashids.HashID
}

// NewCodec builds a codec from slug configuration. An unusable alphabet
// (too few distinct characters) yields a configuration error.
func NewCodec(cfg config.Slug) (*Codec, error) {
	engine, err := hashids.NewWithData(&hashids.HashIDData{
		Alphabet:  cfg.Alphabet,
		Salt:      cfg.Salt,
		MinLength: cfg.MinLength,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", redirect.ErrConfiguration, err)
	}

	return &Codec{engine: engine}, nil
}

// Encode maps a row id onto a slug.
func (c *Codec) Encode(id uint64) (string, error) {
	if id > math.MaxInt64 {
		return "", fmt.Errorf("%w: id %d out of encodable range", redirect.ErrConfiguration, id)
	}

	encoded, err := c.engine.EncodeInt64([]int64{int64(id)})
	if err != nil {
		return "", fmt.Errorf("encode id %d: %w", id, err)
	}

	return encoded, nil
}

// Decode recovers the row id from a slug produced by Encode.
func (c *Codec) Decode(s string) (uint64, error) {
	ids, err := c.engine.DecodeInt64WithError(s)
	if err != nil {
		return 0, fmt.Errorf("decode slug %q: %w", s, err)
	}

	if len(ids) != 1 || ids[0] < 0 {
		return 0, fmt.Errorf("decode slug %q: unexpected payload", s)
	}

	return uint64(ids[0]), nil
}
