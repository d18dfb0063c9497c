package slug

import (
	"fmt"

	"github.com/jaevor/go-nanoid"

	"github.com/ricwein/shurl/internal/config"
	"github.com/ricwein/shurl/internal/redirect"
)

// Generator produces random slugs over the configured alphabet, for
// callers that prefer unguessable links over compact ones.
type Generator func() string

// NewGenerator builds a random slug generator of the given length.
func NewGenerator(cfg config.Slug, length int) (Generator, error) {
	gen, err := nanoid.CustomASCII(cfg.Alphabet, length)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", redirect.ErrConfiguration, err)
	}

	return Generator(gen), nil
}
