package slug_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricwein/shurl/internal/config"
	"github.com/ricwein/shurl/internal/redirect"
	"github.com/ricwein/shurl/internal/slug"
)

func testSlugConfig() config.Slug {
	cfg := config.Default().Slug
	cfg.Salt = "test-salt"

	return cfg
}

func TestCodec_Encode(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		codec, err := slug.NewCodec(testSlugConfig())
		require.NoError(t, err)

		first, err := codec.Encode(42)
		require.NoError(t, err)

		second, err := codec.Encode(42)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("honors minimum length", func(t *testing.T) {
		cfg := testSlugConfig()
		cfg.MinLength = 6

		codec, err := slug.NewCodec(cfg)
		require.NoError(t, err)

		encoded, err := codec.Encode(1)
		require.NoError(t, err)

		assert.GreaterOrEqual(t, len(encoded), 6)
	})

	t.Run("uses only alphabet characters", func(t *testing.T) {
		codec, err := slug.NewCodec(testSlugConfig())
		require.NoError(t, err)

		encoded, err := codec.Encode(981273)
		require.NoError(t, err)

		for _, r := range encoded {
			assert.Contains(t, config.DefaultAlphabet, string(r))
		}
	})

	t.Run("differs per salt", func(t *testing.T) {
		first, err := slug.NewCodec(testSlugConfig())
		require.NoError(t, err)

		otherCfg := testSlugConfig()
		otherCfg.Salt = "another-salt"

		second, err := slug.NewCodec(otherCfg)
		require.NoError(t, err)

		a, err := first.Encode(42)
		require.NoError(t, err)

		b, err := second.Encode(42)
		require.NoError(t, err)

		assert.NotEqual(t, a, b)
	})
}

func TestCodec_Decode(t *testing.T) {
	t.Run("round-trips ids", func(t *testing.T) {
		codec, err := slug.NewCodec(testSlugConfig())
		require.NoError(t, err)

		for _, id := range []uint64{1, 42, 1000, 123456789} {
			encoded, err := codec.Encode(id)
			require.NoError(t, err)

			decoded, err := codec.Decode(encoded)
			require.NoError(t, err)

			assert.Equal(t, id, decoded)
		}
	})

	t.Run("rejects garbage", func(t *testing.T) {
		codec, err := slug.NewCodec(testSlugConfig())
		require.NoError(t, err)

		_, err = codec.Decode("!!invalid!!")

		assert.Error(t, err)
	})
}

func TestNewCodec(t *testing.T) {
	t.Run("rejects a too small alphabet", func(t *testing.T) {
		cfg := testSlugConfig()
		cfg.Alphabet = "abc"

		_, err := slug.NewCodec(cfg)

		require.ErrorIs(t, err, redirect.ErrConfiguration)
	})
}

func TestGenerator(t *testing.T) {
	t.Run("produces slugs of requested length", func(t *testing.T) {
		generate, err := slug.NewGenerator(testSlugConfig(), 8)
		require.NoError(t, err)

		for i := 0; i < 10; i++ {
			s := generate()

			assert.Len(t, s, 8)
			for _, r := range s {
				assert.Contains(t, config.DefaultAlphabet, string(r))
			}
		}
	})

	t.Run("rejects invalid lengths", func(t *testing.T) {
		_, err := slug.NewGenerator(testSlugConfig(), 0)

		require.ErrorIs(t, err, redirect.ErrConfiguration)
	})
}
