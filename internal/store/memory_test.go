package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ricwein/shurl/internal/config"
	"github.com/ricwein/shurl/internal/redirect"
	"github.com/ricwein/shurl/internal/store"
)

func newTestStore() *store.Memory {
	return store.NewMemory(config.Default().Slug)
}

func addEntry(t *testing.T, s *store.Memory, url, slug string) int64 {
	t.Helper()

	urlID, err := s.UpsertURL(context.Background(), url)
	require.NoError(t, err)

	id, err := s.UpsertRedirect(context.Background(), redirect.UpsertRedirectParams{
		URLID: urlID,
		Slug:  slug,
		Mode:  redirect.ModeRedirect,
	})
	require.NoError(t, err)

	return id
}

func TestMemory_UpsertURL(t *testing.T) {
	ctx := context.Background()

	t.Run("deduplicates identical urls", func(t *testing.T) {
		s := newTestStore()

		first, err := s.UpsertURL(ctx, "https://example.com")
		require.NoError(t, err)

		second, err := s.UpsertURL(ctx, "https://example.com")
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("trims whitespace before deduplication", func(t *testing.T) {
		s := newTestStore()

		first, err := s.UpsertURL(ctx, "https://example.com")
		require.NoError(t, err)

		second, err := s.UpsertURL(ctx, "  https://example.com ")
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("assigns distinct ids to distinct urls", func(t *testing.T) {
		s := newTestStore()

		first, err := s.UpsertURL(ctx, "https://example.com/a")
		require.NoError(t, err)

		second, err := s.UpsertURL(ctx, "https://example.com/b")
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}

func TestMemory_UpsertRedirect(t *testing.T) {
	ctx := context.Background()

	t.Run("is idempotent per url and slug", func(t *testing.T) {
		s := newTestStore()
		urlID, err := s.UpsertURL(ctx, "https://example.com")
		require.NoError(t, err)

		params := redirect.UpsertRedirectParams{URLID: urlID, Slug: "abc", Mode: redirect.ModeRedirect}

		first, err := s.UpsertRedirect(ctx, params)
		require.NoError(t, err)

		second, err := s.UpsertRedirect(ctx, params)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("re-enables a disabled entry", func(t *testing.T) {
		s := newTestStore()
		id := addEntry(t, s, "https://example.com", "abc")

		require.NoError(t, s.Disable(ctx, id))
		_, err := s.FindActiveBySlug(ctx, "abc")
		require.ErrorIs(t, err, redirect.ErrNotFound)

		urlID, err := s.UpsertURL(ctx, "https://example.com")
		require.NoError(t, err)

		again, err := s.UpsertRedirect(ctx, redirect.UpsertRedirectParams{
			URLID: urlID, Slug: "abc", Mode: redirect.ModeRedirect,
		})
		require.NoError(t, err)
		assert.Equal(t, id, again)

		_, err = s.FindActiveBySlug(ctx, "abc")
		assert.NoError(t, err)
	})

	t.Run("rejects reserved slugs", func(t *testing.T) {
		s := newTestStore()
		urlID, err := s.UpsertURL(ctx, "https://example.com")
		require.NoError(t, err)

		_, err = s.UpsertRedirect(ctx, redirect.UpsertRedirectParams{
			URLID: urlID, Slug: "api", Mode: redirect.ModeRedirect,
		})

		require.ErrorIs(t, err, redirect.ErrSlugReserved)
	})

	t.Run("rejects a slug owned by another url", func(t *testing.T) {
		s := newTestStore()
		addEntry(t, s, "https://example.com/a", "abc")

		urlID, err := s.UpsertURL(ctx, "https://example.com/b")
		require.NoError(t, err)

		_, err = s.UpsertRedirect(ctx, redirect.UpsertRedirectParams{
			URLID: urlID, Slug: "abc", Mode: redirect.ModeRedirect,
		})

		require.ErrorIs(t, err, redirect.ErrSlugReserved)
	})

	t.Run("does not re-enable an entry while another owns the slug", func(t *testing.T) {
		s := newTestStore()
		first := addEntry(t, s, "https://example.com/a", "dup")

		require.NoError(t, s.Disable(ctx, first))

		second := addEntry(t, s, "https://example.com/b", "dup")

		firstURL, err := s.UpsertURL(ctx, "https://example.com/a")
		require.NoError(t, err)

		_, err = s.UpsertRedirect(ctx, redirect.UpsertRedirectParams{
			URLID: firstURL, Slug: "dup", Mode: redirect.ModeRedirect,
		})
		require.ErrorIs(t, err, redirect.ErrSlugReserved)

		resolved, err := s.FindActiveBySlug(ctx, "dup")
		require.NoError(t, err)
		assert.Equal(t, second, resolved.RedirectID, "the slug stays with its enabled owner")
	})

	t.Run("rejects invalid modes", func(t *testing.T) {
		s := newTestStore()
		urlID, err := s.UpsertURL(ctx, "https://example.com")
		require.NoError(t, err)

		_, err = s.UpsertRedirect(ctx, redirect.UpsertRedirectParams{
			URLID: urlID, Slug: "abc", Mode: "proxy",
		})

		require.ErrorIs(t, err, redirect.ErrInvalidMode)
	})
}

func TestMemory_FindActiveBySlug(t *testing.T) {
	ctx := context.Background()

	t.Run("resolves an active entry", func(t *testing.T) {
		s := newTestStore()
		id := addEntry(t, s, "https://example.com/page", "abc")

		resolved, err := s.FindActiveBySlug(ctx, "abc")

		require.NoError(t, err)
		assert.Equal(t, id, resolved.RedirectID)
		assert.Equal(t, "abc", resolved.Slug)
		assert.Equal(t, "https://example.com/page", resolved.OriginalURL)
		assert.Equal(t, redirect.ModeRedirect, resolved.Mode)
		assert.NotEmpty(t, resolved.Hash)
	})

	t.Run("returns not found for unknown slugs", func(t *testing.T) {
		s := newTestStore()

		_, err := s.FindActiveBySlug(ctx, "missing")

		require.ErrorIs(t, err, redirect.ErrNotFound)
	})

	t.Run("honors the validity window", func(t *testing.T) {
		s := newTestStore()
		now := time.Now()
		s.Now = func() time.Time { return now }

		urlID, err := s.UpsertURL(ctx, "https://example.com")
		require.NoError(t, err)

		from := now.Add(time.Hour)
		to := now.Add(2 * time.Hour)

		_, err = s.UpsertRedirect(ctx, redirect.UpsertRedirectParams{
			URLID: urlID, Slug: "abc", Mode: redirect.ModeRedirect,
			ValidFrom: &from, ValidTo: &to,
		})
		require.NoError(t, err)

		_, err = s.FindActiveBySlug(ctx, "abc")
		require.ErrorIs(t, err, redirect.ErrNotFound, "before the window")

		now = now.Add(90 * time.Minute)
		_, err = s.FindActiveBySlug(ctx, "abc")
		require.NoError(t, err, "inside the window")

		now = now.Add(time.Hour)
		_, err = s.FindActiveBySlug(ctx, "abc")
		require.ErrorIs(t, err, redirect.ErrNotFound, "after the window")
	})

	t.Run("treats the end of the window as exclusive", func(t *testing.T) {
		s := newTestStore()
		now := time.Now()
		s.Now = func() time.Time { return now }

		urlID, err := s.UpsertURL(ctx, "https://example.com")
		require.NoError(t, err)

		to := now
		_, err = s.UpsertRedirect(ctx, redirect.UpsertRedirectParams{
			URLID: urlID, Slug: "abc", Mode: redirect.ModeRedirect, ValidTo: &to,
		})
		require.NoError(t, err)

		_, err = s.FindActiveBySlug(ctx, "abc")

		require.ErrorIs(t, err, redirect.ErrNotFound)
	})
}

func TestMemory_CountActive(t *testing.T) {
	ctx := context.Background()

	t.Run("counts only active entries", func(t *testing.T) {
		s := newTestStore()
		addEntry(t, s, "https://example.com/a", "aaa")
		id := addEntry(t, s, "https://example.com/b", "bbb")

		require.NoError(t, s.Disable(ctx, id))

		count, err := s.CountActive(ctx)

		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestMemory_Disable(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled entries stop resolving", func(t *testing.T) {
		s := newTestStore()
		id := addEntry(t, s, "https://example.com", "abc")

		require.NoError(t, s.Disable(ctx, id))

		_, err := s.FindActiveBySlug(ctx, "abc")
		require.ErrorIs(t, err, redirect.ErrNotFound)
	})

	t.Run("returns not found for unknown ids", func(t *testing.T) {
		s := newTestStore()

		err := s.Disable(ctx, 12345)

		require.ErrorIs(t, err, redirect.ErrNotFound)
	})
}

func TestMemory_List(t *testing.T) {
	ctx := context.Background()

	t.Run("orders by hits", func(t *testing.T) {
		s := newTestStore()
		first := addEntry(t, s, "https://example.com/a", "aaa")
		second := addEntry(t, s, "https://example.com/b", "bbb")

		for i := 0; i < 3; i++ {
			require.NoError(t, s.SaveVisit(ctx, &redirect.Visit{RedirectID: second}))
		}
		require.NoError(t, s.SaveVisit(ctx, &redirect.Visit{RedirectID: first}))

		listed, err := s.List(ctx, false, 0)

		require.NoError(t, err)
		require.Len(t, listed, 2)
		assert.Equal(t, "bbb", listed[0].Slug)
		assert.Equal(t, int64(3), listed[0].Hits)
		assert.Equal(t, "aaa", listed[1].Slug)
		assert.Equal(t, int64(1), listed[1].Hits)
	})

	t.Run("filters inactive entries when asked", func(t *testing.T) {
		s := newTestStore()
		addEntry(t, s, "https://example.com/a", "aaa")
		id := addEntry(t, s, "https://example.com/b", "bbb")
		require.NoError(t, s.Disable(ctx, id))

		active, err := s.List(ctx, true, 0)
		require.NoError(t, err)
		assert.Len(t, active, 1)

		all, err := s.List(ctx, false, 0)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("applies the limit", func(t *testing.T) {
		s := newTestStore()
		addEntry(t, s, "https://example.com/a", "aaa")
		addEntry(t, s, "https://example.com/b", "bbb")
		addEntry(t, s, "https://example.com/c", "ccc")

		listed, err := s.List(ctx, false, 2)

		require.NoError(t, err)
		assert.Len(t, listed, 2)
	})
}

func TestMemory_SaveVisit(t *testing.T) {
	t.Run("records visits in order", func(t *testing.T) {
		s := newTestStore()
		id := addEntry(t, s, "https://example.com", "abc")

		visit := &redirect.Visit{
			RedirectID: id,
			VisitedAt:  time.Now().UTC(),
			Origin:     "https://shurl.test",
			UserAgent:  "curl/8",
		}
		require.NoError(t, s.SaveVisit(context.Background(), visit))

		visits := s.Visits()
		require.Len(t, visits, 1)
		assert.Equal(t, id, visits[0].RedirectID)
		assert.Equal(t, "curl/8", visits[0].UserAgent)
	})
}
