package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ricwein/shurl/internal/config"
	"github.com/ricwein/shurl/internal/redirect"
)

// Memory is an in-memory implementation of redirect.Store and
// redirect.VisitStore with the same upsert and validity semantics as the
// Postgres store. It backs tests and cache-less development setups.
type Memory struct {
	mu sync.RWMutex

	urls      map[int64]*redirect.CanonicalURL
	urlIndex  map[string]int64 // url+"\x00"+hash -> id
	entries   map[int64]*redirect.Entry
	urlKeyed  map[string]int64 // urlID/slug -> entry id
	visits    []redirect.Visit
	nextURLID int64
	nextID    int64

	slug config.Slug

	// Now is the clock used for validity checks; overridable in tests.
	Now func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory(slugCfg config.Slug) *Memory {
	return &Memory{
		urls:     make(map[int64]*redirect.CanonicalURL),
		urlIndex: make(map[string]int64),
		entries:  make(map[int64]*redirect.Entry),
		urlKeyed: make(map[string]int64),
		slug:     slugCfg,
		Now:      time.Now,
	}
}

func (m *Memory) UpsertURL(_ context.Context, url string) (int64, error) {
	url = strings.TrimSpace(url)

	hash, err := redirect.ContentHash(m.slug.Hash, url)
	if err != nil {
		return 0, err
	}

	key := url + "\x00" + hash

	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.urlIndex[key]; ok {
		return id, nil
	}

	m.nextURLID++
	m.urls[m.nextURLID] = &redirect.CanonicalURL{ID: m.nextURLID, URL: url, Hash: hash}
	m.urlIndex[key] = m.nextURLID

	return m.nextURLID, nil
}

func (m *Memory) UpsertRedirect(_ context.Context, params redirect.UpsertRedirectParams) (int64, error) {
	slug := strings.TrimSpace(params.Slug)

	if m.slug.IsReserved(slug) {
		return 0, fmt.Errorf("%w: %q", redirect.ErrSlugReserved, slug)
	}

	if !params.Mode.Valid() {
		return 0, fmt.Errorf("%w: %q", redirect.ErrInvalidMode, params.Mode)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%d/%s", params.URLID, slug)
	existing, exists := m.urlKeyed[key]

	// The uniqueness check covers the re-enable path too: a disabled
	// entry must not come back while another enabled one owns the slug.
	for id, entry := range m.entries {
		if entry.Slug == slug && entry.Enabled && (!exists || id != existing) {
			return 0, fmt.Errorf("%w: %q is already in use", redirect.ErrSlugReserved, slug)
		}
	}

	if exists {
		entry := m.entries[existing]
		entry.ValidFrom = params.ValidFrom
		entry.ValidTo = params.ValidTo
		entry.Mode = params.Mode
		entry.Enabled = true

		return existing, nil
	}

	m.nextID++
	m.entries[m.nextID] = &redirect.Entry{
		ID:        m.nextID,
		URLID:     params.URLID,
		Slug:      slug,
		ValidFrom: params.ValidFrom,
		ValidTo:   params.ValidTo,
		Mode:      params.Mode,
		Enabled:   true,
		Created:   m.Now(),
	}
	m.urlKeyed[key] = m.nextID

	return m.nextID, nil
}

func (m *Memory) FindActiveBySlug(_ context.Context, slug string) (*redirect.Resolved, error) {
	slug = strings.TrimSpace(slug)
	now := m.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, entry := range m.entries {
		if entry.Slug != slug || !m.active(entry, now) {
			continue
		}

		url, ok := m.urls[entry.URLID]
		if !ok {
			continue
		}

		return &redirect.Resolved{
			RedirectID:  entry.ID,
			Slug:        entry.Slug,
			OriginalURL: url.URL,
			Mode:        entry.Mode,
			Hash:        url.Hash,
		}, nil
	}

	return nil, redirect.ErrNotFound
}

func (m *Memory) Disable(_ context.Context, redirectID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[redirectID]
	if !ok {
		return redirect.ErrNotFound
	}

	entry.Enabled = false

	return nil
}

func (m *Memory) CountActive(_ context.Context) (int64, error) {
	now := m.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var count int64

	for _, entry := range m.entries {
		if m.active(entry, now) {
			count++
		}
	}

	return count, nil
}

func (m *Memory) List(_ context.Context, activeOnly bool, limit int) ([]redirect.ListedEntry, error) {
	now := m.Now()

	m.mu.RLock()
	defer m.mu.RUnlock()

	hits := make(map[int64]int64)
	for _, visit := range m.visits {
		hits[visit.RedirectID]++
	}

	var entries []redirect.ListedEntry

	for _, entry := range m.entries {
		if activeOnly && !m.active(entry, now) {
			continue
		}

		listed := redirect.ListedEntry{Entry: *entry, Hits: hits[entry.ID]}
		if url, ok := m.urls[entry.URLID]; ok {
			listed.OriginalURL = url.URL
		}

		entries = append(entries, listed)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Hits != entries[j].Hits {
			return entries[i].Hits > entries[j].Hits
		}

		return entries[i].Created.After(entries[j].Created)
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	return entries, nil
}

func (m *Memory) SaveVisit(_ context.Context, visit *redirect.Visit) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.visits = append(m.visits, *visit)

	return nil
}

// Visits returns a copy of all recorded visits.
func (m *Memory) Visits() []redirect.Visit {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]redirect.Visit(nil), m.visits...)
}

func (m *Memory) active(entry *redirect.Entry, now time.Time) bool {
	if !entry.Enabled {
		return false
	}

	if entry.ValidFrom != nil && now.Before(*entry.ValidFrom) {
		return false
	}

	if entry.ValidTo != nil && !now.Before(*entry.ValidTo) {
		return false
	}

	return true
}

// Compile-time checks.
var (
	_ redirect.Store      = (*Memory)(nil)
	_ redirect.VisitStore = (*Memory)(nil)
)
