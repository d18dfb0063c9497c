package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiresAt.IsZero() && !now.Before(i.expiresAt)
}

// Memory is an in-process Cache used for tests and single-node setups
// without redis. Values round-trip through JSON like the redis cache, so
// both behave identically to callers.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	// Now is the clock used for expiry checks; overridable in tests.
	Now func() time.Time
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[string]memoryItem),
		Now:   time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.RLock()
	item, ok := m.items[key]
	m.mu.RUnlock()

	if !ok || item.expired(m.Now()) {
		return false, nil
	}

	if err := json.Unmarshal(item.data, dest); err != nil {
		return false, fmt.Errorf("cache decode %q: %w", key, err)
	}

	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}

	item := memoryItem{data: data}
	if ttl > 0 {
		item.expiresAt = m.Now().Add(ttl)
	}

	m.mu.Lock()
	m.items[key] = item
	m.mu.Unlock()

	return nil
}

// Len reports the number of stored keys, including expired ones not yet
// overwritten.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

// Compile-time check.
var _ Cache = (*Memory)(nil)
