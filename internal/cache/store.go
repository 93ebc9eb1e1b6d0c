// Package cache holds the key-value stores behind the query-parse cache.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"propsearch/internal/observability"
)

// Store is a best-effort key-value store. Get reports a miss with
// (false, nil); values are JSON encoded and replaced whole on Set.
type Store interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Close() error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store safe for concurrent use
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time

	janitor  sync.Once
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewMemoryStore creates an empty in-process store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// StartJanitor purges expired entries every interval until Close. Only the
// first call starts a janitor.
func (m *MemoryStore) StartJanitor(interval time.Duration) {
	if interval <= 0 {
		return
	}
	m.janitor.Do(func() {
		go func() {
			defer close(m.done)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					m.Purge()
				case <-m.stop:
					return
				}
			}
		}()
	})
}

func (m *MemoryStore) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok || (!e.expiresAt.IsZero() && !m.now().Before(e.expiresAt)) {
		observability.ObserveCache("memory", "miss")
		return false, nil
	}
	observability.ObserveCache("memory", "hit")
	return true, json.Unmarshal(e.data, dst)
}

func (m *MemoryStore) Set(_ context.Context, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	e := memoryEntry{data: b}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	observability.ObserveCache("memory", "set")
	return nil
}

// Len counts stored entries, expired ones included
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Purge drops expired entries
func (m *MemoryStore) Purge() {
	now := m.now()
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, e := range m.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

// Close stops the janitor, if one is running
func (m *MemoryStore) Close() error {
	m.stopOnce.Do(func() { close(m.stop) })
	started := true
	m.janitor.Do(func() { started = false })
	if started {
		<-m.done
	}
	return nil
}
