package storage

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/lifestyle/storefront/pkg/errors"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a process-local Storage. Entries expire after the configured TTL;
// a zero TTL keeps them until deleted.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.entries[key]
	if !ok || m.expired(e, m.now()) {
		return nil, apperrors.NotFound("storage key", key)
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte) error {
	e := memoryEntry{value: make([]byte, len(value))}
	copy(e.value, value)
	if m.ttl > 0 {
		e.expiresAt = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Ping(context.Context) error { return nil }

// PurgeExpired drops every entry whose TTL has elapsed at now.
func (m *Memory) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for k, e := range m.entries {
		if m.expired(e, now) {
			delete(m.entries, k)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored entries, expired or not.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

func (m *Memory) expired(e memoryEntry, now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}
