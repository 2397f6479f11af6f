package prefs

import (
	"context"
	"sync"

	"git.home.luguber.info/inful/partsd/internal/util/sets"
)

// MemoryStore is an in-process Store used by tests and one-shot dry runs.
type MemoryStore struct {
	mu      sync.RWMutex
	strings map[string]string
	sets    map[string]sets.Set[string]

	// FailWrites makes every Put/Remove return ErrWriteFailed.
	FailWrites bool
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		strings: make(map[string]string),
		sets:    make(map[string]sets.Set[string]),
	}
}

func (m *MemoryStore) GetString(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.sets[key]; ok {
		return "", false, ErrKindMismatch.WithContext("key", key)
	}
	v, ok := m.strings[key]
	return v, ok, nil
}

func (m *MemoryStore) PutString(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrWriteFailed.WithContext("key", key)
	}
	delete(m.sets, key)
	m.strings[key] = value
	return nil
}

func (m *MemoryStore) GetStringSet(_ context.Context, key string) (sets.Set[string], bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.strings[key]; ok {
		return nil, false, ErrKindMismatch.WithContext("key", key)
	}
	v, ok := m.sets[key]
	if !ok {
		return nil, false, nil
	}
	return v.Clone(), true, nil
}

func (m *MemoryStore) PutStringSet(_ context.Context, key string, set sets.Set[string]) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrWriteFailed.WithContext("key", key)
	}
	delete(m.strings, key)
	m.sets[key] = set.Clone()
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return ErrWriteFailed.WithContext("key", key)
	}
	delete(m.strings, key)
	delete(m.sets, key)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
