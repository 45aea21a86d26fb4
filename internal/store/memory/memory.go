// Package memory is the in-process store used by tests and by
// ephemeral sessions that run without a database file.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"restopos/internal/store"
)

type Store struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage
}

func New() *Store {
	return &Store{records: make(map[string]json.RawMessage)}
}

func (s *Store) Load(_ context.Context, key string, v any) (bool, error) {
	if key == "" {
		return false, store.ErrInvalidInput
	}

	s.mu.RLock()
	raw, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode record %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) Save(_ context.Context, key string, v any) error {
	if key == "" {
		return store.ErrInvalidInput
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", key, err)
	}

	s.mu.Lock()
	s.records[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *Store) SaveAll(_ context.Context, records map[string]any) error {
	encoded := make(map[string]json.RawMessage, len(records))
	for key, v := range records {
		if key == "" {
			return store.ErrInvalidInput
		}
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode record %s: %w", key, err)
		}
		encoded[key] = raw
	}

	s.mu.Lock()
	for key, raw := range encoded {
		s.records[key] = raw
	}
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error {
	return nil
}

// Corrupt overwrites a record with non-JSON bytes. Test helper for
// the corrupted-record recovery path.
func (s *Store) Corrupt(key string) {
	s.mu.Lock()
	s.records[key] = json.RawMessage("{not json")
	s.mu.Unlock()
}
