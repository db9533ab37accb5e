package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// MemoryStore is an in-process DocumentStore for development and tests.
// Documents are kept JSON-encoded so callers see the same shapes as with a
// real backend.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string][]byte)}
}

func memoryKey(collection, key string) string {
	return collection + "\x00" + key
}

// Get decodes the document into dst
func (s *MemoryStore) Get(_ context.Context, collection, key string, dst interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.docs[memoryKey(collection, key)]
	s.mu.RUnlock()

	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode document %s/%s: %w", collection, key, err)
	}
	return true, nil
}

// Set creates or overwrites the document
func (s *MemoryStore) Set(_ context.Context, collection, key string, doc interface{}) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document %s/%s: %w", collection, key, err)
	}

	s.mu.Lock()
	s.docs[memoryKey(collection, key)] = raw
	s.mu.Unlock()
	return nil
}

// Create stores the document only if absent
func (s *MemoryStore) Create(_ context.Context, collection, key string, doc interface{}) (bool, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("failed to encode document %s/%s: %w", collection, key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := memoryKey(collection, key)
	if _, exists := s.docs[k]; exists {
		return false, nil
	}
	s.docs[k] = raw
	return true, nil
}

// Raw returns the stored bytes of a document
func (s *MemoryStore) Raw(collection, key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.docs[memoryKey(collection, key)]
	return raw, ok
}

// Len returns the number of documents in a collection
func (s *MemoryStore) Len(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix := collection + "\x00"
	n := 0
	for k := range s.docs {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

// Ping always succeeds
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op
func (s *MemoryStore) Close() error {
	return nil
}

var _ DocumentStore = (*MemoryStore)(nil)
