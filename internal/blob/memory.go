package blob

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps blobs in process memory. Used for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]Object)}
}

func (s *MemoryStore) Put(_ context.Context, data []byte, contentType string) (string, error) {
	key := NewReceiptKey(contentType)
	cp := make([]byte, len(data))
	copy(cp, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = Object{Data: cp, ContentType: contentType}
	return key, nil
}

func (s *MemoryStore) Get(_ context.Context, ref string) (Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[ref]
	if !ok {
		return Object{}, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	return obj, nil
}

func (s *MemoryStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[ref]; !ok {
		return fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	delete(s.objects, ref)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of stored objects.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
