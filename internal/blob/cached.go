package blob

import (
	"context"
	"time"

	"cartao/internal/cache"
)

// CachedStore serves repeated receipt reads from an in-memory LRU. Receipts
// are immutable once written, so only Delete needs to invalidate.
type CachedStore struct {
	next  Store
	cache *cache.LRU[Object]
}

func NewCachedStore(next Store, entries int, maxBytes int64, ttl time.Duration) *CachedStore {
	return &CachedStore{
		next: next,
		cache: cache.NewLRU[Object](entries, ttl,
			cache.WithMaxCost[Object](maxBytes, func(o Object) int64 { return int64(len(o.Data)) })),
	}
}

// Cache exposes the underlying LRU so it can be registered for cleanup.
func (s *CachedStore) Cache() *cache.LRU[Object] {
	return s.cache
}

func (s *CachedStore) Put(ctx context.Context, data []byte, contentType string) (string, error) {
	return s.next.Put(ctx, data, contentType)
}

func (s *CachedStore) Get(ctx context.Context, ref string) (Object, error) {
	if obj, ok := s.cache.Get(ref); ok {
		return obj, nil
	}
	obj, err := s.next.Get(ctx, ref)
	if err != nil {
		return Object{}, err
	}
	s.cache.Set(ref, obj)
	return obj, nil
}

func (s *CachedStore) Delete(ctx context.Context, ref string) error {
	s.cache.Delete(ref)
	return s.next.Delete(ctx, ref)
}

func (s *CachedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
