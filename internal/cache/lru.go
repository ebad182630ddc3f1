package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRU is a size- and TTL-bounded cache. Besides the entry count it can bound
// the total cost of its entries (for example, bytes of cached receipts).
type LRU[T any] struct {
	mu      sync.Mutex
	maxSize int
	maxCost int64
	cost    func(T) int64
	ttl     time.Duration
	now     func() time.Time

	items     map[string]*list.Element
	lru       *list.List
	totalCost int64

	hits, misses, evictions uint64
}

type entry[T any] struct {
	key       string
	data      T
	cost      int64
	expiresAt time.Time
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Entries   int
	Cost      int64
	Hits      uint64
	Misses    uint64
	Evictions uint64
}

type Option[T any] func(*LRU[T])

// WithMaxCost bounds the sum of cost(v) over all entries.
func WithMaxCost[T any](max int64, cost func(T) int64) Option[T] {
	return func(c *LRU[T]) {
		c.maxCost = max
		c.cost = cost
	}
}

// WithClock replaces time.Now, for tests.
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *LRU[T]) { c.now = now }
}

func NewLRU[T any](maxSize int, ttl time.Duration, opts ...Option[T]) *LRU[T] {
	c := &LRU[T]{
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LRU[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}

	e := elem.Value.(*entry[T])
	if c.now().After(e.expiresAt) {
		c.removeElement(elem)
		c.misses++
		return zero, false
	}

	c.lru.MoveToFront(elem)
	c.hits++
	return e.data, true
}

// Set stores a value. Values whose cost alone exceeds the cost bound are not
// cached.
func (c *LRU[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cost int64
	if c.cost != nil {
		cost = c.cost(data)
		if c.maxCost > 0 && cost > c.maxCost {
			return
		}
	}

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}

	e := &entry[T]{key: key, data: data, cost: cost, expiresAt: c.now().Add(c.ttl)}
	c.items[key] = c.lru.PushFront(e)
	c.totalCost += cost

	for c.lru.Len() > 0 && (c.lru.Len() > c.maxSize || (c.maxCost > 0 && c.totalCost > c.maxCost)) {
		c.removeElement(c.lru.Back())
		c.evictions++
	}
}

func (c *LRU[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[key]; ok {
		c.removeElement(elem)
	}
}

func (c *LRU[T]) removeElement(elem *list.Element) {
	e := elem.Value.(*entry[T])
	delete(c.items, e.key)
	c.lru.Remove(elem)
	c.totalCost -= e.cost
}

// CleanExpired removes all expired entries and returns how many were removed.
func (c *LRU[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*entry[T]).expiresAt) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

func (c *LRU[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *LRU[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Entries:   len(c.items),
		Cost:      c.totalCost,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
