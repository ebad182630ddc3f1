package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Cache is the subset of LRU used by callers that only read and write.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Cleaner is implemented by caches that can drop expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager periodically cleans every registered cache.
type Manager struct {
	mu       sync.Mutex
	caches   map[string]Cleaner
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewManager() *Manager {
	return &Manager{
		caches: make(map[string]Cleaner),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Register adds a cache under a name used in logs.
func (m *Manager) Register(name string, c Cleaner) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.caches[name] = c
}

// StartCleanup runs cleanup every interval until Stop is called or ctx ends.
func (m *Manager) StartCleanup(ctx context.Context, interval time.Duration) {
	go m.run(ctx, interval)
}

func (m *Manager) run(ctx context.Context, interval time.Duration) {
	defer close(m.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.CleanAll(ctx)
		case <-m.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// CleanAll cleans every registered cache once and returns the total removed.
func (m *Manager) CleanAll(ctx context.Context) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	total := 0
	for name, c := range m.caches {
		if n := c.CleanExpired(); n > 0 {
			slog.DebugContext(ctx, "Cache cleanup", "cache", name, "removed", n)
			total += n
		}
	}
	return total
}

// Stop ends the cleanup goroutine. It is safe to call more than once, and
// before StartCleanup.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
}

// Wait blocks until the cleanup goroutine has exited.
func (m *Manager) Wait() {
	<-m.done
}
