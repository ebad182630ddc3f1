package cache

import (
	"context"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (f *fakeClock) Now() time.Time { return f.t }

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRU[string](2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a to be cached")
	}
	c.Set("c", "3") // evicts b

	if _, ok := c.Get("b"); ok {
		t.Fatalf("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != "1" {
		t.Fatalf("expected a=1, got %q %v", v, ok)
	}
	st := c.Stats()
	if st.Entries != 2 || st.Evictions != 1 || st.Hits != 2 || st.Misses != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestLRUExpiresEntries(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[int](10, time.Minute, WithClock[int](clock.Now))
	c.Set("a", 1)
	c.Set("b", 2)

	clock.t = clock.t.Add(30 * time.Second)
	c.Set("c", 3)

	clock.t = clock.t.Add(45 * time.Second)
	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("expected 1 expired entry (b), got %d", n)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Fatalf("expected c to survive, got %v %v", v, ok)
	}
}

func TestLRUCostBound(t *testing.T) {
	size := func(b []byte) int64 { return int64(len(b)) }
	c := NewLRU[[]byte](100, time.Minute, WithMaxCost[[]byte](10, size))

	c.Set("big", make([]byte, 11))
	if _, ok := c.Get("big"); ok {
		t.Fatalf("oversized value must not be cached")
	}

	c.Set("a", make([]byte, 6))
	c.Set("b", make([]byte, 4))
	c.Set("c", make([]byte, 3)) // pushes total to 13, evicts a

	if _, ok := c.Get("a"); ok {
		t.Fatalf("expected a to be evicted by cost")
	}
	if st := c.Stats(); st.Cost != 7 || st.Entries != 2 {
		t.Fatalf("unexpected stats: %+v", st)
	}

	c.Set("b", make([]byte, 1))
	if st := c.Stats(); st.Cost != 4 {
		t.Fatalf("replacing a key must update cost, got %+v", st)
	}
	c.Delete("b")
	if st := c.Stats(); st.Cost != 3 || st.Entries != 1 {
		t.Fatalf("unexpected stats after delete: %+v", st)
	}
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[int](10, time.Second, WithClock[int](clock.Now))
	c.Set("a", 1)
	clock.t = clock.t.Add(2 * time.Second)

	m := NewManager()
	m.Register("test", c)
	if n := m.CleanAll(context.Background()); n != 1 {
		t.Fatalf("expected 1 removed, got %d", n)
	}

	m.StartCleanup(context.Background(), time.Hour)
	m.Stop()
	m.Stop()
	m.Wait()
}
