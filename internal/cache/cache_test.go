package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestCacheGetSet(t *testing.T) {
	c := New[int](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("expected miss on empty cache")
	}

	c.Set("a", 1)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("expected miss after delete")
	}

	stats := c.Stats()
	if stats.HitCount != 1 || stats.MissCount != 2 {
		t.Errorf("stats = %+v, want 1 hit and 2 misses", stats)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string](2, time.Minute)
	c.Set("a", "A")
	c.Set("b", "B")
	c.Get("a")
	c.Set("c", "C")

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a was used recently and should remain")
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
}

func TestCacheExpiration(t *testing.T) {
	c := New[string](10, 50*time.Millisecond)
	c.Set("key", "value")

	if _, ok := c.Get("key"); !ok {
		t.Fatal("value should be present before ttl")
	}

	time.Sleep(120 * time.Millisecond)

	if _, ok := c.Get("key"); ok {
		t.Error("value should expire after ttl")
	}
}

func TestCacheInvalidatePrefix(t *testing.T) {
	c := New[int](10, time.Minute)
	c.Set("extract:abc", 1)
	c.Set("extract:def", 2)
	c.Set("report:weekly", 3)

	if n := c.InvalidatePrefix("extract:"); n != 2 {
		t.Errorf("InvalidatePrefix removed %d, want 2", n)
	}
	if _, ok := c.Get("report:weekly"); !ok {
		t.Error("unrelated key must survive")
	}

	c.Clear()
	if c.Size() != 0 {
		t.Errorf("Size after Clear = %d", c.Size())
	}
}

func TestCacheConcurrentAccess(t *testing.T) {
	c := New[int](1000, time.Minute)

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				key := fmt.Sprintf("key_%d_%d", g, i)
				c.Set(key, i)
				if v, ok := c.Get(key); ok && v != i {
					t.Errorf("Get(%s) = %d, want %d", key, v, i)
				}
			}
		}(g)
	}
	wg.Wait()

	if c.Size() != 1000 {
		t.Errorf("Size = %d, want 1000", c.Size())
	}
}
