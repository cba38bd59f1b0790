package localstore

import (
	"testing"
	"time"

	"github.com/toloco/warp-cache/internal/policy"
)

func TestPutGetRoundTrip(t *testing.T) {
	s := New[string](policy.LRU, 0, 0, 0)
	defer s.Close()

	s.Put([]byte("k1"), "v1")
	v, ok := s.Get([]byte("k1"))
	if !ok || v != "v1" {
		t.Fatalf("got (%q, %v), want (v1, true)", v, ok)
	}
}

func TestGetMissUnknownKey(t *testing.T) {
	s := New[string](policy.LRU, 0, 0, 0)
	defer s.Close()

	if _, ok := s.Get([]byte("absent")); ok {
		t.Fatal("expected a miss for an unknown key")
	}
	info := s.Info()
	if info.Misses != 1 {
		t.Fatalf("expected 1 miss, got %d", info.Misses)
	}
}

func TestLRUEvictsOnOverflow(t *testing.T) {
	s := New[int](policy.LRU, 2, 0, 0)
	defer s.Close()

	s.Put([]byte("a"), 1)
	s.Put([]byte("b"), 2)
	s.Get([]byte("a")) // touch a, making b the LRU victim
	s.Put([]byte("c"), 3)

	if _, ok := s.Get([]byte("b")); ok {
		t.Fatal("expected b to have been evicted")
	}
	if _, ok := s.Get([]byte("a")); !ok {
		t.Fatal("expected a to survive (recently touched)")
	}
	if _, ok := s.Get([]byte("c")); !ok {
		t.Fatal("expected c to have been inserted")
	}
}

func TestFIFOIgnoresTouches(t *testing.T) {
	s := New[int](policy.FIFO, 2, 0, 0)
	defer s.Close()

	s.Put([]byte("a"), 1)
	s.Put([]byte("b"), 2)
	s.Get([]byte("a")) // FIFO: touching a must not save it from eviction
	s.Put([]byte("c"), 3)

	if _, ok := s.Get([]byte("a")); ok {
		t.Fatal("expected a (oldest insertion) to have been evicted despite the touch")
	}
	if _, ok := s.Get([]byte("b")); !ok {
		t.Fatal("expected b to survive")
	}
}

func TestLFUEvictsLeastFrequentlyUsed(t *testing.T) {
	s := New[int](policy.LFU, 2, 0, 0)
	defer s.Close()

	s.Put([]byte("a"), 1)
	s.Put([]byte("b"), 2)
	s.Get([]byte("a"))
	s.Get([]byte("a"))
	s.Put([]byte("c"), 3) // b has lower frequency, should be evicted

	if _, ok := s.Get([]byte("b")); ok {
		t.Fatal("expected b (least frequently used) to have been evicted")
	}
	if _, ok := s.Get([]byte("a")); !ok {
		t.Fatal("expected a to survive")
	}
}

func TestMRUEvictsMostRecentlyUsed(t *testing.T) {
	s := New[int](policy.MRU, 2, 0, 0)
	defer s.Close()

	s.Put([]byte("a"), 1)
	s.Put([]byte("b"), 2)
	s.Get([]byte("b")) // touch b, making it the MRU victim
	s.Put([]byte("c"), 3)

	if _, ok := s.Get([]byte("b")); ok {
		t.Fatal("expected b (most recently used) to have been evicted")
	}
	if _, ok := s.Get([]byte("a")); !ok {
		t.Fatal("expected a to survive")
	}
}

func TestTTLExpiresLazily(t *testing.T) {
	s := New[string](policy.LRU, 0, 20*time.Millisecond, 0)
	defer s.Close()

	s.Put([]byte("k"), "v")
	if _, ok := s.Get([]byte("k")); !ok {
		t.Fatal("expected an immediate hit before expiry")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok := s.Get([]byte("k")); ok {
		t.Fatal("expected the entry to have lazily expired")
	}
}

func TestTTLActiveSweepReclaimsSpace(t *testing.T) {
	s := New[string](policy.LRU, 0, 15*time.Millisecond, 5*time.Millisecond)
	defer s.Close()

	s.Put([]byte("k"), "v")
	time.Sleep(60 * time.Millisecond)

	info := s.Info()
	if info.CurrentSize != 0 {
		t.Fatalf("expected the janitor to have reclaimed the expired entry, current_size=%d", info.CurrentSize)
	}
}

func TestOverwriteUpdatesValueWithoutGrowingSize(t *testing.T) {
	s := New[int](policy.LRU, 0, 0, 0)
	defer s.Close()

	s.Put([]byte("k"), 1)
	s.Put([]byte("k"), 2)

	v, ok := s.Get([]byte("k"))
	if !ok || v != 2 {
		t.Fatalf("got (%d, %v), want (2, true)", v, ok)
	}
	if info := s.Info(); info.CurrentSize != 1 {
		t.Fatalf("expected current_size=1 after overwrite, got %d", info.CurrentSize)
	}
}

func TestClearResetsStateAndCounters(t *testing.T) {
	s := New[int](policy.LRU, 0, 0, 0)
	defer s.Close()

	s.Put([]byte("k"), 1)
	s.Get([]byte("k"))
	s.Get([]byte("missing"))
	s.Clear()

	info := s.Info()
	if info.CurrentSize != 0 || info.Hits != 0 || info.Misses != 0 {
		t.Fatalf("expected a zeroed Stats after Clear, got %+v", info)
	}
	if _, ok := s.Get([]byte("k")); ok {
		t.Fatal("expected the store to be empty after Clear")
	}
}

func TestDeleteRemovesEntry(t *testing.T) {
	s := New[int](policy.LRU, 0, 0, 0)
	defer s.Close()

	s.Put([]byte("k"), 1)
	if !s.Delete([]byte("k")) {
		t.Fatal("expected Delete to report the key was present")
	}
	if s.Delete([]byte("k")) {
		t.Fatal("expected a second Delete to report false")
	}
	if _, ok := s.Get([]byte("k")); ok {
		t.Fatal("expected k to be gone after Delete")
	}
}

func TestConcurrentPutGetUnderFIFO(t *testing.T) {
	s := New[int](policy.FIFO, 64, 0, 0)
	defer s.Close()

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			key := []byte{byte(i % 4)}
			for j := 0; j < 200; j++ {
				s.Put(key, j)
				s.Get(key)
			}
		}(i)
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
