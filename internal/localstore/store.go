// Package localstore is the in-process backend (spec §4, "Backend A"): a
// concurrent map plus an eviction policy, both guarded by a single lock so
// the map and the policy's bookkeeping never drift apart. It is grounded on
// tempuscache's cache.go (the RWMutex-guarded map-plus-list shape) and
// eviction.go/janitor.go (the active-sweep goroutine), generalized to route
// eviction decisions through internal/policy instead of a single hardcoded
// LRU list, and to key entries by a fingerprint byte string (produced
// upstream by internal/keycodec) instead of a caller-supplied string key.
package localstore

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/toloco/warp-cache/internal/cachestats"
	"github.com/toloco/warp-cache/internal/policy"
)

// Store is a generic, in-process, concurrency-safe cache for values of
// type V, evicted under the given policy.Kind once MaxSize is reached.
type Store[V any] struct {
	mu sync.RWMutex

	maxSize int
	ttl     time.Duration
	kind    policy.Kind
	pol     *policy.Policy

	index   map[string]policy.Handle
	entries []entry[V]
	free    []policy.Handle

	head, tail policy.Handle
	minFreq    uint32
	seq        uint64
	buckets    map[uint32][2]policy.Handle

	hits          atomic.Uint64
	misses        atomic.Uint64
	oversizeSkips atomic.Uint64 // always zero: the in-process backend enforces no key/value size cap

	sweepInterval time.Duration
	stop          chan struct{}
	stopOnce      sync.Once
}

// New builds a Store evicting under kind once maxSize live entries are
// held (maxSize <= 0 means unbounded). If sweepInterval > 0 a background
// goroutine actively purges expired entries at that cadence, in addition
// to the lazy check every Get already performs.
func New[V any](kind policy.Kind, maxSize int, ttl, sweepInterval time.Duration) *Store[V] {
	s := &Store[V]{
		maxSize:       maxSize,
		ttl:           ttl,
		kind:          kind,
		index:         make(map[string]policy.Handle),
		buckets:       make(map[uint32][2]policy.Handle),
		sweepInterval: sweepInterval,
		stop:          make(chan struct{}),
	}
	// entries[0] is never assigned to a live key: policy.Nil == Handle(0)
	// must not be a usable handle, so the slot is reserved up front.
	s.entries = make([]entry[V], 1)
	s.pol = policy.New(kind, s, 0)
	s.startJanitor()
	return s
}

// Get returns the value stored under fingerprint, and whether it was
// found (a TTL-expired entry counts as not found). FIFO hits only need a
// read lock, since policy.Policy.OnHit is a no-op for FIFO (spec §4.3);
// every other policy mutates the ordering list on a hit, so it takes the
// write lock instead.
func (s *Store[V]) Get(fingerprint []byte) (V, bool) {
	key := string(fingerprint)
	now := time.Now().UnixNano()

	if s.kind == policy.FIFO {
		if v, ok, expired := s.getShared(key, now); !expired {
			return v, ok
		}
		// expired under a shared lock: re-check and remove under exclusive.
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.index[key]
	if !ok {
		s.misses.Add(1)
		var zero V
		return zero, false
	}
	e := &s.entries[h]
	if e.expired(now) {
		s.removeLocked(key, h)
		s.misses.Add(1)
		var zero V
		return zero, false
	}
	s.hits.Add(1)
	s.pol.OnHit(h)
	return e.value, true
}

// getShared is the FIFO-only fast path: a read lock suffices because a
// FIFO hit never mutates prev/next/head/tail. It returns expired=true when
// the caller must retry under the exclusive lock to evict the entry.
func (s *Store[V]) getShared(key string, now int64) (v V, ok bool, expired bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, found := s.index[key]
	if !found {
		s.misses.Add(1)
		return v, false, false
	}
	e := &s.entries[h]
	if e.expired(now) {
		return v, false, true
	}
	s.hits.Add(1)
	return e.value, true, false
}

// Put inserts or overwrites the value stored under fingerprint, evicting a
// victim first if the store is at MaxSize and fingerprint is not already
// present.
func (s *Store[V]) Put(fingerprint []byte, value V) {
	key := string(fingerprint)
	now := time.Now().UnixNano()

	s.mu.Lock()
	defer s.mu.Unlock()

	if h, ok := s.index[key]; ok {
		e := &s.entries[h]
		e.value = value
		e.expiresAt = s.expiryFrom(now)
		s.pol.OnHit(h)
		return
	}

	if s.maxSize > 0 && len(s.index) >= s.maxSize {
		if victim, ok := s.pol.Victim(); ok {
			s.removeLocked(s.entries[victim].fingerprint, victim)
		}
	}

	h := s.allocate(key, value, s.expiryFrom(now))
	s.index[key] = h
	s.pol.OnInsert(h)
}

func (s *Store[V]) expiryFrom(now int64) int64 {
	if s.ttl <= 0 {
		return 0
	}
	return now + s.ttl.Nanoseconds()
}

// allocate reuses a freed slot if one exists, otherwise grows entries.
func (s *Store[V]) allocate(key string, value V, expiresAt int64) policy.Handle {
	e := entry[V]{value: value, fingerprint: key, expiresAt: expiresAt}
	if n := len(s.free); n > 0 {
		h := s.free[n-1]
		s.free = s.free[:n-1]
		s.entries[h] = e
		return h
	}
	s.entries = append(s.entries, e)
	return policy.Handle(len(s.entries) - 1)
}

// removeLocked detaches h from the policy and the index, and returns its
// slot to the free list. Caller must hold s.mu for writing.
func (s *Store[V]) removeLocked(key string, h policy.Handle) {
	s.pol.Remove(h)
	delete(s.index, key)
	s.entries[h] = entry[V]{}
	s.free = append(s.free, h)
}

// Delete removes fingerprint if present, reporting whether it was.
func (s *Store[V]) Delete(fingerprint []byte) bool {
	key := string(fingerprint)
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.index[key]
	if !ok {
		return false
	}
	s.removeLocked(key, h)
	return true
}

// Clear empties the store and resets its counters to zero.
func (s *Store[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index = make(map[string]policy.Handle)
	s.entries = make([]entry[V], 1)
	s.free = nil
	s.buckets = make(map[uint32][2]policy.Handle)
	s.head, s.tail, s.minFreq, s.seq = policy.Nil, policy.Nil, 0, 0
	s.hits.Store(0)
	s.misses.Store(0)
	s.oversizeSkips.Store(0)
}

// Info returns a point-in-time snapshot of the store's counters (spec §4.7).
func (s *Store[V]) Info() cachestats.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cachestats.Stats{
		Hits:          s.hits.Load(),
		Misses:        s.misses.Load(),
		OversizeSkips: s.oversizeSkips.Load(),
		CurrentSize:   len(s.index),
		MaxSize:       s.maxSize,
	}
}

// Close stops the background janitor goroutine, if one was started. Safe
// to call more than once.
func (s *Store[V]) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}
