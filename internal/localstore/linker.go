package localstore

import "github.com/toloco/warp-cache/internal/policy"

// These methods satisfy policy.Store. They assume the caller already holds
// s.mu for the duration of any Policy call, exactly as tempuscache's
// eviction.go assumed its caller held the cache's own lock.

func (s *Store[V]) Prev(h policy.Handle) policy.Handle { return s.entries[h].prev }
func (s *Store[V]) Next(h policy.Handle) policy.Handle { return s.entries[h].next }

func (s *Store[V]) SetPrev(h, v policy.Handle) { s.entries[h].prev = v }
func (s *Store[V]) SetNext(h, v policy.Handle) { s.entries[h].next = v }

func (s *Store[V]) Freq(h policy.Handle) uint32     { return s.entries[h].freq }
func (s *Store[V]) SetFreq(h policy.Handle, v uint32) { s.entries[h].freq = v }

func (s *Store[V]) Head() policy.Handle    { return s.head }
func (s *Store[V]) SetHead(h policy.Handle) { s.head = h }
func (s *Store[V]) Tail() policy.Handle    { return s.tail }
func (s *Store[V]) SetTail(h policy.Handle) { s.tail = h }

// BucketHead/BucketTail back the LFU frequency index with a plain map since
// the in-process store's Policy is built with capacity 0 (unbounded — see
// policy.New), so bucket indices are never coalesced and can be arbitrarily
// large frequency counts.
func (s *Store[V]) BucketHead(freq uint32) policy.Handle { return s.buckets[freq][0] }
func (s *Store[V]) BucketTail(freq uint32) policy.Handle { return s.buckets[freq][1] }

func (s *Store[V]) SetBucketHead(freq uint32, h policy.Handle) {
	b := s.buckets[freq]
	b[0] = h
	s.buckets[freq] = b
}

func (s *Store[V]) SetBucketTail(freq uint32, h policy.Handle) {
	b := s.buckets[freq]
	b[1] = h
	s.buckets[freq] = b
}

func (s *Store[V]) MinFreq() uint32     { return s.minFreq }
func (s *Store[V]) SetMinFreq(v uint32) { s.minFreq = v }

func (s *Store[V]) NextSeq() uint64 {
	s.seq++
	return s.seq
}
