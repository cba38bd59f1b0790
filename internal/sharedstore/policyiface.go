package sharedstore

import "github.com/toloco/warp-cache/internal/policy"

// These methods satisfy policy.Store over the mmap'd ENTRY_ARENA and the
// header's root scalars, so the exact same eviction bookkeeping in
// internal/policy runs unmodified across both backends. The caller (the
// exported Get/Put/Clear methods) is assumed to hold s.flock for the
// duration of any Policy call.

func (s *Store) Prev(h policy.Handle) policy.Handle {
	return policy.Handle(s.cellPrev(s.slotForHandle(h)))
}

func (s *Store) Next(h policy.Handle) policy.Handle {
	return policy.Handle(s.cellNext(s.slotForHandle(h)))
}

func (s *Store) SetPrev(h, v policy.Handle) { s.setCellPrev(s.slotForHandle(h), uint32(v)) }
func (s *Store) SetNext(h, v policy.Handle) { s.setCellNext(s.slotForHandle(h), uint32(v)) }

func (s *Store) Freq(h policy.Handle) uint32 { return s.cellFreq(s.slotForHandle(h)) }
func (s *Store) SetFreq(h policy.Handle, v uint32) {
	s.setCellFreq(s.slotForHandle(h), v)
}

func (s *Store) Head() policy.Handle     { return policy.Handle(s.getU32(offHead)) }
func (s *Store) SetHead(h policy.Handle) { s.putU32(offHead, uint32(h)) }
func (s *Store) Tail() policy.Handle     { return policy.Handle(s.getU32(offTail)) }
func (s *Store) SetTail(h policy.Handle) { s.putU32(offTail, uint32(h)) }

// BucketHead/BucketTail index POLICY_STATE directly by frequency: the
// Policy bound to this Store is constructed with capacity == the table's
// Capacity (see Open), so policy.bucketFor never produces an index
// outside [0, capacity), matching POLICY_STATE's fixed sizing.
func (s *Store) BucketHead(freq uint32) policy.Handle {
	return policy.Handle(byteOrder.Uint32(s.buf[s.sizes.policyOffset(freq):]))
}

func (s *Store) BucketTail(freq uint32) policy.Handle {
	off := s.sizes.policyOffset(freq) + 4
	return policy.Handle(byteOrder.Uint32(s.buf[off:]))
}

func (s *Store) SetBucketHead(freq uint32, h policy.Handle) {
	byteOrder.PutUint32(s.buf[s.sizes.policyOffset(freq):], uint32(h))
}

func (s *Store) SetBucketTail(freq uint32, h policy.Handle) {
	off := s.sizes.policyOffset(freq) + 4
	byteOrder.PutUint32(s.buf[off:], uint32(h))
}

func (s *Store) MinFreq() uint32     { return s.getU32(offMinFreq) }
func (s *Store) SetMinFreq(v uint32) { s.putU32(offMinFreq, v) }

func (s *Store) NextSeq() uint64 {
	v := s.getU64(offSeqCounter) + 1
	s.putU64(offSeqCounter, v)
	return v
}
