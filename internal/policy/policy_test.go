package policy

// memStore is a minimal, slice-backed policy.Store used only to exercise
// the bookkeeping logic in isolation from either real backend. BucketHead
// reads past the slice as an empty bucket, so a Policy built with
// capacity 0 (unbounded) can scan it like the in-process store's map.
type memStore struct {
	prev, next     []Handle
	freq           []uint32
	head, tail     Handle
	bucketHead     []Handle
	bucketTail     []Handle
	minFreq        uint32
	seq            uint64
}

func newMemStore(n int) *memStore {
	return &memStore{
		prev:       make([]Handle, n+1),
		next:       make([]Handle, n+1),
		freq:       make([]uint32, n+1),
		bucketHead: make([]Handle, n+1),
		bucketTail: make([]Handle, n+1),
	}
}

func (s *memStore) Prev(h Handle) Handle     { return s.prev[h] }
func (s *memStore) Next(h Handle) Handle     { return s.next[h] }
func (s *memStore) SetPrev(h, v Handle)      { s.prev[h] = v }
func (s *memStore) SetNext(h, v Handle)      { s.next[h] = v }
func (s *memStore) Freq(h Handle) uint32     { return s.freq[h] }
func (s *memStore) SetFreq(h Handle, v uint32) { s.freq[h] = v }
func (s *memStore) Head() Handle             { return s.head }
func (s *memStore) SetHead(h Handle)         { s.head = h }
func (s *memStore) Tail() Handle             { return s.tail }
func (s *memStore) SetTail(h Handle)         { s.tail = h }
func (s *memStore) BucketHead(f uint32) Handle {
	if int(f) >= len(s.bucketHead) {
		return Nil
	}
	return s.bucketHead[f]
}
func (s *memStore) SetBucketHead(f uint32, h Handle) { s.bucketHead[f] = h }
func (s *memStore) BucketTail(f uint32) Handle     { return s.bucketTail[f] }
func (s *memStore) SetBucketTail(f uint32, h Handle) { s.bucketTail[f] = h }
func (s *memStore) MinFreq() uint32          { return s.minFreq }
func (s *memStore) SetMinFreq(v uint32)      { s.minFreq = v }
func (s *memStore) NextSeq() uint64          { s.seq++; return s.seq }
