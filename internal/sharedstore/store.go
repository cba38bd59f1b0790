package sharedstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/toloco/warp-cache/internal/cachestats"
	"github.com/toloco/warp-cache/internal/policy"
)

// Config configures the fixed-size hash table backing a Store.
type Config struct {
	// Capacity is the number of slots; if zero it defaults to
	// ceil(1.5 * MaxSize), the load factor spec.md's §4.5 recommends.
	Capacity uint32

	MaxSize      uint32
	Policy       policy.Kind
	MaxKeySize   uint32
	MaxValueSize uint32
	TTL          time.Duration

	// Dir defaults to os.TempDir()/warpcache if empty.
	Dir string
	// LockTimeout of zero blocks forever acquiring the advisory lock.
	LockTimeout time.Duration
}

func (c Config) capacity() uint32 {
	if c.Capacity > 0 {
		return c.Capacity
	}
	n := uint32(float64(c.MaxSize)*1.5 + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

// Store is a cross-process cache backed by a single mmap'd file: an
// open-addressed hash table with linear probing and tombstones, guarded
// by a sibling advisory lock file. Every exported method acquires that
// lock for the duration of its critical section and releases it before
// returning — it is never held across a caller's own long-running work.
type Store struct {
	cfg   Config
	sizes Sizes

	dataPath, lockPath string
	dataFile           *os.File
	m                  *mapping
	buf                []byte

	flock *flock.Flock

	pol  *policy.Policy
	mu   sync.Mutex // serializes Open/Close against concurrent in-process callers
	open bool

	reinitialized bool // set by Open if an existing file's header didn't match cfg
}

// Reinitialized reports whether Open found an existing data file whose
// header didn't match the requested Config (magic/version/capacity/policy/
// size bounds) and reset it. Callers may use this to log the event (the
// only place spec.md's error table calls "Corrupted header" a recoverable
// condition rather than fatal).
func (s *Store) Reinitialized() bool { return s.reinitialized }

// Open attaches to (creating if absent) the named shared cache under dir.
// Two files are used: "<name>.data" (the mmap'd table) and "<name>.lock"
// (the advisory lock). If an existing data file's header doesn't match
// cfg (magic, version, capacity, policy, size bounds), it is
// reinitialized rather than trusted, per spec.md §6's on-disk contract.
func Open(name string, cfg Config) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "warpcache")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sharedstore: mkdir %s: %w", dir, err)
	}

	sizes := computeSizes(cfg.capacity(), cfg.MaxKeySize, cfg.MaxValueSize)
	dataPath := filepath.Join(dir, name+".data")
	lockPath := filepath.Join(dir, name+".lock")

	f, err := os.OpenFile(dataPath, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sharedstore: open %s: %w", dataPath, err)
	}

	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("sharedstore: stat %s: %w", dataPath, err)
	}
	if st.Size() != sizes.Total {
		if err := f.Truncate(sizes.Total); err != nil {
			f.Close()
			return nil, fmt.Errorf("sharedstore: truncate %s: %w", dataPath, err)
		}
	}

	m, err := mapFile(f, sizes.Total)
	if err != nil {
		f.Close()
		return nil, err
	}

	s := &Store{
		cfg:      cfg,
		sizes:    sizes,
		dataPath: dataPath,
		lockPath: lockPath,
		dataFile: f,
		m:        m,
		buf:      m.Bytes(),
		flock:    flock.New(lockPath),
		open:     true,
	}
	s.pol = policy.New(cfg.Policy, s, sizes.Capacity)

	if err := s.flock.Lock(); err != nil {
		s.closeHandles()
		return nil, fmt.Errorf("sharedstore: initial lock: %w", err)
	}
	s.reinitialized = !s.headerMatches(cfg, sizes)
	if s.reinitialized {
		s.reinitLocked(cfg, sizes)
	}
	if err := s.flock.Unlock(); err != nil {
		s.closeHandles()
		return nil, fmt.Errorf("sharedstore: initial unlock: %w", err)
	}

	return s, nil
}

func (s *Store) headerMatches(cfg Config, sizes Sizes) bool {
	if !bytes.Equal(s.buf[offMagic:offMagic+8], []byte(magicString)) {
		return false
	}
	if s.getU32(offVersion) != layoutVersion {
		return false
	}
	if s.getU32(offCapacity) != sizes.Capacity {
		return false
	}
	if s.buf[offPolicyKind] != uint8(cfg.Policy) {
		return false
	}
	if s.getU32(offMaxKeySize) != cfg.MaxKeySize || s.getU32(offMaxValueSize) != cfg.MaxValueSize {
		return false
	}
	return true
}

// reinitLocked zeroes HEADER and SLOT_TABLE and rewrites the header's
// static configuration fields. Caller must hold s.flock.
func (s *Store) reinitLocked(cfg Config, sizes Sizes) {
	for i := range s.buf[:headerSize] {
		s.buf[i] = 0
	}
	slotTable := s.buf[sizes.SlotTableOffset : sizes.SlotTableOffset+int64(sizes.Capacity)*slotSize]
	for i := range slotTable {
		slotTable[i] = 0
	}
	policyState := s.buf[sizes.PolicyStateOffset : sizes.PolicyStateOffset+int64(sizes.Capacity)*policyCellSize]
	for i := range policyState {
		policyState[i] = 0
	}

	copy(s.buf[offMagic:offMagic+8], magicString)
	s.putU32(offVersion, layoutVersion)
	s.putU32(offCapacity, sizes.Capacity)
	s.putU32(offMaxSize, cfg.MaxSize)
	s.buf[offPolicyKind] = uint8(cfg.Policy)
	s.putU32(offMaxKeySize, cfg.MaxKeySize)
	s.putU32(offMaxValueSize, cfg.MaxValueSize)
	s.putI64(offTTLMicros, cfg.TTL.Microseconds())
}

// Close flushes pending writes, unmaps the file, and closes the data
// file's descriptor. It never unlinks either file — detachment is not
// deletion (spec.md §5).
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	s.open = false
	if err := s.m.Sync(); err != nil {
		return err
	}
	return s.closeHandles()
}

func (s *Store) closeHandles() error {
	var firstErr error
	if s.m != nil {
		if err := s.m.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.dataFile != nil {
		if err := s.dataFile.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// lock acquires the cross-process critical section, honoring
// Config.LockTimeout, and returns a function that releases it.
func (s *Store) lock(ctx context.Context) (func(), error) {
	if s.cfg.LockTimeout <= 0 {
		if err := s.flock.Lock(); err != nil {
			return nil, fmt.Errorf("sharedstore: lock: %w", err)
		}
		return func() { s.flock.Unlock() }, nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, s.cfg.LockTimeout)
	defer cancel()
	ok, err := s.flock.TryLockContext(lockCtx, 2*time.Millisecond)
	if err != nil {
		// TryLockContext reports an elapsed deadline as the context's error.
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLockTimeout
		}
		return nil, fmt.Errorf("sharedstore: lock: %w", err)
	}
	if !ok {
		return nil, ErrLockTimeout
	}
	return func() { s.flock.Unlock() }, nil
}

// Get looks up fingerprint (already hashed by the caller via
// internal/keycodec) and returns the raw encoded value bytes previously
// passed to Put.
func (s *Store) Get(ctx context.Context, fingerprint []byte, hash uint64) ([]byte, bool, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return nil, false, err
	}
	defer unlock()

	idx, found, _ := s.probe(fingerprint, hash)
	if !found {
		s.addU64(offMisses, 1)
		return nil, false, nil
	}
	if s.expiredLocked(idx) {
		s.evictSlot(idx)
		s.addU64(offMisses, 1)
		return nil, false, nil
	}

	s.addU64(offHits, 1)
	s.pol.OnHit(s.handleForSlot(idx))

	n := s.cellValueLen(idx)
	out := make([]byte, n)
	copy(out, s.cellValueBytes(idx)[:n])
	return out, true, nil
}

// Put stores value under fingerprint, evicting a victim first if the
// table is at MaxSize capacity and fingerprint is not already present.
func (s *Store) Put(ctx context.Context, fingerprint []byte, hash uint64, value []byte) error {
	if uint32(len(fingerprint)) > s.cfg.MaxKeySize {
		s.withLock(ctx, func() { s.addU64(offOversizeSkips, 1) })
		return ErrOversizeKey
	}
	if uint32(len(value)) > s.cfg.MaxValueSize {
		s.withLock(ctx, func() { s.addU64(offOversizeSkips, 1) })
		return ErrOversizeValue
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	now := time.Now().UnixMicro()
	idx, found, insertAt := s.probe(fingerprint, hash)
	if found {
		s.setCellValueLen(idx, uint32(len(value)))
		copy(s.cellValueBytes(idx), value)
		s.setCellInsertedAt(idx, now)
		s.pol.OnHit(s.handleForSlot(idx))
		return nil
	}

	if s.getU32(offCurrentSize) >= s.cfg.MaxSize {
		if victim, ok := s.pol.Victim(); ok {
			s.evictSlot(s.slotForHandle(victim))
		}
	}

	s.setSlotState(insertAt, slotOccupied)
	s.setSlotHash(insertAt, hash)
	s.setSlotEntryOff(insertAt, insertAt+1)

	s.setCellPrev(insertAt, 0)
	s.setCellNext(insertAt, 0)
	s.setCellFreq(insertAt, 0)
	s.setCellInsertedAt(insertAt, now)
	s.setCellKeyLen(insertAt, uint32(len(fingerprint)))
	s.setCellValueLen(insertAt, uint32(len(value)))
	copy(s.cellKeyBytes(insertAt), fingerprint)
	copy(s.cellValueBytes(insertAt), value)

	s.addU32(offCurrentSize, 1)
	s.pol.OnInsert(s.handleForSlot(insertAt))
	// The cell's own seq field is a diagnostic insertion-order stamp, not
	// consulted by eviction logic (which walks the policy lists/buckets);
	// NextSeq here just reuses the header's single monotonic counter.
	s.setCellSeq(insertAt, s.NextSeq())
	return nil
}

func (s *Store) withLock(ctx context.Context, fn func()) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return
	}
	defer unlock()
	fn()
}

// Clear empties the table and resets every counter to zero.
func (s *Store) Clear(ctx context.Context) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	slotTable := s.buf[s.sizes.SlotTableOffset : s.sizes.SlotTableOffset+int64(s.sizes.Capacity)*slotSize]
	for i := range slotTable {
		slotTable[i] = 0
	}
	policyState := s.buf[s.sizes.PolicyStateOffset : s.sizes.PolicyStateOffset+int64(s.sizes.Capacity)*policyCellSize]
	for i := range policyState {
		policyState[i] = 0
	}
	s.putU64(offHits, 0)
	s.putU64(offMisses, 0)
	s.putU64(offOversizeSkips, 0)
	s.putU32(offCurrentSize, 0)
	s.putU64(offSeqCounter, 0)
	s.putU32(offHead, 0)
	s.putU32(offTail, 0)
	s.putU32(offMinFreq, 0)
	return nil
}

// Info returns a point-in-time snapshot of the table's counters.
func (s *Store) Info(ctx context.Context) (cachestats.Stats, error) {
	unlock, err := s.lock(ctx)
	if err != nil {
		return cachestats.Stats{}, err
	}
	defer unlock()

	return cachestats.Stats{
		Hits:          s.getU64(offHits),
		Misses:        s.getU64(offMisses),
		OversizeSkips: s.getU64(offOversizeSkips),
		CurrentSize:   int(s.getU32(offCurrentSize)),
		MaxSize:       int(s.getU32(offMaxSize)),
	}, nil
}

func (s *Store) expiredLocked(idx uint32) bool {
	ttlMicros := s.getI64(offTTLMicros)
	if ttlMicros <= 0 {
		return false
	}
	return time.Now().UnixMicro() >= s.cellInsertedAt(idx)+ttlMicros
}

func (s *Store) evictSlot(idx uint32) {
	s.pol.Remove(s.handleForSlot(idx))
	s.setSlotState(idx, slotTombstone)
	s.setSlotHash(idx, 0)
	s.setSlotEntryOff(idx, 0)
	s.setCellKeyLen(idx, 0)
	s.setCellValueLen(idx, 0)
	s.addU32(offCurrentSize, ^uint32(0)) // decrement
}

// handleForSlot and slotForHandle implement the bijection between a slot
// index and its policy.Handle: the entry arena cell for slot i always
// lives at arena index i, so the handle is simply i+1 (0 stays reserved
// for policy.Nil). No separate free list is needed for the arena.
func (s *Store) handleForSlot(idx uint32) policy.Handle { return policy.Handle(idx + 1) }
func (s *Store) slotForHandle(h policy.Handle) uint32   { return uint32(h) - 1 }

// probe performs linear probing from hash%capacity. It returns (idx,
// true, _) for a match, or (idx, false, insertIdx) where insertIdx is
// where a new entry should be placed (the first tombstone seen along the
// probe sequence, or the terminating empty slot if none was seen).
func (s *Store) probe(fingerprint []byte, hash uint64) (idx uint32, found bool, insertIdx uint32) {
	capacity := s.sizes.Capacity
	start := uint32(hash % uint64(capacity))
	firstTombstone := int64(-1)

	for step := uint32(0); step < capacity; step++ {
		i := (start + step) % capacity
		switch s.slotState(i) {
		case slotEmpty:
			if firstTombstone >= 0 {
				return 0, false, uint32(firstTombstone)
			}
			return 0, false, i
		case slotTombstone:
			if firstTombstone < 0 {
				firstTombstone = int64(i)
			}
		case slotOccupied:
			if s.slotHash(i) == hash && s.cellKeyLen(i) == uint32(len(fingerprint)) &&
				bytes.Equal(s.cellKeyBytes(i)[:s.cellKeyLen(i)], fingerprint) {
				return i, true, 0
			}
		}
	}
	// Table is full of occupied/tombstone slots with no match and no empty
	// slot reached in a full cycle; fall back to the first tombstone, or
	// the start slot if even that is unavailable (capacity misconfigured
	// far below MaxSize). Policy eviction in Put keeps this path cold.
	if firstTombstone >= 0 {
		return 0, false, uint32(firstTombstone)
	}
	return 0, false, start
}
