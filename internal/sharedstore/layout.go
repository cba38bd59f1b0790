// Package sharedstore is the cross-process backend (spec §4.5, "Backend
// B"): a single mmap'd file holding a fixed-capacity open-addressed hash
// table, guarded by an advisory file lock instead of an in-process mutex
// so unrelated processes attaching the same named cache see the same
// entries. It is grounded on calvinalkan-agent-task/pkg/slotcache's
// header-first, slot-indexed file format and joshuapare-hivekit/hive's
// raw mmap/munmap/msync call sequence.
package sharedstore

import "encoding/binary"

var byteOrder = binary.LittleEndian

const (
	magicString  = "WARPCAC\x01"
	layoutVersion = uint32(1)

	headerSize = 128

	slotStateSize  = 1
	slotHashSize   = 8
	slotEntryOffSize = 4
	slotSize       = slotStateSize + slotHashSize + slotEntryOffSize // 13

	policyCellSize = 8 // bucketHead uint32 + bucketTail uint32

	entryFixedSize = 4 + 4 + 4 + 8 + 8 + 4 + 4 // prev,next,freq,seq,insertedAt,keyLen,valueLen = 36
)

// header field byte offsets, in the order fixed by SPEC_FULL.md's §4.5
// layout table.
const (
	offMagic         = 0
	offVersion       = offMagic + 8
	offCapacity      = offVersion + 4
	offMaxSize       = offCapacity + 4
	offPolicyKind    = offMaxSize + 4
	offMaxKeySize    = offPolicyKind + 1
	offMaxValueSize  = offMaxKeySize + 4
	offTTLMicros     = offMaxValueSize + 4
	offHits          = offTTLMicros + 8
	offMisses        = offHits + 8
	offOversizeSkips = offMisses + 8
	offCurrentSize   = offOversizeSkips + 8
	offSeqCounter    = offCurrentSize + 4
	offHead          = offSeqCounter + 8
	offTail          = offHead + 4
	offMinFreq       = offTail + 4
	headerUsed       = offMinFreq + 4
)

func init() {
	if headerUsed > headerSize {
		panic("sharedstore: header layout overflows headerSize")
	}
}

// slot field offsets within a single SLOT_TABLE entry.
const (
	slotOffState    = 0
	slotOffHash     = slotOffState + slotStateSize
	slotOffEntryOff = slotOffHash + slotHashSize
)

// entry-arena cell field offsets within the fixed portion of a cell; key
// and value bytes follow immediately after entryFixedSize.
const (
	cellOffPrev       = 0
	cellOffNext       = cellOffPrev + 4
	cellOffFreq       = cellOffNext + 4
	cellOffSeq        = cellOffFreq + 4
	cellOffInsertedAt = cellOffSeq + 8
	cellOffKeyLen     = cellOffInsertedAt + 8
	cellOffValueLen   = cellOffKeyLen + 4
	cellOffKeyBytes   = cellOffValueLen + 4
)

const (
	slotEmpty     uint8 = 0
	slotOccupied  uint8 = 1
	slotTombstone uint8 = 2
)

// Sizes describes the byte layout of a shared-store data file for a given
// capacity and per-entry payload bound.
type Sizes struct {
	Capacity     uint32
	MaxKeySize   uint32
	MaxValueSize uint32

	CellSize uint32

	HeaderOffset      int64
	SlotTableOffset   int64
	PolicyStateOffset int64
	EntryArenaOffset  int64

	Total int64
}

// computeSizes lays out the four sections back to back, in the order
// HEADER | SLOT_TABLE | POLICY_STATE | ENTRY_ARENA.
func computeSizes(capacity, maxKeySize, maxValueSize uint32) Sizes {
	cellSize := uint32(entryFixedSize) + maxKeySize + maxValueSize

	slotTable := int64(capacity) * int64(slotSize)
	policyState := int64(capacity) * int64(policyCellSize)
	entryArena := int64(capacity) * int64(cellSize)

	return Sizes{
		Capacity:     capacity,
		MaxKeySize:   maxKeySize,
		MaxValueSize: maxValueSize,
		CellSize:     cellSize,

		HeaderOffset:      0,
		SlotTableOffset:   headerSize,
		PolicyStateOffset: headerSize + slotTable,
		EntryArenaOffset:  headerSize + slotTable + policyState,

		Total: headerSize + slotTable + policyState + entryArena,
	}
}

func (s Sizes) slotOffset(i uint32) int64 {
	return s.SlotTableOffset + int64(i)*int64(slotSize)
}

func (s Sizes) policyOffset(i uint32) int64 {
	return s.PolicyStateOffset + int64(i)*int64(policyCellSize)
}

func (s Sizes) cellOffset(i uint32) int64 {
	return s.EntryArenaOffset + int64(i)*int64(s.CellSize)
}
