package sharedstore

// Low-level header, slot and entry-cell field access. Every accessor
// assumes the caller already holds s.flock for the duration of the
// surrounding operation (see policy.Store's own contract, which these
// also satisfy in policyiface.go).

func (s *Store) getU32(off int) uint32 { return byteOrder.Uint32(s.buf[off : off+4]) }
func (s *Store) putU32(off int, v uint32) { byteOrder.PutUint32(s.buf[off:off+4], v) }
func (s *Store) addU32(off int, delta uint32) { s.putU32(off, s.getU32(off)+delta) }

func (s *Store) getU64(off int) uint64 { return byteOrder.Uint64(s.buf[off : off+8]) }
func (s *Store) putU64(off int, v uint64) { byteOrder.PutUint64(s.buf[off:off+8], v) }
func (s *Store) addU64(off int, delta uint64) { s.putU64(off, s.getU64(off)+delta) }

func (s *Store) getI64(off int) int64  { return int64(s.getU64(off)) }
func (s *Store) putI64(off int, v int64) { s.putU64(off, uint64(v)) }

func (s *Store) slotState(i uint32) uint8   { return s.buf[s.sizes.slotOffset(i)+slotOffState] }
func (s *Store) setSlotState(i uint32, v uint8) { s.buf[s.sizes.slotOffset(i)+slotOffState] = v }

func (s *Store) slotHash(i uint32) uint64 {
	off := s.sizes.slotOffset(i) + slotOffHash
	return byteOrder.Uint64(s.buf[off : off+8])
}

func (s *Store) setSlotHash(i uint32, v uint64) {
	off := s.sizes.slotOffset(i) + slotOffHash
	byteOrder.PutUint64(s.buf[off:off+8], v)
}

func (s *Store) setSlotEntryOff(i uint32, v uint32) {
	off := s.sizes.slotOffset(i) + slotOffEntryOff
	byteOrder.PutUint32(s.buf[off:off+4], v)
}

func (s *Store) cellBase(i uint32) int64 { return s.sizes.cellOffset(i) }

func (s *Store) cellU32(i uint32, fieldOff int64) uint32 {
	off := s.cellBase(i) + fieldOff
	return byteOrder.Uint32(s.buf[off : off+4])
}

func (s *Store) setCellU32(i uint32, fieldOff int64, v uint32) {
	off := s.cellBase(i) + fieldOff
	byteOrder.PutUint32(s.buf[off:off+4], v)
}

func (s *Store) cellPrev(i uint32) uint32         { return s.cellU32(i, cellOffPrev) }
func (s *Store) setCellPrev(i uint32, v uint32)   { s.setCellU32(i, cellOffPrev, v) }
func (s *Store) cellNext(i uint32) uint32         { return s.cellU32(i, cellOffNext) }
func (s *Store) setCellNext(i uint32, v uint32)   { s.setCellU32(i, cellOffNext, v) }
func (s *Store) cellFreq(i uint32) uint32         { return s.cellU32(i, cellOffFreq) }
func (s *Store) setCellFreq(i uint32, v uint32)   { s.setCellU32(i, cellOffFreq, v) }
func (s *Store) cellKeyLen(i uint32) uint32       { return s.cellU32(i, cellOffKeyLen) }
func (s *Store) setCellKeyLen(i uint32, v uint32) { s.setCellU32(i, cellOffKeyLen, v) }
func (s *Store) cellValueLen(i uint32) uint32     { return s.cellU32(i, cellOffValueLen) }
func (s *Store) setCellValueLen(i uint32, v uint32) { s.setCellU32(i, cellOffValueLen, v) }

func (s *Store) cellSeq(i uint32) uint64 {
	off := s.cellBase(i) + cellOffSeq
	return byteOrder.Uint64(s.buf[off : off+8])
}

func (s *Store) setCellSeq(i uint32, v uint64) {
	off := s.cellBase(i) + cellOffSeq
	byteOrder.PutUint64(s.buf[off:off+8], v)
}

func (s *Store) cellInsertedAt(i uint32) int64 {
	off := s.cellBase(i) + cellOffInsertedAt
	return int64(byteOrder.Uint64(s.buf[off : off+8]))
}

func (s *Store) setCellInsertedAt(i uint32, v int64) {
	off := s.cellBase(i) + cellOffInsertedAt
	byteOrder.PutUint64(s.buf[off:off+8], uint64(v))
}

func (s *Store) cellKeyBytes(i uint32) []byte {
	off := s.cellBase(i) + cellOffKeyBytes
	return s.buf[off : off+int64(s.sizes.MaxKeySize)]
}

func (s *Store) cellValueBytes(i uint32) []byte {
	off := s.cellBase(i) + cellOffKeyBytes + int64(s.sizes.MaxKeySize)
	return s.buf[off : off+int64(s.sizes.MaxValueSize)]
}
