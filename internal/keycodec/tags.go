package keycodec

// One-byte tags shared by the fast path (fastpath.go) and the general,
// reflect-based path (general.go). A value's encoding always starts with
// exactly one of these, which is what lets the two paths be proven
// equivalent on the primitive kinds: both write the same tag followed by
// the same fixed-layout payload.
const (
	tagNil       = 0x00
	tagFalse     = 0x01
	tagTrue      = 0x02
	tagInt8      = 0x10
	tagInt16     = 0x11
	tagInt32     = 0x12
	tagInt64     = 0x13
	tagInt       = 0x14
	tagUint8     = 0x15
	tagUint16    = 0x16
	tagUint32    = 0x17
	tagUint64    = 0x18
	tagUint      = 0x19
	tagFloat32   = 0x1A
	tagFloat64   = 0x1B
	tagString    = 0x20
	tagBytes     = 0x21
	tagSlice     = 0x30
	tagMap       = 0x31
	tagStruct    = 0x32
	tagPtr       = 0x33
	tagPositionalSeq = 0x40
	tagNamedMap      = 0x41
)
