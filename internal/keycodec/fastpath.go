package keycodec

import (
	"bytes"
	"encoding/binary"
	"math"
)

// encodeValue dispatches to the fast path for primitive kinds and falls
// back to the general, reflect-based encoder (general.go) for everything
// else. The fast/general split is purely a performance optimization: both
// must and do produce identical bytes for any value the fast path accepts.
func encodeValue(buf *bytes.Buffer, v any) error {
	if v == nil {
		buf.WriteByte(tagNil)
		return nil
	}

	switch x := v.(type) {
	case bool:
		encodeBool(buf, x)
	case int8:
		encodeFixed(buf, tagInt8, uint64(uint8(x)), 1)
	case int16:
		encodeFixed(buf, tagInt16, uint64(uint16(x)), 2)
	case int32:
		encodeFixed(buf, tagInt32, uint64(uint32(x)), 4)
	case int64:
		encodeFixed(buf, tagInt64, uint64(x), 8)
	case int:
		encodeFixed(buf, tagInt, uint64(int64(x)), 8)
	case uint8:
		encodeFixed(buf, tagUint8, uint64(x), 1)
	case uint16:
		encodeFixed(buf, tagUint16, uint64(x), 2)
	case uint32:
		encodeFixed(buf, tagUint32, uint64(x), 4)
	case uint64:
		encodeFixed(buf, tagUint64, x, 8)
	case uint:
		encodeFixed(buf, tagUint, uint64(x), 8)
	case float32:
		encodeFixed(buf, tagFloat32, uint64(math.Float32bits(x)), 4)
	case float64:
		encodeFixed(buf, tagFloat64, math.Float64bits(x), 8)
	case string:
		encodeString(buf, x)
	case []byte:
		encodeBytes(buf, x)
	default:
		return encodeGeneral(buf, v)
	}
	return nil
}

func encodeBool(buf *bytes.Buffer, v bool) {
	if v {
		buf.WriteByte(tagTrue)
	} else {
		buf.WriteByte(tagFalse)
	}
}

// encodeFixed writes tag followed by the low `width` bytes of v, in
// big-endian order. Big-endian (rather than the file format's little-
// endian, see internal/sharedstore) is used here deliberately: fingerprint
// bytes are opaque map keys, never persisted or compared across a
// little/big-endian boundary by meaning, and big-endian keeps numerically
// close values byte-close, which is irrelevant for a hash key but costs
// nothing either way.
func encodeFixed(buf *bytes.Buffer, tag byte, v uint64, width int) {
	buf.WriteByte(tag)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[8-width:])
}

func encodeString(buf *bytes.Buffer, s string) {
	buf.WriteByte(tagString)
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}

func encodeBytes(buf *bytes.Buffer, b []byte) {
	buf.WriteByte(tagBytes)
	writeUvarint(buf, uint64(len(b)))
	buf.Write(b)
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}
