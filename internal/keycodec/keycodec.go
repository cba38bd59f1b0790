// Package keycodec turns a call's positional and named arguments into a
// byte-stable Fingerprint and a deterministic 64-bit hash of that
// Fingerprint, per spec §4.1.
//
// Two encoding paths exist and must agree byte-for-byte on any value they
// both accept: a fast path for the common primitive kinds (bool, the
// integer kinds, float32/64, string, []byte, nil), and a general,
// reflect-based path for everything else (slices, maps, structs,
// pointers). Both paths share the same one-byte tag scheme in tags.go, so
// encodeValue (fastpath.go) always produces exactly what encodeGeneral
// (general.go) would.
package keycodec

import (
	"bytes"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Encode builds the Fingerprint for a call: its positional arguments in
// order, followed by its named arguments (an arbitrary-value map, sorted
// internally by name before encoding per spec §4.1's "order-insensitive
// for nameds"). It returns the canonical bytes and their deterministic
// hash.
func Encode(positional []any, named map[string]any) ([]byte, uint64, error) {
	var buf bytes.Buffer

	buf.WriteByte(tagPositionalSeq)
	writeUvarint(&buf, uint64(len(positional)))
	for _, v := range positional {
		if err := encodeValue(&buf, v); err != nil {
			return nil, 0, fmt.Errorf("keycodec: positional argument: %w", err)
		}
	}

	names := sortedKeys(named)
	buf.WriteByte(tagNamedMap)
	writeUvarint(&buf, uint64(len(names)))
	for _, name := range names {
		encodeString(&buf, name)
		if err := encodeValue(&buf, named[name]); err != nil {
			return nil, 0, fmt.Errorf("keycodec: named argument %q: %w", name, err)
		}
	}

	b := buf.Bytes()
	return b, xxhash.Sum64(b), nil
}
