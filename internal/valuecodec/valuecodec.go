// Package valuecodec encodes and decodes the values stored by the shared
// backend, per spec §4.2. The in-process backend never touches this
// package — it stores values by direct ownership.
//
// encoding/gob is used rather than a third-party serializer because every
// complete example repo in the retrieved pack that persists an arbitrary
// Go value reaches for gob (calvinalkan-agent-task's ticket cache,
// Sumatoshi-tech-codefang's spill store) rather than msgpack/cbor/protobuf
// — there is no pack precedent pointing at a third-party codec here.
package valuecodec

import (
	"bytes"
	"encoding/gob"
	"fmt"
)

// Register makes a concrete type decodable into a V that is itself an
// interface type (for example V = any). It is a thin wrapper over
// gob.Register and only needs calling once per concrete type, at process
// start, exactly as calvinalkan-agent-task registers its ticket summary
// type before decoding its on-disk cache.
func Register(v any) {
	gob.Register(v)
}

// Encode serializes v. v is encoded through a pointer, so when V is an
// interface type the concrete type travels with it and Decode[V] can
// restore it. The "present vs. absent" distinction (see SPEC_FULL.md's
// Open Question resolution) and the max_value_size oversize check belong
// to the shared store (internal/sharedstore), not to this function; it is
// a pure value<->bytes mapping.
func Encode[V any](v V) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&v); err != nil {
		return nil, fmt.Errorf("valuecodec: encode: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode deserializes b into a V, returning V's zero value and an error
// if decoding fails (a corrupt or foreign-format cell in the shared
// store, for instance — callers should treat that the same as a miss).
func Decode[V any](b []byte) (V, error) {
	var v V
	if err := gob.NewDecoder(bytes.NewReader(b)).Decode(&v); err != nil {
		var zero V
		return zero, fmt.Errorf("valuecodec: decode: %w", err)
	}
	return v, nil
}
