package warpcache

import "github.com/toloco/warp-cache/internal/valuecodec"

// Register makes a concrete type decodable into a Memo[K, V]'s V when V is
// itself an interface type (for example V = any). It only needs calling
// once per concrete type, at process start, before any shared-backend Memo
// with that V decodes a value of the registered type — gob.Decode has no
// other way to recover a concrete type from an interface-typed field.
func Register(v any) {
	valuecodec.Register(v)
}
