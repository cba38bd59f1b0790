package localstore

import "github.com/toloco/warp-cache/internal/policy"

// entry is one slot in a Store's entry pool. The prev/next/freq fields are
// link storage for whichever policy.Kind the Store was built with — they
// are read and written exclusively through the policy.Store methods in
// linker.go, never touched directly outside this package.
type entry[V any] struct {
	value V

	fingerprint string // index key, kept here too so eviction can delete from the map
	expiresAt   int64  // UnixNano; zero means no TTL

	prev, next policy.Handle
	freq       uint32
}

func (e *entry[V]) expired(now int64) bool {
	return e.expiresAt != 0 && now >= e.expiresAt
}
