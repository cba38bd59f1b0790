package warpcache

import "errors"

// Sentinel errors, checked with errors.Is, matching the error taxonomy
// fixed by spec.md §7.
//
// An oversize key/value and a shared-backend lock timeout are never
// returned to a caller of Call/CallAsync/Get/Set: all four treat them as a
// clean cache bypass (the user function still runs on Call/CallAsync, Get
// reports a miss, Set silently drops the write), tracked instead via an
// oversize-skip counter on the backend that can detect one. Callers who
// need to observe those conditions directly use the backend packages
// (internal to this module) or Info's OversizeSkips counter.
var (
	// ErrInvalidConfig is returned by New when an Option combination is
	// invalid (unknown Strategy/Backend, non-positive size bound, a
	// shared backend requested without WithSharedName, and so on).
	ErrInvalidConfig = errors.New("warpcache: invalid configuration")

	// ErrUnsupportedPlatform is returned by New when WithBackend(Shared)
	// is requested on a platform without unix-style mmap support.
	ErrUnsupportedPlatform = errors.New("warpcache: shared backend requires a unix platform")
)
