package sharedstore

import "errors"

var (
	// ErrUnsupportedPlatform is returned by Open on platforms without a
	// unix-style mmap (spec.md never requires a portable shared backend;
	// only the in-process backend is cross-platform).
	ErrUnsupportedPlatform = errors.New("sharedstore: shared backend requires a unix platform")

	// ErrOversizeKey and ErrOversizeValue are returned by Put when the
	// fingerprint or encoded value exceed the configured bounds; Put counts
	// an oversize skip and stores nothing, and the call still succeeds end
	// to end (the dispatcher ignores the error), per spec.md §7.
	ErrOversizeKey   = errors.New("sharedstore: key exceeds max_key_size")
	ErrOversizeValue = errors.New("sharedstore: value exceeds max_value_size")

	// ErrCorruptHeader is declared for a corrupt or truncated header, but
	// no code path in this package returns it: Open resizes the data file
	// and reinitializes any header that headerMatches rejects.
	ErrCorruptHeader = errors.New("sharedstore: corrupt or truncated header")

	// ErrLockTimeout is returned when Config.LockTimeout elapses before
	// the advisory file lock is acquired.
	ErrLockTimeout = errors.New("sharedstore: timed out acquiring the shared lock")
)
