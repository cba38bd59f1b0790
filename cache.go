/*
Package warpcache is a function-memoization engine with a dual-backend
cache store:

  - An in-process concurrent cache (internal/localstore), guarded by a
    single RWMutex over a map plus an eviction policy.
  - A cross-process cache backed by a memory-mapped file
    (internal/sharedstore), guarded by an advisory OS file lock, so
    unrelated processes attaching the same named cache see the same
    entries.

================================================================================
CALL DISPATCH
================================================================================

A Memo wraps a computation keyed by its argument (plus optional named
arguments folded in via Arg) under one of four eviction policies (LRU,
MRU, FIFO, LFU), with an optional TTL. Call looks the fingerprint up,
falls back to the wrapped function on a miss, and stores the result —
releasing any lock before the computation runs and reacquiring it only to
store the outcome. CallAsync is the same shape with the miss path moved
onto a goroutine; no per-key waiter table is kept, so two concurrent
misses on the same key may each compute independently.
*/
package warpcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/toloco/warp-cache/internal/keycodec"
	"github.com/toloco/warp-cache/internal/localstore"
	"github.com/toloco/warp-cache/internal/sharedstore"
	"github.com/toloco/warp-cache/internal/valuecodec"
)

// Arg is a named or positional extra argument folded into a call's
// fingerprint alongside the primary key. An empty Name makes it
// positional (order-sensitive); a non-empty Name makes it a named
// argument (sorted by name before encoding, per spec.md §3).
type Arg struct {
	Name  string
	Value any
}

// Result is what CallAsync delivers on its channel.
type Result[V any] struct {
	Value V
	Err   error
}

// Memo memoizes fn behind the cache described by spec.md. K is the
// primary key type; additional positional or named arguments may be
// passed alongside it via Arg without widening K itself.
type Memo[K comparable, V any] struct {
	fn  func(context.Context, K, ...Arg) (V, error)
	cfg *config

	local  *localstore.Store[V]
	shared *sharedstore.Store
}

// New builds a Memo wrapping fn. The zero value of Option set yields an
// unbounded, TTL-less, in-process LRU... cache; WithMaxSize is required
// in practice to bound memory, and is mandatory for WithBackend(Shared)
// since the shared backend preallocates a fixed-capacity file.
func New[K comparable, V any](fn func(context.Context, K, ...Arg) (V, error), opts ...Option) (*Memo[K, V], error) {
	if fn == nil {
		return nil, fmt.Errorf("warpcache: %w: fn must not be nil", ErrInvalidConfig)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	m := &Memo[K, V]{fn: fn, cfg: cfg}

	switch cfg.backend {
	case Shared:
		ss, err := sharedstore.Open(cfg.sharedName, sharedstore.Config{
			MaxSize:      uint32(cfg.maxSize),
			Policy:       cfg.strategy.toPolicyKind(),
			MaxKeySize:   uint32(cfg.maxKeySize),
			MaxValueSize: uint32(cfg.maxValueSize),
			TTL:          cfg.ttl,
			Dir:          cfg.sharedDir,
			LockTimeout:  cfg.lockTimeout,
		})
		if err != nil {
			if errors.Is(err, sharedstore.ErrUnsupportedPlatform) {
				return nil, ErrUnsupportedPlatform
			}
			return nil, fmt.Errorf("warpcache: open shared store: %w", err)
		}
		if ss.Reinitialized() {
			cfg.logf("warpcache: shared store %q header did not match configuration, reinitialized", cfg.sharedName)
		}
		m.shared = ss
	default:
		m.local = localstore.New[V](cfg.strategy.toPolicyKind(), cfg.maxSize, cfg.ttl, cfg.sweepInterval)
	}

	return m, nil
}

// fingerprint builds the argument tuple's canonical encoding: key is
// always positional and first; Arg values with an empty Name are
// additional positionals, in order; Arg values with a Name are collected
// into the sorted-by-name named-argument half.
func (m *Memo[K, V]) fingerprint(key K, args []Arg) ([]byte, uint64, error) {
	positional := make([]any, 1, 1+len(args))
	positional[0] = key
	var named map[string]any

	for _, a := range args {
		if a.Name == "" {
			positional = append(positional, a.Value)
			continue
		}
		if named == nil {
			named = make(map[string]any, len(args))
		}
		named[a.Name] = a.Value
	}

	fp, hash, err := keycodec.Encode(positional, named)
	if err != nil {
		return nil, 0, fmt.Errorf("warpcache: encode key: %w", err)
	}
	return fp, hash, nil
}

// lookup consults the configured backend. A shared-backend lock timeout
// is reported as an error distinct from a plain miss so Call can treat it
// as a cache bypass rather than a failure.
func (m *Memo[K, V]) lookup(ctx context.Context, fp []byte, hash uint64) (V, bool, error) {
	var zero V
	if m.cfg.backend != Shared {
		v, ok := m.local.Get(fp)
		return v, ok, nil
	}

	raw, ok, err := m.shared.Get(ctx, fp, hash)
	if err != nil {
		return zero, false, err
	}
	if !ok {
		return zero, false, nil
	}
	v, err := valuecodec.Decode[V](raw)
	if err != nil {
		// A corrupt or foreign-format cell reads as a plain miss rather
		// than an error (spec.md §7's encoding-error row: recoverable).
		return zero, false, nil
	}
	return v, true, nil
}

// withinKeyBound reports whether fp may be looked up. max_key_size
// (like max_value_size) bounds the shared backend only (spec.md §4.1/§6,
// since it sizes the mmap'd ENTRY_ARENA cell); the in-process backend has
// no such cap and never rejects a fingerprint on size.
func (m *Memo[K, V]) withinKeyBound(fp []byte) bool {
	return m.cfg.backend != Shared || len(fp) <= m.cfg.maxKeySize
}

// store writes v under fp/hash, silently skipping on an oversize key or
// value (which the shared backend counts as an oversize skip) or a lock
// timeout — all are clean cache bypasses once the value has
// already been computed and is about to be returned to the caller.
func (m *Memo[K, V]) store(ctx context.Context, fp []byte, hash uint64, v V) {
	if m.cfg.backend != Shared {
		m.local.Put(fp, v)
		return
	}
	enc, err := valuecodec.Encode(v)
	if err != nil {
		return
	}
	_ = m.shared.Put(ctx, fp, hash, enc)
}

// Call returns fn's memoized result for key/args, computing and storing
// it on a miss. An oversize fingerprint or a lock-acquisition timeout on
// the shared backend are both clean bypasses: fn still runs, nothing is
// cached for that call.
func (m *Memo[K, V]) Call(ctx context.Context, key K, args ...Arg) (V, error) {
	var zero V

	fp, hash, err := m.fingerprint(key, args)
	if err != nil {
		return zero, err
	}

	withinBound := m.withinKeyBound(fp)
	if withinBound {
		v, ok, lookupErr := m.lookup(ctx, fp, hash)
		if lookupErr != nil && !errors.Is(lookupErr, sharedstore.ErrLockTimeout) {
			return zero, lookupErr
		}
		if ok {
			return v, nil
		}
	}

	v, err := m.fn(ctx, key, args...)
	if err != nil {
		return zero, err
	}
	if ctx.Err() == nil {
		// An oversize fingerprint still goes to store: the shared
		// backend's Put rejects it and counts the oversize skip.
		m.store(ctx, fp, hash, v)
	}
	return v, nil
}

// CallAsync launches fn on a miss without blocking the caller: the
// returned channel receives exactly one Result once either the cache hit
// or the background computation completes. No per-key waiter table is
// kept, so concurrent misses on the same key may each compute fn
// independently (spec.md §4.6/§9 explicitly accepts this "double-flight"
// behavior over single-flight).
func (m *Memo[K, V]) CallAsync(ctx context.Context, key K, args ...Arg) <-chan Result[V] {
	ch := make(chan Result[V], 1)

	fp, hash, err := m.fingerprint(key, args)
	if err != nil {
		ch <- Result[V]{Err: err}
		close(ch)
		return ch
	}

	withinBound := m.withinKeyBound(fp)
	if withinBound {
		if v, ok, lookupErr := m.lookup(ctx, fp, hash); lookupErr == nil && ok {
			ch <- Result[V]{Value: v}
			close(ch)
			return ch
		}
	}

	go func() {
		defer close(ch)
		v, err := m.fn(ctx, key, args...)
		if err != nil {
			ch <- Result[V]{Err: err}
			return
		}
		if ctx.Err() == nil {
			m.store(ctx, fp, hash, v)
		}
		ch <- Result[V]{Value: v}
	}()
	return ch
}

// Get is the shared-backend testable surface from spec.md §6: a raw
// lookup with no fallback computation. It works against either backend.
func (m *Memo[K, V]) Get(key K, args ...Arg) (V, bool) {
	var zero V
	fp, hash, err := m.fingerprint(key, args)
	if err != nil {
		return zero, false
	}
	v, ok, lookupErr := m.lookup(context.Background(), fp, hash)
	if lookupErr != nil {
		return zero, false
	}
	return v, ok
}

// Set is the shared-backend testable surface from spec.md §6: a raw
// store with no computation. It works against either backend.
func (m *Memo[K, V]) Set(value V, key K, args ...Arg) {
	fp, hash, err := m.fingerprint(key, args)
	if err != nil {
		return
	}
	m.store(context.Background(), fp, hash, value)
}

// Info returns a point-in-time snapshot of this Memo's counters.
func (m *Memo[K, V]) Info() Stats {
	if m.cfg.backend != Shared {
		return statsFromInternal(m.local.Info())
	}
	st, err := m.shared.Info(context.Background())
	if err != nil {
		return Stats{}
	}
	return statsFromInternal(st)
}

// Clear empties the cache and resets its counters to zero.
func (m *Memo[K, V]) Clear() {
	if m.cfg.backend != Shared {
		m.local.Clear()
		return
	}
	_ = m.shared.Clear(context.Background())
}

// Close releases the Memo's resources: the in-process backend's janitor
// goroutine, or the shared backend's mmap and file descriptors. It never
// removes the shared backend's on-disk files (spec.md §5: detachment is
// not deletion).
func (m *Memo[K, V]) Close() error {
	if m.cfg.backend != Shared {
		m.local.Close()
		return nil
	}
	return m.shared.Close()
}
