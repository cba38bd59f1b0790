package sharedstore

import (
	"context"
	"testing"
	"time"

	"github.com/toloco/warp-cache/internal/keycodec"
	"github.com/toloco/warp-cache/internal/policy"
)

func fp(t *testing.T, v any) ([]byte, uint64) {
	t.Helper()
	b, h, err := keycodec.Encode([]any{v}, nil)
	if err != nil {
		t.Fatalf("encode key: %v", err)
	}
	return b, h
}

func openTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	cfg.Dir = t.TempDir()
	s, err := Open("test", cfg)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSharedPutGetRoundTrip(t *testing.T) {
	s := openTestStore(t, Config{Capacity: 8, MaxSize: 4, Policy: policy.LRU, MaxKeySize: 64, MaxValueSize: 64})
	ctx := context.Background()

	key, hash := fp(t, "k1")
	if err := s.Put(ctx, key, hash, []byte("v1")); err != nil {
		t.Fatal(err)
	}
	got, ok, err := s.Get(ctx, key, hash)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || string(got) != "v1" {
		t.Fatalf("got (%q, %v), want (v1, true)", got, ok)
	}
}

func TestSharedGetMiss(t *testing.T) {
	s := openTestStore(t, Config{Capacity: 8, MaxSize: 4, Policy: policy.LRU, MaxKeySize: 64, MaxValueSize: 64})
	ctx := context.Background()

	key, hash := fp(t, "absent")
	if _, ok, err := s.Get(ctx, key, hash); ok || err != nil {
		t.Fatalf("expected a clean miss, got ok=%v err=%v", ok, err)
	}
	info, err := s.Info(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if info.Misses != 1 {
		t.Fatalf("expected 1 miss, got %d", info.Misses)
	}
}

func TestSharedOverwriteDoesNotGrowSize(t *testing.T) {
	s := openTestStore(t, Config{Capacity: 8, MaxSize: 4, Policy: policy.LRU, MaxKeySize: 64, MaxValueSize: 64})
	ctx := context.Background()

	key, hash := fp(t, "k")
	if err := s.Put(ctx, key, hash, []byte("v1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, key, hash, []byte("v2")); err != nil {
		t.Fatal(err)
	}
	got, ok, _ := s.Get(ctx, key, hash)
	if !ok || string(got) != "v2" {
		t.Fatalf("got (%q, %v), want (v2, true)", got, ok)
	}
	info, _ := s.Info(ctx)
	if info.CurrentSize != 1 {
		t.Fatalf("expected current_size=1 after overwrite, got %d", info.CurrentSize)
	}
}

func TestSharedLRUEvictsOnOverflow(t *testing.T) {
	s := openTestStore(t, Config{Capacity: 8, MaxSize: 2, Policy: policy.LRU, MaxKeySize: 64, MaxValueSize: 64})
	ctx := context.Background()

	ka, ha := fp(t, "a")
	kb, hb := fp(t, "b")
	kc, hc := fp(t, "c")

	s.Put(ctx, ka, ha, []byte("1"))
	s.Put(ctx, kb, hb, []byte("2"))
	s.Get(ctx, ka, ha) // touch a
	s.Put(ctx, kc, hc, []byte("3"))

	if _, ok, _ := s.Get(ctx, kb, hb); ok {
		t.Fatal("expected b to have been evicted")
	}
	if _, ok, _ := s.Get(ctx, ka, ha); !ok {
		t.Fatal("expected a to survive")
	}
}

func TestSharedOversizeKeyRejected(t *testing.T) {
	s := openTestStore(t, Config{Capacity: 8, MaxSize: 4, Policy: policy.LRU, MaxKeySize: 2, MaxValueSize: 64})
	ctx := context.Background()

	key, hash := fp(t, "this key is too long")
	err := s.Put(ctx, key, hash, []byte("v"))
	if err != ErrOversizeKey {
		t.Fatalf("expected ErrOversizeKey, got %v", err)
	}
	info, _ := s.Info(ctx)
	if info.OversizeSkips != 1 {
		t.Fatalf("expected 1 oversize skip, got %d", info.OversizeSkips)
	}
}

func TestSharedOversizeValueRejected(t *testing.T) {
	s := openTestStore(t, Config{Capacity: 8, MaxSize: 4, Policy: policy.LRU, MaxKeySize: 64, MaxValueSize: 2})
	ctx := context.Background()

	key, hash := fp(t, "k")
	err := s.Put(ctx, key, hash, []byte("too long a value"))
	if err != ErrOversizeValue {
		t.Fatalf("expected ErrOversizeValue, got %v", err)
	}
}

func TestSharedTTLExpires(t *testing.T) {
	s := openTestStore(t, Config{
		Capacity: 8, MaxSize: 4, Policy: policy.LRU,
		MaxKeySize: 64, MaxValueSize: 64, TTL: 20 * time.Millisecond,
	})
	ctx := context.Background()

	key, hash := fp(t, "k")
	s.Put(ctx, key, hash, []byte("v"))
	if _, ok, _ := s.Get(ctx, key, hash); !ok {
		t.Fatal("expected an immediate hit before expiry")
	}
	time.Sleep(40 * time.Millisecond)
	if _, ok, _ := s.Get(ctx, key, hash); ok {
		t.Fatal("expected the entry to have expired")
	}
}

func TestSharedClearResetsCounters(t *testing.T) {
	s := openTestStore(t, Config{Capacity: 8, MaxSize: 4, Policy: policy.LRU, MaxKeySize: 64, MaxValueSize: 64})
	ctx := context.Background()

	key, hash := fp(t, "k")
	s.Put(ctx, key, hash, []byte("v"))
	s.Get(ctx, key, hash)
	s.Get(ctx, []byte("missing"), 42)

	if err := s.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	info, _ := s.Info(ctx)
	if info.Hits != 0 || info.Misses != 0 || info.CurrentSize != 0 {
		t.Fatalf("expected a zeroed Stats after Clear, got %+v", info)
	}
	if _, ok, _ := s.Get(ctx, key, hash); ok {
		t.Fatal("expected the store to be empty after Clear")
	}
}

func TestReopenWithMatchingHeaderPreservesData(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Dir: dir, Capacity: 8, MaxSize: 4, Policy: policy.LRU, MaxKeySize: 64, MaxValueSize: 64}

	s1, err := Open("persist", cfg)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	key, hash := fp(t, "k")
	s1.Put(ctx, key, hash, []byte("v"))
	s1.Close()

	s2, err := Open("persist", cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	got, ok, _ := s2.Get(ctx, key, hash)
	if !ok || string(got) != "v" {
		t.Fatalf("expected the reattached process to see the earlier write, got (%q, %v)", got, ok)
	}
}

func TestReopenWithMismatchedConfigReinitializes(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s1, err := Open("mismatch", Config{Dir: dir, Capacity: 8, MaxSize: 4, Policy: policy.LRU, MaxKeySize: 64, MaxValueSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	key, hash := fp(t, "k")
	s1.Put(ctx, key, hash, []byte("v"))
	s1.Close()

	// Same name, different MaxKeySize -> header mismatch -> reinitialize.
	s2, err := Open("mismatch", Config{Dir: dir, Capacity: 8, MaxSize: 4, Policy: policy.LRU, MaxKeySize: 128, MaxValueSize: 64})
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()

	if _, ok, _ := s2.Get(ctx, key, hash); ok {
		t.Fatal("expected the mismatched header to have triggered reinitialization, losing old data")
	}
}
