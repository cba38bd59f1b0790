package warpcache

import (
	"fmt"
	"time"

	"github.com/toloco/warp-cache/internal/policy"
)

// Strategy selects the eviction policy a Memo evicts under once MaxSize
// is reached (spec.md §6).
type Strategy uint8

const (
	LRU Strategy = iota
	MRU
	FIFO
	LFU
)

func (s Strategy) String() string {
	return s.toPolicyKind().String()
}

func (s Strategy) toPolicyKind() policy.Kind {
	switch s {
	case MRU:
		return policy.MRU
	case FIFO:
		return policy.FIFO
	case LFU:
		return policy.LFU
	default:
		return policy.LRU
	}
}

// Backend selects which of the two store implementations a Memo uses.
type Backend uint8

const (
	InProcess Backend = iota
	Shared
)

type config struct {
	strategy     Strategy
	maxSize      int
	ttl          time.Duration
	backend      Backend
	maxKeySize   int
	maxValueSize int

	sharedDir     string
	sharedName    string
	sweepInterval time.Duration
	lockTimeout   time.Duration

	logf func(string, ...any)
}

func defaultConfig() *config {
	return &config{
		strategy:     LRU,
		backend:      InProcess,
		maxKeySize:   512,
		maxValueSize: 4096,
		logf:         func(string, ...any) {},
	}
}

// Option configures a Memo at construction time.
type Option func(*config)

func WithStrategy(s Strategy) Option { return func(c *config) { c.strategy = s } }

func WithMaxSize(n int) Option { return func(c *config) { c.maxSize = n } }

func WithTTL(d time.Duration) Option { return func(c *config) { c.ttl = d } }

func WithBackend(b Backend) Option { return func(c *config) { c.backend = b } }

func WithMaxKeySize(n int) Option { return func(c *config) { c.maxKeySize = n } }

func WithMaxValueSize(n int) Option { return func(c *config) { c.maxValueSize = n } }

// WithSharedDir overrides the directory the shared backend's ".data" and
// ".lock" files live under (default: os.TempDir()/warpcache).
func WithSharedDir(dir string) Option { return func(c *config) { c.sharedDir = dir } }

// WithSharedName names the shared cache; processes that pass the same
// name (and directory) attach to the same underlying file pair. Required
// when WithBackend(Shared) is used.
func WithSharedName(name string) Option { return func(c *config) { c.sharedName = name } }

// WithSweepInterval enables an active background TTL sweep at the given
// cadence, supplementing the lazy expiry every Get already performs. Zero
// (the default) disables the sweep.
func WithSweepInterval(d time.Duration) Option { return func(c *config) { c.sweepInterval = d } }

// WithLockTimeout bounds how long the shared backend waits to acquire its
// advisory file lock before giving up; zero (the default) blocks forever.
func WithLockTimeout(d time.Duration) Option { return func(c *config) { c.lockTimeout = d } }

// WithLogf sets the function New logs through when the shared backend
// reinitializes a mismatched store file. A nil f keeps the default no-op.
func WithLogf(f func(string, ...any)) Option {
	return func(c *config) {
		if f != nil {
			c.logf = f
		}
	}
}

func (c *config) validate() error {
	switch c.strategy {
	case LRU, MRU, FIFO, LFU:
	default:
		return fmt.Errorf("warpcache: %w: unknown strategy %d", ErrInvalidConfig, c.strategy)
	}
	switch c.backend {
	case InProcess, Shared:
	default:
		return fmt.Errorf("warpcache: %w: unknown backend %d", ErrInvalidConfig, c.backend)
	}
	if c.maxSize < 0 {
		return fmt.Errorf("warpcache: %w: max_size must not be negative", ErrInvalidConfig)
	}
	if c.maxKeySize <= 0 || c.maxValueSize <= 0 {
		return fmt.Errorf("warpcache: %w: max_key_size and max_value_size must be positive", ErrInvalidConfig)
	}
	if c.backend == Shared {
		if c.maxSize <= 0 {
			return fmt.Errorf("warpcache: %w: max_size must be positive for the shared backend", ErrInvalidConfig)
		}
		if c.sharedName == "" {
			return fmt.Errorf("warpcache: %w: the shared backend requires WithSharedName", ErrInvalidConfig)
		}
	}
	return nil
}
