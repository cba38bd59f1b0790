package warpcache

import "github.com/toloco/warp-cache/internal/cachestats"

// Stats is an immutable snapshot of a Memo's counters (spec.md §4.7),
// returned by Info. Clear resets every field to zero.
type Stats struct {
	Hits          uint64
	Misses        uint64
	OversizeSkips uint64
	CurrentSize   int
	MaxSize       int
}

func statsFromInternal(s cachestats.Stats) Stats {
	return Stats{
		Hits:          s.Hits,
		Misses:        s.Misses,
		OversizeSkips: s.OversizeSkips,
		CurrentSize:   s.CurrentSize,
		MaxSize:       s.MaxSize,
	}
}
