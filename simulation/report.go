package simulation

import (
	"fmt"
	"time"
)

// A Report carries the configuration echo and the aggregate metrics of one
// completed run. All fields are flat scalars so a report can be handed to a
// datarecording.DataRecorder as-is.
type Report struct {
	Pattern          string
	NumWays          int
	BlockSize        uint64
	CacheSize        uint64
	NumSets          uint64
	NumBlocks        uint64
	PrefetchDistance uint64
	NumAccesses      uint64

	Hits             uint64
	Misses           uint64
	PrefetchHits     uint64
	HitRate          float64
	EffectiveHitRate float64
	Duration         time.Duration
}

// String renders the report as a human-readable block.
func (r Report) String() string {
	return fmt.Sprintf(`%d-way cache, %s pattern
================================
Configuration:
- Cache size:        %d elements
- Block size:        %d elements
- Sets x ways:       %d x %d
- Prefetch distance: %d blocks
- Backing store:     %d blocks
- Accesses:          %d

Metrics:
- Simulation time:    %v
- Hits:               %d
- Misses:             %d
- Prefetch hits:      %d
- Hit rate:           %.2f%%
- Effective hit rate: %.2f%%
================================`,
		r.NumWays, r.Pattern,
		r.CacheSize, r.BlockSize,
		r.NumSets, r.NumWays,
		r.PrefetchDistance, r.NumBlocks, r.NumAccesses,
		r.Duration, r.Hits, r.Misses, r.PrefetchHits,
		r.HitRate*100, r.EffectiveHitRate*100)
}
