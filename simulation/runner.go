package simulation

import (
	"fmt"
	"time"

	"github.com/sarchlab/cachesim/access"
	"github.com/sarchlab/cachesim/cache"
	"github.com/sarchlab/cachesim/mem"
)

// Run executes one simulation. It builds the backing store, the pattern,
// and the cache from cfg, drives all accesses synchronously, and returns
// the aggregated report. The wall-clock duration in the report is
// informational only.
func Run(cfg Config) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	store := mem.NewStorage(cfg.numBlocks(), cfg.BlockSize)

	c, err := cache.MakeBuilder().
		WithBlockSize(cfg.BlockSize).
		WithCacheSize(cfg.CacheSize).
		WithWayAssociativity(cfg.NumWays).
		WithPrefetchDistance(cfg.PrefetchDistance).
		WithBackingStore(store).
		Build()
	if err != nil {
		return Report{}, err
	}

	pattern := buildPattern(cfg, store.NumBlocks())

	start := time.Now()

	for {
		addr, ok := pattern.Next()
		if !ok {
			break
		}

		if _, err := c.Access(addr); err != nil {
			return Report{}, fmt.Errorf(
				"%s pattern, %d ways: %w", pattern.Name(), cfg.NumWays, err)
		}
	}

	duration := time.Since(start)
	metrics := c.Metrics()

	return Report{
		Pattern:          pattern.Name(),
		NumWays:          cfg.NumWays,
		BlockSize:        cfg.BlockSize,
		CacheSize:        cfg.CacheSize,
		NumSets:          c.NumSets(),
		NumBlocks:        store.NumBlocks(),
		PrefetchDistance: cfg.PrefetchDistance,
		NumAccesses:      cfg.NumAccesses,
		Hits:             metrics.Hits,
		Misses:           metrics.Misses,
		PrefetchHits:     metrics.PrefetchHits,
		HitRate:          metrics.HitRate,
		EffectiveHitRate: metrics.EffectiveHitRate,
		Duration:         duration,
	}, nil
}

func buildPattern(cfg Config, numBlocks uint64) access.Pattern {
	switch cfg.Pattern {
	case PatternSequential:
		return access.NewSequential(cfg.BlockSize, cfg.NumAccesses)
	case PatternHotCold:
		return access.NewHotCold(
			numBlocks, cfg.BlockSize, cfg.NumAccesses,
			cfg.HotProbability, cfg.Seed)
	default:
		panic("pattern not validated: " + cfg.Pattern)
	}
}
