// Package cache models an N-way set-associative cache with strict LRU
// replacement and sequential prefetch accounting.
//
// The prefetcher is deliberately simplified: on a miss it visits the
// following prefetchDistance block indices, counts a prefetch hit when a
// neighbor is already resident, and charges a backing-store read for absent
// neighbors WITHOUT installing them. Production prefetchers install the
// fetched blocks; this model only measures how often a prefetcher would have
// found its work already done, so the LRU state is never polluted by blocks
// the program did not reference.
package cache

import (
	"fmt"

	"github.com/sarchlab/cachesim/cache/internal/lruset"
	"github.com/sarchlab/cachesim/mem"
)

// A BackingStore is the narrow interface the cache reads blocks through.
// *mem.Storage satisfies it.
type BackingStore interface {
	NumBlocks() uint64
	ReadBlock(b uint64) (mem.Block, error)
}

// Result tells whether an access found its block resident.
type Result int

// The two possible outcomes of an access.
const (
	Hit Result = iota
	Miss
)

// Metrics aggregates the counters of a cache. EffectiveHitRate folds the
// prefetch-hit count into both the numerator and the denominator; it is a
// diagnostic quantity, not a rate of blocks actually brought in early.
type Metrics struct {
	Hits             uint64
	Misses           uint64
	PrefetchHits     uint64
	HitRate          float64
	EffectiveHitRate float64
}

// A Cache decodes addresses into block indices, tracks residency in
// per-set LRU order, and accounts hits, misses, and prefetch hits.
type Cache struct {
	blockSize        uint64
	prefetchDistance uint64
	store            BackingStore
	sets             []*lruset.Set

	hits         uint64
	misses       uint64
	prefetchHits uint64
}

// Access references the element at addr. The block index is addr divided by
// the block size; the intra-block offset takes no part in the lookup. On a
// miss the missed block is fetched from the backing store and the
// prefetcher visits the successor blocks.
//
// An address that decodes to a block index at or beyond the end of the
// backing store is a configuration fault and fails with mem.ErrOutOfRange
// before any state changes.
func (c *Cache) Access(addr uint64) (Result, error) {
	b := addr / c.blockSize
	if b >= c.store.NumBlocks() {
		return Miss, fmt.Errorf(
			"%w: address %d decodes to block %d, store holds %d blocks",
			mem.ErrOutOfRange, addr, b, c.store.NumBlocks())
	}

	set := c.sets[b%uint64(len(c.sets))]
	if set.Touch(b) == lruset.Hit {
		c.hits++
		return Hit, nil
	}

	if _, err := c.store.ReadBlock(b); err != nil {
		return Miss, err
	}

	c.misses++
	c.prefetchSuccessors(b)

	return Miss, nil
}

// prefetchSuccessors visits blocks b+1 .. b+prefetchDistance. Successors
// past the end of the store are skipped. Resident successors count as
// prefetch hits but are not re-touched, since the program did not logically
// reference them. Absent successors are read to model the fetch cost and
// then dropped.
func (c *Cache) prefetchSuccessors(b uint64) {
	numBlocks := c.store.NumBlocks()

	for n := b + 1; n <= b+c.prefetchDistance; n++ {
		if n >= numBlocks {
			break
		}

		if c.sets[n%uint64(len(c.sets))].Contains(n) {
			c.prefetchHits++
			continue
		}

		// Best effort. The index is in range, and a prefetch never
		// surfaces errors anyway.
		_, _ = c.store.ReadBlock(n)
	}
}

// Metrics returns the current counters and rates. Rates are 0 while no
// access has completed.
func (c *Cache) Metrics() Metrics {
	return Metrics{
		Hits:         c.hits,
		Misses:       c.misses,
		PrefetchHits: c.prefetchHits,
		HitRate:      ratio(c.hits, c.hits+c.misses),
		EffectiveHitRate: ratio(
			c.hits+c.prefetchHits,
			c.hits+c.misses+c.prefetchHits),
	}
}

// NumSets returns the number of sets of the cache.
func (c *Cache) NumSets() uint64 {
	return uint64(len(c.sets))
}

func ratio(numerator, denominator uint64) float64 {
	if denominator == 0 {
		return 0
	}

	return float64(numerator) / float64(denominator)
}
