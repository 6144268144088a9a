// Package simulation wires a pattern generator, a backing store, and a
// cache together and drives a fixed number of accesses through them.
package simulation

import (
	"fmt"

	"github.com/sarchlab/cachesim/cache"
)

// Pattern names accepted by a Config.
const (
	PatternSequential = "sequential"
	PatternHotCold    = "hotcold"
)

// A Config fully describes one simulation run. All fields are fixed before
// the run starts.
type Config struct {
	Pattern          string
	BlockSize        uint64
	CacheSize        uint64
	NumWays          int
	PrefetchDistance uint64
	NumAccesses      uint64

	// NumBlocks sizes the backing store. Zero means NumAccesses/BlockSize,
	// with a minimum of one block.
	NumBlocks uint64

	// HotProbability and Seed only apply to the hotcold pattern.
	HotProbability float64
	Seed           int64
}

// Validate checks the configuration. All reported problems are of the
// cache.ErrConfig kind.
func (c Config) Validate() error {
	switch {
	case c.BlockSize == 0:
		return fmt.Errorf("%w: block size must be positive", cache.ErrConfig)
	case c.CacheSize == 0:
		return fmt.Errorf("%w: cache size must be positive", cache.ErrConfig)
	case c.NumWays <= 0:
		return fmt.Errorf(
			"%w: way associativity must be positive", cache.ErrConfig)
	case c.NumAccesses == 0:
		return fmt.Errorf(
			"%w: access count must be positive", cache.ErrConfig)
	case c.HotProbability < 0 || c.HotProbability > 1:
		return fmt.Errorf(
			"%w: hot probability %f outside [0, 1]",
			cache.ErrConfig, c.HotProbability)
	}

	if c.Pattern != PatternSequential && c.Pattern != PatternHotCold {
		return fmt.Errorf(
			"%w: unknown pattern %q", cache.ErrConfig, c.Pattern)
	}

	return nil
}

func (c Config) numBlocks() uint64 {
	if c.NumBlocks > 0 {
		return c.NumBlocks
	}

	numBlocks := c.NumAccesses / c.BlockSize
	if numBlocks == 0 {
		numBlocks = 1
	}

	return numBlocks
}
