package cache

import (
	"errors"
	"fmt"

	"github.com/sarchlab/cachesim/cache/internal/lruset"
)

// ErrConfig is returned when a cache cannot be built from the given
// parameters.
var ErrConfig = errors.New("invalid cache configuration")

// Builder can build caches.
type Builder struct {
	blockSize        uint64
	cacheSize        uint64
	wayAssociativity int
	prefetchDistance uint64
	store            BackingStore
}

// MakeBuilder creates a new builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		blockSize:        32,
		cacheSize:        2048,
		wayAssociativity: 4,
	}
}

// WithBlockSize sets the number of elements per block.
func (b Builder) WithBlockSize(blockSize uint64) Builder {
	b.blockSize = blockSize
	return b
}

// WithCacheSize sets the total resident element capacity.
func (b Builder) WithCacheSize(cacheSize uint64) Builder {
	b.cacheSize = cacheSize
	return b
}

// WithWayAssociativity sets the number of ways per set.
func (b Builder) WithWayAssociativity(wayAssociativity int) Builder {
	b.wayAssociativity = wayAssociativity
	return b
}

// WithPrefetchDistance sets the number of successor blocks visited on a
// miss.
func (b Builder) WithPrefetchDistance(prefetchDistance uint64) Builder {
	b.prefetchDistance = prefetchDistance
	return b
}

// WithBackingStore sets the store the cache fetches blocks from.
func (b Builder) WithBackingStore(store BackingStore) Builder {
	b.store = store
	return b
}

// Build builds a cache. The number of sets is cacheSize divided by
// blockSize*wayAssociativity, clamped to at least 1 so that a cache smaller
// than one full set degenerates to fully associative.
func (b Builder) Build() (*Cache, error) {
	numSets, err := b.numSets()
	if err != nil {
		return nil, err
	}

	sets := make([]*lruset.Set, numSets)
	for i := range sets {
		sets[i] = lruset.New(b.wayAssociativity)
	}

	return &Cache{
		blockSize:        b.blockSize,
		prefetchDistance: b.prefetchDistance,
		store:            b.store,
		sets:             sets,
	}, nil
}

func (b Builder) numSets() (uint64, error) {
	switch {
	case b.store == nil:
		return 0, fmt.Errorf("%w: no backing store", ErrConfig)
	case b.blockSize == 0:
		return 0, fmt.Errorf("%w: block size must be positive", ErrConfig)
	case b.cacheSize == 0:
		return 0, fmt.Errorf("%w: cache size must be positive", ErrConfig)
	case b.wayAssociativity <= 0:
		return 0, fmt.Errorf(
			"%w: way associativity must be positive", ErrConfig)
	}

	setSize := b.blockSize * uint64(b.wayAssociativity)

	numSets := b.cacheSize / setSize
	if numSets == 0 {
		return 1, nil
	}

	if b.cacheSize%setSize != 0 {
		return 0, fmt.Errorf(
			"%w: cache size %d does not hold an integer number of %d-element sets",
			ErrConfig, b.cacheSize, setSize)
	}

	return numSets, nil
}
