package access

import (
	"math/rand"
)

// HotCold skews accesses toward the first quarter of the block range. With
// probability hotProbability a block is drawn uniformly from the hot range
// [0, numBlocks/4), otherwise uniformly from the full range. The hot range
// is a subset of the cold range, so hot blocks carry an effective weight of
// hotProbability + (1-hotProbability)/4. The skew is kept this way on
// purpose; the resulting hit rates are the ones the simulator is meant to
// compare against.
type HotCold struct {
	numBlocks      uint64
	blockSize      uint64
	numAccesses    uint64
	hotProbability float64

	rng   *rand.Rand
	count uint64
}

// NewHotCold creates a hot/cold pattern over numBlocks blocks. The same
// seed reproduces the same address stream.
func NewHotCold(
	numBlocks, blockSize, numAccesses uint64,
	hotProbability float64,
	seed int64,
) *HotCold {
	return &HotCold{
		numBlocks:      numBlocks,
		blockSize:      blockSize,
		numAccesses:    numAccesses,
		hotProbability: hotProbability,
		rng:            rand.New(rand.NewSource(seed)),
	}
}

// Next returns the next address in the stream.
func (p *HotCold) Next() (uint64, bool) {
	if p.count >= p.numAccesses {
		return 0, false
	}
	p.count++

	blockRange := p.numBlocks
	if p.rng.Float64() < p.hotProbability {
		blockRange = p.hotRange()
	}

	block := uint64(p.rng.Int63n(int64(blockRange)))
	offset := uint64(p.rng.Int63n(int64(p.blockSize)))

	return block*p.blockSize + offset, true
}

// Name returns a human-readable pattern name.
func (p *HotCold) Name() string {
	return "hotcold"
}

func (p *HotCold) hotRange() uint64 {
	hot := p.numBlocks / 4
	if hot == 0 {
		hot = 1
	}

	return hot
}
