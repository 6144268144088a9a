// Package mem provides the backing store that a simulated cache fetches
// blocks from.
//
// The store models a large, slower tier. Every ReadBlock is cheap to call in
// process, but the simulation treats it as a fetch from distant memory. The
// store performs no caching of its own.
package mem

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned when a block index beyond the end of the store
// is read.
var ErrOutOfRange = errors.New("block index out of range")

// unitNumBlocks is the number of blocks materialized together. Blocks that
// are never read cost no memory.
const unitNumBlocks = 128

// A Storage keeps the blocks of the backing store.
//
// Block content is synthetic and fully determined by the block index, so the
// storage materializes blocks lazily in units, following the same
// unit-granular layout the guest-memory storage of a full simulator uses.
type Storage struct {
	numBlocks uint64
	blockSize uint64
	units     map[uint64][]Block
}

// NewStorage creates a storage holding numBlocks blocks of blockSize
// elements each.
func NewStorage(numBlocks, blockSize uint64) *Storage {
	return &Storage{
		numBlocks: numBlocks,
		blockSize: blockSize,
		units:     make(map[uint64][]Block),
	}
}

// NumBlocks returns the number of blocks in the store.
func (s *Storage) NumBlocks() uint64 {
	return s.numBlocks
}

// BlockSize returns the number of elements per block.
func (s *Storage) BlockSize() uint64 {
	return s.blockSize
}

// ReadBlock returns the block at index b. Reading at or beyond NumBlocks
// fails with ErrOutOfRange.
func (s *Storage) ReadBlock(b uint64) (Block, error) {
	if b >= s.numBlocks {
		return Block{}, fmt.Errorf(
			"%w: block %d, store holds %d blocks",
			ErrOutOfRange, b, s.numBlocks)
	}

	unit := s.createOrGetUnit(b)

	return unit[b%unitNumBlocks], nil
}

func (s *Storage) createOrGetUnit(b uint64) []Block {
	base := b - b%unitNumBlocks

	unit, ok := s.units[base]
	if !ok {
		unit = make([]Block, unitNumBlocks)
		for i := range unit {
			unit[i] = makeBlock(base+uint64(i), s.blockSize)
		}
		s.units[base] = unit
	}

	return unit
}
