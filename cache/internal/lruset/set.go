// Package lruset implements the per-set bookkeeping of a set-associative
// cache: a bounded list of resident block indices ordered by recency.
package lruset

// Result tells whether a touched block index was already resident.
type Result int

// The two possible outcomes of touching a set.
const (
	Hit Result = iota
	Miss
)

// A Set holds at most numWays resident block indices, most recently used
// first. Indices are unique within a set.
type Set struct {
	numWays int
	blocks  []uint64
}

// New creates a set with numWays ways.
func New(numWays int) *Set {
	return &Set{
		numWays: numWays,
		blocks:  make([]uint64, 0, numWays),
	}
}

// Touch records a reference to block index b. A resident index moves to the
// front and reports Hit. An absent index is inserted at the front, evicting
// the least recently used index when the set is full, and reports Miss.
func (s *Set) Touch(b uint64) Result {
	if pos := s.position(b); pos >= 0 {
		s.moveToFront(pos)
		return Hit
	}

	if len(s.blocks) == s.numWays {
		s.blocks = s.blocks[:len(s.blocks)-1]
	}

	s.blocks = append(s.blocks, 0)
	copy(s.blocks[1:], s.blocks)
	s.blocks[0] = b

	return Miss
}

// Contains reports whether block index b is resident. It does not alter the
// recency order.
func (s *Set) Contains(b uint64) bool {
	return s.position(b) >= 0
}

// Len returns the number of resident indices.
func (s *Set) Len() int {
	return len(s.blocks)
}

// Blocks returns the resident indices, most recently used first.
func (s *Set) Blocks() []uint64 {
	blocks := make([]uint64, len(s.blocks))
	copy(blocks, s.blocks)

	return blocks
}

func (s *Set) position(b uint64) int {
	for i, resident := range s.blocks {
		if resident == b {
			return i
		}
	}

	return -1
}

func (s *Set) moveToFront(pos int) {
	b := s.blocks[pos]
	copy(s.blocks[1:pos+1], s.blocks[:pos])
	s.blocks[0] = b
}
