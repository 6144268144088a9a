package access

// Sequential emits the first element of every block in order: address
// i*blockSize for i = 0, 1, ... It is deterministic and mainly serves tests
// and baseline comparisons.
type Sequential struct {
	blockSize   uint64
	numAccesses uint64
	count       uint64
}

// NewSequential creates a sequential pattern of numAccesses addresses.
func NewSequential(blockSize, numAccesses uint64) *Sequential {
	return &Sequential{
		blockSize:   blockSize,
		numAccesses: numAccesses,
	}
}

// Next returns the next address in the stream.
func (p *Sequential) Next() (uint64, bool) {
	if p.count >= p.numAccesses {
		return 0, false
	}

	addr := p.count * p.blockSize
	p.count++

	return addr, true
}

// Name returns a human-readable pattern name.
func (p *Sequential) Name() string {
	return "sequential"
}
