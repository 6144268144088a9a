package mem

// A Block is the unit of transfer between the backing store and a cache. It
// carries BlockSize synthetic elements where element i of block b holds the
// value b*BlockSize + i.
type Block struct {
	Index uint64
	Data  []int64
}

func makeBlock(index, blockSize uint64) Block {
	data := make([]int64, blockSize)
	base := int64(index * blockSize)

	for i := range data {
		data[i] = base + int64(i)
	}

	return Block{Index: index, Data: data}
}
