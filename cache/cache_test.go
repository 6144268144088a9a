package cache

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	gomock "go.uber.org/mock/gomock"

	"github.com/sarchlab/cachesim/mem"
)

var _ = Describe("Cache", func() {
	var (
		mockCtrl *gomock.Controller
		store    *MockBackingStore
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		store = NewMockBackingStore(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	buildCache := func(
		blockSize, cacheSize uint64,
		numWays int,
		prefetchDistance uint64,
	) *Cache {
		c, err := MakeBuilder().
			WithBlockSize(blockSize).
			WithCacheSize(cacheSize).
			WithWayAssociativity(numWays).
			WithPrefetchDistance(prefetchDistance).
			WithBackingStore(store).
			Build()
		Expect(err).ToNot(HaveOccurred())

		return c
	}

	accessAll := func(c *Cache, addrs ...uint64) {
		for _, addr := range addrs {
			_, err := c.Access(addr)
			Expect(err).ToNot(HaveOccurred())
		}
	}

	Context("2 ways, 2 sets, no prefetch", func() {
		var c *Cache

		BeforeEach(func() {
			store.EXPECT().NumBlocks().Return(uint64(16)).AnyTimes()
			store.EXPECT().
				ReadBlock(gomock.Any()).
				Return(mem.Block{}, nil).
				AnyTimes()

			c = buildCache(4, 16, 2, 0)
		})

		It("should hit a block that survived the fill", func() {
			accessAll(c, 0, 4, 8, 12, 0)

			metrics := c.Metrics()
			Expect(metrics.Misses).To(Equal(uint64(4)))
			Expect(metrics.Hits).To(Equal(uint64(1)))
			Expect(c.sets[0].Blocks()).To(Equal([]uint64{0, 2}))
			Expect(c.sets[1].Blocks()).To(Equal([]uint64{3, 1}))
		})

		It("should miss after a conflict eviction", func() {
			// Blocks 0, 2, 4 all map to set 0; block 0 is evicted when
			// block 4 arrives.
			accessAll(c, 0, 8, 16, 0)

			metrics := c.Metrics()
			Expect(metrics.Misses).To(Equal(uint64(4)))
			Expect(metrics.Hits).To(Equal(uint64(0)))
		})

		It("should keep every resident block in its home set", func() {
			accessAll(c, 0, 4, 8, 12, 16, 20, 24, 28, 0, 12)

			for setID, set := range c.sets {
				blocks := set.Blocks()
				Expect(len(blocks)).To(BeNumerically("<=", 2))
				for _, b := range blocks {
					Expect(b % 2).To(Equal(uint64(setID)))
				}
			}
		})
	})

	Context("fully associative, no prefetch", func() {
		var c *Cache

		BeforeEach(func() {
			store.EXPECT().NumBlocks().Return(uint64(16)).AnyTimes()
			store.EXPECT().
				ReadBlock(gomock.Any()).
				Return(mem.Block{}, nil).
				AnyTimes()

			c = buildCache(4, 16, 4, 0)
		})

		It("should have a single set", func() {
			Expect(c.NumSets()).To(Equal(uint64(1)))
		})

		It("should evict the oldest block when the fifth arrives", func() {
			accessAll(c, 0, 4, 8, 12, 16)

			metrics := c.Metrics()
			Expect(metrics.Misses).To(Equal(uint64(5)))
			Expect(metrics.Hits).To(Equal(uint64(0)))

			result, err := c.Access(0)
			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(Equal(Miss))
			Expect(c.Metrics().Misses).To(Equal(uint64(6)))
		})

		It("should count hits plus misses as the number of accesses", func() {
			addrs := []uint64{0, 1, 5, 17, 33, 2, 63, 0, 16}
			accessAll(c, addrs...)

			metrics := c.Metrics()
			Expect(metrics.Hits + metrics.Misses).
				To(Equal(uint64(len(addrs))))
		})

		It("should ignore the intra-block offset", func() {
			accessAll(c, 0, 1, 2, 3)

			metrics := c.Metrics()
			Expect(metrics.Misses).To(Equal(uint64(1)))
			Expect(metrics.Hits).To(Equal(uint64(3)))
		})
	})

	Context("prefetching", func() {
		It("should read but not install absent successors", func() {
			store.EXPECT().NumBlocks().Return(uint64(8)).AnyTimes()
			c := buildCache(4, 16, 4, 2)

			store.EXPECT().ReadBlock(uint64(0)).Return(mem.Block{}, nil)
			store.EXPECT().ReadBlock(uint64(1)).Return(mem.Block{}, nil)
			store.EXPECT().ReadBlock(uint64(2)).Return(mem.Block{}, nil)

			accessAll(c, 0)

			metrics := c.Metrics()
			Expect(metrics.Misses).To(Equal(uint64(1)))
			Expect(metrics.Hits).To(Equal(uint64(0)))
			Expect(metrics.PrefetchHits).To(Equal(uint64(0)))
			Expect(c.sets[0].Blocks()).To(Equal([]uint64{0}))
		})

		It("should miss on a block that was only prefetched", func() {
			store.EXPECT().NumBlocks().Return(uint64(8)).AnyTimes()
			c := buildCache(4, 16, 4, 2)

			store.EXPECT().ReadBlock(uint64(0)).Return(mem.Block{}, nil)
			store.EXPECT().
				ReadBlock(uint64(1)).
				Return(mem.Block{}, nil).
				Times(2)
			store.EXPECT().
				ReadBlock(uint64(2)).
				Return(mem.Block{}, nil).
				Times(2)
			store.EXPECT().ReadBlock(uint64(3)).Return(mem.Block{}, nil)

			accessAll(c, 0, 4)

			metrics := c.Metrics()
			Expect(metrics.Misses).To(Equal(uint64(2)))
			Expect(metrics.Hits).To(Equal(uint64(0)))
			Expect(metrics.PrefetchHits).To(Equal(uint64(0)))
		})

		It("should count resident successors without re-reading them", func() {
			store.EXPECT().NumBlocks().Return(uint64(8)).AnyTimes()
			c := buildCache(4, 16, 4, 1)

			store.EXPECT().ReadBlock(uint64(1)).Return(mem.Block{}, nil)
			store.EXPECT().
				ReadBlock(uint64(2)).
				Return(mem.Block{}, nil).
				Times(2)
			store.EXPECT().ReadBlock(uint64(3)).Return(mem.Block{}, nil)
			store.EXPECT().ReadBlock(uint64(0)).Return(mem.Block{}, nil)

			// Make blocks 1 and 2 resident, re-touch 1, then miss on 0.
			// The prefetcher visits block 1, which is resident.
			accessAll(c, 4, 8, 4, 0)

			metrics := c.Metrics()
			Expect(metrics.Hits).To(Equal(uint64(1)))
			Expect(metrics.Misses).To(Equal(uint64(3)))
			Expect(metrics.PrefetchHits).To(Equal(uint64(1)))
		})

		It("should not alter the LRU order of a prefetch-hit block", func() {
			store.EXPECT().NumBlocks().Return(uint64(8)).AnyTimes()
			c := buildCache(4, 16, 4, 1)

			store.EXPECT().
				ReadBlock(gomock.AnyOf(
					uint64(0), uint64(2), uint64(3))).
				Return(mem.Block{}, nil).
				AnyTimes()
			store.EXPECT().ReadBlock(uint64(1)).Return(mem.Block{}, nil)

			accessAll(c, 4, 8, 4, 0)

			// Block 1 stays between the newly installed 0 and the older 2
			// even though the prefetcher visited it.
			Expect(c.sets[0].Blocks()).To(Equal([]uint64{0, 1, 2}))
		})

		It("should skip successors past the end of the store", func() {
			store.EXPECT().NumBlocks().Return(uint64(4)).AnyTimes()
			c := buildCache(4, 16, 4, 8)

			store.EXPECT().ReadBlock(uint64(3)).Return(mem.Block{}, nil)

			accessAll(c, 12)

			Expect(c.Metrics().Misses).To(Equal(uint64(1)))
		})

		It("should prefetch only the in-range suffix near the end", func() {
			store.EXPECT().NumBlocks().Return(uint64(4)).AnyTimes()
			c := buildCache(4, 16, 4, 8)

			store.EXPECT().ReadBlock(uint64(2)).Return(mem.Block{}, nil)
			store.EXPECT().ReadBlock(uint64(3)).Return(mem.Block{}, nil)

			accessAll(c, 8)

			Expect(c.Metrics().Misses).To(Equal(uint64(1)))
			Expect(c.Metrics().PrefetchHits).To(Equal(uint64(0)))
		})
	})

	Context("metrics", func() {
		It("should report zero rates before any access", func() {
			store.EXPECT().NumBlocks().Return(uint64(8)).AnyTimes()
			c := buildCache(4, 16, 4, 0)

			metrics := c.Metrics()
			Expect(metrics.Hits).To(Equal(uint64(0)))
			Expect(metrics.Misses).To(Equal(uint64(0)))
			Expect(metrics.PrefetchHits).To(Equal(uint64(0)))
			Expect(metrics.HitRate).To(Equal(0.0))
			Expect(metrics.EffectiveHitRate).To(Equal(0.0))
		})

		It("should fold prefetch hits into the effective rate", func() {
			store.EXPECT().NumBlocks().Return(uint64(8)).AnyTimes()
			store.EXPECT().
				ReadBlock(gomock.Any()).
				Return(mem.Block{}, nil).
				AnyTimes()
			c := buildCache(4, 16, 4, 1)

			accessAll(c, 4, 8, 4, 0)

			metrics := c.Metrics()
			Expect(metrics.HitRate).To(BeNumerically("~", 0.25, 1e-12))
			Expect(metrics.EffectiveHitRate).
				To(BeNumerically("~", 0.4, 1e-12))
			Expect(metrics.EffectiveHitRate).
				To(BeNumerically(">", metrics.HitRate))
		})
	})

	Context("out-of-range addresses", func() {
		It("should reject them without touching any state", func() {
			store.EXPECT().NumBlocks().Return(uint64(4)).AnyTimes()
			c := buildCache(4, 16, 4, 2)

			_, err := c.Access(16)

			Expect(errors.Is(err, mem.ErrOutOfRange)).To(BeTrue())
			Expect(c.Metrics().Hits).To(Equal(uint64(0)))
			Expect(c.Metrics().Misses).To(Equal(uint64(0)))
			Expect(c.sets[0].Len()).To(Equal(0))
		})
	})
})
