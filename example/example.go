package example

import (
	"os"

	"github.com/ckennelly/sizedalloc/list"
	"github.com/ckennelly/sizedalloc/logger"
	"github.com/ckennelly/sizedalloc/mem"
)

// TrivialSized wraps the ordinary Go heap with the size-returning
// contract. The adapter reports back exactly what was requested, so the
// round trip is risk free but harvests nothing.
func TrivialSized() {
	sized := mem.Sized(mem.GetGoAllocator())

	r := sized.MallocSized(37)
	// r.Size == 37 with the trivial adapter
	b := r.Bytes()
	for i := range b {
		b[i] = 0x42
	}
	sized.FreeSized(r.Ptr, 37)
}

// SlabSized shows a size-classed allocator reporting true backing sizes.
// A 37-byte request lands in the 48 class, and any release hint between
// 37 and 48 is valid.
func SlabSized() {
	logger.InitLogger(&logger.Config{
		AppName:   "sizedalloc",
		Level:     logger.DEBUG,
		TrackLine: true,
	})
	mem.DefaultLogWriter = logger.LevelWriter{Level: logger.DEBUG}
	defer func() { mem.DefaultLogWriter = nil }()

	slab := mem.NewSlabAllocator(&mem.SlabConfig{
		Parent:    mem.NewPageAllocator(),
		ChunkSize: 1 * mem.MB,
	})
	defer slab.Destroy()

	r := slab.MallocSized(37)
	logger.Info("requested 37, backing size %d", r.Size)
	slab.FreeSized(r.Ptr, 40) // any hint in [37,48]

	slab.DumpStats(os.Stdout)
}

// HarvestedList grows a list through the size-returning path. Capacity
// comes from the reported backing size, so class slack turns into
// elements instead of waste.
func HarvestedList() {
	slab := mem.NewSlabAllocator(nil)
	defer slab.Destroy()

	a := list.NewArrayListWithCap[uint64](slab, 11)
	// 11 elements request 88 bytes, the 96 class hands back 12 slots
	logger.Info("requested 11 slots, harvested %d", a.Cap())
	for i := uint64(0); i < 12; i++ {
		a.Add(i)
	}
	a.Free()
}
