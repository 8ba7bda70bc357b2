package mem

import (
	"unsafe"
)

// Sized adapts an ordinary allocator to the size-returning contract.
// The adapter is the trivial conforming implementation: every sized entry
// point delegates to the matching ordinary entry point and reports the
// backing size as exactly the size requested. Allocators that already
// implement SizedAllocator are returned unchanged.
func Sized(allocator Allocator) SizedAllocator {
	if sized, ok := allocator.(SizedAllocator); ok {
		return sized
	}
	return sizedAdapter{Allocator: allocator}
}

type sizedAdapter struct {
	Allocator
}

func mustSized(r Result) Result {
	if !r.Ok() {
		panic(ErrOutOfMemory)
	}
	return r
}

func (s sizedAdapter) MallocSized(size uint64) Result {
	return mustSized(s.MallocSizedNoThrow(size))
}

func (s sizedAdapter) MallocSizedNoThrow(size uint64) Result {
	p := s.Malloc(size)
	if p == nil {
		return Result{}
	}
	return Result{Ptr: p, Size: size}
}

func (s sizedAdapter) MallocArraySized(size uint64) Result {
	return mustSized(s.MallocArraySizedNoThrow(size))
}

func (s sizedAdapter) MallocArraySizedNoThrow(size uint64) Result {
	return s.MallocSizedNoThrow(size)
}

func (s sizedAdapter) AlignedMallocSized(size uint64, align uint64) Result {
	return mustSized(s.AlignedMallocSizedNoThrow(size, align))
}

func (s sizedAdapter) AlignedMallocSizedNoThrow(size uint64, align uint64) Result {
	p := s.AlignedMalloc(size, align)
	if p == nil {
		return Result{}
	}
	return Result{Ptr: p, Size: size}
}

func (s sizedAdapter) AlignedMallocArraySized(size uint64, align uint64) Result {
	return mustSized(s.AlignedMallocArraySizedNoThrow(size, align))
}

func (s sizedAdapter) AlignedMallocArraySizedNoThrow(size uint64, align uint64) Result {
	return s.AlignedMallocSizedNoThrow(size, align)
}

func (s sizedAdapter) FreeSized(p unsafe.Pointer, hint uint64) bool {
	_ = hint
	return s.Free(p)
}

func (s sizedAdapter) AlignedFreeSized(p unsafe.Pointer, hint uint64) bool {
	_ = hint
	return s.AlignedFree(p)
}
