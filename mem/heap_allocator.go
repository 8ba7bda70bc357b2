package mem

import (
	"runtime"
	"unsafe"
)

const (
	CACHE_LINE_SIZE = 64
)

type _type struct{}

//go:linkname mallocgc runtime.mallocgc
func mallocgc(size uintptr, typ *_type, needzero bool) unsafe.Pointer

// GoAllocator satisfies allocations from the Go heap. Free is a no-op
// since the GC owns reclamation.
type GoAllocator struct{}

func GetGoAllocator() GoAllocator {
	return struct{}{}
}

func (h GoAllocator) Malloc(size uint64) unsafe.Pointer {
	p := mallocgc(uintptr(size), nil, true)
	return p
}

func (h GoAllocator) Free(p unsafe.Pointer) bool {
	runtime.KeepAlive(p)
	return true
}

func (h GoAllocator) AlignedMalloc(size uint64, align uint64) unsafe.Pointer {
	return alignedMalloc(h, size, align)
}

func (h GoAllocator) AlignedFree(p unsafe.Pointer) bool {
	return alignedFree(h, p)
}

func (h GoAllocator) GetAllocSize() uint64 {
	return 0
}
