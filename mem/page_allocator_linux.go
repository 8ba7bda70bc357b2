//go:build linux
// +build linux

package mem

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

const pageSize = 4096

func pageRound(size uint64) uint64 {
	if size == 0 {
		return pageSize
	}
	return alignUp(size, pageSize)
}

// PageAllocator maps anonymous memory directly and reports the true
// page-rounded backing size. Mappings are page aligned, so alignment
// requests up to the page size are satisfied for free; larger ones fail.
type PageAllocator struct {
	mu        sync.Mutex
	regions   map[uintptr][]byte
	allocSize uint64
}

func NewPageAllocator() *PageAllocator {
	return &PageAllocator{
		regions: make(map[uintptr][]byte),
	}
}

func (a *PageAllocator) MallocSized(size uint64) Result {
	return mustSized(a.MallocSizedNoThrow(size))
}

func (a *PageAllocator) MallocSizedNoThrow(size uint64) Result {
	actual := pageRound(size)
	buf, err := unix.Mmap(-1, 0, int(actual), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return Result{}
	}
	p := unsafe.Pointer(&buf[0])
	a.mu.Lock()
	a.regions[uintptr(p)] = buf
	a.allocSize += actual
	a.mu.Unlock()
	return Result{Ptr: p, Size: actual}
}

func (a *PageAllocator) MallocArraySized(size uint64) Result {
	return mustSized(a.MallocArraySizedNoThrow(size))
}

func (a *PageAllocator) MallocArraySizedNoThrow(size uint64) Result {
	return a.MallocSizedNoThrow(size)
}

func (a *PageAllocator) AlignedMallocSized(size uint64, align uint64) Result {
	return mustSized(a.AlignedMallocSizedNoThrow(size, align))
}

func (a *PageAllocator) AlignedMallocSizedNoThrow(size uint64, align uint64) Result {
	if align > pageSize {
		return Result{}
	}
	return a.MallocSizedNoThrow(size)
}

func (a *PageAllocator) AlignedMallocArraySized(size uint64, align uint64) Result {
	return mustSized(a.AlignedMallocArraySizedNoThrow(size, align))
}

func (a *PageAllocator) AlignedMallocArraySizedNoThrow(size uint64, align uint64) Result {
	return a.AlignedMallocSizedNoThrow(size, align)
}

func (a *PageAllocator) Malloc(size uint64) unsafe.Pointer {
	return a.MallocSizedNoThrow(size).Ptr
}

func (a *PageAllocator) Free(p unsafe.Pointer) bool {
	if p == nil {
		return false
	}
	a.mu.Lock()
	buf, ok := a.regions[uintptr(p)]
	if ok {
		delete(a.regions, uintptr(p))
		a.allocSize -= uint64(len(buf))
	}
	a.mu.Unlock()
	if !ok {
		return false
	}
	return unix.Munmap(buf) == nil
}

func (a *PageAllocator) AlignedMalloc(size uint64, align uint64) unsafe.Pointer {
	return a.AlignedMallocSizedNoThrow(size, align).Ptr
}

func (a *PageAllocator) AlignedFree(p unsafe.Pointer) bool {
	return a.Free(p)
}

func (a *PageAllocator) FreeSized(p unsafe.Pointer, hint uint64) bool {
	_ = hint
	return a.Free(p)
}

func (a *PageAllocator) AlignedFreeSized(p unsafe.Pointer, hint uint64) bool {
	_ = hint
	return a.Free(p)
}

func (a *PageAllocator) GetAllocSize() uint64 {
	a.mu.Lock()
	size := a.allocSize
	a.mu.Unlock()
	return size
}
