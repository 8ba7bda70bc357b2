//go:build !linux
// +build !linux

package mem

// Without mmap the page allocator degrades to the Go heap with trivial
// sizing.
type PageAllocator struct {
	SizedAllocator
}

func NewPageAllocator() *PageAllocator {
	return &PageAllocator{SizedAllocator: Sized(GetGoAllocator())}
}
