package mem

import (
	"fmt"
	"unsafe"
)

func logSized(op string, allocator SizedAllocator, requested uint64, r Result) {
	if DefaultLogWriter != nil {
		_, _ = DefaultLogWriter.Write([]byte(fmt.Sprintf("[%s] allocator:%T req:%d size:%d ptr:%p\n", op, allocator, requested, r.Size, r.Ptr)))
	}
}

// NewSized allocates a single T through the size-returning path. It
// returns the zero-initialized object and the usable byte count backing
// it. Capacity past the object is raw storage; nothing is constructed
// there unless the caller places something explicitly.
func NewSized[T any](allocator SizedAllocator) (*T, uint64) {
	requested := SizeOf[T]()
	r := allocator.MallocSized(requested)
	MemClr(r.Ptr, requested)
	logSized("NewSized", allocator, requested, r)
	return (*T)(r.Ptr), r.Size
}

func NewSizedNoThrow[T any](allocator SizedAllocator) (*T, uint64) {
	requested := SizeOf[T]()
	r := allocator.MallocSizedNoThrow(requested)
	if !r.Ok() {
		return nil, 0
	}
	MemClr(r.Ptr, requested)
	logSized("NewSizedNoThrow", allocator, requested, r)
	return (*T)(r.Ptr), r.Size
}

// NewArraySized allocates count elements of T and returns the first
// element together with the usable byte count. Only the requested count
// is zero-initialized; slack reported beyond it is raw element storage
// the caller may adopt via PlacementNew.
func NewArraySized[T any](allocator SizedAllocator, count uint64) (*T, uint64) {
	requested := count * SizeOf[T]()
	r := allocator.MallocArraySized(requested)
	MemClr(r.Ptr, requested)
	logSized("NewArraySized", allocator, requested, r)
	return (*T)(r.Ptr), r.Size
}

func NewArraySizedNoThrow[T any](allocator SizedAllocator, count uint64) (*T, uint64) {
	requested := count * SizeOf[T]()
	r := allocator.MallocArraySizedNoThrow(requested)
	if !r.Ok() {
		return nil, 0
	}
	MemClr(r.Ptr, requested)
	logSized("NewArraySizedNoThrow", allocator, requested, r)
	return (*T)(r.Ptr), r.Size
}

// PlacementNew zero-initializes the index'th element slot of an array
// obtained from NewArraySized. The slot must lie inside the usable byte
// count reported at allocation time.
func PlacementNew[T any](first *T, index uint64) *T {
	p := OffsetType[T](first, int64(index))
	MemClr(unsafe.Pointer(p), SizeOf[T]())
	return p
}

// DeleteSized releases an object from NewSized. The hint must lie between
// the object size and the byte count reported at allocation time.
func DeleteSized[T any](allocator SizedAllocator, t *T, hint uint64) bool {
	ok := allocator.FreeSized(unsafe.Pointer(t), hint)
	if DefaultLogWriter != nil {
		_, _ = DefaultLogWriter.Write([]byte(fmt.Sprintf("[DeleteSized] allocator:%T ptr:%p hint:%d ok:%v\n", allocator, unsafe.Pointer(t), hint, ok)))
	}
	return ok
}

// DeleteArraySized releases an array from NewArraySized. Only the
// originally requested elements are considered constructed, regardless of
// how much capacity was reported back.
func DeleteArraySized[T any](allocator SizedAllocator, first *T, hint uint64) bool {
	ok := allocator.FreeSized(unsafe.Pointer(first), hint)
	if DefaultLogWriter != nil {
		_, _ = DefaultLogWriter.Write([]byte(fmt.Sprintf("[DeleteArraySized] allocator:%T ptr:%p hint:%d ok:%v\n", allocator, unsafe.Pointer(first), hint, ok)))
	}
	return ok
}
