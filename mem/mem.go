package mem

import (
	"errors"
	"fmt"
	"io"
	"unsafe"
)

const (
	B  = 1
	KB = 1024 * B
	MB = 1024 * KB
	GB = 1024 * MB
)

var (
	DefaultLogWriter io.Writer = nil
)

// ErrOutOfMemory is the panic value of the throwing allocation entry points.
var ErrOutOfMemory = errors.New("mem: out of memory")

// Result is the outcome of a size-returning allocation call. On success
// Size is the usable byte count backing Ptr and never less than the size
// requested. The zero Result is the no-throw failure sentinel.
type Result struct {
	Ptr  unsafe.Pointer
	Size uint64
}

func (r Result) Ok() bool {
	return r.Ptr != nil
}

// Bytes materializes the full usable region as a slice of length Size.
// Every byte of it is valid, not just the requested prefix.
func (r Result) Bytes() []byte {
	if r.Ptr == nil {
		return nil
	}
	return unsafe.Slice((*byte)(r.Ptr), r.Size)
}

type Allocator interface {
	Malloc(size uint64) unsafe.Pointer
	Free(p unsafe.Pointer) bool
	AlignedMalloc(size uint64, align uint64) unsafe.Pointer
	AlignedFree(p unsafe.Pointer) bool
	GetAllocSize() uint64
}

// SizedAllocator extends an ordinary allocator with the size-returning
// entry-point family: scalar/array, default/explicit alignment and
// throwing/no-throw each get a distinct entry point. Throwing variants
// panic with ErrOutOfMemory on failure, no-throw variants return the zero
// Result and never panic.
//
// FreeSized releases p together with a size hint. The hint must lie
// between the size originally requested and the Size reported back at
// allocation time; a hint outside that interval is a caller bug and is
// not detected here.
type SizedAllocator interface {
	Allocator
	MallocSized(size uint64) Result
	MallocSizedNoThrow(size uint64) Result
	MallocArraySized(size uint64) Result
	MallocArraySizedNoThrow(size uint64) Result
	AlignedMallocSized(size uint64, align uint64) Result
	AlignedMallocSizedNoThrow(size uint64, align uint64) Result
	AlignedMallocArraySized(size uint64, align uint64) Result
	AlignedMallocArraySizedNoThrow(size uint64, align uint64) Result
	FreeSized(p unsafe.Pointer, hint uint64) bool
	AlignedFreeSized(p unsafe.Pointer, hint uint64) bool
}

func MallocType[T any](allocator Allocator, size uint64) *T {
	p := (*T)(allocator.Malloc(size * SizeOf[T]()))
	if p == nil {
		panic(ErrOutOfMemory)
	}
	if DefaultLogWriter != nil {
		_, _ = DefaultLogWriter.Write([]byte(fmt.Sprintf("[Malloc] allocator:%T size:%d ptr:%p\n", allocator, size*SizeOf[T](), p)))
	}
	return p
}

func FreeType[T any](allocator Allocator, t *T) bool {
	ok := allocator.Free(unsafe.Pointer(t))
	if DefaultLogWriter != nil {
		_, _ = DefaultLogWriter.Write([]byte(fmt.Sprintf("[Free] allocator:%T ptr:%p ok:%v\n", allocator, unsafe.Pointer(t), ok)))
	}
	return ok
}

func SizeOf[T any]() uint64 {
	var t T
	return uint64(unsafe.Sizeof(t))
}

func Offset(p unsafe.Pointer, offset int64) unsafe.Pointer {
	if offset > 0 {
		return unsafe.Pointer(uintptr(p) + uintptr(offset))
	} else if offset < 0 {
		return unsafe.Pointer(uintptr(p) - uintptr(-offset))
	} else {
		return p
	}
}

func OffsetType[T any](t *T, offset int64) *T {
	return (*T)(Offset(unsafe.Pointer(t), offset*int64(SizeOf[T]())))
}

//go:linkname memmove runtime.memmove
func memmove(to, from unsafe.Pointer, n uintptr)

//go:linkname memclrNoHeapPointers runtime.memclrNoHeapPointers
func memclrNoHeapPointers(ptr unsafe.Pointer, n uintptr)

func MemCpy(dst unsafe.Pointer, src unsafe.Pointer, size uint64) {
	memmove(dst, src, uintptr(size))
}

func MemCpyType[T any](dst *T, src *T, size uint64) {
	MemCpy(unsafe.Pointer(dst), unsafe.Pointer(src), size*SizeOf[T]())
}

func MemClr(p unsafe.Pointer, size uint64) {
	memclrNoHeapPointers(p, uintptr(size))
}

func alignUp(n uint64, align uint64) uint64 {
	return (n + align - 1) &^ (align - 1)
}

func alignedMalloc(allocator Allocator, size uint64, align uint64) unsafe.Pointer {
	if align == 0 {
		align = CACHE_LINE_SIZE
	}
	total := size + align - 1 + SizeOf[uintptr]()
	raw := allocator.Malloc(total)
	if raw == nil {
		return nil
	}
	rawAddr := uintptr(raw)
	alignedAddr := rawAddr + uintptr(SizeOf[uintptr]())
	alignedAddr = (alignedAddr + uintptr(align) - 1) & ^(uintptr(align) - 1)
	origPtrAddr := alignedAddr - uintptr(SizeOf[uintptr]())
	*(*uintptr)(unsafe.Pointer(origPtrAddr)) = rawAddr
	return unsafe.Pointer(alignedAddr)
}

func alignedRaw(p unsafe.Pointer) unsafe.Pointer {
	origPtrAddr := uintptr(p) - unsafe.Sizeof(uintptr(0))
	return unsafe.Pointer(*(*uintptr)(unsafe.Pointer(origPtrAddr)))
}

func alignedFree(allocator Allocator, p unsafe.Pointer) bool {
	if p == nil {
		return false
	}
	return allocator.Free(alignedRaw(p))
}
