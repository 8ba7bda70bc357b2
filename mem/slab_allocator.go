package mem

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"unsafe"
)

const (
	defaultChunkSize = 256 * KB
	largeClass       = 0xFF
)

// slabHeader sits in the 8 bytes before every payload.
// bit 63: free flag, bits 48..55: class index, bits 0..47: requested size.
type slabHeader uint64

const slabRequestedMask = (uint64(1) << 48) - 1

func (h *slabHeader) getFree() bool {
	return (uint64(*h) >> 63) == 1
}

func (h *slabHeader) setFree(free bool) {
	if free {
		*h = slabHeader(uint64(*h) | (1 << 63))
	} else {
		*h = slabHeader(uint64(*h) &^ (1 << 63))
	}
}

func (h *slabHeader) getClass() int {
	return int((uint64(*h) >> 48) & 0xFF)
}

func (h *slabHeader) setClass(class int) {
	*h = slabHeader((uint64(*h) &^ (uint64(0xFF) << 48)) | (uint64(class&0xFF) << 48))
}

func (h *slabHeader) getRequested() uint64 {
	return uint64(*h) & slabRequestedMask
}

func (h *slabHeader) setRequested(size uint64) {
	*h = slabHeader((uint64(*h) &^ slabRequestedMask) | (size & slabRequestedMask))
}

var slabHeaderSize = SizeOf[slabHeader]()

type slabClass struct {
	mu       sync.Mutex
	freeList unsafe.Pointer
	requests uint64
	reqBytes uint64
	inUse    int64
}

type SlabConfig struct {
	Parent        Allocator // chunk source, GoAllocator when nil
	ChunkSize     uint64    // bytes carved from Parent per refill
	CheckFreeHint bool      // validate FreeSized hints against block headers
}

// SlabAllocator is a size-classed allocator carved out of a parent
// allocator. Requests are rounded up to a class and the class size is
// reported back, so callers see the true backing capacity. Requests above
// the largest class go straight to the parent. Per-class accounting is
// attributed to the requested size, never the rounded one, to keep the
// size distribution honest.
type SlabAllocator struct {
	config        SlabConfig
	classes       [len(sizeClasses)]slabClass
	largeReqs     uint64
	largeReqBytes uint64
	allocSize     uint64

	chunkMu sync.Mutex
	chunks  []unsafe.Pointer

	largeMu sync.Mutex
	large   map[unsafe.Pointer]struct{}
}

func NewSlabAllocator(config *SlabConfig) *SlabAllocator {
	s := new(SlabAllocator)
	s.large = make(map[unsafe.Pointer]struct{})
	if config != nil {
		s.config = *config
	}
	if s.config.Parent == nil {
		s.config.Parent = GetGoAllocator()
	}
	if s.config.ChunkSize == 0 {
		s.config.ChunkSize = defaultChunkSize
	}
	return s
}

// Destroy returns every chunk and every outstanding large block to the
// parent allocator. All blocks handed out by the slab are invalid
// afterwards.
func (s *SlabAllocator) Destroy() {
	s.chunkMu.Lock()
	chunks := s.chunks
	s.chunks = nil
	s.chunkMu.Unlock()
	for _, chunk := range chunks {
		s.config.Parent.Free(chunk)
	}
	s.largeMu.Lock()
	large := s.large
	s.large = make(map[unsafe.Pointer]struct{})
	s.largeMu.Unlock()
	for raw := range large {
		s.config.Parent.Free(raw)
	}
	for i := range s.classes {
		cl := &s.classes[i]
		cl.mu.Lock()
		cl.freeList = nil
		cl.mu.Unlock()
	}
	atomic.StoreUint64(&s.allocSize, 0)
}

func (s *SlabAllocator) header(p unsafe.Pointer) *slabHeader {
	return (*slabHeader)(Offset(p, -int64(slabHeaderSize)))
}

func (s *SlabAllocator) refill(class int) bool {
	classSize := sizeClasses[class]
	stride := slabHeaderSize + classSize
	count := s.config.ChunkSize / stride
	if count == 0 {
		count = 1
	}
	chunk := s.config.Parent.Malloc(count * stride)
	if chunk == nil {
		return false
	}
	s.chunkMu.Lock()
	s.chunks = append(s.chunks, chunk)
	s.chunkMu.Unlock()
	cl := &s.classes[class]
	for i := uint64(0); i < count; i++ {
		h := (*slabHeader)(Offset(chunk, int64(i*stride)))
		*h = 0
		h.setClass(class)
		h.setFree(true)
		p := Offset(unsafe.Pointer(h), int64(slabHeaderSize))
		*(*unsafe.Pointer)(p) = cl.freeList
		cl.freeList = p
	}
	return true
}

// sizedAlloc hands out one block of the class fitting size. The header
// remembers the class and the requested size. No accounting happens here:
// every public entry point records its own caller-requested size.
func (s *SlabAllocator) sizedAlloc(size uint64, requested uint64) Result {
	class := sizeToClass(size)
	if class < 0 {
		return s.largeAlloc(size, requested)
	}
	cl := &s.classes[class]
	cl.mu.Lock()
	if cl.freeList == nil {
		if !s.refill(class) {
			cl.mu.Unlock()
			return Result{}
		}
	}
	p := cl.freeList
	cl.freeList = *(*unsafe.Pointer)(p)
	cl.mu.Unlock()
	h := s.header(p)
	h.setFree(false)
	h.setRequested(requested)
	atomic.AddInt64(&cl.inUse, 1)
	atomic.AddUint64(&s.allocSize, slabHeaderSize+sizeClasses[class])
	return Result{Ptr: p, Size: sizeClasses[class]}
}

// largeAlloc serves requests past the largest class straight from the
// parent. The payload is preceded by the actual size and then the usual
// header, so Free can find its way back without a class table entry.
func (s *SlabAllocator) largeAlloc(size uint64, requested uint64) Result {
	actual := alignUp(size, 8)
	raw := s.config.Parent.Malloc(2*slabHeaderSize + actual)
	if raw == nil {
		return Result{}
	}
	*(*uint64)(raw) = actual
	h := (*slabHeader)(Offset(raw, int64(slabHeaderSize)))
	*h = 0
	h.setClass(largeClass)
	h.setFree(false)
	h.setRequested(requested)
	s.largeMu.Lock()
	s.large[raw] = struct{}{}
	s.largeMu.Unlock()
	atomic.AddUint64(&s.allocSize, 2*slabHeaderSize+actual)
	return Result{Ptr: Offset(raw, int64(2*slabHeaderSize)), Size: actual}
}

func largeActual(p unsafe.Pointer) uint64 {
	return *(*uint64)(Offset(p, -int64(2*slabHeaderSize)))
}

func (s *SlabAllocator) record(size uint64) {
	class := sizeToClass(size)
	if class < 0 {
		atomic.AddUint64(&s.largeReqs, 1)
		atomic.AddUint64(&s.largeReqBytes, size)
		return
	}
	cl := &s.classes[class]
	atomic.AddUint64(&cl.requests, 1)
	atomic.AddUint64(&cl.reqBytes, size)
}

func (s *SlabAllocator) MallocSized(size uint64) Result {
	return mustSized(s.MallocSizedNoThrow(size))
}

func (s *SlabAllocator) MallocSizedNoThrow(size uint64) Result {
	r := s.sizedAlloc(size, size)
	if r.Ok() {
		s.record(size)
	}
	return r
}

func (s *SlabAllocator) MallocArraySized(size uint64) Result {
	return mustSized(s.MallocArraySizedNoThrow(size))
}

func (s *SlabAllocator) MallocArraySizedNoThrow(size uint64) Result {
	return s.MallocSizedNoThrow(size)
}

func (s *SlabAllocator) AlignedMallocSized(size uint64, align uint64) Result {
	return mustSized(s.AlignedMallocSizedNoThrow(size, align))
}

func (s *SlabAllocator) AlignedMallocSizedNoThrow(size uint64, align uint64) Result {
	if align == 0 {
		align = CACHE_LINE_SIZE
	}
	if align&(align-1) != 0 {
		return Result{}
	}
	total := size + align - 1 + SizeOf[uintptr]()
	r := s.sizedAlloc(total, size)
	if !r.Ok() {
		return Result{}
	}
	rawAddr := uintptr(r.Ptr)
	alignedAddr := rawAddr + uintptr(SizeOf[uintptr]())
	alignedAddr = (alignedAddr + uintptr(align) - 1) & ^(uintptr(align) - 1)
	*(*uintptr)(unsafe.Pointer(alignedAddr - uintptr(SizeOf[uintptr]()))) = rawAddr
	usable := uint64(rawAddr) + r.Size - uint64(alignedAddr)
	s.record(size)
	return Result{Ptr: unsafe.Pointer(alignedAddr), Size: usable}
}

func (s *SlabAllocator) AlignedMallocArraySized(size uint64, align uint64) Result {
	return mustSized(s.AlignedMallocArraySizedNoThrow(size, align))
}

func (s *SlabAllocator) AlignedMallocArraySizedNoThrow(size uint64, align uint64) Result {
	return s.AlignedMallocSizedNoThrow(size, align)
}

func (s *SlabAllocator) Malloc(size uint64) unsafe.Pointer {
	return s.MallocSizedNoThrow(size).Ptr
}

func (s *SlabAllocator) Free(p unsafe.Pointer) bool {
	if p == nil {
		return false
	}
	h := s.header(p)
	if h.getFree() {
		return false
	}
	class := h.getClass()
	if class == largeClass {
		actual := largeActual(p)
		h.setFree(true)
		raw := Offset(p, -int64(2*slabHeaderSize))
		s.largeMu.Lock()
		delete(s.large, raw)
		s.largeMu.Unlock()
		atomic.AddUint64(&s.allocSize, ^(2*slabHeaderSize + actual - 1))
		return s.config.Parent.Free(raw)
	}
	cl := &s.classes[class]
	h.setFree(true)
	cl.mu.Lock()
	*(*unsafe.Pointer)(p) = cl.freeList
	cl.freeList = p
	cl.mu.Unlock()
	atomic.AddInt64(&cl.inUse, -1)
	atomic.AddUint64(&s.allocSize, ^(slabHeaderSize + sizeClasses[class] - 1))
	return true
}

func (s *SlabAllocator) AlignedMalloc(size uint64, align uint64) unsafe.Pointer {
	return s.AlignedMallocSizedNoThrow(size, align).Ptr
}

func (s *SlabAllocator) AlignedFree(p unsafe.Pointer) bool {
	if p == nil {
		return false
	}
	return s.Free(alignedRaw(p))
}

func (s *SlabAllocator) FreeSized(p unsafe.Pointer, hint uint64) bool {
	if p == nil {
		return false
	}
	if s.config.CheckFreeHint && !s.hintValid(p, hint) {
		return false
	}
	return s.Free(p)
}

func (s *SlabAllocator) AlignedFreeSized(p unsafe.Pointer, hint uint64) bool {
	if p == nil {
		return false
	}
	raw := alignedRaw(p)
	if s.config.CheckFreeHint && !s.hintValid(raw, hint) {
		return false
	}
	return s.Free(raw)
}

// hintValid checks a release hint against the closed interval
// [requested, actual] recorded with the block. The contract leaves
// out-of-range hints undefined; this is the opt-in debug check.
func (s *SlabAllocator) hintValid(p unsafe.Pointer, hint uint64) bool {
	h := s.header(p)
	requested := h.getRequested()
	var actual uint64
	if class := h.getClass(); class == largeClass {
		actual = largeActual(p)
	} else {
		actual = sizeClasses[class]
	}
	return hint >= requested && hint <= actual
}

func (s *SlabAllocator) GetAllocSize() uint64 {
	return atomic.LoadUint64(&s.allocSize)
}

type SlabClassStats struct {
	Size     uint64
	Requests uint64
	ReqBytes uint64
	InUse    int64
}

type SlabStats struct {
	Classes       []SlabClassStats
	LargeRequests uint64
	LargeReqBytes uint64
}

func (s *SlabAllocator) Stats() SlabStats {
	stats := SlabStats{
		Classes:       make([]SlabClassStats, len(sizeClasses)),
		LargeRequests: atomic.LoadUint64(&s.largeReqs),
		LargeReqBytes: atomic.LoadUint64(&s.largeReqBytes),
	}
	for i := range s.classes {
		cl := &s.classes[i]
		stats.Classes[i] = SlabClassStats{
			Size:     sizeClasses[i],
			Requests: atomic.LoadUint64(&cl.requests),
			ReqBytes: atomic.LoadUint64(&cl.reqBytes),
			InUse:    atomic.LoadInt64(&cl.inUse),
		}
	}
	return stats
}

func (s *SlabAllocator) DumpStats(w io.Writer) {
	stats := s.Stats()
	for _, cl := range stats.Classes {
		if cl.Requests == 0 && cl.InUse == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "[slab] class:%d requests:%d reqBytes:%d inUse:%d\n", cl.Size, cl.Requests, cl.ReqBytes, cl.InUse)
	}
	if stats.LargeRequests != 0 {
		_, _ = fmt.Fprintf(w, "[slab] class:large requests:%d reqBytes:%d\n", stats.LargeRequests, stats.LargeReqBytes)
	}
}
