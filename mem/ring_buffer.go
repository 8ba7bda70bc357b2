package mem

import (
	"math/bits"
	"sync/atomic"
	"unsafe"
)

// RingBuffer is a single-producer single-consumer byte-packet ring whose
// backing store comes from a size-returning allocation. The usable
// capacity is the largest power of two fitting the reported backing size,
// so bucket slack above the request becomes ring capacity instead of
// waste.
type RingBuffer struct {
	head      uint64
	_         [56]byte
	tail      uint64
	size      uint32
	mask      uint32
	buffer    unsafe.Pointer
	requested uint64
	allocator SizedAllocator
	_         [16]byte
}

func RingBufferCreate(allocator SizedAllocator, size uint32) *RingBuffer {
	if size == 0 || (size&(size-1)) != 0 {
		return nil
	}
	r := allocator.MallocArraySizedNoThrow(uint64(size))
	if !r.Ok() {
		return nil
	}
	capBits := bits.Len64(r.Size) - 1
	if capBits > 31 {
		capBits = 31
	}
	capacity := uint32(1) << capBits

	rb := new(RingBuffer)
	rb.head = 0
	rb.tail = 0
	rb.size = capacity
	rb.mask = capacity - 1
	rb.buffer = r.Ptr
	rb.requested = uint64(size)
	rb.allocator = allocator
	return rb
}

func RingBufferDestroy(rb *RingBuffer) {
	if rb == nil || rb.buffer == nil {
		return
	}
	rb.allocator.FreeSized(rb.buffer, rb.requested)
	rb.head = 0
	rb.tail = 0
	rb.size = 0
	rb.mask = 0
	rb.buffer = nil
	rb.allocator = nil
}

func (rb *RingBuffer) Cap() uint32 {
	return rb.size
}

func (rb *RingBuffer) freeSpace() uint32 {
	head := atomic.LoadUint64(&rb.head)
	tail := atomic.LoadUint64(&rb.tail)
	return rb.size - uint32(head-tail)
}

func (rb *RingBuffer) usedSpace() uint32 {
	head := atomic.LoadUint64(&rb.head)
	tail := atomic.LoadUint64(&rb.tail)
	return uint32(head - tail)
}

func (rb *RingBuffer) WritePacket(data []uint8, length uint16) bool {
	if length == 0 || uint32(length) > rb.size/2 {
		return false
	}

	totalSize := uint32(2 + length)
	totalSize = (totalSize + 3) & ^uint32(3)

	if rb.freeSpace() < totalSize {
		return false
	}

	head := atomic.LoadUint64(&rb.head)
	pos := uint32(head & uint64(rb.mask))

	*(*uint16)(Offset(rb.buffer, int64(pos))) = length

	dataPos := (pos + 2) & rb.mask
	spaceAfter := rb.size - dataPos

	if spaceAfter >= uint32(length) {
		MemCpy(Offset(rb.buffer, int64(dataPos)), unsafe.Pointer(&data[0]), uint64(length))
	} else {
		MemCpy(Offset(rb.buffer, int64(dataPos)), unsafe.Pointer(&data[0]), uint64(spaceAfter))
		MemCpy(rb.buffer, Offset(unsafe.Pointer(&data[0]), int64(spaceAfter)), uint64(uint32(length)-spaceAfter))
	}

	atomic.StoreUint64(&rb.head, head+uint64(totalSize))

	return true
}

func (rb *RingBuffer) ReadPacket(data []uint8, length *uint16) bool {
	if rb.usedSpace() < 2 {
		return false
	}

	tail := atomic.LoadUint64(&rb.tail)
	pos := uint32(tail & uint64(rb.mask))

	packetLen := *(*uint16)(Offset(rb.buffer, int64(pos)))

	if packetLen == 0 || uint32(packetLen) > rb.size/2 {
		return false
	}

	totalSize := uint32(2 + packetLen)
	totalSize = (totalSize + 3) & ^uint32(3)

	if rb.usedSpace() < totalSize {
		return false
	}

	dataPos := (pos + 2) & rb.mask
	spaceAfter := rb.size - dataPos

	if spaceAfter >= uint32(packetLen) {
		MemCpy(unsafe.Pointer(&data[0]), Offset(rb.buffer, int64(dataPos)), uint64(packetLen))
	} else {
		MemCpy(unsafe.Pointer(&data[0]), Offset(rb.buffer, int64(dataPos)), uint64(spaceAfter))
		MemCpy(Offset(unsafe.Pointer(&data[0]), int64(spaceAfter)), rb.buffer, uint64(uint32(packetLen)-spaceAfter))
	}

	*length = packetLen

	atomic.StoreUint64(&rb.tail, tail+uint64(totalSize))

	return true
}
