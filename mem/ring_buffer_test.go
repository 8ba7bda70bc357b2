package mem

import (
	"testing"
)

func TestRingBuffer(t *testing.T) {
	slab := NewSlabAllocator(nil)
	defer slab.Destroy()

	rb := RingBufferCreate(slab, 1024)
	if rb == nil {
		t.Fatal("create fail")
	}
	if rb.Cap() < 1024 || rb.Cap()&(rb.Cap()-1) != 0 {
		t.Fatal("capacity must be a power of two at least the request")
	}

	in := make([]uint8, 256)
	out := make([]uint8, 256)
	for round := 0; round < 1000; round++ {
		length := uint16(round%200 + 1)
		for i := uint16(0); i < length; i++ {
			in[i] = uint8(round + int(i))
		}
		if !rb.WritePacket(in, length) {
			t.Fatal("write fail")
		}
		var got uint16
		if !rb.ReadPacket(out, &got) {
			t.Fatal("read fail")
		}
		if got != length {
			t.Fatal("length mismatch")
		}
		for i := uint16(0); i < length; i++ {
			if out[i] != in[i] {
				t.Fatal("payload mismatch")
			}
		}
	}
	RingBufferDestroy(rb)
}

func TestRingBufferRejectsBadSize(t *testing.T) {
	slab := NewSlabAllocator(nil)
	defer slab.Destroy()

	if RingBufferCreate(slab, 0) != nil {
		t.Fatal("zero size")
	}
	if RingBufferCreate(slab, 1000) != nil {
		t.Fatal("non power of two")
	}
}

func TestRingBufferHarvestsPageCapacity(t *testing.T) {
	page := NewPageAllocator()
	rb := RingBufferCreate(page, 1024)
	if rb == nil {
		t.Fatal("create fail")
	}
	if rb.Cap() < 1024 {
		t.Fatal("capacity below request")
	}
	RingBufferDestroy(rb)
	if page.GetAllocSize() != 0 {
		t.Fatal("destroy must release the backing store")
	}
}

type vastSizedAllocator struct {
	SizedAllocator
}

func (v vastSizedAllocator) MallocArraySizedNoThrow(size uint64) Result {
	r := v.SizedAllocator.MallocArraySizedNoThrow(size)
	r.Size = 1 << 33
	return r
}

func TestRingBufferCapacityClamp(t *testing.T) {
	sized := vastSizedAllocator{SizedAllocator: Sized(GetGoAllocator())}
	rb := RingBufferCreate(sized, 1024)
	if rb == nil {
		t.Fatal("create fail")
	}
	if rb.Cap() != 1<<31 {
		t.Fatalf("capacity %d must clamp to 1<<31", rb.Cap())
	}
	if rb.mask != 1<<31-1 {
		t.Fatal("mask must match the clamped capacity")
	}
	RingBufferDestroy(rb)
}

func TestRingBufferFull(t *testing.T) {
	sized := Sized(GetGoAllocator())
	rb := RingBufferCreate(sized, 16)
	if rb == nil {
		t.Fatal("create fail")
	}
	payload := []uint8{1, 2, 3, 4}
	if !rb.WritePacket(payload, 4) {
		t.Fatal("first write")
	}
	if !rb.WritePacket(payload, 4) {
		t.Fatal("second write")
	}
	if rb.WritePacket(payload, 4) {
		t.Fatal("ring should be full")
	}
	RingBufferDestroy(rb)
}
