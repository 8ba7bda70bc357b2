package mem

import (
	"testing"
	"unsafe"
)

type elem8 [8]byte

func TestNewSizedScalar(t *testing.T) {
	slab := NewSlabAllocator(nil)
	defer slab.Destroy()

	type header struct {
		a uint64
		b uint64
		c uint32
	}
	h, n := NewSized[header](slab)
	if h == nil || n < SizeOf[header]() {
		t.Fatal("bad result")
	}
	if h.a != 0 || h.b != 0 || h.c != 0 {
		t.Fatal("object must be zero initialized")
	}
	if !DeleteSized(slab, h, SizeOf[header]()) {
		t.Fatal("delete fail")
	}
}

func TestNewArraySizedCapacity(t *testing.T) {
	slab := NewSlabAllocator(nil)
	defer slab.Destroy()

	// 10 elements of 8 bytes land exactly on the 80 class: no slack.
	first, n := NewArraySized[elem8](slab, 10)
	if n != 80 {
		t.Fatalf("expected exact 80-byte backing, got %d", n)
	}
	DeleteArraySized(slab, first, 80)

	// Same with wider elements: 5 of 16 bytes hit 80 exactly as well.
	wide, n := NewArraySized[[16]byte](slab, 5)
	if n != 80 {
		t.Fatalf("expected exact 80-byte backing, got %d", n)
	}
	DeleteArraySized(slab, wide, 80)

	// 11 elements (88 bytes) round up to 96: one extra element of space,
	// raw until the caller constructs it.
	first, n = NewArraySized[elem8](slab, 11)
	if n != 96 {
		t.Fatalf("expected 96-byte backing, got %d", n)
	}
	if n/SizeOf[elem8]() != 12 {
		t.Fatal("capacity must fit 12 elements")
	}
	extra := PlacementNew[elem8](first, 11)
	for _, b := range *extra {
		if b != 0 {
			t.Fatal("placement-new slot not cleared")
		}
	}
	if !DeleteArraySized(slab, first, 88) {
		t.Fatal("delete with requested-size hint fail")
	}
}

func TestNewArraySizedInitializesRequestedOnly(t *testing.T) {
	slab := NewSlabAllocator(nil)
	defer slab.Destroy()

	// Dirty a 96-byte block, free it, then take it back as an array of
	// 11 elements. Only the requested 88 bytes may be cleared.
	r := slab.MallocSized(96)
	b := r.Bytes()
	for i := range b {
		b[i] = 0xFF
	}
	slab.FreeSized(r.Ptr, 96)

	first, n := NewArraySized[elem8](slab, 11)
	if unsafe.Pointer(first) != r.Ptr || n != 96 {
		t.Fatal("expected the dirty block back")
	}
	for i := int64(0); i < 11; i++ {
		for _, v := range *OffsetType[elem8](first, i) {
			if v != 0 {
				t.Fatal("requested elements must be zeroed")
			}
		}
	}
	tail := (*elem8)(Offset(unsafe.Pointer(first), 88))
	for _, v := range *tail {
		if v != 0xFF {
			t.Fatal("capacity past the request must stay raw")
		}
	}
	DeleteArraySized(slab, first, 96)
}

func TestNewArraySizedNoThrowFailure(t *testing.T) {
	sized := Sized(failAllocator{})
	first, n := NewArraySizedNoThrow[elem8](sized, 4)
	if first != nil || n != 0 {
		t.Fatal("expected nil sentinel")
	}
	p, n := NewSizedNoThrow[uint64](sized)
	if p != nil || n != 0 {
		t.Fatal("expected nil sentinel")
	}
}
