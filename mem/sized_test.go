package mem

import (
	"testing"
	"unsafe"
)

type failAllocator struct{}

func (failAllocator) Malloc(size uint64) unsafe.Pointer { return nil }

func (failAllocator) Free(p unsafe.Pointer) bool { return false }

func (failAllocator) AlignedMalloc(size uint64, align uint64) unsafe.Pointer { return nil }

func (failAllocator) AlignedFree(p unsafe.Pointer) bool { return false }

func (failAllocator) GetAllocSize() uint64 { return 0 }

func TestSizedAdapterTrivial(t *testing.T) {
	sized := Sized(GetGoAllocator())
	for _, requested := range []uint64{1, 8, 37, 100, 4097} {
		r := sized.MallocSized(requested)
		if !r.Ok() {
			t.Fatal("malloc fail")
		}
		if r.Size != requested {
			t.Fatalf("trivial adapter must report the requested size, got %d for %d", r.Size, requested)
		}
		b := r.Bytes()
		for i := range b {
			b[i] = 0x5A
		}
		if !sized.FreeSized(r.Ptr, requested) {
			t.Fatal("free fail")
		}
	}
}

func TestSizedAdapterEntryPoints(t *testing.T) {
	sized := Sized(GetGoAllocator())

	r := sized.MallocArraySized(37)
	if !r.Ok() || r.Size != 37 {
		t.Fatal("array")
	}
	sized.FreeSized(r.Ptr, 37)

	r = sized.MallocSizedNoThrow(37)
	if !r.Ok() || r.Size != 37 {
		t.Fatal("no-throw scalar")
	}
	sized.FreeSized(r.Ptr, 37)

	r = sized.MallocArraySizedNoThrow(37)
	if !r.Ok() || r.Size != 37 {
		t.Fatal("no-throw array")
	}
	sized.FreeSized(r.Ptr, 37)

	r = sized.AlignedMallocSized(100, 64)
	if !r.Ok() || r.Size != 100 || uintptr(r.Ptr)%64 != 0 {
		t.Fatal("aligned scalar")
	}
	sized.AlignedFreeSized(r.Ptr, 100)

	r = sized.AlignedMallocArraySized(100, 64)
	if !r.Ok() || r.Size != 100 || uintptr(r.Ptr)%64 != 0 {
		t.Fatal("aligned array")
	}
	sized.AlignedFreeSized(r.Ptr, 100)

	r = sized.AlignedMallocSizedNoThrow(100, 64)
	if !r.Ok() || uintptr(r.Ptr)%64 != 0 {
		t.Fatal("aligned no-throw scalar")
	}
	sized.AlignedFreeSized(r.Ptr, 100)

	r = sized.AlignedMallocArraySizedNoThrow(100, 64)
	if !r.Ok() || uintptr(r.Ptr)%64 != 0 {
		t.Fatal("aligned no-throw array")
	}
	sized.AlignedFreeSized(r.Ptr, 100)
}

func TestSizedAdapterNoThrowFailure(t *testing.T) {
	sized := Sized(failAllocator{})
	r := sized.MallocSizedNoThrow(64)
	if r.Ok() || r.Ptr != nil || r.Size != 0 {
		t.Fatal("no-throw failure must be the (nil, 0) sentinel")
	}
	r = sized.MallocArraySizedNoThrow(64)
	if r.Ptr != nil || r.Size != 0 {
		t.Fatal("array sentinel")
	}
	r = sized.AlignedMallocSizedNoThrow(64, 64)
	if r.Ptr != nil || r.Size != 0 {
		t.Fatal("aligned sentinel")
	}
	r = sized.AlignedMallocArraySizedNoThrow(64, 64)
	if r.Ptr != nil || r.Size != 0 {
		t.Fatal("aligned array sentinel")
	}
}

func TestSizedAdapterThrowFailure(t *testing.T) {
	sized := Sized(failAllocator{})
	defer func() {
		if recover() != ErrOutOfMemory {
			t.Fatal("expected ErrOutOfMemory panic")
		}
	}()
	sized.MallocSized(64)
}

func TestSizedPassthrough(t *testing.T) {
	slab := NewSlabAllocator(nil)
	defer slab.Destroy()
	if Sized(slab) != SizedAllocator(slab) {
		t.Fatal("Sized must return an allocator that already implements the contract unchanged")
	}
}
