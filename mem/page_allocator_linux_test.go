//go:build linux
// +build linux

package mem

import (
	"testing"
	"unsafe"
)

func TestPageAllocatorSized(t *testing.T) {
	page := NewPageAllocator()

	r := page.MallocSized(100)
	if !r.Ok() {
		t.Fatal("malloc fail")
	}
	if r.Size != pageSize {
		t.Fatalf("expected page-rounded size %d, got %d", pageSize, r.Size)
	}
	if uintptr(r.Ptr)%pageSize != 0 {
		t.Fatal("mapping must be page aligned")
	}
	b := r.Bytes()
	for i := range b {
		b[i] = 0x7C
	}
	if page.GetAllocSize() != pageSize {
		t.Fatal("alloc size accounting")
	}
	if !page.FreeSized(r.Ptr, 100) {
		t.Fatal("free fail")
	}
	if page.GetAllocSize() != 0 {
		t.Fatal("alloc size must drop to zero")
	}
}

func TestPageAllocatorMultiPage(t *testing.T) {
	page := NewPageAllocator()
	r := page.MallocSized(3*pageSize + 1)
	if r.Size != 4*pageSize {
		t.Fatalf("expected 4 pages, got %d", r.Size)
	}
	if !page.FreeSized(r.Ptr, r.Size) {
		t.Fatal("free with actual-size hint fail")
	}
}

func TestPageAllocatorAlignment(t *testing.T) {
	page := NewPageAllocator()
	r := page.AlignedMallocSizedNoThrow(64, 4096)
	if !r.Ok() || uintptr(r.Ptr)%4096 != 0 {
		t.Fatal("page-aligned request")
	}
	page.AlignedFreeSized(r.Ptr, 64)
	if page.AlignedMallocSizedNoThrow(64, 8192).Ok() {
		t.Fatal("alignment above the page size is unsupported")
	}
}

func TestPageAllocatorUnknownFree(t *testing.T) {
	page := NewPageAllocator()
	var local int
	if page.Free(unsafe.Pointer(&local)) {
		t.Fatal("foreign pointer must not free")
	}
}
