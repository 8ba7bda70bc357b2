package list

import (
	"encoding/json"
	"unsafe"

	"github.com/ckennelly/sizedalloc/mem"
)

const (
	initCap = 8
)

// ArrayList is a growable array whose backing store is obtained through
// the size-returning allocation path. Capacity comes from the byte count
// the allocator reports back, so bucket slack turns into usable elements
// and growth is deferred until the harvested capacity is really full.
type ArrayList[T any] struct {
	data      *T
	len       int
	cap       int
	reqElems  int
	allocator mem.SizedAllocator
}

func NewArrayList[T any](allocator mem.SizedAllocator) *ArrayList[T] {
	return NewArrayListWithCap[T](allocator, initCap)
}

func NewArrayListWithCap[T any](allocator mem.SizedAllocator, cap int) *ArrayList[T] {
	if cap < initCap {
		cap = initCap
	}
	a, _ := mem.NewSized[ArrayList[T]](allocator)
	data, n := mem.NewArraySized[T](allocator, uint64(cap))
	a.data = data
	a.len = 0
	a.cap = harvestedElems[T](n, cap)
	a.reqElems = cap
	a.allocator = allocator
	return a
}

// harvestedElems converts a reported byte count back to element capacity.
// Zero-sized elements gain nothing from backing slack, so the requested
// count stands.
func harvestedElems[T any](n uint64, requested int) int {
	elemSize := mem.SizeOf[T]()
	if elemSize == 0 {
		return requested
	}
	return int(n / elemSize)
}

func (a *ArrayList[T]) Len() int {
	return a.len
}

// Cap reports the harvested element capacity, at least what was
// requested.
func (a *ArrayList[T]) Cap() int {
	return a.cap
}

func (a *ArrayList[T]) Add(value T) {
	if a.len >= a.cap {
		a.grow()
	}
	p := mem.OffsetType[T](a.data, int64(a.len))
	*p = value
	a.len++
}

func (a *ArrayList[T]) grow() {
	newCap := a.cap * 2
	data, n := mem.NewArraySized[T](a.allocator, uint64(newCap))
	mem.MemCpyType[T](data, a.data, uint64(a.len))
	mem.DeleteArraySized(a.allocator, a.data, uint64(a.reqElems)*mem.SizeOf[T]())
	a.data = data
	a.cap = harvestedElems[T](n, newCap)
	a.reqElems = newCap
}

func (a *ArrayList[T]) Set(index int, value T) {
	if index >= a.len {
		return
	}
	p := mem.OffsetType[T](a.data, int64(index))
	*p = value
}

func (a *ArrayList[T]) Get(index int) T {
	if index >= a.len {
		var t T
		return t
	}
	p := mem.OffsetType[T](a.data, int64(index))
	return *p
}

func (a *ArrayList[T]) For(fn func(index int, value T) (next bool)) {
	for index := 0; index < a.len; index++ {
		value := a.Get(index)
		next := fn(index, value)
		if !next {
			return
		}
	}
}

func (a *ArrayList[T]) Free() {
	allocator := a.allocator
	mem.DeleteArraySized(allocator, a.data, uint64(a.reqElems)*mem.SizeOf[T]())
	allocator.FreeSized(unsafe.Pointer(a), mem.SizeOf[ArrayList[T]]())
}

func (a *ArrayList[T]) MarshalJSON() ([]byte, error) {
	aa := make([]T, a.Len())
	a.For(func(index int, value T) (next bool) {
		aa[index] = value
		return true
	})
	data, err := json.Marshal(aa)
	return data, err
}

func (a *ArrayList[T]) UnmarshalJSON(data []byte) error {
	aa := make([]T, 0, initCap)
	err := json.Unmarshal(data, &aa)
	if err != nil {
		return err
	}
	for _, v := range aa {
		a.Add(v)
	}
	return nil
}
