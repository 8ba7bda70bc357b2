package hashmap

import (
	"encoding/json"
	"unsafe"

	"github.com/ckennelly/sizedalloc/mem"
)

const (
	initSlotCount = 8
	growLoad      = 0.75
)

const (
	slotEmpty = uint8(iota)
	slotUsed
	slotDeleted
)

type MapKey interface {
	comparable
	GetHashCode() uint64
}

type slot[K MapKey, V any] struct {
	key   K
	value V
	state uint8
}

// HashMap is an open-addressing map over a slot array obtained through
// the size-returning allocation path. The slot count comes from the byte
// count the allocator reports back, so bucket slack lowers the effective
// load factor for free.
type HashMap[K MapKey, V any] struct {
	slots     *slot[K, V]
	slotCount int
	reqSlots  int
	len       int
	used      int
	allocator mem.SizedAllocator
}

func NewHashMap[K MapKey, V any](allocator mem.SizedAllocator) *HashMap[K, V] {
	return NewHashMapWithCap[K, V](allocator, initSlotCount)
}

func NewHashMapWithCap[K MapKey, V any](allocator mem.SizedAllocator, cap int) *HashMap[K, V] {
	if cap < initSlotCount {
		cap = initSlotCount
	}
	m, _ := mem.NewSized[HashMap[K, V]](allocator)
	m.slots, m.slotCount = allocSlots[K, V](allocator, cap)
	m.reqSlots = cap
	m.len = 0
	m.used = 0
	m.allocator = allocator
	return m
}

func allocSlots[K MapKey, V any](allocator mem.SizedAllocator, count int) (*slot[K, V], int) {
	first, n := mem.NewArraySized[slot[K, V]](allocator, uint64(count))
	return first, int(n / mem.SizeOf[slot[K, V]]())
}

func (m *HashMap[K, V]) slotAt(index int) *slot[K, V] {
	return mem.OffsetType[slot[K, V]](m.slots, int64(index))
}

func (m *HashMap[K, V]) Len() int {
	return m.len
}

// SlotCount reports the harvested slot capacity.
func (m *HashMap[K, V]) SlotCount() int {
	return m.slotCount
}

func (m *HashMap[K, V]) Get(key K) (V, bool) {
	index := int(key.GetHashCode() % uint64(m.slotCount))
	for probe := 0; probe < m.slotCount; probe++ {
		s := m.slotAt(index)
		switch s.state {
		case slotEmpty:
			var v V
			return v, false
		case slotUsed:
			if s.key == key {
				return s.value, true
			}
		}
		index++
		if index == m.slotCount {
			index = 0
		}
	}
	var v V
	return v, false
}

func (m *HashMap[K, V]) Set(key K, value V) {
	if float64(m.used+1) > float64(m.slotCount)*growLoad {
		m.grow()
	}
	index := int(key.GetHashCode() % uint64(m.slotCount))
	var free *slot[K, V]
	for probe := 0; probe < m.slotCount; probe++ {
		s := m.slotAt(index)
		switch s.state {
		case slotEmpty:
			if free == nil {
				free = s
				m.used++
			}
			free.key = key
			free.value = value
			free.state = slotUsed
			m.len++
			return
		case slotDeleted:
			if free == nil {
				free = s
			}
		case slotUsed:
			if s.key == key {
				s.value = value
				return
			}
		}
		index++
		if index == m.slotCount {
			index = 0
		}
	}
	if free != nil {
		free.key = key
		free.value = value
		free.state = slotUsed
		m.len++
	}
}

func (m *HashMap[K, V]) Delete(key K) bool {
	index := int(key.GetHashCode() % uint64(m.slotCount))
	for probe := 0; probe < m.slotCount; probe++ {
		s := m.slotAt(index)
		switch s.state {
		case slotEmpty:
			return false
		case slotUsed:
			if s.key == key {
				var zeroK K
				var zeroV V
				s.key = zeroK
				s.value = zeroV
				s.state = slotDeleted
				m.len--
				return true
			}
		}
		index++
		if index == m.slotCount {
			index = 0
		}
	}
	return false
}

func (m *HashMap[K, V]) grow() {
	oldSlots := m.slots
	oldCount := m.slotCount
	oldReq := m.reqSlots

	newReq := m.slotCount * 2
	m.slots, m.slotCount = allocSlots[K, V](m.allocator, newReq)
	m.reqSlots = newReq
	m.len = 0
	m.used = 0
	for i := 0; i < oldCount; i++ {
		s := mem.OffsetType[slot[K, V]](oldSlots, int64(i))
		if s.state == slotUsed {
			m.Set(s.key, s.value)
		}
	}
	mem.DeleteArraySized(m.allocator, oldSlots, uint64(oldReq)*mem.SizeOf[slot[K, V]]())
}

func (m *HashMap[K, V]) For(fn func(key K, value V) (next bool)) {
	for i := 0; i < m.slotCount; i++ {
		s := m.slotAt(i)
		if s.state != slotUsed {
			continue
		}
		if !fn(s.key, s.value) {
			return
		}
	}
}

func (m *HashMap[K, V]) Free() {
	allocator := m.allocator
	mem.DeleteArraySized(allocator, m.slots, uint64(m.reqSlots)*mem.SizeOf[slot[K, V]]())
	allocator.FreeSized(unsafe.Pointer(m), mem.SizeOf[HashMap[K, V]]())
}

type mapEntry[K MapKey, V any] struct {
	Key   K `json:"key"`
	Value V `json:"value"`
}

func (m *HashMap[K, V]) MarshalJSON() ([]byte, error) {
	entries := make([]mapEntry[K, V], 0, m.len)
	m.For(func(key K, value V) (next bool) {
		entries = append(entries, mapEntry[K, V]{Key: key, Value: value})
		return true
	})
	return json.Marshal(entries)
}

func (m *HashMap[K, V]) UnmarshalJSON(data []byte) error {
	entries := make([]mapEntry[K, V], 0)
	err := json.Unmarshal(data, &entries)
	if err != nil {
		return err
	}
	for _, e := range entries {
		m.Set(e.Key, e.Value)
	}
	return nil
}
