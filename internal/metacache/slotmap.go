package metacache

// slotMap is a dense, generation-checked slot allocator: O(1) insert and
// remove, stable handles until the slot is removed, no pointer churn on
// growth. This is the Go shape of the Rust `slotmap` crate the original
// service used for `CachedItem` storage (spec §4.4).
type slotMap[T any] struct {
	items       []T
	generations []uint32
	occupied    []bool
	freeList    []uint32
}

type slotKey struct {
	index      uint32
	generation uint32
}

func newSlotMap[T any]() *slotMap[T] {
	return &slotMap[T]{}
}

func (s *slotMap[T]) insert(v T) slotKey {
	if n := len(s.freeList); n > 0 {
		idx := s.freeList[n-1]
		s.freeList = s.freeList[:n-1]
		s.items[idx] = v
		s.occupied[idx] = true
		return slotKey{index: idx, generation: s.generations[idx]}
	}
	idx := uint32(len(s.items))
	s.items = append(s.items, v)
	s.generations = append(s.generations, 0)
	s.occupied = append(s.occupied, true)
	return slotKey{index: idx, generation: 0}
}

func (s *slotMap[T]) get(k slotKey) (*T, bool) {
	if int(k.index) >= len(s.items) || !s.occupied[k.index] || s.generations[k.index] != k.generation {
		return nil, false
	}
	return &s.items[k.index], true
}

func (s *slotMap[T]) remove(k slotKey) bool {
	if int(k.index) >= len(s.items) || !s.occupied[k.index] || s.generations[k.index] != k.generation {
		return false
	}
	var zero T
	s.items[k.index] = zero
	s.occupied[k.index] = false
	s.generations[k.index]++
	s.freeList = append(s.freeList, k.index)
	return true
}

func (s *slotMap[T]) clear() {
	s.items = s.items[:0]
	s.generations = s.generations[:0]
	s.occupied = s.occupied[:0]
	s.freeList = s.freeList[:0]
}

func (s *slotMap[T]) len() int {
	n := 0
	for _, occ := range s.occupied {
		if occ {
			n++
		}
	}
	return n
}
