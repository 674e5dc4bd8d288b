package physics

import "strconv"

// BodyID identifies a body slot in the arena. The low 32 bits hold the slot
// index, the high 32 bits its generation.
type BodyID uint64

// ShapeID identifies a shape slot in the arena, packed like BodyID.
type ShapeID uint64

const slotBits = 32

func makeSlotID(index, gen uint32) uint64 {
	return uint64(gen)<<slotBits | uint64(index)
}

func slotIndex(id uint64) uint32 {
	return uint32(id)
}

func slotGeneration(id uint64) uint32 {
	return uint32(id >> slotBits)
}

func (id BodyID) String() string {
	return "body:" + strconv.FormatUint(uint64(slotIndex(uint64(id))), 10) + "v" + strconv.FormatUint(uint64(slotGeneration(uint64(id))), 10)
}

func (id ShapeID) String() string {
	return "shape:" + strconv.FormatUint(uint64(slotIndex(uint64(id))), 10) + "v" + strconv.FormatUint(uint64(slotGeneration(uint64(id))), 10)
}

// Valid reports whether the id was ever issued. It says nothing about liveness.
func (id BodyID) Valid() bool { return slotIndex(uint64(id)) > 0 }

// Valid reports whether the id was ever issued. It says nothing about liveness.
func (id ShapeID) Valid() bool { return slotIndex(uint64(id)) > 0 }

type slot[T any] struct {
	gen  uint32
	live bool
	val  T
}

// arena stores values in generation-counted slots. Freed slots are reused
// with a bumped generation, so an id for a removed value never matches the
// value that later takes its slot.
type arena[T any] struct {
	slots []slot[T]
	free  []uint32
	live  int
}

func (a *arena[T]) insert(v T) uint64 {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		// slot 0 is never handed out so the zero id stays invalid
		if len(a.slots) == 0 {
			a.slots = append(a.slots, slot[T]{})
		}
		a.slots = append(a.slots, slot[T]{})
		idx = uint32(len(a.slots) - 1)
	}
	s := &a.slots[idx]
	s.live = true
	s.val = v
	a.live++
	return makeSlotID(idx, s.gen)
}

func (a *arena[T]) get(id uint64) (*T, bool) {
	idx := slotIndex(id)
	if idx == 0 || int(idx) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[idx]
	if !s.live || s.gen != slotGeneration(id) {
		return nil, false
	}
	return &s.val, true
}

func (a *arena[T]) remove(id uint64) bool {
	if _, ok := a.get(id); !ok {
		return false
	}
	idx := slotIndex(id)
	s := &a.slots[idx]
	var zero T
	s.val = zero
	s.live = false
	s.gen++
	a.free = append(a.free, idx)
	a.live--
	return true
}

// each visits live slots in index order.
func (a *arena[T]) each(fn func(id uint64, v *T)) {
	for i := 1; i < len(a.slots); i++ {
		s := &a.slots[i]
		if !s.live {
			continue
		}
		fn(makeSlotID(uint32(i), s.gen), &s.val)
	}
}

func (a *arena[T]) len() int {
	return a.live
}
