// Package handle provides a small generation-counted handle table. It
// maps opaque integer handles to values so callers that cannot hold Go
// pointers (foreign bindings, wire protocols) can still address live
// objects. Slots are reused after deletion, but the generation count
// embedded in each handle makes stale handles fail lookup instead of
// silently resolving to a newer occupant.
package handle

import (
	"fmt"
	"sync"
)

// Handle identifies an entry in a Table. The zero Handle is never valid.
type Handle uint64

const (
	indexBits = 32
	indexMask = (1 << indexBits) - 1
)

func makeHandle(index uint32, gen uint32) Handle {
	return Handle(uint64(gen)<<indexBits | uint64(index))
}

func (h Handle) index() uint32 { return uint32(uint64(h) & indexMask) }
func (h Handle) gen() uint32   { return uint32(uint64(h) >> indexBits) }

func (h Handle) String() string {
	return fmt.Sprintf("handle(%d:%d)", h.index(), h.gen())
}

type slot[T any] struct {
	value T
	gen   uint32
	live  bool
}

// Table is a growable handle table. It is safe for concurrent use.
type Table[T any] struct {
	mu    sync.RWMutex
	slots []slot[T]
	free  []uint32
}

// New returns an empty table.
func New[T any]() *Table[T] {
	// Slot 0 is burned so the zero Handle never resolves.
	return &Table[T]{slots: make([]slot[T], 1)}
}

// Put stores v and returns its handle.
func (t *Table[T]) Put(v T) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	var idx uint32
	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		idx = uint32(len(t.slots))
		t.slots = append(t.slots, slot[T]{})
	}
	s := &t.slots[idx]
	s.value = v
	s.live = true
	return makeHandle(idx, s.gen)
}

// Get resolves h. The second result is false if h was never issued or
// has been deleted, including when the slot has since been reissued.
func (t *Table[T]) Get(h Handle) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := h.index()
	if idx == 0 || int(idx) >= len(t.slots) {
		var zero T
		return zero, false
	}
	s := &t.slots[idx]
	if !s.live || s.gen != h.gen() {
		var zero T
		return zero, false
	}
	return s.value, true
}

// Delete releases h and returns whether it was live. The slot becomes
// available for reuse under a new generation.
func (t *Table[T]) Delete(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	idx := h.index()
	if idx == 0 || int(idx) >= len(t.slots) {
		return false
	}
	s := &t.slots[idx]
	if !s.live || s.gen != h.gen() {
		return false
	}
	var zero T
	s.value = zero
	s.live = false
	s.gen++
	t.free = append(t.free, idx)
	return true
}

// Len reports the number of live entries.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for i := 1; i < len(t.slots); i++ {
		if t.slots[i].live {
			n++
		}
	}
	return n
}

// Each calls fn for every live entry. The table is locked for the
// duration, so fn must not call back into it.
func (t *Table[T]) Each(fn func(Handle, T)) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for i := 1; i < len(t.slots); i++ {
		s := &t.slots[i]
		if s.live {
			fn(makeHandle(uint32(i), s.gen), s.value)
		}
	}
}
