package folio

import "sync/atomic"

var engineIDs atomic.Uint32

// handle addresses an arena slot. Generations start at 1, so the zero
// handle never resolves.
type handle struct {
	engine     uint32
	index      uint32
	generation uint32
}

// Document is an open document.
type Document struct{ h handle }

// Page is a loaded page.
type Page struct{ h handle }

// TextPage is the text layer of a page.
type TextPage struct{ h handle }

// Search is a search over a text page.
type Search struct{ h handle }

// IsZero reports whether d is the zero handle.
func (d Document) IsZero() bool { return d.h == handle{} }

// IsZero reports whether p is the zero handle.
func (p Page) IsZero() bool { return p.h == handle{} }

// IsZero reports whether tp is the zero handle.
func (tp TextPage) IsZero() bool { return tp.h == handle{} }

// IsZero reports whether s is the zero handle.
func (s Search) IsZero() bool { return s.h == handle{} }

type slot[T any] struct {
	value      T
	generation uint32
	live       bool
}

// arena stores values under generation-checked handles. Freed slots
// are reused with the next generation. It is not safe for concurrent
// use; the Engine serializes access.
type arena[T any] struct {
	engine uint32
	slots  []slot[T]
	free   []uint32
}

func (a *arena[T]) add(v T) handle {
	var i uint32
	if n := len(a.free); n > 0 {
		i = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		a.slots = append(a.slots, slot[T]{})
		i = uint32(len(a.slots) - 1)
	}
	s := &a.slots[i]
	s.generation++
	s.value = v
	s.live = true
	return handle{engine: a.engine, index: i, generation: s.generation}
}

func (a *arena[T]) get(h handle) (T, bool) {
	var zero T
	if h.engine != a.engine || int(h.index) >= len(a.slots) {
		return zero, false
	}
	s := &a.slots[h.index]
	if !s.live || s.generation != h.generation {
		return zero, false
	}
	return s.value, true
}

func (a *arena[T]) remove(h handle) (T, bool) {
	v, ok := a.get(h)
	if !ok {
		return v, false
	}
	s := &a.slots[h.index]
	var zero T
	s.value = zero
	s.live = false
	a.free = append(a.free, h.index)
	return v, true
}

// removeIf frees every live slot whose value matches.
func (a *arena[T]) removeIf(match func(T) bool) []T {
	var out []T
	for i := range a.slots {
		s := &a.slots[i]
		if s.live && match(s.value) {
			out = append(out, s.value)
			a.remove(handle{engine: a.engine, index: uint32(i), generation: s.generation})
		}
	}
	return out
}

func (a *arena[T]) live() int {
	return len(a.slots) - len(a.free)
}
