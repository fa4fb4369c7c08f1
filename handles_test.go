package folio

import "testing"

func TestArena(t *testing.T) {
	var a arena[string]
	a.engine = 7

	h1 := a.add("one")
	h2 := a.add("two")
	if h1 == h2 {
		t.Fatal("expected distinct handles")
	}
	if v, ok := a.get(h1); !ok || v != "one" {
		t.Fatalf("expected one, got %q (%v)", v, ok)
	}

	if _, ok := a.remove(h1); !ok {
		t.Fatal("expected remove to succeed")
	}
	if _, ok := a.get(h1); ok {
		t.Error("expected removed handle to be stale")
	}
	if _, ok := a.remove(h1); ok {
		t.Error("expected second remove to fail")
	}

	h3 := a.add("three")
	if h3.index != h1.index {
		t.Errorf("expected slot %d to be reused, got %d", h1.index, h3.index)
	}
	if h3.generation == h1.generation {
		t.Error("expected a new generation for the reused slot")
	}
	if _, ok := a.get(h1); ok {
		t.Error("expected old handle to stay stale after reuse")
	}
	if a.live() != 2 {
		t.Errorf("expected 2 live values, got %d", a.live())
	}
}

func TestArenaRejectsForeignAndZero(t *testing.T) {
	var a, b arena[int]
	a.engine, b.engine = 1, 2
	h := a.add(42)

	if _, ok := b.get(h); ok {
		t.Error("expected handle from another arena to be rejected")
	}
	if _, ok := a.get(handle{}); ok {
		t.Error("expected zero handle to be rejected")
	}
	if _, ok := a.get(handle{engine: 1, index: 99, generation: 1}); ok {
		t.Error("expected out of range index to be rejected")
	}
}

func TestArenaRemoveIf(t *testing.T) {
	var a arena[int]
	for i := range 6 {
		a.add(i)
	}
	removed := a.removeIf(func(v int) bool { return v%2 == 0 })
	if len(removed) != 3 {
		t.Fatalf("expected 3 removed, got %d", len(removed))
	}
	if a.live() != 3 {
		t.Errorf("expected 3 live values, got %d", a.live())
	}
}

func TestHandleIsZero(t *testing.T) {
	if !(Document{}).IsZero() || !(Page{}).IsZero() || !(TextPage{}).IsZero() || !(Search{}).IsZero() {
		t.Error("expected zero handles to report IsZero")
	}
	if (Page{h: handle{engine: 1, generation: 1}}).IsZero() {
		t.Error("expected issued handle not to be zero")
	}
}
