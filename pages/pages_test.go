package pages

import (
	"errors"
	"fmt"
	"testing"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/internal/pdftest"
	"github.com/tsawler/folio/model"
)

// mockResolver serves objects from a map
type mockResolver struct {
	objects map[int]core.Object
}

func newMockResolver() *mockResolver {
	return &mockResolver{objects: make(map[int]core.Object)}
}

func (m *mockResolver) add(num int, obj core.Object) core.IndirectRef {
	m.objects[num] = obj
	return core.IndirectRef{Number: num}
}

func (m *mockResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	obj, ok := m.objects[ref.Number]
	if !ok {
		return nil, fmt.Errorf("object %d not found", ref.Number)
	}
	return obj, nil
}

func (m *mockResolver) Resolve(obj core.Object) (core.Object, error) {
	for i := 0; i < 10; i++ {
		ref, ok := obj.(core.IndirectRef)
		if !ok {
			if obj == nil {
				return core.Null{}, nil
			}
			return obj, nil
		}
		var err error
		if obj, err = m.ResolveReference(ref); err != nil {
			return nil, err
		}
	}
	return nil, errors.New("reference chain too long")
}

func ref(n int) core.IndirectRef { return core.IndirectRef{Number: n} }

func box(v ...float64) core.Array {
	arr := make(core.Array, len(v))
	for i, f := range v {
		arr[i] = core.Real(f)
	}
	return arr
}

// twoLevelTree builds root(2) -> [page 10, pages 3 -> [page 11, page 12]].
func twoLevelTree() (*mockResolver, core.Dict) {
	m := newMockResolver()
	m.add(2, core.Dict{
		"Type":      core.Name("Pages"),
		"Kids":      core.Array{ref(10), ref(3)},
		"Count":     core.Int(3),
		"MediaBox":  box(0, 0, 500, 700),
		"Resources": core.Dict{"Font": core.Dict{"F1": ref(50)}},
		"Rotate":    core.Int(90),
	})
	m.add(3, core.Dict{
		"Type":   core.Name("Pages"),
		"Kids":   core.Array{ref(11), ref(12)},
		"Parent": ref(2),
		"Rotate": core.Int(-90),
	})
	m.add(10, core.Dict{"Type": core.Name("Page"), "Parent": ref(2), "Rotate": core.Int(0)})
	m.add(11, core.Dict{"Type": core.Name("Page"), "Parent": ref(3), "MediaBox": box(0, 0, 200, 100)})
	m.add(12, core.Dict{"Type": core.Name("Page"), "Parent": ref(3)})
	return m, core.Dict{"Type": core.Name("Catalog"), "Pages": ref(2)}
}

// ============================================================================
// Tree Tests
// ============================================================================

func TestTreeCountAndIndex(t *testing.T) {
	m, catalog := twoLevelTree()
	tree := NewTree(catalog, m)

	n, err := tree.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 pages, got %d", n)
	}
	for i, num := range []int{10, 11, 12} {
		if got := tree.IndexOf(num); got != i {
			t.Errorf("IndexOf(%d) = %d, want %d", num, got, i)
		}
	}
	if tree.IndexOf(3) != -1 {
		t.Error("intermediate node should not have an index")
	}
}

func TestInheritanceAlongFullChain(t *testing.T) {
	m, catalog := twoLevelTree()
	tree := NewTree(catalog, m)

	tests := []struct {
		index  int
		media  model.Rect
		rotate int
	}{
		{0, model.NewRect(0, 0, 500, 700), 0},
		{1, model.NewRect(0, 0, 200, 100), 270},
		{2, model.NewRect(0, 0, 500, 700), 270},
	}
	for _, tt := range tests {
		page, err := tree.Page(tt.index)
		if err != nil {
			t.Fatalf("Page(%d): %v", tt.index, err)
		}
		if page.MediaBox() != tt.media {
			t.Errorf("page %d MediaBox = %+v, want %+v", tt.index, page.MediaBox(), tt.media)
		}
		if page.Rotate() != tt.rotate {
			t.Errorf("page %d Rotate = %d, want %d", tt.index, page.Rotate(), tt.rotate)
		}
		res, err := page.Resources()
		if err != nil {
			t.Fatal(err)
		}
		if _, ok := res.GetDict("Font"); !ok {
			t.Errorf("page %d did not inherit Resources from the root", tt.index)
		}
	}
}

func TestPageOutOfRange(t *testing.T) {
	m, catalog := twoLevelTree()
	tree := NewTree(catalog, m)
	for _, index := range []int{-1, 3, 100} {
		if _, err := tree.Page(index); !errors.Is(err, ErrPageNotFound) {
			t.Errorf("Page(%d) error = %v, want ErrPageNotFound", index, err)
		}
	}
}

func TestBrokenKidOnlyBreaksItsSlot(t *testing.T) {
	m := newMockResolver()
	m.add(2, core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(10), ref(99), core.Int(5), ref(11)}})
	m.add(10, core.Dict{"Type": core.Name("Page")})
	m.add(11, core.Dict{"Type": core.Name("Page")})
	tree := NewTree(core.Dict{"Pages": ref(2)}, m)

	n, err := tree.Count()
	if err != nil || n != 4 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	for _, bad := range []int{1, 2} {
		if _, err := tree.Page(bad); !errors.Is(err, ErrInvalidPage) {
			t.Errorf("Page(%d) error = %v, want ErrInvalidPage", bad, err)
		}
	}
	if _, err := tree.Page(3); err != nil {
		t.Errorf("Page(3): %v", err)
	}
}

func TestParentLoopRejected(t *testing.T) {
	m := newMockResolver()
	m.add(2, core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(3), ref(10)}})
	m.add(3, core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(2), ref(10)}})
	m.add(10, core.Dict{"Type": core.Name("Page")})
	tree := NewTree(core.Dict{"Pages": ref(2)}, m)

	n, err := tree.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected the shared page once, got %d pages", n)
	}
}

func TestMissingPageTree(t *testing.T) {
	tree := NewTree(core.Dict{}, newMockResolver())
	if _, err := tree.Count(); !errors.Is(err, ErrNoPageTree) {
		t.Errorf("Count error = %v, want ErrNoPageTree", err)
	}
}

// ============================================================================
// Page Geometry Tests
// ============================================================================

func singlePage(dict core.Dict) (*Tree, *mockResolver) {
	m := newMockResolver()
	dict["Type"] = core.Name("Page")
	m.add(10, dict)
	m.add(2, core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(10)}})
	return NewTree(core.Dict{"Pages": ref(2)}, m), m
}

func TestPageGeometry(t *testing.T) {
	tests := []struct {
		name          string
		dict          core.Dict
		crop          model.Rect
		width, height float64
	}{
		{"default letter", core.Dict{}, LetterBox, 612, 792},
		{"crop clipped", core.Dict{"MediaBox": box(0, 0, 300, 400), "CropBox": box(-10, 50, 200, 500)},
			model.NewRect(0, 50, 200, 400), 200, 350},
		{"rotated swaps", core.Dict{"MediaBox": box(0, 0, 300, 400), "Rotate": core.Int(90)},
			model.NewRect(0, 0, 300, 400), 400, 300},
		{"reversed corners", core.Dict{"MediaBox": box(300, 400, 0, 0)},
			model.NewRect(0, 0, 300, 400), 300, 400},
		{"empty crop ignored", core.Dict{"MediaBox": box(0, 0, 300, 400), "CropBox": box(0, 0, 0, 0)},
			model.NewRect(0, 0, 300, 400), 300, 400},
		{"malformed media", core.Dict{"MediaBox": core.Array{core.Int(1)}}, LetterBox, 612, 792},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, _ := singlePage(tt.dict)
			page, err := tree.Page(0)
			if err != nil {
				t.Fatalf("Page(0): %v", err)
			}
			if page.CropBox() != tt.crop {
				t.Errorf("CropBox = %+v, want %+v", page.CropBox(), tt.crop)
			}
			if page.Width() != tt.width || page.Height() != tt.height {
				t.Errorf("size = %vx%v, want %vx%v", page.Width(), page.Height(), tt.width, tt.height)
			}
		})
	}
}

func TestZeroAreaPage(t *testing.T) {
	tree, _ := singlePage(core.Dict{"MediaBox": box(0, 0, 0, 792)})
	if _, err := tree.Page(0); !errors.Is(err, ErrZeroArea) {
		t.Errorf("error = %v, want ErrZeroArea", err)
	}
}

func TestRotationNormalization(t *testing.T) {
	tests := []struct {
		in   core.Object
		want int
	}{
		{nil, 0},
		{core.Int(90), 90},
		{core.Int(-90), 270},
		{core.Int(450), 90},
		{core.Int(135), 90},
		{core.Real(180), 180},
		{core.Name("x"), 0},
	}
	for _, tt := range tests {
		if got := normalizeRotation(tt.in); got != tt.want {
			t.Errorf("normalizeRotation(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPixelSize(t *testing.T) {
	tests := []struct {
		points, dpi float64
		want        int
	}{
		{612, 72, 612},
		{612, 96, 816},
		{792, 150, 1650},
		{100.9, 72, 100},
		{10, 0, 0},
	}
	for _, tt := range tests {
		if got := PixelSize(tt.points, tt.dpi); got != tt.want {
			t.Errorf("PixelSize(%v, %v) = %d, want %d", tt.points, tt.dpi, got, tt.want)
		}
	}

	tree, _ := singlePage(core.Dict{"MediaBox": box(0, 0, 612.5, 792.9)})
	page, _ := tree.Page(0)
	if page.WidthPoints() != 612 || page.HeightPoints() != 792 {
		t.Errorf("points = %dx%d", page.WidthPoints(), page.HeightPoints())
	}
	if page.WidthPixels(144) != 1225 {
		t.Errorf("WidthPixels(144) = %d", page.WidthPixels(144))
	}
}

// ============================================================================
// Content Tests
// ============================================================================

func TestOperationsConcatenatesContents(t *testing.T) {
	tree, m := singlePage(core.Dict{"Contents": core.Array{ref(20), ref(21)}})
	m.add(20, &core.Stream{Dict: core.Dict{}, Data: []byte("q 1 0 0 1 0 0")})
	m.add(21, &core.Stream{
		Dict: core.Dict{"Filter": core.Name("FlateDecode")},
		Data: pdftest.Deflate([]byte("cm Q")),
	})

	page, err := tree.Page(0)
	if err != nil {
		t.Fatal(err)
	}
	ops, err := page.Operations()
	if err != nil {
		t.Fatalf("Operations: %v", err)
	}
	if len(ops) != 3 || ops[1].Operator != "cm" || len(ops[1].Operands) != 6 {
		t.Errorf("operations = %+v", ops)
	}

	again, _ := page.Operations()
	if &again[0] != &ops[0] {
		t.Error("Operations should be parsed once")
	}
}

func TestNoContents(t *testing.T) {
	tree, _ := singlePage(core.Dict{})
	page, _ := tree.Page(0)
	ops, err := page.Operations()
	if err != nil || len(ops) != 0 {
		t.Errorf("Operations = %v, %v", ops, err)
	}
}
