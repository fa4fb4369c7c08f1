package pages

import (
	"testing"

	"github.com/tsawler/folio/core"
)

// navDocument builds a three page document with named destinations in
// both the old /Dests dictionary and a two level name tree.
func navDocument() (*Tree, *mockResolver) {
	m := newMockResolver()
	m.add(2, core.Dict{"Type": core.Name("Pages"), "Kids": core.Array{ref(10), ref(11), ref(12)}})
	m.add(10, core.Dict{"Type": core.Name("Page"), "Annots": ref(30)})
	m.add(11, core.Dict{"Type": core.Name("Page")})
	m.add(12, core.Dict{"Type": core.Name("Page")})

	m.add(40, core.Dict{"Kids": core.Array{ref(41), ref(42)}})
	m.add(41, core.Dict{
		"Limits": core.Array{core.String("a"), core.String("m")},
		"Names":  core.Array{core.String("chapter1"), core.Array{ref(11), core.Name("Fit")}},
	})
	m.add(42, core.Dict{
		"Limits": core.Array{core.String("n"), core.String("z")},
		"Names": core.Array{
			core.String("summary"), core.Dict{"D": core.Array{ref(12), core.Name("FitH"), core.Int(500)}},
			core.String("zz-loop"), core.String("zz-loop"),
		},
	})

	catalog := core.Dict{
		"Pages": ref(2),
		"Dests": core.Dict{"intro": core.Array{ref(10), core.Name("XYZ"), core.Int(72), core.Int(700), core.Null{}}},
		"Names": core.Dict{"Dests": ref(40)},
		"URI":   core.Dict{"Base": core.String("https://example.com/docs/")},
	}
	return NewTree(catalog, m), m
}

func TestResolveDest(t *testing.T) {
	tree, _ := navDocument()

	tests := []struct {
		name  string
		dest  core.Object
		page  int
		kind  DestKind
		check func(t *testing.T, d *Destination)
	}{
		{"explicit XYZ", core.Array{ref(11), core.Name("XYZ"), core.Int(10), core.Real(20.5), core.Real(1.5)}, 1, DestXYZ,
			func(t *testing.T, d *Destination) {
				if !d.HasLeft || !d.HasTop || !d.HasZoom || d.Left != 10 || d.Top != 20.5 || d.Zoom != 1.5 {
					t.Errorf("view = %+v", d)
				}
			}},
		{"named in Dests dict", core.Name("intro"), 0, DestXYZ,
			func(t *testing.T, d *Destination) {
				if d.HasZoom || !d.HasTop || d.Top != 700 {
					t.Errorf("view = %+v", d)
				}
			}},
		{"string in name tree", core.String("chapter1"), 1, DestFit, nil},
		{"name tree dict with D", core.String("summary"), 2, DestFitH,
			func(t *testing.T, d *Destination) {
				if !d.HasTop || d.Top != 500 || d.HasLeft {
					t.Errorf("view = %+v", d)
				}
			}},
		{"page number", core.Array{core.Int(2), core.Name("Fit")}, 2, DestFit, nil},
		{"FitR", core.Array{ref(10), core.Name("FitR"), core.Int(1), core.Int(2), core.Int(3), core.Int(4)}, 0, DestFitR,
			func(t *testing.T, d *Destination) {
				if d.Left != 1 || d.Top != 4 || len(d.Params) != 4 {
					t.Errorf("view = %+v", d)
				}
			}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := tree.ResolveDest(tt.dest)
			if d == nil {
				t.Fatal("expected a destination")
			}
			if d.PageIndex != tt.page || d.Kind != tt.kind {
				t.Errorf("got page %d kind %v, want page %d kind %v", d.PageIndex, d.Kind, tt.page, tt.kind)
			}
			if tt.check != nil {
				tt.check(t, d)
			}
		})
	}
}

func TestResolveDestAbsent(t *testing.T) {
	tree, _ := navDocument()
	for _, obj := range []core.Object{
		nil,
		core.String("missing"),
		core.String("zz-loop"),
		core.Array{ref(99), core.Name("Fit")},
		core.Array{core.Int(7), core.Name("Fit")},
		core.Array{},
		core.Int(3),
	} {
		if d := tree.ResolveDest(obj); d != nil {
			t.Errorf("ResolveDest(%v) = %+v, want nil", obj, d)
		}
	}
}

func TestLinks(t *testing.T) {
	tree, m := navDocument()
	m.add(30, core.Array{ref(31), ref(32), ref(33), ref(34), ref(35), ref(36)})
	m.add(31, core.Dict{
		"Subtype": core.Name("Link"),
		"Rect":    core.Array{core.Int(100), core.Int(200), core.Int(10), core.Int(20)},
		"A":       core.Dict{"S": core.Name("URI"), "URI": core.String("guide/intro.html")},
	})
	m.add(32, core.Dict{"Subtype": core.Name("Link"), "Rect": box(0, 0, 1, 1), "Dest": core.Name("intro")})
	m.add(33, core.Dict{"Subtype": core.Name("Text"), "Rect": box(0, 0, 1, 1)})
	m.add(34, core.Dict{
		"Subtype": core.Name("Link"), "Rect": box(0, 0, 1, 1),
		"A": core.Dict{"S": core.Name("GoTo"), "D": core.String("summary")},
	})
	m.add(35, core.Dict{
		"Subtype": core.Name("Link"), "Rect": box(0, 0, 1, 1),
		"A": core.Dict{"S": core.Name("URI"), "URI": core.String("http://bücher.example/a")},
	})
	m.add(36, core.Dict{
		"Subtype": core.Name("Link"), "Rect": box(0, 0, 1, 1),
		"A": core.Dict{"S": core.Name("Launch"), "F": core.String("app.exe")},
	})

	page, err := tree.Page(0)
	if err != nil {
		t.Fatal(err)
	}
	links, err := page.Links()
	if err != nil {
		t.Fatalf("Links: %v", err)
	}
	if len(links) != 5 {
		t.Fatalf("expected 5 links, got %d", len(links))
	}

	if links[0].URI != "https://example.com/docs/guide/intro.html" {
		t.Errorf("URI = %q", links[0].URI)
	}
	if links[0].Rect.Left != 10 || links[0].Rect.Top != 200 || links[0].Rect.Right != 100 || links[0].Rect.Bottom != 20 {
		t.Errorf("Rect not normalized: %+v", links[0].Rect)
	}
	if links[1].Dest == nil || links[1].Dest.PageIndex != 0 {
		t.Errorf("named link dest = %+v", links[1].Dest)
	}
	if links[2].Dest == nil || links[2].Dest.PageIndex != 2 {
		t.Errorf("GoTo link dest = %+v", links[2].Dest)
	}
	if links[3].URI != "http://xn--bcher-kva.example/a" {
		t.Errorf("IDNA URI = %q", links[3].URI)
	}
	if links[4].Dest != nil || links[4].URI != "" {
		t.Errorf("Launch link should have no target: %+v", links[4])
	}

	again, _ := page.Links()
	if len(again) != len(links) {
		t.Error("Links should be restartable")
	}
}

func TestAnnotationVisibility(t *testing.T) {
	tests := []struct {
		flags int
		want  bool
	}{
		{0, true},
		{AnnotPrint, true},
		{AnnotHidden, false},
		{AnnotNoView | AnnotPrint, false},
	}
	for _, tt := range tests {
		if got := (Annotation{Flags: tt.flags}).Visible(); got != tt.want {
			t.Errorf("Visible(flags=%d) = %v, want %v", tt.flags, got, tt.want)
		}
	}
}

func outlineDocument() (*Tree, *mockResolver) {
	tree, m := navDocument()
	tree.catalog["Outlines"] = ref(60)
	m.add(60, core.Dict{"Type": core.Name("Outlines"), "First": ref(61), "Last": ref(63)})
	m.add(61, core.Dict{
		"Title": core.String("Intro"), "Parent": ref(60), "Next": ref(62), "First": ref(64),
		"Dest": core.Name("intro"),
	})
	m.add(62, core.Dict{
		"Title": core.String([]byte{0xFE, 0xFF, 0x00, 'C', 0x00, 'h', 0x00, '1'}), "Parent": ref(60), "Next": ref(63),
		"A": core.Dict{"S": core.Name("GoTo"), "D": core.String("chapter1")},
	})
	m.add(63, core.Dict{"Title": core.String(""), "Parent": ref(60), "Next": ref(61)})
	m.add(64, core.Dict{"Title": core.String("Child"), "Parent": ref(61), "Next": ref(64)})
	return tree, m
}

func TestBookmarkIteration(t *testing.T) {
	tree, _ := outlineDocument()

	first, ok, err := tree.FirstChild(nil)
	if err != nil || !ok {
		t.Fatalf("FirstChild(nil) = %v, %v", ok, err)
	}
	if first.Title != "Intro" {
		t.Errorf("title = %q", first.Title)
	}
	if idx := tree.BookmarkDestIndex(first); idx != 0 {
		t.Errorf("dest index = %d", idx)
	}

	child, ok, _ := tree.FirstChild(&first)
	if !ok || child.Title != "Child" {
		t.Fatalf("child = %+v, %v", child, ok)
	}
	if _, ok, _ := tree.FirstChild(&child); ok {
		t.Error("leaf should have no child")
	}
	if _, ok, _ := tree.NextSibling(child); ok {
		t.Error("self-referencing sibling should end the list")
	}

	second, ok, _ := tree.NextSibling(first)
	if !ok || second.Title != "Ch1" {
		t.Fatalf("second = %+v", second)
	}
	if idx := tree.BookmarkDestIndex(second); idx != 1 {
		t.Errorf("GoTo dest index = %d", idx)
	}

	third, ok, _ := tree.NextSibling(second)
	if !ok || third.Title != "" {
		t.Fatalf("third = %+v", third)
	}
	if idx := tree.BookmarkDestIndex(third); idx != -1 {
		t.Errorf("dest index without target = %d", idx)
	}
}

func TestOutlineVisitsEachItemOnce(t *testing.T) {
	tree, _ := outlineDocument()
	nodes, err := tree.Outline()
	if err != nil {
		t.Fatalf("Outline: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 top-level items, got %d", len(nodes))
	}
	if len(nodes[0].Children) != 1 || nodes[0].Children[0].Title != "Child" {
		t.Errorf("children = %+v", nodes[0].Children)
	}
	if nodes[1].Dest == nil || nodes[1].Dest.PageIndex != 1 {
		t.Errorf("second dest = %+v", nodes[1].Dest)
	}
}

func TestNoOutline(t *testing.T) {
	tree, _ := navDocument()
	if _, ok, err := tree.FirstChild(nil); ok || err != nil {
		t.Errorf("FirstChild without outline = %v, %v", ok, err)
	}
	nodes, err := tree.Outline()
	if err != nil || len(nodes) != 0 {
		t.Errorf("Outline = %v, %v", nodes, err)
	}
}
