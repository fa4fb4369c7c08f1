package font

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/tsawler/folio/core"
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

func (m *mockResolver) Resolve(obj core.Object) (core.Object, error) {
	ref, ok := obj.(core.IndirectRef)
	if !ok {
		return obj, nil
	}
	o, ok := m.objects[ref.Number]
	if !ok {
		return nil, fmt.Errorf("object %d not found", ref.Number)
	}
	return o, nil
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func mustLoad(t *testing.T, obj core.Object, r Resolver) *Font {
	t.Helper()
	f, err := Load(obj, r)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return f
}

func texts(chars []Char) string {
	var s string
	for _, ch := range chars {
		s += ch.Text
	}
	return s
}

// ============================================================================
// Simple fonts
// ============================================================================

func TestStandardFontWidths(t *testing.T) {
	r := newMockResolver()
	f := mustLoad(t, core.Dict{
		"Type": core.Name("Font"), "Subtype": core.Name("Type1"),
		"BaseFont": core.Name("Helvetica"), "Encoding": core.Name("WinAnsiEncoding"),
	}, r)

	if f.Kind != KindType1 {
		t.Errorf("Kind = %v, want Type1", f.Kind)
	}
	chars := f.Decode([]byte("A A\xe9"))
	if len(chars) != 4 {
		t.Fatalf("got %d chars, want 4", len(chars))
	}
	wantWidths := []float64{0.667, 0.278, 0.667, 0.556}
	for i, w := range wantWidths {
		if !approx(chars[i].Width, w) {
			t.Errorf("char %d width = %v, want %v", i, chars[i].Width, w)
		}
	}
	if !chars[1].Space || chars[0].Space {
		t.Error("only code 32 should be a word space")
	}
	if got := texts(chars); got != "A Aé" {
		t.Errorf("text = %q, want %q", got, "A Aé")
	}
	if !approx(f.Ascent(), 0.718) || !approx(f.Descent(), -0.207) {
		t.Errorf("Ascent/Descent = %v/%v", f.Ascent(), f.Descent())
	}
}

func TestStandardName(t *testing.T) {
	tests := []struct {
		base string
		want string
		ok   bool
	}{
		{"Helvetica", "Helvetica", true},
		{"ABCDEF+Helvetica-Bold", "Helvetica-Bold", true},
		{"Arial,Bold", "Helvetica-Bold", true},
		{"ArialMT", "Helvetica", true},
		{"TimesNewRomanPSMT", "Times-Roman", true},
		{"Courier New", "Courier", true},
		{"Symbol", "Symbol", true},
		{"Garamond", "", false},
		{"abcdef+Helvetica", "", false},
	}
	for _, tt := range tests {
		got, ok := StandardName(tt.base)
		if got != tt.want || ok != tt.ok {
			t.Errorf("StandardName(%q) = %q, %v; want %q, %v", tt.base, got, ok, tt.want, tt.ok)
		}
	}
}

func TestWidthsArray(t *testing.T) {
	r := newMockResolver()
	desc := r.add(5, core.Dict{
		"Type": core.Name("FontDescriptor"), "FontName": core.Name("Custom"),
		"Flags": core.Int(32), "MissingWidth": core.Int(250),
		"Ascent": core.Int(900), "Descent": core.Int(200),
	})
	widths := r.add(6, core.Array{core.Int(600), core.Real(450.5)})
	f := mustLoad(t, core.Dict{
		"Subtype": core.Name("TrueType"), "BaseFont": core.Name("Custom"),
		"FirstChar": core.Int(65), "LastChar": core.Int(66),
		"Widths": widths, "FontDescriptor": desc,
		"Encoding": core.Name("WinAnsiEncoding"),
	}, r)

	chars := f.Decode([]byte("ABC"))
	want := []float64{0.6, 0.4505, 0.25}
	for i, w := range want {
		if !approx(chars[i].Width, w) {
			t.Errorf("char %d width = %v, want %v", i, chars[i].Width, w)
		}
	}
	if !approx(f.Ascent(), 0.9) {
		t.Errorf("Ascent = %v, want 0.9", f.Ascent())
	}
	// A positive descent is treated as its negation.
	if !approx(f.Descent(), -0.2) {
		t.Errorf("Descent = %v, want -0.2", f.Descent())
	}
}

func TestDifferencesAndToUnicode(t *testing.T) {
	r := newMockResolver()
	toUnicode := r.add(7, &core.Stream{
		Dict: core.Dict{},
		Data: []byte("1 beginbfchar\n<43> <0058>\nendbfchar"),
	})
	f := mustLoad(t, core.Dict{
		"Subtype": core.Name("Type1"), "BaseFont": core.Name("Times-Roman"),
		"Encoding": core.Dict{
			"BaseEncoding": core.Name("WinAnsiEncoding"),
			"Differences":  core.Array{core.Int(65), core.Name("Aring"), core.Name("fi")},
		},
		"ToUnicode": toUnicode,
	}, r)

	if got := texts(f.Decode([]byte("ABC\x80"))); got != "ÅﬁX€" {
		t.Errorf("text = %q, want %q", got, "ÅﬁX€")
	}
}

func TestSymbolFontEncoding(t *testing.T) {
	f := mustLoad(t, core.Dict{"Subtype": core.Name("Type1"), "BaseFont": core.Name("Symbol")}, newMockResolver())
	chars := f.Decode([]byte("a"))
	if chars[0].Text != "α" {
		t.Errorf("text = %q, want α", chars[0].Text)
	}
	if !approx(chars[0].Width, 0.5) {
		t.Errorf("width = %v, want 0.5", chars[0].Width)
	}
}

func TestLoadRejectsNonDictionary(t *testing.T) {
	_, err := Load(core.Int(4), newMockResolver())
	if !errors.Is(err, ErrInvalidFont) {
		t.Errorf("err = %v, want ErrInvalidFont", err)
	}
}

// ============================================================================
// Composite fonts
// ============================================================================

func TestType0IdentityWidths(t *testing.T) {
	r := newMockResolver()
	cid := r.add(11, core.Dict{
		"Type": core.Name("Font"), "Subtype": core.Name("CIDFontType2"),
		"BaseFont": core.Name("Custom-CID"),
		"W": core.Array{
			core.Int(1), core.Array{core.Int(500), core.Int(600)},
			core.Int(10), core.Int(20), core.Int(300),
		},
	})
	f := mustLoad(t, core.Dict{
		"Subtype": core.Name("Type0"), "BaseFont": core.Name("Custom"),
		"Encoding": core.Name("Identity-H"), "DescendantFonts": core.Array{cid},
	}, r)

	if f.Kind != KindType0 || f.IsVertical() {
		t.Fatalf("Kind = %v, vertical = %v", f.Kind, f.IsVertical())
	}
	chars := f.Decode([]byte{0, 1, 0, 2, 0, 15, 0, 99, 0, 32})
	want := []struct {
		cid   int
		width float64
	}{
		{1, 0.5}, {2, 0.6}, {15, 0.3}, {99, 1}, {32, 1},
	}
	if len(chars) != len(want) {
		t.Fatalf("got %d chars, want %d", len(chars), len(want))
	}
	for i, w := range want {
		if chars[i].CID != w.cid || !approx(chars[i].Width, w.width) || chars[i].Len != 2 {
			t.Errorf("char %d = cid %d width %v len %d; want cid %d width %v",
				i, chars[i].CID, chars[i].Width, chars[i].Len, w.cid, w.width)
		}
	}
	if chars[4].Space {
		t.Error("two-byte code 32 must not receive word spacing")
	}
}

func TestType0VerticalMetrics(t *testing.T) {
	r := newMockResolver()
	cid := r.add(11, core.Dict{
		"Subtype": core.Name("CIDFontType0"),
		"DW":      core.Int(900),
		"DW2":     core.Array{core.Int(880), core.Int(-900)},
		"W2": core.Array{
			core.Int(5), core.Int(5), core.Int(-500), core.Int(450), core.Int(880),
		},
	})
	f := mustLoad(t, core.Dict{
		"Subtype": core.Name("Type0"), "BaseFont": core.Name("Vert"),
		"Encoding": core.Name("Identity-V"), "DescendantFonts": core.Array{cid},
	}, r)

	if !f.IsVertical() {
		t.Fatal("Identity-V font should be vertical")
	}
	chars := f.Decode([]byte{0, 5, 0, 6})
	if !approx(chars[0].VAdvance, -0.5) || !approx(chars[1].VAdvance, -0.9) {
		t.Errorf("VAdvance = %v, %v; want -0.5, -0.9", chars[0].VAdvance, chars[1].VAdvance)
	}
	if !approx(chars[1].Width, 0.9) {
		t.Errorf("default width = %v, want 0.9", chars[1].Width)
	}
}

func TestType0EmbeddedCMapAndToUnicode(t *testing.T) {
	r := newMockResolver()
	encoding := r.add(12, &core.Stream{
		Dict: core.Dict{"Type": core.Name("CMap")},
		Data: []byte(mixedWidthCMap),
	})
	toUnicode := r.add(13, &core.Stream{
		Dict: core.Dict{},
		Data: []byte("1 beginbfrange\n<8140> <8142> <3042>\nendbfrange"),
	})
	f := mustLoad(t, core.Dict{
		"Subtype": core.Name("Type0"), "BaseFont": core.Name("Mixed"),
		"Encoding":        encoding,
		"DescendantFonts": core.Array{core.Dict{"Subtype": core.Name("CIDFontType0")}},
		"ToUnicode":       toUnicode,
	}, r)

	chars := f.Decode([]byte{0x41, 0x81, 0x42})
	if len(chars) != 2 {
		t.Fatalf("got %d chars, want 2", len(chars))
	}
	if chars[0].CID != 34 || chars[1].CID != 635 {
		t.Errorf("CIDs = %d, %d; want 34, 635", chars[0].CID, chars[1].CID)
	}
	if chars[1].Text != "い" {
		t.Errorf("text = %q, want \\u3044", chars[1].Text)
	}
	// The CMap declares /WMode 1.
	if !f.IsVertical() {
		t.Error("font should be vertical")
	}
}

func TestType0WithoutDescendant(t *testing.T) {
	_, err := Load(core.Dict{"Subtype": core.Name("Type0"), "Encoding": core.Name("Identity-H")}, newMockResolver())
	if !errors.Is(err, ErrInvalidFont) {
		t.Errorf("err = %v, want ErrInvalidFont", err)
	}
}

// ============================================================================
// Type 3 fonts
// ============================================================================

func TestType3Font(t *testing.T) {
	r := newMockResolver()
	proc := r.add(20, &core.Stream{Dict: core.Dict{}, Data: []byte("50 0 d0 0 0 50 50 re f")})
	f := mustLoad(t, core.Dict{
		"Subtype":    core.Name("Type3"),
		"FontMatrix": core.Array{core.Real(0.01), core.Int(0), core.Int(0), core.Real(0.01), core.Int(0), core.Int(0)},
		"FirstChar":  core.Int(65), "LastChar": core.Int(65),
		"Widths":    core.Array{core.Int(50)},
		"Encoding":  core.Dict{"Differences": core.Array{core.Int(65), core.Name("square")}},
		"CharProcs": core.Dict{"square": proc},
		"Resources": core.Dict{"ProcSet": core.Array{core.Name("PDF")}},
	}, r)

	chars := f.Decode([]byte("AB"))
	if !approx(chars[0].Width, 0.5) {
		t.Errorf("width = %v, want 0.5", chars[0].Width)
	}
	if chars[1].Width != 0 {
		t.Errorf("undefined glyph width = %v, want 0", chars[1].Width)
	}
	s, ok := f.CharProc(chars[0].Code)
	if !ok || string(s.Data) != "50 0 d0 0 0 50 50 re f" {
		t.Errorf("CharProc(65) = %v, %v", s, ok)
	}
	if _, ok := f.CharProc(chars[1].Code); ok {
		t.Error("CharProc(66) should not exist")
	}
	if f.Resources() == nil {
		t.Error("Resources should be set")
	}
	if m := f.Matrix(); !approx(m[0], 0.01) {
		t.Errorf("Matrix = %v", m)
	}
	if _, ok := f.Outline(chars[0]); ok {
		t.Error("Type 3 glyphs have no outline")
	}
}

// ============================================================================
// Glyph programs
// ============================================================================

func TestEmbeddedTrueTypeOutline(t *testing.T) {
	r := newMockResolver()
	program := r.add(30, &core.Stream{Dict: core.Dict{}, Data: goregular.TTF})
	desc := r.add(31, core.Dict{
		"FontName": core.Name("GoRegular"), "Flags": core.Int(32), "FontFile2": program,
	})
	f := mustLoad(t, core.Dict{
		"Subtype": core.Name("TrueType"), "BaseFont": core.Name("GoRegular"),
		"Encoding": core.Name("WinAnsiEncoding"), "FontDescriptor": desc,
	}, r)

	if !f.Embedded() {
		t.Fatal("font should use the embedded program")
	}
	chars := f.Decode([]byte("A"))
	if chars[0].Width <= 0 || chars[0].Width > 1 {
		t.Errorf("width from program = %v", chars[0].Width)
	}
	o, ok := f.Outline(chars[0])
	if !ok || len(o) == 0 {
		t.Fatal("expected an outline for A")
	}
	if o[0].Op != SegmentMoveTo {
		t.Errorf("outline starts with %v, want MoveTo", o[0].Op)
	}
	for _, seg := range o {
		for _, p := range seg.Args {
			if p.X < -0.5 || p.X > 1.5 || p.Y < -0.5 || p.Y > 1.5 {
				t.Fatalf("point %v outside the em square", p)
			}
		}
	}
}

func TestSubstitutedOutline(t *testing.T) {
	f := mustLoad(t, core.Dict{"Subtype": core.Name("Type1"), "BaseFont": core.Name("Helvetica")}, newMockResolver())
	if f.Embedded() {
		t.Fatal("Helvetica is not embedded")
	}
	chars := f.Decode([]byte("H"))
	o, ok := f.Outline(chars[0])
	if !ok || len(o) == 0 {
		t.Fatal("expected a substitute outline for H")
	}
	maxX := 0.0
	for _, seg := range o {
		for _, p := range seg.Args {
			maxX = max(maxX, p.X)
		}
	}
	// Substitute glyphs are scaled to the Helvetica advance of 0.722.
	if maxX > 0.722 {
		t.Errorf("outline extends to %v, beyond the advance", maxX)
	}
}

// ============================================================================
// Cache
// ============================================================================

func TestCacheLoadsOnce(t *testing.T) {
	r := newMockResolver()
	ref := r.add(40, core.Dict{"Subtype": core.Name("Type1"), "BaseFont": core.Name("Courier")})
	c := NewCache()

	var wg sync.WaitGroup
	results := make([]*Font, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f, err := c.Load(ref, r)
			if err != nil {
				t.Errorf("Load failed: %v", err)
			}
			results[i] = f
		}(i)
	}
	wg.Wait()
	for _, f := range results[1:] {
		if f != results[0] {
			t.Fatal("cache returned different fonts for one object")
		}
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}

	direct := core.Dict{"Subtype": core.Name("Type1"), "BaseFont": core.Name("Courier")}
	a, _ := c.Load(direct, r)
	b, _ := c.Load(direct, r)
	if a == b {
		t.Error("direct dictionaries should not be cached")
	}

	var nilCache *Cache
	if f, err := nilCache.Load(ref, r); err != nil || f == nil {
		t.Errorf("nil cache Load = %v, %v", f, err)
	}
}

func TestCourierIsFixedPitch(t *testing.T) {
	f := mustLoad(t, core.Dict{"Subtype": core.Name("Type1"), "BaseFont": core.Name("Courier-Bold")}, newMockResolver())
	for _, ch := range f.Decode([]byte("iW ")) {
		if !approx(ch.Width, 0.6) {
			t.Errorf("%q width = %v, want 0.6", ch.Text, ch.Width)
		}
	}
}

func TestFallbackLifecycle(t *testing.T) {
	if err := InitFallbacks(); err != nil {
		t.Fatalf("InitFallbacks: %v", err)
	}
	if !FallbacksLoaded() {
		t.Fatal("expected faces loaded after InitFallbacks")
	}
	ReleaseFallbacks()
	if FallbacksLoaded() {
		t.Fatal("expected faces dropped after ReleaseFallbacks")
	}
	if substituteFace("Helvetica", 0) == nil {
		t.Error("expected a face parsed on first use")
	}
	if !FallbacksLoaded() {
		t.Error("expected faces loaded again after use")
	}
}
