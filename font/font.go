package font

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"golang.org/x/image/font/sfnt"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/logging"
	"github.com/tsawler/folio/model"
)

// ErrInvalidFont is returned for font dictionaries that cannot be used.
var ErrInvalidFont = errors.New("invalid font")

// Resolver resolves indirect references.
type Resolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

// Kind is the font technology.
type Kind int

const (
	KindType1 Kind = iota // Type1 and MMType1
	KindTrueType
	KindType3
	KindType0
)

func (k Kind) String() string {
	switch k {
	case KindType1:
		return "Type1"
	case KindTrueType:
		return "TrueType"
	case KindType3:
		return "Type3"
	case KindType0:
		return "Type0"
	}
	return "Unknown"
}

// Char is one character code read from a string operand.
type Char struct {
	Code     uint32
	Len      int     // bytes consumed
	CID      int     // composite fonts only
	Text     string  // Unicode text, possibly several runes
	Width    float64 // horizontal displacement in text space
	VAdvance float64 // vertical displacement in text space, vertical fonts only
	Space    bool    // single-byte code 32, subject to word spacing
}

// Font is a loaded PDF font of any kind.
type Font struct {
	Kind       Kind
	Subtype    string
	BaseFont   string
	Descriptor *Descriptor

	r Resolver

	// simple fonts
	enc       *Encoding
	std       *stdMetrics
	firstChar int
	widths    []float64
	hasWidths bool

	// composite fonts
	cmap     *CMap
	cidKind  string
	dw       float64
	w        []widthRange
	dw2      float64
	w2       []verticalRange
	cidToGID []uint16

	toUnicode *CMap
	matrix    model.Matrix

	// Type 3
	charProcs core.Dict
	resources core.Dict

	prog *program
}

// Load builds a Font from a font dictionary or a reference to one.
func Load(obj core.Object, r Resolver) (*Font, error) {
	dict := resolveDict(obj, r)
	if dict == nil {
		return nil, fmt.Errorf("%w: %v is not a dictionary", ErrInvalidFont, obj)
	}
	subtype, _ := dict.GetName("Subtype")
	base, _ := dict.GetName("BaseFont")
	f := &Font{
		Subtype:  string(subtype),
		BaseFont: string(base),
		r:        r,
		matrix:   model.Scale(0.001, 0.001),
	}

	switch subtype {
	case "Type0":
		f.Kind = KindType0
		if err := f.loadComposite(dict); err != nil {
			return nil, err
		}
	case "Type3":
		f.Kind = KindType3
		f.loadType3(dict)
	case "TrueType":
		f.Kind = KindTrueType
		f.loadSimple(dict)
	default:
		f.Kind = KindType1
		f.loadSimple(dict)
	}

	if s := resolveStream(dict.Get("ToUnicode"), r); s != nil {
		data, err := s.Decode()
		if err == nil {
			cm, err := ParseCMap(data)
			if err != nil {
				logging.For("font").Debug("ToUnicode cmap truncated", "font", f.BaseFont, "error", err)
			}
			f.toUnicode = cm
		}
	}
	return f, nil
}

func (f *Font) loadSimple(dict core.Dict) {
	f.Descriptor = parseDescriptor(dict.Get("FontDescriptor"), f.r)
	if name, ok := StandardName(f.BaseFont); ok {
		f.std = standardFonts[name]
	}
	f.loadWidths(dict)
	f.loadProgram()
	f.enc = f.simpleEncoding(dict)
}

func (f *Font) loadWidths(dict core.Dict) {
	f.firstChar = int(number(dict.Get("FirstChar"), f.r))
	if ws := resolveArray(dict.Get("Widths"), f.r); ws != nil {
		f.widths = make([]float64, len(ws))
		for i, w := range ws {
			f.widths[i] = number(w, f.r)
		}
		f.hasWidths = true
	}
}

func (f *Font) loadType3(dict core.Dict) {
	if arr := resolveArray(dict.Get("FontMatrix"), f.r); len(arr) == 6 {
		if v, ok := arr.Numbers(); ok {
			f.matrix = model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}
		}
	}
	f.Descriptor = parseDescriptor(dict.Get("FontDescriptor"), f.r)
	f.charProcs = resolveDict(dict.Get("CharProcs"), f.r)
	f.resources = resolveDict(dict.Get("Resources"), f.r)
	f.loadWidths(dict)
	f.enc = f.simpleEncoding(dict)
}

func (f *Font) loadComposite(dict core.Dict) error {
	switch enc := resolve(dict.Get("Encoding"), f.r).(type) {
	case core.Name:
		cm, ok := PredefinedCMap(string(enc))
		if !ok {
			logging.For("font").Debug("unsupported predefined cmap, using Identity-H",
				"font", f.BaseFont, "cmap", string(enc))
		}
		f.cmap = cm
	case *core.Stream:
		data, err := enc.Decode()
		if err == nil {
			cm, err := ParseCMap(data)
			if err != nil {
				logging.For("font").Debug("encoding cmap truncated", "font", f.BaseFont, "error", err)
			}
			if name, ok := enc.Dict.GetName("UseCMap"); ok && cm.parent == nil {
				cm.parent, _ = PredefinedCMap(string(name))
			}
			if wm, ok := enc.Dict.GetInt("WMode"); ok {
				cm.WMode = int(wm)
			}
			f.cmap = cm
		}
	}
	if f.cmap == nil {
		f.cmap, _ = PredefinedCMap("Identity-H")
	}

	descendants := resolveArray(dict.Get("DescendantFonts"), f.r)
	cid := resolveDict(descendants.Get(0), f.r)
	if cid == nil {
		return fmt.Errorf("%w: Type0 font %q has no descendant font", ErrInvalidFont, f.BaseFont)
	}
	kind, _ := cid.GetName("Subtype")
	f.cidKind = string(kind)
	if f.BaseFont == "" {
		base, _ := cid.GetName("BaseFont")
		f.BaseFont = string(base)
	}
	f.Descriptor = parseDescriptor(cid.Get("FontDescriptor"), f.r)

	f.dw = 1000
	if v, ok := core.Number(resolve(cid.Get("DW"), f.r)); ok {
		f.dw = v
	}
	f.w = parseWidths(resolveArray(cid.Get("W"), f.r), f.r)
	f.dw2 = -1000
	if arr := resolveArray(cid.Get("DW2"), f.r); len(arr) == 2 {
		f.dw2 = number(arr[1], f.r)
	}
	f.w2 = parseVerticalMetrics(resolveArray(cid.Get("W2"), f.r), f.r)
	if s := resolveStream(cid.Get("CIDToGIDMap"), f.r); s != nil {
		if data, err := s.Decode(); err == nil {
			f.cidToGID = parseCIDToGID(data)
		}
	}
	f.loadProgram()
	return nil
}

// loadProgram parses an embedded TrueType or OpenType program, or picks
// a substitute face.
func (f *Font) loadProgram() {
	if f.Kind == KindType3 {
		return
	}
	d := f.Descriptor
	var program *core.Stream
	if d != nil {
		switch {
		case d.FontFile2 != nil:
			program = d.FontFile2
		case d.FontFile3 != nil:
			if sub, _ := d.FontFile3.Dict.GetName("Subtype"); sub == "OpenType" {
				program = d.FontFile3
			}
		}
	}
	if program != nil {
		data, err := program.Decode()
		if err == nil {
			var parsed *sfnt.Font
			parsed, err = sfnt.Parse(data)
			if err == nil {
				f.prog = newProgram(parsed, true)
				return
			}
		}
		logging.For("font").Debug("embedded font program unusable", "font", f.BaseFont, "error", err)
	}

	flags := 0
	if d != nil {
		flags = d.Flags
	}
	if face := substituteFace(f.BaseFont, flags); face != nil {
		f.prog = newProgram(face, false)
		logging.For("font").Debug("substituting font", "font", f.BaseFont, "embedded", d.Embedded())
	}
}

// simpleEncoding builds the code to rune table from /Encoding, falling
// back to the font's built-in encoding.
func (f *Font) simpleEncoding(dict core.Dict) *Encoding {
	var base *Encoding
	var diffs core.Array
	switch v := resolve(dict.Get("Encoding"), f.r).(type) {
	case core.Name:
		base, _ = NamedEncoding(string(v))
	case core.Dict:
		if name, ok := v.GetName("BaseEncoding"); ok {
			base, _ = NamedEncoding(string(name))
		}
		diffs = resolveArray(v.Get("Differences"), f.r)
	}
	if base == nil {
		base = f.builtinEncoding()
	}
	enc := *base
	if diffs != nil {
		enc.applyDifferences(diffs)
	}
	return &enc
}

func (f *Font) builtinEncoding() *Encoding {
	switch f.std {
	case symbol:
		enc, _ := NamedEncoding("Symbol")
		return enc
	case zapfDingbats:
		enc, _ := NamedEncoding("ZapfDingbats")
		return enc
	}
	if f.Kind == KindType3 {
		return &Encoding{}
	}
	if d := f.Descriptor; d != nil && d.FontFile != nil {
		if data, err := d.FontFile.Decode(); err == nil {
			if names := type1Encoding(data); names != nil {
				return fromNames(names)
			}
		}
	}
	if f.Kind == KindTrueType && f.Descriptor.Symbolic() && f.prog != nil && f.prog.embedded {
		// Symbolic TrueType codes address the font's own cmap.
		return &Encoding{}
	}
	enc, _ := NamedEncoding("StandardEncoding")
	return enc
}

// IsVertical reports whether the font uses vertical writing mode.
func (f *Font) IsVertical() bool {
	return f.cmap != nil && f.cmap.WMode == 1
}

// Embedded reports whether glyphs come from an embedded program.
func (f *Font) Embedded() bool {
	return f.prog != nil && f.prog.embedded
}

// Matrix maps glyph space to text space.
func (f *Font) Matrix() model.Matrix { return f.matrix }

// Ascent returns the ascent in text space units (fractions of an em).
func (f *Font) Ascent() float64 {
	if d := f.Descriptor; d != nil && d.Ascent != 0 {
		return math.Abs(d.Ascent) / 1000
	}
	if f.std != nil {
		return f.std.ascent / 1000
	}
	return 0.8
}

// Descent returns the descent in text space units; it is negative.
func (f *Font) Descent() float64 {
	if d := f.Descriptor; d != nil && d.Descent != 0 {
		return -math.Abs(d.Descent) / 1000
	}
	if f.std != nil {
		return f.std.descent / 1000
	}
	return -0.2
}

// Decode splits a string operand into character codes.
func (f *Font) Decode(data []byte) []Char {
	out := make([]Char, 0, len(data))
	for len(data) > 0 {
		var ch Char
		if f.Kind == KindType0 {
			code, n := f.cmap.NextCode(data)
			if n == 0 {
				break
			}
			ch.Code, ch.Len = code, n
			ch.CID, _ = f.cmap.CID(code)
			ch.Width = f.cidWidth(ch.CID) / 1000
			if f.IsVertical() {
				ch.VAdvance = f.cidVertical(ch.CID) / 1000
			}
		} else {
			ch.Code, ch.Len = uint32(data[0]), 1
			ch.Width = f.simpleWidth(data[0]) * f.matrix[0]
		}
		ch.Space = ch.Len == 1 && ch.Code == 32
		ch.Text = f.text(ch)
		out = append(out, ch)
		data = data[ch.Len:]
	}
	return out
}

// simpleWidth returns the width of code in glyph units.
func (f *Font) simpleWidth(code byte) float64 {
	missing := 0.0
	if f.Descriptor != nil {
		missing = f.Descriptor.MissingWidth
	}
	if f.hasWidths {
		if i := int(code) - f.firstChar; i >= 0 && i < len(f.widths) {
			return f.widths[i]
		}
		return missing
	}
	if f.Kind == KindType3 {
		return missing
	}
	if f.std != nil {
		if r, ok := f.enc.Rune(code); ok {
			if w, ok := standardWidth(f.std, r); ok {
				return w
			}
		}
		return missing
	}
	if f.prog != nil {
		if gid := f.simpleGlyph(code); gid != 0 {
			if w, ok := f.prog.advance(gid); ok {
				return w
			}
		}
	}
	if missing > 0 {
		return missing
	}
	return 500
}

// text maps ch to Unicode: ToUnicode first, then the encoding, then the
// embedded program's character map, then the code itself.
func (f *Font) text(ch Char) string {
	if f.toUnicode != nil {
		if s, ok := f.toUnicode.Unicode(ch.Code); ok && s != "" {
			return s
		}
	}
	if f.Kind != KindType0 {
		if r, ok := f.enc.Rune(byte(ch.Code)); ok {
			return string(r)
		}
	}
	if f.Embedded() {
		if gid := f.glyphIndex(ch); gid != 0 {
			if r, ok := f.prog.runeFor(gid); ok {
				return string(r)
			}
		}
	}
	if utf8.ValidRune(rune(ch.Code)) {
		return string(rune(ch.Code))
	}
	return ""
}

// glyphIndex finds the glyph for ch in the font program, or 0.
func (f *Font) glyphIndex(ch Char) sfnt.GlyphIndex {
	if f.prog == nil {
		return 0
	}
	if f.Kind != KindType0 {
		return f.simpleGlyph(byte(ch.Code))
	}
	if f.prog.embedded {
		return sfnt.GlyphIndex(f.gid(ch.CID))
	}
	if s := f.unicodeOf(ch); s != "" {
		r, _ := utf8.DecodeRuneInString(s)
		return f.prog.index(r)
	}
	return 0
}

// unicodeOf returns the ToUnicode text of a composite font code.
func (f *Font) unicodeOf(ch Char) string {
	if f.toUnicode != nil {
		if s, ok := f.toUnicode.Unicode(ch.Code); ok {
			return s
		}
	}
	return ""
}

func (f *Font) simpleGlyph(code byte) sfnt.GlyphIndex {
	p := f.prog
	r, hasRune := f.enc.Rune(code)
	if p.embedded && f.Kind == KindTrueType && (f.Descriptor.Symbolic() || !hasRune) {
		for _, c := range []rune{0xF000 + rune(code), rune(code)} {
			if g := p.index(c); g != 0 {
				return g
			}
		}
	}
	if hasRune {
		if g := p.index(r); g != 0 {
			return g
		}
	}
	if p.embedded {
		if name := f.enc.Names[code]; name != "" {
			return p.named(name)
		}
		return 0
	}
	if f.toUnicode != nil {
		if s, ok := f.toUnicode.Unicode(uint32(code)); ok && s != "" {
			r, _ := utf8.DecodeRuneInString(s)
			return p.index(r)
		}
	}
	return 0
}

// Outline returns the glyph shape for ch in text space units. Type 3
// glyphs have no outline; use CharProc.
func (f *Font) Outline(ch Char) (Outline, bool) {
	gid := f.glyphIndex(ch)
	if gid == 0 {
		return nil, false
	}
	sx := 1.0
	if !f.prog.embedded && ch.Width > 0 {
		// Substitute glyphs are stretched to the width the document expects.
		if adv, ok := f.prog.advance(gid); ok && adv > 0 {
			sx = ch.Width * 1000 / adv
		}
	}
	o, err := f.prog.outline(gid, sx)
	if err != nil {
		return nil, false
	}
	return o, true
}

// CharProc returns the Type 3 glyph procedure for code.
func (f *Font) CharProc(code uint32) (*core.Stream, bool) {
	if f.Kind != KindType3 || f.charProcs == nil || code > 255 {
		return nil, false
	}
	name := f.enc.Names[code]
	if name == "" {
		return nil, false
	}
	s := resolveStream(f.charProcs.Get(name), f.r)
	return s, s != nil
}

// Resources returns the Type 3 font's resource dictionary, or nil.
func (f *Font) Resources() core.Dict { return f.resources }
