package font

import (
	"sync"

	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/tsawler/folio/model"
)

// SegmentOp is a path segment operation.
type SegmentOp int

const (
	SegmentMoveTo SegmentOp = iota
	SegmentLineTo
	SegmentQuadTo
	SegmentCubeTo
)

// Segment is one element of a glyph outline. MoveTo and LineTo use
// Args[0], QuadTo Args[0..1] and CubeTo Args[0..2].
type Segment struct {
	Op   SegmentOp
	Args [3]model.Point
}

// Outline is a glyph shape in text space units: one unit is one em,
// y increases upward, and the origin is the glyph origin.
type Outline []Segment

// program wraps an sfnt font, embedded or substituted.
type program struct {
	font     *sfnt.Font
	embedded bool
	upem     float64
	buffers  sync.Pool

	namesOnce sync.Once
	byName    map[string]sfnt.GlyphIndex

	reverseOnce sync.Once
	reverse     map[sfnt.GlyphIndex]rune
}

func newProgram(f *sfnt.Font, embedded bool) *program {
	p := &program{font: f, embedded: embedded, upem: float64(f.UnitsPerEm())}
	if p.upem <= 0 {
		p.upem = 1000
	}
	p.buffers.New = func() any { return new(sfnt.Buffer) }
	return p
}

func (p *program) buffer() *sfnt.Buffer { return p.buffers.Get().(*sfnt.Buffer) }

func (p *program) release(b *sfnt.Buffer) { p.buffers.Put(b) }

// index returns the glyph for r, or 0.
func (p *program) index(r rune) sfnt.GlyphIndex {
	b := p.buffer()
	defer p.release(b)
	gid, err := p.font.GlyphIndex(b, r)
	if err != nil {
		return 0
	}
	return gid
}

// named returns the glyph called name in the program's post table.
func (p *program) named(name string) sfnt.GlyphIndex {
	p.namesOnce.Do(func() {
		b := p.buffer()
		defer p.release(b)
		p.byName = make(map[string]sfnt.GlyphIndex)
		for i := 0; i < p.font.NumGlyphs(); i++ {
			gname, err := p.font.GlyphName(b, sfnt.GlyphIndex(i))
			if err != nil || gname == "" {
				continue
			}
			if _, dup := p.byName[gname]; !dup {
				p.byName[gname] = sfnt.GlyphIndex(i)
			}
		}
	})
	return p.byName[name]
}

// runeFor maps a glyph back to Unicode through its post name, then
// through the program's character map.
func (p *program) runeFor(gid sfnt.GlyphIndex) (rune, bool) {
	b := p.buffer()
	name, err := p.font.GlyphName(b, gid)
	p.release(b)
	if err == nil && name != "" {
		if r, ok := glyphRune(name); ok {
			return r, true
		}
	}
	p.reverseOnce.Do(func() {
		b := p.buffer()
		defer p.release(b)
		p.reverse = make(map[sfnt.GlyphIndex]rune)
		for r := rune(0x20); r < 0x10000; r++ {
			if r >= 0xD800 && r < 0xE000 {
				continue
			}
			g, err := p.font.GlyphIndex(b, r)
			if err != nil || g == 0 {
				continue
			}
			if _, dup := p.reverse[g]; !dup {
				p.reverse[g] = r
			}
		}
	})
	r, ok := p.reverse[gid]
	return r, ok
}

// advance returns the advance width of gid in thousandths of an em.
func (p *program) advance(gid sfnt.GlyphIndex) (float64, bool) {
	b := p.buffer()
	defer p.release(b)
	adv, err := p.font.GlyphAdvance(b, gid, fixed.Int26_6(int(p.upem)<<6), xfont.HintingNone)
	if err != nil {
		return 0, false
	}
	return float64(adv) / 64 / p.upem * 1000, true
}

// outline loads gid scaled to one em, flipping the y axis. sx scales
// horizontally.
func (p *program) outline(gid sfnt.GlyphIndex, sx float64) (Outline, error) {
	b := p.buffer()
	defer p.release(b)
	segs, err := p.font.LoadGlyph(b, gid, fixed.Int26_6(int(p.upem)<<6), nil)
	if err != nil {
		return nil, err
	}
	scale := 1 / (64 * p.upem)
	out := make(Outline, len(segs))
	for i, s := range segs {
		switch s.Op {
		case sfnt.SegmentOpMoveTo:
			out[i].Op = SegmentMoveTo
		case sfnt.SegmentOpLineTo:
			out[i].Op = SegmentLineTo
		case sfnt.SegmentOpQuadTo:
			out[i].Op = SegmentQuadTo
		case sfnt.SegmentOpCubeTo:
			out[i].Op = SegmentCubeTo
		}
		for j := range s.Args {
			out[i].Args[j] = model.Point{
				X: float64(s.Args[j].X) * scale * sx,
				Y: -float64(s.Args[j].Y) * scale,
			}
		}
	}
	return out, nil
}

// Transform applies m to every point of o.
func (o Outline) Transform(m model.Matrix) Outline {
	out := make(Outline, len(o))
	for i, s := range o {
		out[i].Op = s.Op
		for j := range s.Args {
			out[i].Args[j] = m.Transform(s.Args[j])
		}
	}
	return out
}
