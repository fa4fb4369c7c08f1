package text

import (
	"fmt"
	"math"

	"golang.org/x/text/unicode/norm"

	"github.com/tsawler/folio/font"
	"github.com/tsawler/folio/graphicsstate"
	"github.com/tsawler/folio/logging"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/pages"
)

// Char is one character of a text page.
type Char struct {
	Rune      rune
	Box       model.Rect  // page space, y up
	FontSize  float64     // size operand of the Tf in effect
	Origin    model.Point // baseline origin in page space
	Generated bool        // inserted space or line break, not in the content
}

// Options configures text extraction.
type Options struct {
	// SpaceThreshold is the gap, in ems, after which a space is inserted
	// between two glyphs on the same line.
	SpaceThreshold float64

	// LineThreshold is the baseline shift, in font sizes, that starts a
	// new line.
	LineThreshold float64

	Fonts        *font.Cache
	Resolver     graphicsstate.Resolver
	MaxFormDepth int
}

// DefaultOptions returns the default extraction options.
func DefaultOptions() Options {
	return Options{
		SpaceThreshold: 0.25,
		LineThreshold:  0.5,
	}
}

// Load extracts the characters of page in content order.
func Load(page *pages.Page, opts Options) (*TextPage, error) {
	if page == nil {
		return nil, ErrNilPage
	}
	r := opts.Resolver
	if r == nil {
		r = page.Resolver()
	}
	fonts := opts.Fonts
	if fonts == nil {
		fonts = font.NewCache()
	}

	resources, err := page.Resources()
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", page.Index(), err)
	}
	ops, parseErr := page.Operations()
	if parseErr != nil {
		logging.For("text").Debug("content stream truncated", "page", page.Index(), "error", parseErr)
	}

	e := NewExtractor(opts)
	proc := graphicsstate.NewProcessor(e, r, graphicsstate.Options{Fonts: fonts, MaxFormDepth: opts.MaxFormDepth})
	if err := proc.Run(ops, resources); err != nil {
		return nil, fmt.Errorf("page %d: %w", page.Index(), err)
	}
	return e.TextPage(), nil
}

// Extractor is a graphicsstate.Device that records shown glyphs as
// characters. Paths and images are ignored.
type Extractor struct {
	opts  Options
	chars []Char

	// end of the previous glyph
	last    bool
	end     model.Point
	dir     model.Point // unit baseline direction
	em      float64     // em size in page space
	lastRun rune
}

var _ graphicsstate.Device = (*Extractor)(nil)

// NewExtractor creates an extractor. Zero thresholds take the defaults.
func NewExtractor(opts Options) *Extractor {
	def := DefaultOptions()
	if opts.SpaceThreshold <= 0 {
		opts.SpaceThreshold = def.SpaceThreshold
	}
	if opts.LineThreshold <= 0 {
		opts.LineThreshold = def.LineThreshold
	}
	return &Extractor{opts: opts}
}

// TextPage returns the characters collected so far.
func (e *Extractor) TextPage() *TextPage {
	return NewTextPage(e.chars)
}

func (e *Extractor) FillPath(*graphicsstate.GraphicsState, *graphicsstate.Path, bool) {}

func (e *Extractor) StrokePath(*graphicsstate.GraphicsState, *graphicsstate.Path) {}

func (e *Extractor) DrawImage(*graphicsstate.GraphicsState, *graphicsstate.Image) {}

// ShowGlyph appends the runes of g, preceded by a generated space or
// line break when its position calls for one.
func (e *Extractor) ShowGlyph(_ *graphicsstate.GraphicsState, g *graphicsstate.Glyph) {
	runes := []rune(norm.NFC.String(g.Char.Text))
	if len(runes) == 0 {
		return
	}
	m := g.Matrix
	ascent, descent := 0.8, -0.2
	if g.Font != nil {
		ascent, descent = g.Font.Ascent(), g.Font.Descent()
	}
	width := g.Char.Width

	ox, oy := m.Apply(0, 0)
	dx, dy := m.ApplyVector(1, 0)
	em := math.Hypot(m[2], m[3])
	if em == 0 {
		em = math.Hypot(dx, dy)
	}
	dir := model.Point{X: 1}
	if n := math.Hypot(dx, dy); n > 0 {
		dir = model.Point{X: dx / n, Y: dy / n}
	}
	origin := model.Point{X: ox, Y: oy}

	e.separate(origin, em, runes[0])

	step := width / float64(len(runes))
	for i, r := range runes {
		x0 := step * float64(i)
		box := m.TransformRect(model.NewRect(x0, descent, x0+step, ascent))
		ax, ay := m.Apply(x0, 0)
		e.chars = append(e.chars, Char{
			Rune:     r,
			Box:      box,
			FontSize: g.FontSize,
			Origin:   model.Point{X: ax, Y: ay},
		})
	}

	ex, ey := m.Apply(width, 0)
	e.last = true
	e.end = model.Point{X: ex, Y: ey}
	e.dir = dir
	e.em = em
	e.lastRun = runes[len(runes)-1]
}

// separate inserts a generated line break when the glyph at origin is
// off the previous baseline, or a generated space when it is far enough
// along it.
func (e *Extractor) separate(origin model.Point, em float64, next rune) {
	if !e.last {
		return
	}
	ref := math.Max(e.em, em)
	ox, oy := origin.X-e.end.X, origin.Y-e.end.Y
	along := ox*e.dir.X + oy*e.dir.Y
	across := e.dir.X*oy - e.dir.Y*ox

	switch {
	case math.Abs(across) > e.opts.LineThreshold*ref:
		if e.lastRun == '\n' {
			return
		}
		e.generate('\r', e.end)
		e.generate('\n', e.end)
		e.lastRun = '\n'
	case along > e.opts.SpaceThreshold*ref:
		if isSpace(e.lastRun) || isSpace(next) {
			return
		}
		e.generate(' ', e.end)
		e.lastRun = ' '
	}
}

func (e *Extractor) generate(r rune, at model.Point) {
	e.chars = append(e.chars, Char{
		Rune:      r,
		Box:       model.Rect{Left: at.X, Right: at.X, Bottom: at.Y, Top: at.Y},
		Origin:    at,
		Generated: true,
	})
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == 0xA0
}
