package graphicsstate

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tsawler/folio/contentstream"
	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/font"
	"github.com/tsawler/folio/logging"
	"github.com/tsawler/folio/model"
)

// DefaultMaxFormDepth limits nested form XObjects and Type 3 glyphs.
const DefaultMaxFormDepth = 32

// ErrColorSpace is returned for color spaces that cannot be used.
var ErrColorSpace = errors.New("invalid color space")

// Resolver resolves indirect references.
type Resolver interface {
	Resolve(obj core.Object) (core.Object, error)
}

// Glyph is one shown character.
type Glyph struct {
	Font     *font.Font
	Char     font.Char
	Matrix   model.Matrix // one em of text space to device space
	FontSize float64
	Mode     int // text rendering mode
}

// Visible reports whether the rendering mode paints the glyph.
func (g *Glyph) Visible() bool {
	return g.Mode != 3 && g.Mode != 7
}

// Filled reports whether the rendering mode fills the glyph.
func (g *Glyph) Filled() bool {
	switch g.Mode {
	case 0, 2, 4, 6:
		return true
	}
	return false
}

// Stroked reports whether the rendering mode strokes the glyph.
func (g *Glyph) Stroked() bool {
	switch g.Mode {
	case 1, 2, 5, 6:
		return true
	}
	return false
}

// Image is an image XObject or inline image ready to draw. The image
// occupies the unit square of user space.
type Image struct {
	Stream     *core.Stream // raw, still filtered
	Inline     bool
	ColorSpace *ColorSpace // nil for stencil masks and unusable spaces
	Resources  core.Dict
}

// Device receives the painting operations of a content stream. Paths
// are in user space; gs.CTM maps them to device space.
type Device interface {
	FillPath(gs *GraphicsState, p *Path, evenOdd bool)
	StrokePath(gs *GraphicsState, p *Path)
	DrawImage(gs *GraphicsState, img *Image)
	ShowGlyph(gs *GraphicsState, g *Glyph)
}

// Options configures a Processor.
type Options struct {
	CTM          model.Matrix // initial CTM; the zero matrix means identity
	Fonts        *font.Cache
	MaxFormDepth int
}

const (
	clipNone = iota
	clipNonZero
	clipEvenOdd
)

// Processor interprets content stream operators, tracking the graphics
// state and forwarding painting to a Device.
type Processor struct {
	dev  Device
	r    Resolver
	opts Options
	log  *slog.Logger

	gs        *GraphicsState
	path      *Path
	clip      int
	resources core.Dict

	floor int   // saved states below this depth belong to an outer stream
	forms []int // object numbers of forms being executed
	depth int
}

// NewProcessor creates a processor painting into dev.
func NewProcessor(dev Device, r Resolver, opts Options) *Processor {
	if opts.CTM == (model.Matrix{}) {
		opts.CTM = model.Identity()
	}
	if opts.MaxFormDepth <= 0 {
		opts.MaxFormDepth = DefaultMaxFormDepth
	}
	gs := NewGraphicsState()
	gs.CTM = opts.CTM
	return &Processor{
		dev:  dev,
		r:    r,
		opts: opts,
		log:  logging.For("graphicsstate"),
		gs:   gs,
		path: NewPath(),
	}
}

// State returns the current graphics state.
func (p *Processor) State() *GraphicsState { return p.gs }

// Run interprets ops with the given resources.
func (p *Processor) Run(ops []contentstream.Operation, resources core.Dict) error {
	p.resources = resources
	return p.run(ops)
}

func (p *Processor) run(ops []contentstream.Operation) error {
	for _, op := range ops {
		if err := p.do(op); err != nil {
			return fmt.Errorf("operator %s: %w", op.Operator, err)
		}
	}
	return nil
}

// RunForm draws a form XObject with the extra matrix m applied before
// the form's own /Matrix, as annotation appearances are placed.
func (p *Processor) RunForm(form *core.Stream, m model.Matrix, resources core.Dict) error {
	p.resources = resources
	return p.form(form, 0, m)
}

func (p *Processor) do(op contentstream.Operation) error {
	gs := p.gs
	switch op.Operator {
	// Graphics state
	case "q":
		gs.Save()
	case "Q":
		if gs.Depth() <= p.floor {
			p.log.Debug("unbalanced Q ignored")
			return nil
		}
		return gs.Restore()
	case "cm":
		if m, ok := matrixOperands(op); ok {
			gs.Transform(m)
		}
	case "w":
		if v, ok := op.Number(0); ok {
			gs.SetLineWidth(v)
		}
	case "J":
		if v, ok := op.Number(0); ok {
			gs.LineCap = int(v)
		}
	case "j":
		if v, ok := op.Number(0); ok {
			gs.LineJoin = int(v)
		}
	case "M":
		if v, ok := op.Number(0); ok {
			gs.MiterLimit = v
		}
	case "d":
		if len(op.Operands) == 2 {
			arr, _ := op.Operands[0].(core.Array)
			dash, _ := arr.Numbers()
			phase, _ := op.Number(1)
			gs.SetDash(dash, phase)
		}
	case "ri", "i":
	case "gs":
		if name, ok := op.Name(0); ok {
			return p.extGState(name)
		}

	// Path construction
	case "m":
		if v, ok := numbers(op, 2); ok {
			p.path.MoveTo(v[0], v[1])
		}
	case "l":
		if v, ok := numbers(op, 2); ok {
			p.path.LineTo(v[0], v[1])
		}
	case "c":
		if v, ok := numbers(op, 6); ok {
			p.path.CurveTo(v[0], v[1], v[2], v[3], v[4], v[5])
		}
	case "v":
		if v, ok := numbers(op, 4); ok {
			p.path.CurveToV(v[0], v[1], v[2], v[3])
		}
	case "y":
		if v, ok := numbers(op, 4); ok {
			p.path.CurveToY(v[0], v[1], v[2], v[3])
		}
	case "h":
		p.path.ClosePath()
	case "re":
		if v, ok := numbers(op, 4); ok {
			p.path.Rectangle(v[0], v[1], v[2], v[3])
		}

	// Path painting
	case "S":
		p.paint(false, false, true)
	case "s":
		p.path.ClosePath()
		p.paint(false, false, true)
	case "f", "F":
		p.paint(true, false, false)
	case "f*":
		p.paint(true, true, false)
	case "B":
		p.paint(true, false, true)
	case "B*":
		p.paint(true, true, true)
	case "b":
		p.path.ClosePath()
		p.paint(true, false, true)
	case "b*":
		p.path.ClosePath()
		p.paint(true, true, true)
	case "n":
		p.paint(false, false, false)
	case "W":
		p.clip = clipNonZero
	case "W*":
		p.clip = clipEvenOdd

	// Color
	case "CS", "cs":
		if len(op.Operands) == 0 {
			return nil
		}
		cs, err := ParseColorSpace(op.Operands[0], p.resources, p.r)
		if err != nil {
			p.log.Debug("color space unusable, using DeviceGray", "error", err)
			cs = DeviceGray
		}
		if op.Operator == "CS" {
			gs.SetStrokeSpace(cs)
		} else {
			gs.SetFillSpace(cs)
		}
	case "SC", "SCN":
		gs.StrokeColor = colorOperands(op, gs.StrokeColor)
	case "sc", "scn":
		gs.FillColor = colorOperands(op, gs.FillColor)
	case "G":
		if v, ok := numbers(op, 1); ok {
			gs.StrokeSpace, gs.StrokeColor = DeviceGray, v
		}
	case "g":
		if v, ok := numbers(op, 1); ok {
			gs.FillSpace, gs.FillColor = DeviceGray, v
		}
	case "RG":
		if v, ok := numbers(op, 3); ok {
			gs.SetStrokeColorRGB(v[0], v[1], v[2])
		}
	case "rg":
		if v, ok := numbers(op, 3); ok {
			gs.SetFillColorRGB(v[0], v[1], v[2])
		}
	case "K":
		if v, ok := numbers(op, 4); ok {
			gs.StrokeSpace, gs.StrokeColor = DeviceCMYK, v
		}
	case "k":
		if v, ok := numbers(op, 4); ok {
			gs.FillSpace, gs.FillColor = DeviceCMYK, v
		}

	// Text
	case "BT":
		gs.BeginText()
	case "ET":
	case "Tc", "Tw", "Tz", "TL", "Tf", "Tr", "Ts", "Td", "TD", "Tm", "T*", "Tj", "TJ", "'", "\"":
		return p.textOperator(op)

	// XObjects and images
	case "Do":
		if name, ok := op.Name(0); ok {
			return p.xobject(name)
		}
	case "BI":
		if op.Image != nil {
			p.image(&core.Stream{Dict: op.Image.Dict, Data: op.Image.Data}, true)
		}

	// Type 3 glyph metrics carry nothing the devices use.
	case "d0", "d1":

	case "sh":
		p.log.Debug("shading skipped")
	}
	return nil
}

// paint ends the current path, painting it as requested, then applies a
// pending clip.
func (p *Processor) paint(fill, evenOdd, stroke bool) {
	path := p.path
	if !path.IsEmpty() {
		if fill {
			p.dev.FillPath(p.gs, path, evenOdd)
		}
		if stroke {
			p.dev.StrokePath(p.gs, path)
		}
		if p.clip != clipNone {
			p.gs.Intersect(path, p.clip == clipEvenOdd)
		}
	}
	p.clip = clipNone
	p.path = NewPath()
}

func (p *Processor) extGState(name string) error {
	dict, err := p.resource("ExtGState", name)
	if err != nil || dict == nil {
		return err
	}
	gs := p.gs
	if v, ok := core.Number(dict.Get("LW")); ok {
		gs.SetLineWidth(v)
	}
	if v, ok := dict.GetInt("LC"); ok {
		gs.LineCap = int(v)
	}
	if v, ok := dict.GetInt("LJ"); ok {
		gs.LineJoin = int(v)
	}
	if v, ok := core.Number(dict.Get("ML")); ok {
		gs.MiterLimit = v
	}
	if d, ok := dict.GetArray("D"); ok && len(d) == 2 {
		arr, _ := d.Get(0).(core.Array)
		dash, _ := arr.Numbers()
		phase, _ := core.Number(d.Get(1))
		gs.SetDash(dash, phase)
	}
	if v, ok := core.Number(dict.Get("CA")); ok {
		gs.StrokeAlpha = clamp01(v)
	}
	if v, ok := core.Number(dict.Get("ca")); ok {
		gs.FillAlpha = clamp01(v)
	}
	if f, ok := dict.GetArray("Font"); ok && len(f) == 2 {
		size, _ := core.Number(f.Get(1))
		loaded, err := p.opts.Fonts.Load(f.Get(0), p.r)
		if err != nil {
			p.log.Debug("ExtGState font unusable", "name", name, "error", err)
		}
		gs.SetFont("", loaded, size)
	}
	return nil
}

// resource returns the dictionary (or stream dictionary) named name in
// the current resources' category.
func (p *Processor) resource(category, name string) (core.Dict, error) {
	if p.resources == nil {
		return nil, nil
	}
	cat, err := resolveDict(p.resources.Get(category), p.r)
	if err != nil || cat == nil {
		return nil, err
	}
	return resolveDict(cat.Get(name), p.r)
}

func matrixOperands(op contentstream.Operation) (model.Matrix, bool) {
	v, ok := numbers(op, 6)
	if !ok {
		return model.Matrix{}, false
	}
	return model.Matrix{v[0], v[1], v[2], v[3], v[4], v[5]}, true
}

// numbers returns the last n operands as numbers. Extra leading
// operands are ignored.
func numbers(op contentstream.Operation, n int) ([]float64, bool) {
	if len(op.Operands) < n {
		return nil, false
	}
	return core.Array(op.Operands[len(op.Operands)-n:]).Numbers()
}

// colorOperands reads SC/SCN operands. A trailing pattern name is
// dropped; the pattern color space paints it as a flat color.
func colorOperands(op contentstream.Operation, current []float64) []float64 {
	var out []float64
	for _, o := range op.Operands {
		if v, ok := core.Number(o); ok {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return current
	}
	return out
}

// nested runs ops as an inner content stream. setup adjusts the saved
// state before the stream runs; everything is restored afterwards.
func (p *Processor) nested(ops []contentstream.Operation, resources core.Dict, setup func(gs *GraphicsState)) error {
	p.gs.Save()
	outerFloor, outerPath, outerClip, outerRes := p.floor, p.path, p.clip, p.resources
	p.floor = p.gs.Depth()
	p.path, p.clip = NewPath(), clipNone
	if resources != nil {
		p.resources = resources
	}
	p.depth++
	setup(p.gs)

	err := p.run(ops)

	p.depth--
	for p.gs.Depth() > p.floor {
		_ = p.gs.Restore()
	}
	_ = p.gs.Restore()
	p.floor, p.path, p.clip, p.resources = outerFloor, outerPath, outerClip, outerRes
	return err
}

func (p *Processor) tooDeep() bool {
	return p.depth >= p.opts.MaxFormDepth
}

func containsForm(forms []int, num int) bool {
	return num != 0 && slices.Contains(forms, num)
}
