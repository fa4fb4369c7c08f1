package graphicsstate

import (
	"github.com/tsawler/folio/contentstream"
	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/font"
	"github.com/tsawler/folio/model"
)

// vertical glyphs hang from their origin by this much of an em
const verticalOriginY = 0.88

func (p *Processor) textOperator(op contentstream.Operation) error {
	gs := p.gs
	switch op.Operator {
	case "Tc":
		if v, ok := op.Number(0); ok {
			gs.SetCharSpacing(v)
		}
	case "Tw":
		if v, ok := op.Number(0); ok {
			gs.SetWordSpacing(v)
		}
	case "Tz":
		if v, ok := op.Number(0); ok {
			gs.SetHorizontalScaling(v)
		}
	case "TL":
		if v, ok := op.Number(0); ok {
			gs.SetLeading(v)
		}
	case "Tr":
		if v, ok := op.Number(0); ok {
			gs.SetRenderingMode(int(v))
		}
	case "Ts":
		if v, ok := op.Number(0); ok {
			gs.SetTextRise(v)
		}
	case "Tf":
		name, _ := op.Name(0)
		size, _ := op.Number(1)
		return p.setFont(name, size)
	case "Td":
		if v, ok := numbers(op, 2); ok {
			gs.TranslateText(v[0], v[1])
		}
	case "TD":
		if v, ok := numbers(op, 2); ok {
			gs.TranslateTextSetLeading(v[0], v[1])
		}
	case "Tm":
		if m, ok := matrixOperands(op); ok {
			gs.SetTextMatrix(m)
		}
	case "T*":
		gs.NextLine()
	case "Tj":
		if s, ok := lastString(op); ok {
			return p.showText(s)
		}
	case "'":
		gs.NextLine()
		if s, ok := lastString(op); ok {
			return p.showText(s)
		}
	case "\"":
		if len(op.Operands) == 3 {
			if aw, ok := op.Number(0); ok {
				gs.SetWordSpacing(aw)
			}
			if ac, ok := op.Number(1); ok {
				gs.SetCharSpacing(ac)
			}
		}
		gs.NextLine()
		if s, ok := lastString(op); ok {
			return p.showText(s)
		}
	case "TJ":
		if len(op.Operands) == 0 {
			return nil
		}
		arr, ok := op.Operands[len(op.Operands)-1].(core.Array)
		if !ok {
			return nil
		}
		return p.showTextArray(arr)
	}
	return nil
}

func lastString(op contentstream.Operation) ([]byte, bool) {
	if len(op.Operands) == 0 {
		return nil, false
	}
	s, ok := op.Operands[len(op.Operands)-1].(core.String)
	return []byte(s), ok
}

func (p *Processor) setFont(name string, size float64) error {
	var f *font.Font
	if p.resources != nil {
		fonts, err := resolveDict(p.resources.Get("Font"), p.r)
		if err != nil {
			return err
		}
		if obj := fonts.Get(name); obj != nil {
			f, err = p.opts.Fonts.Load(obj, p.r)
			if err != nil {
				p.log.Debug("font unusable", "name", name, "error", err)
				f = nil
			}
		}
	}
	if f == nil {
		p.log.Debug("text shown without a usable font", "name", name)
	}
	p.gs.SetFont(name, f, size)
	return nil
}

func (p *Processor) showTextArray(arr core.Array) error {
	ts := &p.gs.Text
	for _, item := range arr {
		switch v := item.(type) {
		case core.String:
			if err := p.showText([]byte(v)); err != nil {
				return err
			}
		default:
			n, ok := core.Number(v)
			if !ok {
				continue
			}
			adj := -n / 1000 * ts.FontSize
			if ts.Font != nil && ts.Font.IsVertical() {
				p.gs.AdvanceText(0, adj)
			} else {
				p.gs.AdvanceText(adj*ts.HorizontalScaling/100, 0)
			}
		}
	}
	return nil
}

// showText paints each character of a string operand and advances the
// text matrix by its displacement.
func (p *Processor) showText(data []byte) error {
	ts := &p.gs.Text
	f := ts.Font
	if f == nil {
		return nil
	}
	th := ts.HorizontalScaling / 100
	vertical := f.IsVertical()
	for _, ch := range f.Decode(data) {
		g := &Glyph{
			Font:     f,
			Char:     ch,
			Matrix:   p.gs.TextRenderingMatrix(),
			FontSize: ts.FontSize,
			Mode:     ts.RenderingMode,
		}
		if vertical {
			g.Matrix = model.Translate(-ch.Width/2, -verticalOriginY).Multiply(g.Matrix)
		}
		p.dev.ShowGlyph(p.gs, g)
		if f.Kind == font.KindType3 && g.Visible() {
			if err := p.type3Glyph(g); err != nil {
				return err
			}
		}

		spacing := ts.CharSpacing
		if ch.Space {
			spacing += ts.WordSpacing
		}
		if vertical {
			p.gs.AdvanceText(0, ch.VAdvance*ts.FontSize+spacing)
		} else {
			p.gs.AdvanceText((ch.Width*ts.FontSize+spacing)*th, 0)
		}
	}
	return nil
}

// type3Glyph runs the glyph procedure with glyph space mapped through
// the font matrix.
func (p *Processor) type3Glyph(g *Glyph) error {
	proc, ok := g.Font.CharProc(g.Char.Code)
	if !ok {
		return nil
	}
	if p.tooDeep() {
		p.log.Debug("Type 3 glyph nesting too deep")
		return nil
	}
	data, err := proc.Decode()
	if err != nil {
		p.log.Debug("Type 3 glyph skipped", "code", g.Char.Code, "error", err)
		return nil
	}
	ops, err := contentstream.NewParser(data).Parse()
	if err != nil {
		p.log.Debug("Type 3 glyph truncated", "code", g.Char.Code, "error", err)
	}
	m := g.Font.Matrix().Multiply(g.Matrix)
	return p.nested(ops, g.Font.Resources(), func(gs *GraphicsState) {
		gs.CTM = m
	})
}
