package graphicsstate

import (
	"fmt"
	"image/color"
	"math"
	"slices"

	"github.com/tsawler/folio/font"
	"github.com/tsawler/folio/model"
)

// Line cap styles
const (
	CapButt = iota
	CapRound
	CapSquare
)

// Line join styles
const (
	JoinMiter = iota
	JoinRound
	JoinBevel
)

// Clip is one clipping path in device space. Clips form an immutable
// chain; the visible region is the intersection of every path on it.
type Clip struct {
	Parent  *Clip
	Path    *Path
	EvenOdd bool
}

// Depth returns the number of paths on the chain.
func (c *Clip) Depth() int {
	n := 0
	for ; c != nil; c = c.Parent {
		n++
	}
	return n
}

// GraphicsState represents the PDF graphics state
type GraphicsState struct {
	// Current Transformation Matrix
	CTM model.Matrix

	// Clipping chain; nil means unclipped.
	Clip *Clip

	// Text state
	Text TextState

	// Graphics state stack (for q/Q operators)
	stack []*GraphicsState

	// Line attributes
	LineWidth  float64
	LineCap    int
	LineJoin   int
	MiterLimit float64
	Dash       []float64
	DashPhase  float64

	// Color
	StrokeSpace *ColorSpace
	StrokeColor []float64
	FillSpace   *ColorSpace
	FillColor   []float64
	StrokeAlpha float64
	FillAlpha   float64
}

// TextState represents text-specific state
type TextState struct {
	// Font and size
	Font     *font.Font
	FontName string
	FontSize float64

	// Character and word spacing
	CharSpacing float64
	WordSpacing float64

	// Horizontal scaling (percentage)
	HorizontalScaling float64

	// Leading (line spacing)
	Leading float64

	// Text rendering mode
	RenderingMode int

	// Text rise
	Rise float64

	// Text matrices
	TextMatrix     model.Matrix
	TextLineMatrix model.Matrix
}

// NewGraphicsState creates a new graphics state with default values
func NewGraphicsState() *GraphicsState {
	return &GraphicsState{
		CTM:         model.Identity(),
		LineWidth:   1.0,
		MiterLimit:  10,
		StrokeSpace: DeviceGray,
		StrokeColor: []float64{0},
		FillSpace:   DeviceGray,
		FillColor:   []float64{0},
		StrokeAlpha: 1,
		FillAlpha:   1,
		Text: TextState{
			FontSize:          12.0,
			HorizontalScaling: 100.0,
			TextMatrix:        model.Identity(),
			TextLineMatrix:    model.Identity(),
		},
	}
}

// Clone creates a deep copy of the graphics state, without the stack.
func (gs *GraphicsState) Clone() *GraphicsState {
	clone := *gs
	clone.stack = nil
	clone.Dash = slices.Clone(gs.Dash)
	clone.StrokeColor = slices.Clone(gs.StrokeColor)
	clone.FillColor = slices.Clone(gs.FillColor)
	return &clone
}

// Save pushes the current graphics state onto the stack (q operator)
func (gs *GraphicsState) Save() {
	gs.stack = append(gs.stack, gs.Clone())
}

// Depth returns the number of saved states.
func (gs *GraphicsState) Depth() int { return len(gs.stack) }

// Restore pops a graphics state from the stack (Q operator)
func (gs *GraphicsState) Restore() error {
	if len(gs.stack) == 0 {
		return fmt.Errorf("graphics state stack underflow")
	}

	saved := gs.stack[len(gs.stack)-1]
	stack := gs.stack[:len(gs.stack)-1]
	*gs = *saved
	gs.stack = stack
	return nil
}

// Transform applies a transformation matrix to CTM (cm operator)
func (gs *GraphicsState) Transform(m model.Matrix) {
	gs.CTM = m.Multiply(gs.CTM)
}

// Intersect adds p, given in user space, to the clipping chain.
func (gs *GraphicsState) Intersect(p *Path, evenOdd bool) {
	gs.Clip = &Clip{Parent: gs.Clip, Path: p.Transform(gs.CTM), EvenOdd: evenOdd}
}

// SetLineWidth sets the line width (w operator)
func (gs *GraphicsState) SetLineWidth(width float64) {
	gs.LineWidth = width
}

// SetDash sets the dash pattern (d operator). Negative lengths and
// all-zero arrays produce a solid line.
func (gs *GraphicsState) SetDash(array []float64, phase float64) {
	total := 0.0
	for _, v := range array {
		if v < 0 {
			gs.Dash, gs.DashPhase = nil, 0
			return
		}
		total += v
	}
	if total == 0 {
		gs.Dash, gs.DashPhase = nil, 0
		return
	}
	gs.Dash = slices.Clone(array)
	gs.DashPhase = phase
}

// SetStrokeSpace selects the stroking color space and its initial color.
func (gs *GraphicsState) SetStrokeSpace(cs *ColorSpace) {
	gs.StrokeSpace = cs
	gs.StrokeColor = cs.Initial()
}

// SetFillSpace selects the nonstroking color space and its initial color.
func (gs *GraphicsState) SetFillSpace(cs *ColorSpace) {
	gs.FillSpace = cs
	gs.FillColor = cs.Initial()
}

// SetStrokeColorRGB sets the stroke color (RG operator)
func (gs *GraphicsState) SetStrokeColorRGB(r, g, b float64) {
	gs.StrokeSpace = DeviceRGB
	gs.StrokeColor = []float64{r, g, b}
}

// SetFillColorRGB sets the fill color (rg operator)
func (gs *GraphicsState) SetFillColorRGB(r, g, b float64) {
	gs.FillSpace = DeviceRGB
	gs.FillColor = []float64{r, g, b}
}

// FillRGBA returns the nonstroking color with its constant alpha.
func (gs *GraphicsState) FillRGBA() color.NRGBA {
	r, g, b := gs.FillSpace.RGB(gs.FillColor)
	return toNRGBA(r, g, b, gs.FillAlpha)
}

// StrokeRGBA returns the stroking color with its constant alpha.
func (gs *GraphicsState) StrokeRGBA() color.NRGBA {
	r, g, b := gs.StrokeSpace.RGB(gs.StrokeColor)
	return toNRGBA(r, g, b, gs.StrokeAlpha)
}

func toNRGBA(r, g, b, a float64) color.NRGBA {
	return color.NRGBA{
		R: uint8(math.Round(r * 255)),
		G: uint8(math.Round(g * 255)),
		B: uint8(math.Round(b * 255)),
		A: uint8(math.Round(clamp01(a) * 255)),
	}
}

// SetFont sets the current font (Tf operator)
func (gs *GraphicsState) SetFont(name string, f *font.Font, size float64) {
	gs.Text.FontName = name
	gs.Text.Font = f
	gs.Text.FontSize = size
}

// SetCharSpacing sets character spacing (Tc operator)
func (gs *GraphicsState) SetCharSpacing(spacing float64) {
	gs.Text.CharSpacing = spacing
}

// SetWordSpacing sets word spacing (Tw operator)
func (gs *GraphicsState) SetWordSpacing(spacing float64) {
	gs.Text.WordSpacing = spacing
}

// SetHorizontalScaling sets horizontal scaling (Tz operator)
func (gs *GraphicsState) SetHorizontalScaling(scale float64) {
	gs.Text.HorizontalScaling = scale
}

// SetLeading sets text leading (TL operator)
func (gs *GraphicsState) SetLeading(leading float64) {
	gs.Text.Leading = leading
}

// SetRenderingMode sets text rendering mode (Tr operator)
func (gs *GraphicsState) SetRenderingMode(mode int) {
	gs.Text.RenderingMode = mode
}

// SetTextRise sets text rise (Ts operator)
func (gs *GraphicsState) SetTextRise(rise float64) {
	gs.Text.Rise = rise
}

// BeginText initializes text state (BT operator)
func (gs *GraphicsState) BeginText() {
	gs.Text.TextMatrix = model.Identity()
	gs.Text.TextLineMatrix = model.Identity()
}

// SetTextMatrix sets the text matrix (Tm operator)
func (gs *GraphicsState) SetTextMatrix(m model.Matrix) {
	gs.Text.TextMatrix = m
	gs.Text.TextLineMatrix = m
}

// TranslateText translates the text matrix (Td operator)
func (gs *GraphicsState) TranslateText(tx, ty float64) {
	// Tlm = T(tx, ty) × Tlm
	gs.Text.TextLineMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextLineMatrix)
	gs.Text.TextMatrix = gs.Text.TextLineMatrix
}

// TranslateTextSetLeading translates text and sets leading (TD operator)
func (gs *GraphicsState) TranslateTextSetLeading(tx, ty float64) {
	gs.SetLeading(-ty)
	gs.TranslateText(tx, ty)
}

// NextLine moves to next line (T* operator)
func (gs *GraphicsState) NextLine() {
	gs.TranslateText(0, -gs.Text.Leading)
}

// AdvanceText moves the text matrix by a text space displacement.
func (gs *GraphicsState) AdvanceText(tx, ty float64) {
	gs.Text.TextMatrix = model.Translate(tx, ty).Multiply(gs.Text.TextMatrix)
}

// TextRenderingMatrix maps text space, scaled to one em, to device
// space: [Tfs×Th 0 0 Tfs 0 Trise] × Tm × CTM.
func (gs *GraphicsState) TextRenderingMatrix() model.Matrix {
	ts := gs.Text
	m := model.Matrix{ts.FontSize * ts.HorizontalScaling / 100, 0, 0, ts.FontSize, 0, ts.Rise}
	return m.Multiply(ts.TextMatrix).Multiply(gs.CTM)
}

// GetTextPosition returns the current text position in device space
func (gs *GraphicsState) GetTextPosition() (x, y float64) {
	p := model.Translate(0, gs.Text.Rise).Multiply(gs.Text.TextMatrix).Multiply(gs.CTM)
	return p[4], p[5]
}

// GetEffectiveFontSize returns the font size accounting for text matrix
// and CTM scaling.
func (gs *GraphicsState) GetEffectiveFontSize() float64 {
	m := gs.Text.TextMatrix.Multiply(gs.CTM)
	return math.Abs(gs.Text.FontSize) * math.Hypot(m[2], m[3])
}
