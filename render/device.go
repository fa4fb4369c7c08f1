package render

import (
	"image"
	"log/slog"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/tsawler/folio/graphicsstate"
	"github.com/tsawler/folio/model"
)

// rasterDevice paints into an RGBA working image. The CTM it receives
// maps user space to working-image pixels.
type rasterDevice struct {
	dst    *image.RGBA
	log    *slog.Logger
	images *imageDecoder
	clips  map[*graphicsstate.Clip]*image.Alpha
}

var _ graphicsstate.Device = (*rasterDevice)(nil)

func newRasterDevice(dst *image.RGBA, r graphicsstate.Resolver, log *slog.Logger) *rasterDevice {
	return &rasterDevice{
		dst:    dst,
		log:    log,
		images: &imageDecoder{r: r},
		clips:  make(map[*graphicsstate.Clip]*image.Alpha),
	}
}

// clipMask returns the coverage of a clip chain, or nil when unclipped.
// Clips are immutable, so masks are cached per node.
func (d *rasterDevice) clipMask(c *graphicsstate.Clip) *image.Alpha {
	if c == nil {
		return nil
	}
	if m, ok := d.clips[c]; ok {
		return m
	}
	m := fillMask(c.Path, d.dst.Rect)
	m = intersectMasks(d.clipMask(c.Parent), m)
	d.clips[c] = m
	return m
}

func (d *rasterDevice) FillPath(gs *graphicsstate.GraphicsState, p *graphicsstate.Path, evenOdd bool) {
	d.fill(gs, p.Transform(gs.CTM))
}

func (d *rasterDevice) fill(gs *graphicsstate.GraphicsState, device *graphicsstate.Path) {
	clip := d.clipMask(gs.Clip)
	if clip != nil && clip.Rect.Empty() {
		return
	}
	m := intersectMasks(clip, fillMask(device, d.dst.Rect))
	paintMask(d.dst, m, gs.FillRGBA())
}

func (d *rasterDevice) StrokePath(gs *graphicsstate.GraphicsState, p *graphicsstate.Path) {
	d.stroke(gs, p.Transform(gs.CTM), gs.LineWidth)
}

// stroke outlines a device-space path. width is in user space units.
func (d *rasterDevice) stroke(gs *graphicsstate.GraphicsState, device *graphicsstate.Path, width float64) {
	clip := d.clipMask(gs.Clip)
	if clip != nil && clip.Rect.Empty() {
		return
	}
	scale := gs.CTM.ScaleFactor()
	paths := flatten(device)
	if len(gs.Dash) > 0 {
		dash := make([]float64, len(gs.Dash))
		for i, v := range gs.Dash {
			dash[i] = v * scale
		}
		paths = dashPaths(paths, dash, gs.DashPhase*scale)
	}
	polys := newStroker(gs, width*scale).stroke(paths)
	m := intersectMasks(clip, polygonMask(polys, d.dst.Rect))
	paintMask(d.dst, m, gs.StrokeRGBA())
}

func (d *rasterDevice) ShowGlyph(gs *graphicsstate.GraphicsState, g *graphicsstate.Glyph) {
	if !g.Visible() || g.Font == nil {
		return
	}
	outline, ok := g.Font.Outline(g.Char)
	if !ok || len(outline) == 0 {
		return
	}
	device := outlinePath(outline.Transform(g.Matrix))
	if g.Filled() {
		d.fill(gs, device)
	}
	if g.Stroked() {
		d.stroke(gs, device, gs.LineWidth)
	}
}

func (d *rasterDevice) DrawImage(gs *graphicsstate.GraphicsState, img *graphicsstate.Image) {
	clip := d.clipMask(gs.Clip)
	if clip != nil && clip.Rect.Empty() {
		return
	}
	d.images.fill = gs.FillRGBA()
	src, err := d.images.decode(img)
	if err != nil {
		d.log.Debug("image skipped", "inline", img.Inline, "error", err)
		return
	}

	// Image pixel (u, v) sits at (u/w, 1-v/h) in the unit square.
	w, h := float64(src.Rect.Dx()), float64(src.Rect.Dy())
	m := model.Scale(1/w, -1/h).Multiply(model.Translate(0, 1)).Multiply(gs.CTM)
	if m.Determinant() == 0 {
		return
	}
	s2d := f64.Aff3{m[0], m[2], m[4], m[1], m[3], m[5]}

	var opts *draw.Options
	if clip != nil {
		opts = &draw.Options{DstMask: clip}
	}
	draw.BiLinear.Transform(d.dst, s2d, src, src.Rect, draw.Over, opts)
}
