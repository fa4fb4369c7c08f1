package render

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/tsawler/folio/font"
	"github.com/tsawler/folio/graphicsstate"
	"github.com/tsawler/folio/model"
)

// Coverage masks are *image.Alpha in working-image pixels. A nil mask
// means no clipping; a mask with an empty Rect covers nothing.

var emptyMask = image.NewAlpha(image.Rectangle{})

// subpath is a flattened polyline in device space.
type subpath struct {
	pts    []model.Point
	closed bool
}

// pixelBounds returns the pixels touched by r, limited to clip.
func pixelBounds(r model.Rect, clip image.Rectangle) image.Rectangle {
	if math.IsNaN(r.Left) || math.IsNaN(r.Bottom) || math.IsNaN(r.Right) || math.IsNaN(r.Top) {
		return image.Rectangle{}
	}
	x0 := math.Max(math.Floor(r.Left), float64(clip.Min.X))
	y0 := math.Max(math.Floor(r.Bottom), float64(clip.Min.Y))
	x1 := math.Min(math.Ceil(r.Right), float64(clip.Max.X))
	y1 := math.Min(math.Ceil(r.Top), float64(clip.Max.Y))
	if x0 >= x1 || y0 >= y1 {
		return image.Rectangle{}
	}
	return image.Rect(int(x0), int(y0), int(x1), int(y1))
}

// fillMask rasterizes a device-space path with the non-zero rule.
// Device space has y growing downward, so the path's Bounds Bottom is
// its top pixel row.
func fillMask(p *graphicsstate.Path, bounds image.Rectangle) *image.Alpha {
	r := pixelBounds(p.Bounds(), bounds)
	if r.Empty() {
		return emptyMask
	}
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	pt := func(q model.Point) (float32, float32) {
		return float32(q.X - ox), float32(q.Y - oy)
	}
	open := false
	for _, seg := range p.Segments {
		switch seg.Type {
		case graphicsstate.PathMoveTo:
			if open {
				z.ClosePath()
			}
			z.MoveTo(pt(seg.Points[0]))
			open = true
		case graphicsstate.PathLineTo:
			z.LineTo(pt(seg.Points[0]))
		case graphicsstate.PathCurveTo:
			x1, y1 := pt(seg.Points[0])
			x2, y2 := pt(seg.Points[1])
			x3, y3 := pt(seg.Points[2])
			z.CubeTo(x1, y1, x2, y2, x3, y3)
		case graphicsstate.PathClosePath:
			z.ClosePath()
		}
	}
	if open {
		z.ClosePath()
	}
	return rasterize(z, r)
}

// polygonMask rasterizes polygons that all wind the same way, so
// overlaps never cancel.
func polygonMask(polys [][]model.Point, bounds image.Rectangle) *image.Alpha {
	var box model.Rect
	first := true
	for _, poly := range polys {
		for _, q := range poly {
			if first {
				box = model.Rect{Left: q.X, Right: q.X, Bottom: q.Y, Top: q.Y}
				first = false
				continue
			}
			box.Left, box.Right = min(box.Left, q.X), max(box.Right, q.X)
			box.Bottom, box.Top = min(box.Bottom, q.Y), max(box.Top, q.Y)
		}
	}
	r := pixelBounds(box, bounds)
	if first || r.Empty() {
		return emptyMask
	}
	z := vector.NewRasterizer(r.Dx(), r.Dy())
	ox, oy := float64(r.Min.X), float64(r.Min.Y)
	for _, poly := range polys {
		if len(poly) < 3 {
			continue
		}
		if signedArea(poly) < 0 {
			for i := 0; i < len(poly); i++ {
				q := poly[len(poly)-1-i]
				if i == 0 {
					z.MoveTo(float32(q.X-ox), float32(q.Y-oy))
				} else {
					z.LineTo(float32(q.X-ox), float32(q.Y-oy))
				}
			}
		} else {
			for i, q := range poly {
				if i == 0 {
					z.MoveTo(float32(q.X-ox), float32(q.Y-oy))
				} else {
					z.LineTo(float32(q.X-ox), float32(q.Y-oy))
				}
			}
		}
		z.ClosePath()
	}
	return rasterize(z, r)
}

func rasterize(z *vector.Rasterizer, r image.Rectangle) *image.Alpha {
	m := image.NewAlpha(r)
	z.DrawOp = draw.Src
	z.Draw(m, r, image.Opaque, image.Point{})
	return m
}

func signedArea(poly []model.Point) float64 {
	var a float64
	for i, p := range poly {
		q := poly[(i+1)%len(poly)]
		a += p.X*q.Y - q.X*p.Y
	}
	return a / 2
}

// intersectMasks multiplies two coverage masks.
func intersectMasks(a, b *image.Alpha) *image.Alpha {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	r := a.Rect.Intersect(b.Rect)
	if r.Empty() {
		return emptyMask
	}
	out := image.NewAlpha(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		ai, bi, oi := a.PixOffset(r.Min.X, y), b.PixOffset(r.Min.X, y), out.PixOffset(r.Min.X, y)
		for x := 0; x < r.Dx(); x++ {
			out.Pix[oi+x] = uint8(uint16(a.Pix[ai+x]) * uint16(b.Pix[bi+x]) / 255)
		}
	}
	return out
}

// paintMask composites a flat color through m onto dst.
func paintMask(dst *image.RGBA, m *image.Alpha, c color.NRGBA) {
	if m == nil || m.Rect.Empty() || c.A == 0 {
		return
	}
	draw.DrawMask(dst, m.Rect, image.NewUniform(c), image.Point{}, m, m.Rect.Min, draw.Over)
}

// flatten converts a device-space path to polylines, approximating
// curves by line segments no longer than a few pixels. A subpath holding
// only its moveto point is dropped.
func flatten(p *graphicsstate.Path) []subpath {
	var out []subpath
	var cur *subpath
	var start model.Point
	add := func(q model.Point) {
		if cur == nil || cur.closed {
			out = append(out, subpath{pts: []model.Point{start}})
			cur = &out[len(out)-1]
		}
		cur.pts = append(cur.pts, q)
	}
	for _, seg := range p.Segments {
		switch seg.Type {
		case graphicsstate.PathMoveTo:
			start = seg.Points[0]
			cur = nil
		case graphicsstate.PathLineTo:
			add(seg.Points[0])
		case graphicsstate.PathCurveTo:
			last := start
			if cur != nil && !cur.closed {
				last = cur.pts[len(cur.pts)-1]
			}
			c1, c2, end := seg.Points[0], seg.Points[1], seg.Points[2]
			n := curveSteps(last, c1, c2, end)
			for i := 1; i <= n; i++ {
				add(cubicPoint(last, c1, c2, end, float64(i)/float64(n)))
			}
		case graphicsstate.PathClosePath:
			if cur == nil {
				// A closed single point is a degenerate subpath.
				out = append(out, subpath{pts: []model.Point{start, start}, closed: true})
				cur = &out[len(out)-1]
				continue
			}
			cur.closed = true
		}
	}
	return out
}

func curveSteps(p0, p1, p2, p3 model.Point) int {
	l := dist(p0, p1) + dist(p1, p2) + dist(p2, p3)
	return min(max(int(math.Ceil(l/3)), 1), 256)
}

func cubicPoint(p0, p1, p2, p3 model.Point, t float64) model.Point {
	u := 1 - t
	a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
	return model.Point{
		X: a*p0.X + b*p1.X + c*p2.X + d*p3.X,
		Y: a*p0.Y + b*p1.Y + c*p2.Y + d*p3.Y,
	}
}

func dist(a, b model.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// outlinePath converts a glyph outline, already in device space, to a
// path. Quadratic segments are raised to cubics.
func outlinePath(o font.Outline) *graphicsstate.Path {
	p := graphicsstate.NewPath()
	for _, s := range o {
		switch s.Op {
		case font.SegmentMoveTo:
			p.MoveTo(s.Args[0].X, s.Args[0].Y)
		case font.SegmentLineTo:
			p.LineTo(s.Args[0].X, s.Args[0].Y)
		case font.SegmentQuadTo:
			if !p.HasCurrentPoint {
				continue
			}
			p0, q, end := p.CurrentPoint, s.Args[0], s.Args[1]
			p.CurveTo(
				p0.X+2*(q.X-p0.X)/3, p0.Y+2*(q.Y-p0.Y)/3,
				end.X+2*(q.X-end.X)/3, end.Y+2*(q.Y-end.Y)/3,
				end.X, end.Y)
		case font.SegmentCubeTo:
			p.CurveTo(s.Args[0].X, s.Args[0].Y, s.Args[1].X, s.Args[1].Y, s.Args[2].X, s.Args[2].Y)
		}
	}
	return p
}
