package graphicsstate

import "github.com/tsawler/folio/model"

// PathSegmentType is the kind of a path segment.
type PathSegmentType int

const (
	PathMoveTo PathSegmentType = iota
	PathLineTo
	PathCurveTo // cubic Bézier: two control points, then the end point
	PathClosePath
)

// PathSegment is one construction step. MoveTo and LineTo carry one
// point, CurveTo three and ClosePath none.
type PathSegment struct {
	Type   PathSegmentType
	Points []model.Point
}

// Path is the current path of a content stream, in user space until
// painted.
type Path struct {
	Segments []PathSegment

	CurrentPoint    model.Point
	SubpathStart    model.Point // where h returns to
	HasCurrentPoint bool
}

// NewPath returns an empty path.
func NewPath() *Path {
	return &Path{Segments: make([]PathSegment, 0)}
}

func (p *Path) add(t PathSegmentType, pts ...model.Point) {
	p.Segments = append(p.Segments, PathSegment{Type: t, Points: pts})
	if n := len(pts); n > 0 {
		p.CurrentPoint = pts[n-1]
	}
}

// MoveTo begins a subpath (m).
func (p *Path) MoveTo(x, y float64) {
	pt := model.Point{X: x, Y: y}
	p.add(PathMoveTo, pt)
	p.SubpathStart = pt
	p.HasCurrentPoint = true
}

// LineTo adds a straight segment (l). Without a current point it
// starts a subpath instead.
func (p *Path) LineTo(x, y float64) {
	if !p.HasCurrentPoint {
		p.MoveTo(x, y)
		return
	}
	p.add(PathLineTo, model.Point{X: x, Y: y})
}

// CurveTo adds a cubic Bézier curve (c).
func (p *Path) CurveTo(x1, y1, x2, y2, x3, y3 float64) {
	if !p.HasCurrentPoint {
		p.MoveTo(x1, y1)
	}
	p.add(PathCurveTo, model.Point{X: x1, Y: y1}, model.Point{X: x2, Y: y2}, model.Point{X: x3, Y: y3})
}

// CurveToV is the v operator: the first control point is the current
// point.
func (p *Path) CurveToV(x2, y2, x3, y3 float64) {
	if p.HasCurrentPoint {
		p.CurveTo(p.CurrentPoint.X, p.CurrentPoint.Y, x2, y2, x3, y3)
	}
}

// CurveToY is the y operator: the second control point is the end
// point.
func (p *Path) CurveToY(x1, y1, x3, y3 float64) {
	if p.HasCurrentPoint {
		p.CurveTo(x1, y1, x3, y3, x3, y3)
	}
}

// ClosePath closes the subpath (h) and returns to its start.
func (p *Path) ClosePath() {
	if !p.HasCurrentPoint {
		return
	}
	p.add(PathClosePath)
	p.CurrentPoint = p.SubpathStart
}

// Rectangle adds a closed rectangular subpath (re). Negative sizes are
// kept; the winding direction follows their signs.
func (p *Path) Rectangle(x, y, width, height float64) {
	p.MoveTo(x, y)
	p.LineTo(x+width, y)
	p.LineTo(x+width, y+height)
	p.LineTo(x, y+height)
	p.ClosePath()
}

// Clear empties the path after it is painted or discarded.
func (p *Path) Clear() {
	p.Segments = p.Segments[:0]
	p.HasCurrentPoint = false
}

// IsEmpty reports whether the path has no segments.
func (p *Path) IsEmpty() bool { return len(p.Segments) == 0 }

// Transform returns a copy of the path mapped by m.
func (p *Path) Transform(m model.Matrix) *Path {
	out := &Path{
		Segments:        make([]PathSegment, len(p.Segments)),
		CurrentPoint:    m.Transform(p.CurrentPoint),
		SubpathStart:    m.Transform(p.SubpathStart),
		HasCurrentPoint: p.HasCurrentPoint,
	}
	for i, seg := range p.Segments {
		pts := make([]model.Point, len(seg.Points))
		for j, pt := range seg.Points {
			pts[j] = m.Transform(pt)
		}
		out.Segments[i] = PathSegment{Type: seg.Type, Points: pts}
	}
	return out
}

// Bounds returns the box of every point, control points included. An
// empty path has a zero box.
func (p *Path) Bounds() model.Rect {
	var r model.Rect
	seen := false
	for _, seg := range p.Segments {
		for _, pt := range seg.Points {
			if !seen {
				r = model.Rect{Left: pt.X, Right: pt.X, Bottom: pt.Y, Top: pt.Y}
				seen = true
				continue
			}
			r.Left, r.Right = min(r.Left, pt.X), max(r.Right, pt.X)
			r.Bottom, r.Top = min(r.Bottom, pt.Y), max(r.Top, pt.Y)
		}
	}
	return r
}

// Rect reports whether the path is one axis-aligned rectangle, as re
// builds, and returns it.
func (p *Path) Rect() (model.Rect, bool) {
	segs := p.Segments
	if len(segs) != 5 || segs[0].Type != PathMoveTo || segs[4].Type != PathClosePath {
		return model.Rect{}, false
	}
	var corners [4]model.Point
	corners[0] = segs[0].Points[0]
	for i := 1; i < 4; i++ {
		if segs[i].Type != PathLineTo {
			return model.Rect{}, false
		}
		corners[i] = segs[i].Points[0]
	}
	for i, a := range corners {
		b := corners[(i+1)%4]
		if a.X != b.X && a.Y != b.Y {
			return model.Rect{}, false
		}
	}
	return p.Bounds(), true
}
