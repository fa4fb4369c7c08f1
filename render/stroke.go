package render

import (
	"math"

	"github.com/tsawler/folio/graphicsstate"
	"github.com/tsawler/folio/model"
)

// stroker turns device-space polylines into polygons covering the
// stroke outline.
type stroker struct {
	hw    float64 // half the line width in pixels
	cap   int
	join  int
	miter float64
	polys [][]model.Point
}

func newStroker(gs *graphicsstate.GraphicsState, width float64) *stroker {
	return &stroker{
		hw:    max(width, 1) / 2,
		cap:   gs.LineCap,
		join:  gs.LineJoin,
		miter: gs.MiterLimit,
	}
}

// stroke adds the outline of every subpath.
func (s *stroker) stroke(paths []subpath) [][]model.Point {
	for _, sp := range paths {
		s.subpath(sp)
	}
	return s.polys
}

func (s *stroker) subpath(sp subpath) {
	pts := dedupe(sp.pts)
	if len(pts) == 1 {
		// Zero-length subpaths show only their caps.
		if len(sp.pts) > 1 {
			switch s.cap {
			case graphicsstate.CapRound:
				s.circle(pts[0])
			case graphicsstate.CapSquare:
				s.square(pts[0])
			}
		}
		return
	}
	closed := sp.closed && len(pts) > 2
	if closed && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}

	n := len(pts)
	segs := n - 1
	if closed {
		segs = n
	}
	for i := 0; i < segs; i++ {
		s.segment(pts[i], pts[(i+1)%n])
	}

	if closed {
		for i := range n {
			s.joint(pts[(i+n-1)%n], pts[i], pts[(i+1)%n])
		}
		return
	}
	for i := 1; i < n-1; i++ {
		s.joint(pts[i-1], pts[i], pts[i+1])
	}
	s.endCap(pts[1], pts[0])
	s.endCap(pts[n-2], pts[n-1])
}

func dedupe(pts []model.Point) []model.Point {
	out := make([]model.Point, 0, len(pts))
	for _, p := range pts {
		if len(out) > 0 && dist(out[len(out)-1], p) < 1e-9 {
			continue
		}
		out = append(out, p)
	}
	return out
}

// normal returns the left normal of a→b scaled to the half width.
func (s *stroker) normal(a, b model.Point) model.Point {
	l := dist(a, b)
	return model.Point{X: -(b.Y - a.Y) / l * s.hw, Y: (b.X - a.X) / l * s.hw}
}

func add(a, b model.Point) model.Point { return model.Point{X: a.X + b.X, Y: a.Y + b.Y} }
func sub(a, b model.Point) model.Point { return model.Point{X: a.X - b.X, Y: a.Y - b.Y} }

func (s *stroker) segment(a, b model.Point) {
	n := s.normal(a, b)
	s.polys = append(s.polys, []model.Point{add(a, n), add(b, n), sub(b, n), sub(a, n)})
}

// joint fills the wedge between the segments prev→v and v→next.
func (s *stroker) joint(prev, v, next model.Point) {
	d0x, d0y := v.X-prev.X, v.Y-prev.Y
	d1x, d1y := next.X-v.X, next.Y-v.Y
	cross := d0x*d1y - d0y*d1x
	l0, l1 := math.Hypot(d0x, d0y), math.Hypot(d1x, d1y)
	if math.Abs(cross) < 1e-12*l0*l1 && d0x*d1x+d0y*d1y > 0 {
		return
	}
	if s.join == graphicsstate.JoinRound {
		s.circle(v)
		return
	}
	n0, n1 := s.normal(prev, v), s.normal(v, next)
	if cross > 0 {
		n0, n1 = model.Point{X: -n0.X, Y: -n0.Y}, model.Point{X: -n1.X, Y: -n1.Y}
	}
	o0, o1 := add(v, n0), add(v, n1)
	if s.join == graphicsstate.JoinMiter {
		cosHalf := math.Sqrt(max((1+(d0x*d1x+d0y*d1y)/(l0*l1))/2, 0))
		if cosHalf > 1e-9 && 1/cosHalf <= s.miter {
			mid := add(n0, n1)
			ml := math.Hypot(mid.X, mid.Y)
			if ml > 1e-12 {
				tip := model.Point{X: v.X + mid.X/ml*s.hw/cosHalf, Y: v.Y + mid.Y/ml*s.hw/cosHalf}
				s.polys = append(s.polys, []model.Point{v, o0, tip, o1})
				return
			}
		}
	}
	s.polys = append(s.polys, []model.Point{v, o0, o1})
}

// endCap adds the cap at end for a segment arriving from from.
func (s *stroker) endCap(from, end model.Point) {
	switch s.cap {
	case graphicsstate.CapRound:
		s.circle(end)
	case graphicsstate.CapSquare:
		n := s.normal(from, end)
		d := model.Point{X: n.Y, Y: -n.X} // along the segment, half width long
		s.polys = append(s.polys, []model.Point{add(end, n), add(add(end, n), d), add(sub(end, n), d), sub(end, n)})
	}
}

func (s *stroker) circle(c model.Point) {
	steps := min(max(int(s.hw*4), 8), 64)
	poly := make([]model.Point, steps)
	for i := range steps {
		a := 2 * math.Pi * float64(i) / float64(steps)
		poly[i] = model.Point{X: c.X + s.hw*math.Cos(a), Y: c.Y + s.hw*math.Sin(a)}
	}
	s.polys = append(s.polys, poly)
}

func (s *stroker) square(c model.Point) {
	h := s.hw
	s.polys = append(s.polys, []model.Point{
		{X: c.X - h, Y: c.Y - h}, {X: c.X + h, Y: c.Y - h}, {X: c.X + h, Y: c.Y + h}, {X: c.X - h, Y: c.Y + h},
	})
}

// dashPaths splits subpaths into the "on" pieces of a dash pattern.
// Lengths are in device pixels.
func dashPaths(paths []subpath, dash []float64, phase float64) []subpath {
	var total float64
	for _, d := range dash {
		total += d
	}
	if total <= 0 {
		return paths
	}
	var out []subpath
	for _, sp := range paths {
		pts := sp.pts
		if sp.closed && len(pts) > 1 {
			pts = append(append([]model.Point(nil), pts...), pts[0])
		}

		// Each subpath restarts the pattern at the phase.
		idx, on := 0, true
		left := dash[0]
		for p := math.Mod(phase, total); p > 0; {
			if p < left {
				left -= p
				break
			}
			p -= left
			idx = (idx + 1) % len(dash)
			on = !on
			left = dash[idx]
		}

		var cur []model.Point
		if on {
			cur = []model.Point{pts[0]}
		}
		for i := 1; i < len(pts); i++ {
			a, b := pts[i-1], pts[i]
			seg := dist(a, b)
			pos := 0.0
			for seg-pos > left {
				pos += left
				t := pos / seg
				q := model.Point{X: a.X + (b.X-a.X)*t, Y: a.Y + (b.Y-a.Y)*t}
				if on {
					out = append(out, subpath{pts: append(cur, q)})
					cur = nil
				} else {
					cur = []model.Point{q}
				}
				on = !on
				idx = (idx + 1) % len(dash)
				left = dash[idx]
			}
			left -= seg - pos
			if on {
				cur = append(cur, b)
			}
		}
		if on && len(cur) > 1 {
			out = append(out, subpath{pts: cur})
		}
	}
	return out
}
