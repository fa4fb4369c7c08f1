package model

import "math"

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// Distance calculates the Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// Rect is an axis-aligned rectangle in PDF user space, y pointing up.
// A normalized Rect has Left <= Right and Bottom <= Top.
type Rect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// NewRect builds a normalized rectangle from two opposite corners.
func NewRect(x0, y0, x1, y1 float64) Rect {
	return Rect{
		Left:   math.Min(x0, x1),
		Right:  math.Max(x0, x1),
		Bottom: math.Min(y0, y1),
		Top:    math.Max(y0, y1),
	}
}

// Normalize swaps edges so that Left <= Right and Bottom <= Top.
func (r Rect) Normalize() Rect {
	return NewRect(r.Left, r.Bottom, r.Right, r.Top)
}

// Width returns Right - Left
func (r Rect) Width() float64 { return r.Right - r.Left }

// Height returns Top - Bottom
func (r Rect) Height() float64 { return r.Top - r.Bottom }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Center returns the center point
func (r Rect) Center() Point {
	return Point{X: (r.Left + r.Right) / 2, Y: (r.Bottom + r.Top) / 2}
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.Left && x <= r.Right && y >= r.Bottom && y <= r.Top
}

// Intersects reports whether the two rectangles overlap or touch.
func (r Rect) Intersects(o Rect) bool {
	return r.Left <= o.Right && o.Left <= r.Right && r.Bottom <= o.Top && o.Bottom <= r.Top
}

// Intersect returns the common area, or the zero Rect when there is none.
func (r Rect) Intersect(o Rect) Rect {
	out := Rect{
		Left:   math.Max(r.Left, o.Left),
		Right:  math.Min(r.Right, o.Right),
		Bottom: math.Max(r.Bottom, o.Bottom),
		Top:    math.Min(r.Top, o.Top),
	}
	if out.Left > out.Right || out.Bottom > out.Top {
		return Rect{}
	}
	return out
}

// Union returns the smallest rectangle containing both.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		Left:   math.Min(r.Left, o.Left),
		Right:  math.Max(r.Right, o.Right),
		Bottom: math.Min(r.Bottom, o.Bottom),
		Top:    math.Max(r.Top, o.Top),
	}
}

// Expand grows the rectangle by dx horizontally and dy vertically on
// each side.
func (r Rect) Expand(dx, dy float64) Rect {
	return Rect{Left: r.Left - dx, Right: r.Right + dx, Bottom: r.Bottom - dy, Top: r.Top + dy}
}

// Matrix is a 2D affine transformation [a b c d e f] in PDF order,
// mapping (x, y) to (a*x + c*y + e, b*x + d*y + f).
type Matrix [6]float64

// Identity returns an identity matrix
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Translate creates a translation matrix
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale creates a scaling matrix
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Rotate creates a rotation matrix (angle in radians)
func Rotate(angle float64) Matrix {
	sin, cos := math.Sincos(angle)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// Multiply returns m × other: the transformation that applies m first
// and then other. The cm operator computes M.Multiply(CTM).
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// Transform applies the matrix transformation to a point
func (m Matrix) Transform(p Point) Point {
	x, y := m.Apply(p.X, p.Y)
	return Point{X: x, Y: y}
}

// Apply transforms the coordinates x, y.
func (m Matrix) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// ApplyVector transforms a displacement, ignoring translation.
func (m Matrix) ApplyVector(dx, dy float64) (float64, float64) {
	return m[0]*dx + m[2]*dy, m[1]*dx + m[3]*dy
}

// TransformRect returns the bounding box of r's four transformed corners.
func (m Matrix) TransformRect(r Rect) Rect {
	x0, y0 := m.Apply(r.Left, r.Bottom)
	out := Rect{Left: x0, Right: x0, Bottom: y0, Top: y0}
	for _, c := range [][2]float64{{r.Right, r.Bottom}, {r.Left, r.Top}, {r.Right, r.Top}} {
		x, y := m.Apply(c[0], c[1])
		out.Left = math.Min(out.Left, x)
		out.Right = math.Max(out.Right, x)
		out.Bottom = math.Min(out.Bottom, y)
		out.Top = math.Max(out.Top, y)
	}
	return out
}

// Determinant returns ad - bc.
func (m Matrix) Determinant() float64 {
	return m[0]*m[3] - m[1]*m[2]
}

// Invert returns the inverse matrix. ok is false for singular matrices.
func (m Matrix) Invert() (inv Matrix, ok bool) {
	det := m.Determinant()
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Matrix{}, false
	}
	inv[0] = m[3] / det
	inv[1] = -m[1] / det
	inv[2] = -m[2] / det
	inv[3] = m[0] / det
	inv[4] = (m[2]*m[5] - m[3]*m[4]) / det
	inv[5] = (m[1]*m[4] - m[0]*m[5]) / det
	return inv, true
}

// ScaleFactor returns the mean linear scale, sqrt(|det|). Line widths
// and dash lengths are scaled by it.
func (m Matrix) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m.Determinant()))
}

// IsIdentity returns true if the matrix is an identity matrix
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}
