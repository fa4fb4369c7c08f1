package model

import (
	"math"
	"testing"
)

// ============================================================================
// Point Tests
// ============================================================================

func TestPointDistance(t *testing.T) {
	tests := []struct {
		name     string
		p1, p2   Point
		expected float64
	}{
		{"same point", Point{0, 0}, Point{0, 0}, 0},
		{"horizontal", Point{0, 0}, Point{3, 0}, 3},
		{"diagonal 3-4-5", Point{0, 0}, Point{3, 4}, 5},
		{"negative coords", Point{-1, -1}, Point{2, 3}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p1.Distance(tt.p2); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Distance() = %v, want %v", got, tt.expected)
			}
		})
	}
}

// ============================================================================
// Rect Tests
// ============================================================================

func TestNewRectNormalizes(t *testing.T) {
	r := NewRect(50, 70, 10, 20)
	want := Rect{Left: 10, Top: 70, Right: 50, Bottom: 20}
	if r != want {
		t.Errorf("NewRect() = %+v, want %+v", r, want)
	}
	if r.Width() != 40 || r.Height() != 50 {
		t.Errorf("size = %vx%v", r.Width(), r.Height())
	}
	if (Rect{Left: 5, Right: 1, Bottom: 3, Top: 0}).Normalize() != (Rect{Left: 1, Right: 5, Bottom: 0, Top: 3}) {
		t.Error("Normalize did not swap edges")
	}
}

func TestRectSetOperations(t *testing.T) {
	a := NewRect(0, 0, 10, 10)
	b := NewRect(5, 5, 20, 20)
	c := NewRect(30, 30, 40, 40)

	if !a.Intersects(b) || a.Intersects(c) {
		t.Error("Intersects gave the wrong answer")
	}
	if got := a.Intersect(b); got != NewRect(5, 5, 10, 10) {
		t.Errorf("Intersect = %+v", got)
	}
	if got := a.Intersect(c); got != (Rect{}) {
		t.Errorf("disjoint Intersect = %+v", got)
	}
	if got := a.Union(c); got != NewRect(0, 0, 40, 40) {
		t.Errorf("Union = %+v", got)
	}
	if !a.Contains(10, 0) || a.Contains(10.5, 0) {
		t.Error("Contains should include edges only")
	}
	if got := a.Expand(1, 2); got != NewRect(-1, -2, 11, 12) {
		t.Errorf("Expand = %+v", got)
	}
	if !NewRect(0, 0, 0, 5).IsEmpty() || a.IsEmpty() {
		t.Error("IsEmpty gave the wrong answer")
	}
}

// ============================================================================
// Matrix Tests
// ============================================================================

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestMatrixMultiplyOrder(t *testing.T) {
	// Scale by 2, then translate by (10, 0).
	m := Scale(2, 2).Multiply(Translate(10, 0))
	x, y := m.Apply(1, 1)
	if !approx(x, 12) || !approx(y, 2) {
		t.Errorf("Apply = (%v, %v), want (12, 2)", x, y)
	}

	// The reverse order translates first.
	x, y = Translate(10, 0).Multiply(Scale(2, 2)).Apply(1, 1)
	if !approx(x, 22) || !approx(y, 2) {
		t.Errorf("Apply = (%v, %v), want (22, 2)", x, y)
	}
}

func TestMatrixInvert(t *testing.T) {
	m := Matrix{2, 1, -1, 3, 5, 7}
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("matrix should be invertible")
	}
	x, y := m.Apply(4, -2)
	bx, by := inv.Apply(x, y)
	if !approx(bx, 4) || !approx(by, -2) {
		t.Errorf("round trip = (%v, %v)", bx, by)
	}
	if _, ok := (Matrix{1, 2, 2, 4, 0, 0}).Invert(); ok {
		t.Error("singular matrix reported invertible")
	}
}

func TestMatrixTransformRect(t *testing.T) {
	r := Rotate(math.Pi / 2).TransformRect(NewRect(0, 0, 10, 5))
	want := NewRect(-5, 0, 0, 10)
	if !approx(r.Left, want.Left) || !approx(r.Right, want.Right) ||
		!approx(r.Bottom, want.Bottom) || !approx(r.Top, want.Top) {
		t.Errorf("TransformRect = %+v, want %+v", r, want)
	}
}

func TestMatrixHelpers(t *testing.T) {
	if !Identity().IsIdentity() || Translate(1, 0).IsIdentity() {
		t.Error("IsIdentity gave the wrong answer")
	}
	if got := Scale(2, 8).ScaleFactor(); !approx(got, 4) {
		t.Errorf("ScaleFactor = %v", got)
	}
	dx, dy := Translate(5, 5).ApplyVector(1, 2)
	if dx != 1 || dy != 2 {
		t.Errorf("ApplyVector = (%v, %v)", dx, dy)
	}
	p := Translate(1, 2).Transform(Point{3, 4})
	if p != (Point{4, 6}) {
		t.Errorf("Transform = %+v", p)
	}
}
