package text

import (
	"errors"
	"testing"

	"github.com/tsawler/folio/model"
)

// char places r with its origin at (x, y): 10pt text, w wide.
func char(r rune, x, y, w float64) Char {
	return Char{
		Rune:     r,
		Box:      model.Rect{Left: x, Right: x + w, Bottom: y - 2, Top: y + 8},
		FontSize: 10,
		Origin:   model.Point{X: x, Y: y},
	}
}

func generated(r rune, x, y float64) Char {
	return Char{
		Rune:      r,
		Box:       model.Rect{Left: x, Right: x, Bottom: y, Top: y},
		Origin:    model.Point{X: x, Y: y},
		Generated: true,
	}
}

// samplePage is "ab cd\r\nef" on two lines.
func samplePage() *TextPage {
	return NewTextPage([]Char{
		char('a', 10, 100, 5),
		char('b', 15, 100, 5),
		generated(' ', 20, 100),
		char('c', 25, 100, 5),
		char('d', 30, 100, 5),
		generated('\r', 35, 100),
		generated('\n', 35, 100),
		char('e', 10, 86, 5),
		char('f', 15, 86, 5),
	})
}

// ============================================================================
// Text
// ============================================================================

func TestText(t *testing.T) {
	tp := samplePage()
	tests := []struct {
		name         string
		start, count int
		want         string
		wantErr      bool
	}{
		{"all", 0, 9, "ab cd\r\nef", false},
		{"tail", 7, 2, "ef", false},
		{"empty", 3, 0, "", false},
		{"empty at end", 9, 0, "", false},
		{"past end", 8, 2, "", true},
		{"negative start", -1, 1, "", true},
		{"negative count", 0, -1, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tp.Text(tt.start, tt.count)
			if tt.wantErr {
				if !errors.Is(err, ErrRange) {
					t.Fatalf("expected ErrRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != tt.count {
				t.Errorf("expected %d runes, got %d", tt.count, len(got))
			}
			if string(got) != tt.want {
				t.Errorf("expected %q, got %q", tt.want, string(got))
			}
		})
	}
}

func TestCharQueries(t *testing.T) {
	tp := samplePage()
	if tp.CharCount() != 9 {
		t.Fatalf("expected 9 chars, got %d", tp.CharCount())
	}

	r, err := tp.Unicode(3)
	if err != nil || r != 'c' {
		t.Errorf("expected 'c', got %q (%v)", r, err)
	}
	box, err := tp.CharBox(0)
	want := model.Rect{Left: 10, Right: 15, Bottom: 98, Top: 108}
	if err != nil || box != want {
		t.Errorf("expected %+v, got %+v (%v)", want, box, err)
	}
	if size, _ := tp.FontSize(0); size != 10 {
		t.Errorf("expected font size 10, got %f", size)
	}
	if size, _ := tp.FontSize(2); size != 0 {
		t.Errorf("expected generated char font size 0, got %f", size)
	}

	for _, i := range []int{-1, 9} {
		if _, err := tp.Unicode(i); !errors.Is(err, ErrRange) {
			t.Errorf("Unicode(%d): expected ErrRange, got %v", i, err)
		}
		if _, err := tp.CharBox(i); !errors.Is(err, ErrRange) {
			t.Errorf("CharBox(%d): expected ErrRange, got %v", i, err)
		}
		if _, err := tp.FontSize(i); !errors.Is(err, ErrRange) {
			t.Errorf("FontSize(%d): expected ErrRange, got %v", i, err)
		}
	}
}

func TestDirection(t *testing.T) {
	if d := samplePage().Direction(); d != LTR {
		t.Errorf("expected LTR, got %v", d)
	}
	if d := NewTextPage(nil).Direction(); d != Neutral {
		t.Errorf("expected Neutral, got %v", d)
	}
}

// ============================================================================
// Hit testing
// ============================================================================

func TestCharIndexAtPos(t *testing.T) {
	tp := samplePage()
	tests := []struct {
		name       string
		x, y       float64
		xTol, yTol float64
		want       int
	}{
		{"inside a", 12, 100, 0, 0, 0},
		{"shared edge takes first", 15, 100, 0, 0, 0},
		{"second line", 17, 90, 0, 0, 8},
		{"miss", 40, 100, 0, 0, -1},
		{"tolerance", 40, 100, 6, 0, 4},
		{"nearest within tolerance", 22, 100, 3, 0, 1},
		{"vertical tolerance", 12, 112, 0, 5, 0},
		{"generated never hit", 20, 100, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tp.CharIndexAtPos(tt.x, tt.y, tt.xTol, tt.yTol); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

// ============================================================================
// Rectangles
// ============================================================================

func TestRects(t *testing.T) {
	tp := samplePage()
	line1 := model.Rect{Left: 10, Right: 35, Bottom: 98, Top: 108}
	line2 := model.Rect{Left: 10, Right: 20, Bottom: 84, Top: 94}

	tests := []struct {
		name         string
		start, count int
		want         []model.Rect
		wantErr      bool
	}{
		{"whole page", 0, -1, []model.Rect{line1, line2}, false},
		{"explicit count", 0, 9, []model.Rect{line1, line2}, false},
		{"one char", 3, 1, []model.Rect{{Left: 25, Right: 30, Bottom: 98, Top: 108}}, false},
		{"only generated", 5, 2, nil, false},
		{"from end", 9, -1, nil, false},
		{"too long", 0, 10, nil, true},
		{"negative start", -1, 1, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tp.Rects(tt.start, tt.count)
			if tt.wantErr {
				if !errors.Is(err, ErrRange) {
					t.Fatalf("expected ErrRange, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d rects, got %d: %+v", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("rect %d: expected %+v, got %+v", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestRectsSplitOnBackwardJump(t *testing.T) {
	// Two columns on the same baseline, the second shown first.
	tp := NewTextPage([]Char{
		char('x', 100, 50, 5),
		char('y', 105, 50, 5),
		char('a', 10, 50, 5),
		char('b', 15, 50, 5),
	})
	got, _ := tp.Rects(0, -1)
	if len(got) != 2 {
		t.Fatalf("expected 2 rects, got %d: %+v", len(got), got)
	}
	if got[0].Left != 100 || got[1].Right != 20 {
		t.Errorf("unexpected rects %+v", got)
	}
}

func TestRectsRightToLeft(t *testing.T) {
	tp := NewTextPage([]Char{
		char('ש', 30, 50, 5),
		char('ל', 25, 50, 5),
		char('ו', 20, 50, 5),
	})
	got, _ := tp.Rects(0, -1)
	want := model.Rect{Left: 20, Right: 35, Bottom: 48, Top: 58}
	if len(got) != 1 || got[0] != want {
		t.Errorf("expected [%+v], got %+v", want, got)
	}
}

func TestCountRectsAndGetRect(t *testing.T) {
	tp := samplePage()
	if n := tp.CountRects(0, -1); n != 2 {
		t.Fatalf("expected 2 rects, got %d", n)
	}
	r, err := tp.GetRect(1)
	if err != nil || r.Bottom != 84 {
		t.Errorf("expected second line rect, got %+v (%v)", r, err)
	}
	if _, err := tp.GetRect(2); !errors.Is(err, ErrRange) {
		t.Errorf("expected ErrRange, got %v", err)
	}

	if n := tp.CountRects(5, 100); n != 0 {
		t.Errorf("expected 0 rects for a bad range, got %d", n)
	}
	if _, err := tp.GetRect(0); !errors.Is(err, ErrRange) {
		t.Errorf("expected rects cleared after a bad range, got %v", err)
	}
}

// ============================================================================
// Bounded text
// ============================================================================

func TestBoundedText(t *testing.T) {
	tp := samplePage()

	if n := tp.BoundedText(9, 110, 21, 95, nil); n != 2 {
		t.Errorf("expected 2 chars in the box, got %d", n)
	}

	buf := make([]rune, 1)
	if n := tp.BoundedText(9, 110, 21, 95, buf); n != 1 || buf[0] != 'a' {
		t.Errorf("expected 1 rune 'a', got %d %q", n, buf)
	}

	buf = make([]rune, 10)
	n := tp.BoundedText(0, 200, 100, 0, buf)
	if string(buf[:n]) != "abcdef" {
		t.Errorf("expected %q, got %q", "abcdef", string(buf[:n]))
	}

	// Edges given bottom-up still work.
	if n := tp.BoundedText(9, 95, 21, 110, nil); n != 2 {
		t.Errorf("expected 2 chars with swapped edges, got %d", n)
	}
	if n := tp.BoundedText(200, 300, 300, 250, nil); n != 0 {
		t.Errorf("expected 0 chars outside the text, got %d", n)
	}
}
