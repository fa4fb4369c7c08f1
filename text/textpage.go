package text

import (
	"errors"
	"math"

	"github.com/tsawler/folio/model"
)

var (
	// ErrNilPage is returned by Load for a nil page.
	ErrNilPage = errors.New("nil page")

	// ErrRange is returned for character indices and ranges outside the page.
	ErrRange = errors.New("character index out of range")
)

// TextPage is the ordered character layer of one page.
type TextPage struct {
	chars []Char
	rects []model.Rect // result of the last CountRects
}

// NewTextPage wraps chars, which must be in reading order.
func NewTextPage(chars []Char) *TextPage {
	return &TextPage{chars: chars}
}

// CharCount returns the number of characters, generated ones included.
func (tp *TextPage) CharCount() int { return len(tp.chars) }

// Chars returns the characters. The slice must not be modified.
func (tp *TextPage) Chars() []Char { return tp.chars }

// Char returns character i.
func (tp *TextPage) Char(i int) (Char, error) {
	if i < 0 || i >= len(tp.chars) {
		return Char{}, ErrRange
	}
	return tp.chars[i], nil
}

// Text returns count runes starting at start.
func (tp *TextPage) Text(start, count int) ([]rune, error) {
	if start < 0 || count < 0 || start+count > len(tp.chars) {
		return nil, ErrRange
	}
	out := make([]rune, count)
	for i := range count {
		out[i] = tp.chars[start+i].Rune
	}
	return out, nil
}

// String returns the whole page text.
func (tp *TextPage) String() string {
	out := make([]rune, len(tp.chars))
	for i, c := range tp.chars {
		out[i] = c.Rune
	}
	return string(out)
}

// Unicode returns the code point of character i.
func (tp *TextPage) Unicode(i int) (rune, error) {
	c, err := tp.Char(i)
	return c.Rune, err
}

// CharBox returns the bounding box of character i in page space.
func (tp *TextPage) CharBox(i int) (model.Rect, error) {
	c, err := tp.Char(i)
	return c.Box, err
}

// FontSize returns the font size of character i. Generated characters
// report 0.
func (tp *TextPage) FontSize(i int) (float64, error) {
	c, err := tp.Char(i)
	return c.FontSize, err
}

// Direction returns the dominant writing direction of the page.
func (tp *TextPage) Direction() Direction {
	return DetectDirection(tp.String())
}

// CharIndexAtPos returns the character at (x, y): the first one whose
// box contains the point, else the nearest one whose box grown by the
// tolerances contains it, else -1. Generated characters are never hit.
func (tp *TextPage) CharIndexAtPos(x, y, xTol, yTol float64) int {
	for i, c := range tp.chars {
		if !c.Generated && c.Box.Contains(x, y) {
			return i
		}
	}
	best, bestDist := -1, math.Inf(1)
	p := model.Point{X: x, Y: y}
	for i, c := range tp.chars {
		if c.Generated || !c.Box.Expand(xTol, yTol).Contains(x, y) {
			continue
		}
		if d := c.Box.Center().Distance(p); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Rects returns the rectangles covering count characters from start;
// count -1 means to the end. Runs of characters on one line merge into
// a single rectangle. Generated line breaks end a run.
func (tp *TextPage) Rects(start, count int) ([]model.Rect, error) {
	if count == -1 && start >= 0 && start <= len(tp.chars) {
		count = len(tp.chars) - start
	}
	if start < 0 || count < 0 || start+count > len(tp.chars) {
		return nil, ErrRange
	}

	var (
		out  []model.Rect
		cur  model.Rect
		prev *Char
	)
	flush := func() {
		if prev != nil {
			out = append(out, cur)
			prev = nil
		}
	}
	for i := start; i < start+count; i++ {
		c := &tp.chars[i]
		if c.Generated {
			if c.Rune == '\r' || c.Rune == '\n' {
				flush()
			}
			continue
		}
		if prev != nil && sameRun(prev, c) {
			cur = cur.Union(c.Box)
		} else {
			flush()
			cur = c.Box
		}
		prev = c
	}
	flush()
	return out, nil
}

// sameRun reports whether b continues the line of a in reading order.
func sameRun(a, b *Char) bool {
	h := math.Max(a.Box.Height(), b.Box.Height())
	if math.Abs(a.Origin.Y-b.Origin.Y) > h/2 {
		return false
	}
	tol := h / 4
	if charDirection(a.Rune) == RTL && charDirection(b.Rune) == RTL {
		return b.Box.Right <= a.Box.Right+tol
	}
	return b.Box.Left >= a.Box.Left-tol
}

// CountRects computes the rectangles for a range and keeps them for
// GetRect. It returns 0 for an invalid range.
func (tp *TextPage) CountRects(start, count int) int {
	rects, err := tp.Rects(start, count)
	if err != nil {
		tp.rects = nil
		return 0
	}
	tp.rects = rects
	return len(rects)
}

// GetRect returns rectangle i of the last CountRects call.
func (tp *TextPage) GetRect(i int) (model.Rect, error) {
	if i < 0 || i >= len(tp.rects) {
		return model.Rect{}, ErrRange
	}
	return tp.rects[i], nil
}

// BoundedText collects the characters whose boxes intersect the
// rectangle. With an empty buf it returns how many there are; otherwise
// it copies up to len(buf) of them and returns the number copied.
func (tp *TextPage) BoundedText(left, top, right, bottom float64, buf []rune) int {
	area := model.NewRect(left, bottom, right, top)
	n := 0
	for _, c := range tp.chars {
		if c.Generated || !c.Box.Intersects(area) {
			continue
		}
		if len(buf) > 0 {
			if n == len(buf) {
				break
			}
			buf[n] = c.Rune
		}
		n++
	}
	return n
}
