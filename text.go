package folio

import (
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/text"
)

// LoadTextPage extracts the text layer of p. The text page stays valid
// after p is closed.
func (e *Engine) LoadTextPage(p Page) (TextPage, error) {
	pe, err := e.page("load text page", p)
	if err != nil {
		return TextPage{}, err
	}
	opts := text.DefaultOptions()
	opts.Fonts = pe.de.fonts
	opts.MaxFormDepth = e.opts.maxFormDepth
	tp, err := text.Load(pe.page, opts)
	if err != nil {
		return TextPage{}, wrap("load text page", pe.page.Index(), err, KindPage)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.docs.get(pe.doc); !ok {
		return TextPage{}, invalidHandle("load text page")
	}
	h := e.texts.add(&textEntry{doc: pe.doc, page: pe.page.Index(), tp: tp})
	e.log.Debug("text page loaded", "page", pe.page.Index(), "chars", tp.CharCount())
	return TextPage{h: h}, nil
}

// LoadTextPages loads the text layers of pages from through to,
// inclusive. On error the text pages already loaded are closed.
func (e *Engine) LoadTextPages(d Document, from, to int) ([]TextPage, error) {
	if _, err := e.document("load text pages", d); err != nil {
		return nil, err
	}
	if to < from {
		return []TextPage{}, nil
	}
	out := make([]TextPage, 0, to-from+1)
	fail := func(err error) ([]TextPage, error) {
		for _, tp := range out {
			e.CloseTextPage(tp)
		}
		return nil, err
	}
	for i := from; i <= to; i++ {
		p, err := e.LoadPage(d, i)
		if err != nil {
			return fail(err)
		}
		tp, err := e.LoadTextPage(p)
		e.ClosePage(p)
		if err != nil {
			return fail(err)
		}
		out = append(out, tp)
	}
	return out, nil
}

// CloseTextPage releases tp and the searches over it.
func (e *Engine) CloseTextPage(tp TextPage) error {
	e.mu.Lock()
	_, ok := e.texts.remove(tp.h)
	if ok {
		for _, se := range e.searches.removeIf(func(s *searchEntry) bool { return s.text == tp.h }) {
			se.s.Close()
		}
	}
	e.mu.Unlock()
	if !ok {
		return invalidHandle("close text page")
	}
	return nil
}

// CharCount returns the number of characters on tp, generated spaces
// and line breaks included.
func (e *Engine) CharCount(tp TextPage) (int, error) {
	te, err := e.textPage("char count", tp)
	if err != nil {
		return 0, err
	}
	return te.tp.CharCount(), nil
}

// Text returns count characters starting at start.
func (e *Engine) Text(tp TextPage, start, count int) (string, error) {
	te, err := e.textPage("text", tp)
	if err != nil {
		return "", err
	}
	runes, err := te.tp.Text(start, count)
	if err != nil {
		return "", wrap("text", te.page, err, KindPage)
	}
	return string(runes), nil
}

// Unicode returns character i.
func (e *Engine) Unicode(tp TextPage, i int) (rune, error) {
	te, err := e.textPage("unicode", tp)
	if err != nil {
		return 0, err
	}
	r, err := te.tp.Unicode(i)
	return r, wrap("unicode", te.page, err, KindPage)
}

// CharBox returns the box of character i in page space.
func (e *Engine) CharBox(tp TextPage, i int) (model.Rect, error) {
	te, err := e.textPage("char box", tp)
	if err != nil {
		return model.Rect{}, err
	}
	r, err := te.tp.CharBox(i)
	return r, wrap("char box", te.page, err, KindPage)
}

// FontSize returns the font size in effect for character i.
func (e *Engine) FontSize(tp TextPage, i int) (float64, error) {
	te, err := e.textPage("font size", tp)
	if err != nil {
		return 0, err
	}
	size, err := te.tp.FontSize(i)
	return size, wrap("font size", te.page, err, KindPage)
}

// CharIndexAtPos returns the character at (x, y) in page space, allowing
// the given tolerances, or -1.
func (e *Engine) CharIndexAtPos(tp TextPage, x, y, xTol, yTol float64) (int, error) {
	te, err := e.textPage("char index", tp)
	if err != nil {
		return -1, err
	}
	return te.tp.CharIndexAtPos(x, y, xTol, yTol), nil
}

// Rects returns the line rectangles covering count characters from
// start.
func (e *Engine) Rects(tp TextPage, start, count int) ([]model.Rect, error) {
	te, err := e.textPage("rects", tp)
	if err != nil {
		return nil, err
	}
	rects, err := te.tp.Rects(start, count)
	return rects, wrap("rects", te.page, err, KindPage)
}

// CountRects computes the rectangles for a range and keeps them for
// GetRect.
func (e *Engine) CountRects(tp TextPage, start, count int) (int, error) {
	te, err := e.textPage("count rects", tp)
	if err != nil {
		return 0, err
	}
	return te.tp.CountRects(start, count), nil
}

// GetRect returns rectangle i of the last CountRects call on tp.
func (e *Engine) GetRect(tp TextPage, i int) (model.Rect, error) {
	te, err := e.textPage("get rect", tp)
	if err != nil {
		return model.Rect{}, err
	}
	r, err := te.tp.GetRect(i)
	return r, wrap("get rect", te.page, err, KindPage)
}

// BoundedText copies into buf the characters inside the rectangle. With
// an empty buf it returns the number available.
func (e *Engine) BoundedText(tp TextPage, left, top, right, bottom float64, buf []rune) (int, error) {
	te, err := e.textPage("bounded text", tp)
	if err != nil {
		return 0, err
	}
	return te.tp.BoundedText(left, top, right, bottom, buf), nil
}

// FindStart begins a search for term on tp at character start. A start
// of -1 searches from the end.
func (e *Engine) FindStart(tp TextPage, term string, matchCase bool, start int) (Search, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	te, ok := e.texts.get(tp.h)
	if !ok {
		return Search{}, invalidHandle("find start")
	}
	s := text.NewSearch(te.tp, term, matchCase, start)
	return Search{h: e.searches.add(&searchEntry{doc: te.doc, text: tp.h, s: s})}, nil
}

// FindNext moves s to the next match and reports whether there was one.
func (e *Engine) FindNext(s Search) (bool, error) {
	se, err := e.search("find next", s)
	if err != nil {
		return false, err
	}
	ok, err := se.s.FindNext()
	return ok, wrap("find next", -1, err, KindUnknown)
}

// FindPrev moves s to the previous match and reports whether there was
// one.
func (e *Engine) FindPrev(s Search) (bool, error) {
	se, err := e.search("find prev", s)
	if err != nil {
		return false, err
	}
	ok, err := se.s.FindPrev()
	return ok, wrap("find prev", -1, err, KindUnknown)
}

// MatchIndex returns the first character of the current match, or -1.
func (e *Engine) MatchIndex(s Search) (int, error) {
	se, err := e.search("match index", s)
	if err != nil {
		return -1, err
	}
	return se.s.MatchIndex(), nil
}

// MatchCount returns the length of the current match in characters.
func (e *Engine) MatchCount(s Search) (int, error) {
	se, err := e.search("match count", s)
	if err != nil {
		return 0, err
	}
	return se.s.MatchCount(), nil
}

// CloseSearch ends s.
func (e *Engine) CloseSearch(s Search) error {
	e.mu.Lock()
	se, ok := e.searches.remove(s.h)
	e.mu.Unlock()
	if !ok {
		return invalidHandle("close search")
	}
	se.s.Close()
	return nil
}
