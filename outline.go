package folio

import "github.com/tsawler/folio/pages"

// FirstChildBookmark returns the first child of parent, or the first
// top-level bookmark when parent is nil. ok is false when there is none.
func (e *Engine) FirstChildBookmark(d Document, parent *pages.Bookmark) (b pages.Bookmark, ok bool, err error) {
	de, err := e.document("first child bookmark", d)
	if err != nil {
		return pages.Bookmark{}, false, err
	}
	b, ok, err = de.doc.FirstChildBookmark(parent)
	return b, ok, wrap("first child bookmark", -1, err, KindFormat)
}

// NextSiblingBookmark returns the bookmark after b at the same level.
func (e *Engine) NextSiblingBookmark(d Document, b pages.Bookmark) (pages.Bookmark, bool, error) {
	de, err := e.document("next sibling bookmark", d)
	if err != nil {
		return pages.Bookmark{}, false, err
	}
	next, ok, err := de.doc.NextSiblingBookmark(b)
	return next, ok, wrap("next sibling bookmark", -1, err, KindFormat)
}

// BookmarkDestIndex returns the 0-based page b points at, or -1.
func (e *Engine) BookmarkDestIndex(d Document, b pages.Bookmark) (int, error) {
	de, err := e.document("bookmark destination", d)
	if err != nil {
		return -1, err
	}
	return de.doc.BookmarkDestIndex(b), nil
}

// Outline returns the whole bookmark tree of d.
func (e *Engine) Outline(d Document) ([]*pages.OutlineNode, error) {
	de, err := e.document("outline", d)
	if err != nil {
		return nil, err
	}
	nodes, err := de.doc.Outline()
	return nodes, wrap("outline", -1, err, KindFormat)
}
