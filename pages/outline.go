package pages

import (
	"github.com/tsawler/folio/core"
)

// Bookmark is one outline item.
type Bookmark struct {
	Ref   core.IndirectRef
	Title string
	dict  core.Dict
}

// Dict returns the outline item dictionary.
func (b Bookmark) Dict() core.Dict { return b.dict }

// OutlineNode is a bookmark with its resolved destination and children.
type OutlineNode struct {
	Bookmark
	Dest     *Destination
	Children []*OutlineNode
}

// FirstChild returns the first child of parent, or of the outline root
// when parent is nil. ok is false when there is no child.
func (t *Tree) FirstChild(parent *Bookmark) (Bookmark, bool, error) {
	var node core.Dict
	if parent == nil {
		node = t.resolveDict(t.catalog.Get("Outlines"))
	} else {
		node = parent.dict
	}
	if node == nil {
		return Bookmark{}, false, nil
	}
	return t.bookmark(node.Get("First"))
}

// NextSibling returns the item after b. ok is false at the end of the
// list or when the sibling points back at b.
func (t *Tree) NextSibling(b Bookmark) (Bookmark, bool, error) {
	next := b.dict.Get("Next")
	if ref, ok := next.(core.IndirectRef); ok && b.Ref.Number > 0 && ref.Number == b.Ref.Number {
		return Bookmark{}, false, nil
	}
	return t.bookmark(next)
}

func (t *Tree) bookmark(obj core.Object) (Bookmark, bool, error) {
	if obj == nil {
		return Bookmark{}, false, nil
	}
	v, err := t.resolver.Resolve(obj)
	if err != nil {
		return Bookmark{}, false, err
	}
	dict, ok := v.(core.Dict)
	if !ok {
		return Bookmark{}, false, nil
	}
	b := Bookmark{dict: dict}
	b.Ref, _ = obj.(core.IndirectRef)
	if title, err := t.resolver.Resolve(dict.Get("Title")); err == nil {
		if s, ok := title.(core.String); ok {
			b.Title = core.DecodeTextString([]byte(s))
		}
	}
	return b, true, nil
}

// BookmarkDest resolves the bookmark's /Dest or /A /GoTo action.
func (t *Tree) BookmarkDest(b Bookmark) *Destination {
	if d := b.dict.Get("Dest"); d != nil {
		return t.ResolveDest(d)
	}
	if action := t.resolveDict(b.dict.Get("A")); action != nil {
		if s, _ := action.GetName("S"); s == "GoTo" {
			return t.ResolveDest(action.Get("D"))
		}
	}
	return nil
}

// BookmarkDestIndex returns the 0-based target page of b, or -1.
func (t *Tree) BookmarkDestIndex(b Bookmark) int {
	if d := t.BookmarkDest(b); d != nil {
		return d.PageIndex
	}
	return -1
}

// Outline returns the whole outline tree. Every item is visited once;
// links back to an item already seen are dropped.
func (t *Tree) Outline() ([]*OutlineNode, error) {
	visited := make(map[int]bool)
	return t.outlineLevel(nil, visited, 0)
}

const maxOutlineDepth = 64

func (t *Tree) outlineLevel(parent *Bookmark, visited map[int]bool, depth int) ([]*OutlineNode, error) {
	if depth > maxOutlineDepth {
		return nil, nil
	}
	var nodes []*OutlineNode
	b, ok, err := t.FirstChild(parent)
	for ok && err == nil {
		if b.Ref.Number > 0 {
			if visited[b.Ref.Number] {
				break
			}
			visited[b.Ref.Number] = true
		}
		node := &OutlineNode{Bookmark: b, Dest: t.BookmarkDest(b)}
		node.Children, err = t.outlineLevel(&node.Bookmark, visited, depth+1)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
		b, ok, err = t.NextSibling(b)
	}
	return nodes, err
}
