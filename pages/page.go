package pages

import (
	"bytes"
	"fmt"
	"math"
	"sync"

	"github.com/tsawler/folio/contentstream"
	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/logging"
	"github.com/tsawler/folio/model"
)

// LetterBox is the default media box, US Letter in points.
var LetterBox = model.Rect{Left: 0, Bottom: 0, Right: 612, Top: 792}

// Page is a single page with its inherited attributes resolved. Page
// geometry is fixed at load time; content is parsed lazily once.
type Page struct {
	tree      *Tree
	index     int
	ref       core.IndirectRef
	dict      core.Dict
	inherited core.Dict

	mediaBox model.Rect
	cropBox  model.Rect
	rotate   int

	opsOnce sync.Once
	ops     []contentstream.Operation
	opsErr  error

	annotsOnce sync.Once
	annots     []Annotation
	annotsErr  error
}

func newPage(t *Tree, index int, s slot) (*Page, error) {
	p := &Page{
		tree:      t,
		index:     index,
		ref:       s.ref,
		dict:      s.dict,
		inherited: s.inherited,
	}

	media, ok, err := p.box("MediaBox")
	if err != nil {
		return nil, fmt.Errorf("page %d: %w", index, err)
	}
	if !ok {
		media = LetterBox
	}
	if media.IsEmpty() {
		return nil, fmt.Errorf("page %d: %w (MediaBox %v)", index, ErrZeroArea, media)
	}
	p.mediaBox = media

	p.cropBox = media
	if crop, ok, _ := p.box("CropBox"); ok && !crop.IsEmpty() {
		if clipped := crop.Intersect(media); !clipped.IsEmpty() {
			p.cropBox = clipped
		}
	}

	p.rotate = normalizeRotation(p.inherited.Get("Rotate"))
	return p, nil
}

// box reads an inherited rectangle. ok is false when the entry is absent
// or malformed; only an explicit zero-area box is reported through the
// rectangle itself.
func (p *Page) box(key string) (model.Rect, bool, error) {
	obj := p.inherited.Get(key)
	if obj == nil {
		return model.Rect{}, false, nil
	}
	resolved, err := p.tree.resolver.Resolve(obj)
	if err != nil {
		return model.Rect{}, false, fmt.Errorf("failed to resolve %s: %w", key, err)
	}
	arr, ok := resolved.(core.Array)
	if !ok || len(arr) != 4 {
		logging.For("pages").Debug("malformed box ignored", "key", key, "page", p.index)
		return model.Rect{}, false, nil
	}
	var v [4]float64
	for i, elem := range arr {
		if ref, isRef := elem.(core.IndirectRef); isRef {
			if elem, err = p.tree.resolver.Resolve(ref); err != nil {
				return model.Rect{}, false, fmt.Errorf("failed to resolve %s[%d]: %w", key, i, err)
			}
		}
		n, ok := core.Number(elem)
		if !ok {
			return model.Rect{}, false, nil
		}
		v[i] = n
	}
	return model.NewRect(v[0], v[1], v[2], v[3]), true, nil
}

// normalizeRotation maps /Rotate onto 0, 90, 180 or 270. Values that are
// not multiples of 90 are truncated to one.
func normalizeRotation(obj core.Object) int {
	n, ok := core.Number(obj)
	if !ok {
		return 0
	}
	quarter := (int(n) / 90) % 4
	if quarter < 0 {
		quarter += 4
	}
	return quarter * 90
}

// Index returns the 0-based page index
func (p *Page) Index() int { return p.index }

// Ref returns the page object reference. It is zero for direct page
// dictionaries.
func (p *Page) Ref() core.IndirectRef { return p.ref }

// Dict returns the raw page dictionary
func (p *Page) Dict() core.Dict { return p.dict }

// Resolver returns the resolver the page loads objects through.
func (p *Page) Resolver() ObjectResolver { return p.tree.resolver }

// MediaBox returns the media box in points
func (p *Page) MediaBox() model.Rect { return p.mediaBox }

// CropBox returns the crop box clipped to the media box. This is the
// page's effective box.
func (p *Page) CropBox() model.Rect { return p.cropBox }

// Rotate returns the rotation in degrees: 0, 90, 180 or 270
func (p *Page) Rotate() int { return p.rotate }

// Width returns the displayed width in points, with rotation applied.
func (p *Page) Width() float64 {
	if p.rotate%180 != 0 {
		return p.cropBox.Height()
	}
	return p.cropBox.Width()
}

// Height returns the displayed height in points, with rotation applied.
func (p *Page) Height() float64 {
	if p.rotate%180 != 0 {
		return p.cropBox.Width()
	}
	return p.cropBox.Height()
}

// WidthPoints returns Width truncated to an int.
func (p *Page) WidthPoints() int { return int(p.Width()) }

// HeightPoints returns Height truncated to an int.
func (p *Page) HeightPoints() int { return int(p.Height()) }

// WidthPixels returns the width in pixels at dpi.
func (p *Page) WidthPixels(dpi float64) int { return PixelSize(p.Width(), dpi) }

// HeightPixels returns the height in pixels at dpi.
func (p *Page) HeightPixels(dpi float64) int { return PixelSize(p.Height(), dpi) }

// PixelSize converts a length in points to pixels at dpi, truncating
// toward zero.
func PixelSize(points, dpi float64) int {
	v := points * dpi / 72
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(v)
}

// Resources returns the inherited resource dictionary. A page without
// resources gets an empty dictionary.
func (p *Page) Resources() (core.Dict, error) {
	obj := p.inherited.Get("Resources")
	if obj == nil {
		return core.Dict{}, nil
	}
	resolved, err := p.tree.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Resources: %w", err)
	}
	dict, ok := resolved.(core.Dict)
	if !ok {
		return core.Dict{}, nil
	}
	return dict, nil
}

// ContentData returns the decoded /Contents. An array of streams is
// concatenated with a newline between parts. Streams that fail to decode
// are skipped.
func (p *Page) ContentData() ([]byte, error) {
	obj := p.dict.Get("Contents")
	if obj == nil {
		return nil, nil
	}
	resolved, err := p.tree.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve Contents: %w", err)
	}

	var parts []core.Object
	switch v := resolved.(type) {
	case *core.Stream:
		parts = []core.Object{v}
	case core.Array:
		parts = v
	default:
		return nil, nil
	}

	var buf bytes.Buffer
	for i, part := range parts {
		part, err := p.tree.resolver.Resolve(part)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve Contents[%d]: %w", i, err)
		}
		stream, ok := part.(*core.Stream)
		if !ok {
			continue
		}
		data, err := stream.Decode()
		if err != nil {
			logging.For("pages").Debug("content stream skipped", "page", p.index, "part", i, "error", err)
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

// Operations returns the parsed content stream. It is parsed on first
// call; the returned slice must not be modified. On a syntax error the
// operations before it are returned along with the error.
func (p *Page) Operations() ([]contentstream.Operation, error) {
	p.opsOnce.Do(func() {
		data, err := p.ContentData()
		if err != nil {
			p.opsErr = err
			return
		}
		p.ops, p.opsErr = contentstream.NewParser(data).Parse()
	})
	return p.ops, p.opsErr
}
