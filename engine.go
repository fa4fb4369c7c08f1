package folio

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/tsawler/folio/font"
	"github.com/tsawler/folio/logging"
	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/reader"
	"github.com/tsawler/folio/text"
)

type docEntry struct {
	doc   *reader.Document
	fonts *font.Cache // nil without WithFontCache
}

type pageEntry struct {
	doc  handle
	de   *docEntry
	page *pages.Page
}

type textEntry struct {
	doc  handle
	page int
	tp   *text.TextPage
}

type searchEntry struct {
	doc  handle
	text handle
	s    *text.Search
}

// Engine owns open documents and everything loaded from them. Handles
// are only valid with the Engine that issued them.
//
// The Engine is safe for concurrent use. Each Page, TextPage and Search
// handle must be used by one goroutine at a time.
type Engine struct {
	opts options
	log  *slog.Logger

	mu       sync.Mutex
	docs     arena[*docEntry]
	pages    arena[*pageEntry]
	texts    arena[*textEntry]
	searches arena[*searchEntry]
}

// New creates an engine.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		logging.SetLogger(o.logger)
	}
	id := engineIDs.Add(1)
	e := &Engine{opts: o, log: logging.For("folio")}
	e.docs.engine = id
	e.pages.engine = id
	e.texts.engine = id
	e.searches.engine = id
	return e
}

// OpenFile opens the PDF at path. The file is read with positioned
// reads and stays open until CloseDocument.
func (e *Engine) OpenFile(path, password string) (Document, error) {
	return e.open(password, func(opts []reader.Option) (*reader.Document, error) {
		return reader.Open(path, opts...)
	})
}

// OpenReaderAt opens a document read from r, which holds size bytes.
func (e *Engine) OpenReaderAt(r io.ReaderAt, size int64, password string) (Document, error) {
	return e.open(password, func(opts []reader.Option) (*reader.Document, error) {
		return reader.NewDocument(reader.NewSource(r, size), opts...)
	})
}

// OpenBytes opens a document held in memory. data must not change while
// the document is open.
func (e *Engine) OpenBytes(data []byte, password string) (Document, error) {
	return e.open(password, func(opts []reader.Option) (*reader.Document, error) {
		return reader.NewDocument(reader.BytesSource(data), opts...)
	})
}

func (e *Engine) open(password string, load func([]reader.Option) (*reader.Document, error)) (Document, error) {
	if err := Acquire(); err != nil {
		return Document{}, wrap("open", -1, err, KindUnknown)
	}
	doc, err := load([]reader.Option{
		reader.WithPassword(password),
		reader.WithRepair(e.opts.repair),
	})
	if err != nil {
		Release()
		return Document{}, wrap("open", -1, err, KindFormat)
	}

	de := &docEntry{doc: doc}
	if e.opts.fontCache {
		de.fonts = font.NewCache()
	}
	e.mu.Lock()
	h := e.docs.add(de)
	e.mu.Unlock()

	e.log.Debug("document opened", "pages", doc.PageCount(), "version", doc.Version().String(),
		"encrypted", doc.Encrypted(), "repaired", doc.Repaired())
	return Document{h: h}, nil
}

// CloseDocument closes d. Its pages, text pages and searches become
// invalid.
func (e *Engine) CloseDocument(d Document) error {
	e.mu.Lock()
	de, ok := e.docs.remove(d.h)
	if ok {
		for _, se := range e.searches.removeIf(func(s *searchEntry) bool { return s.doc == d.h }) {
			se.s.Close()
		}
		e.texts.removeIf(func(t *textEntry) bool { return t.doc == d.h })
		e.pages.removeIf(func(p *pageEntry) bool { return p.doc == d.h })
	}
	e.mu.Unlock()
	if !ok {
		return invalidHandle("close document")
	}

	err := de.doc.Close()
	Release()
	return wrap("close document", -1, err, KindFile)
}

// Close closes every open document.
func (e *Engine) Close() error {
	e.mu.Lock()
	var open []Document
	for i, s := range e.docs.slots {
		if s.live {
			open = append(open, Document{h: handle{engine: e.docs.engine, index: uint32(i), generation: s.generation}})
		}
	}
	e.mu.Unlock()

	var errs []error
	for _, d := range open {
		if err := e.CloseDocument(d); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) document(op string, d Document) (*docEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	de, ok := e.docs.get(d.h)
	if !ok {
		return nil, invalidHandle(op)
	}
	return de, nil
}

func (e *Engine) page(op string, p Page) (*pageEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pe, ok := e.pages.get(p.h)
	if !ok {
		return nil, invalidHandle(op)
	}
	return pe, nil
}

func (e *Engine) textPage(op string, tp TextPage) (*textEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	te, ok := e.texts.get(tp.h)
	if !ok {
		return nil, invalidHandle(op)
	}
	return te, nil
}

func (e *Engine) search(op string, s Search) (*searchEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	se, ok := e.searches.get(s.h)
	if !ok {
		return nil, invalidHandle(op)
	}
	return se, nil
}

// PageCount returns the number of pages of d.
func (e *Engine) PageCount(d Document) (int, error) {
	de, err := e.document("page count", d)
	if err != nil {
		return 0, err
	}
	return de.doc.PageCount(), nil
}

// Version returns the PDF version of d, such as "1.7".
func (e *Engine) Version(d Document) (string, error) {
	de, err := e.document("version", d)
	if err != nil {
		return "", err
	}
	return de.doc.Version().String(), nil
}

// MetaText returns the document information entry tag, such as "Title"
// or "Author", or "" when it is absent.
func (e *Engine) MetaText(d Document, tag string) (string, error) {
	de, err := e.document("meta text", d)
	if err != nil {
		return "", err
	}
	return de.doc.MetaText(tag), nil
}
