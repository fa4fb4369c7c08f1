package reader

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"sync"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/logging"
	"github.com/tsawler/folio/pages"
	"github.com/tsawler/folio/resolver"
	"github.com/tsawler/folio/security"
)

// PDFVersion represents a PDF version
type PDFVersion struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v PDFVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

func (v PDFVersion) less(o PDFVersion) bool {
	return v.Major < o.Major || v.Major == o.Major && v.Minor < o.Minor
}

// Document is an opened, verified PDF file. Object loading is lazy and
// safe for concurrent use.
type Document struct {
	src    Source
	size   int64
	closer io.Closer
	opts   options

	version  PDFVersion
	xref     *core.XRefTable
	trailer  core.Dict
	repaired bool

	security   *security.Handler
	encryptNum int

	mu      sync.RWMutex
	cache   map[int]core.Object
	objStms map[int]*core.ObjectStream

	resolver *resolver.Resolver
	catalog  core.Dict
	tree     *pages.Tree
	count    int
}

// Ensure Document implements pages.ObjectResolver
var _ pages.ObjectResolver = (*Document)(nil)

// NewDocument parses and verifies the document in src. It returns only
// fully loaded documents: header, cross-reference data, security handler,
// catalog and page tree.
func NewDocument(src Source, opts ...Option) (*Document, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if src == nil || src.Size() == 0 {
		return nil, ErrEmptySource
	}

	d := &Document{
		src:  checkedSource{src: src},
		size: src.Size(),
		opts: o,
	}
	d.resolver = resolver.New(d)

	if err := d.readHeader(); err != nil {
		return nil, err
	}

	err := d.load(false)
	if err != nil && o.repair && !terminal(err) {
		logging.For("reader").Warn("cross-reference data unusable, rebuilding", "error", err)
		err = d.load(true)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// terminal reports errors that repair cannot fix.
func terminal(err error) bool {
	return errors.Is(err, ErrRead) ||
		errors.Is(err, security.ErrUnsupported) ||
		errors.Is(err, security.ErrPasswordRequired) ||
		errors.Is(err, security.ErrIncorrectPassword)
}

var versionRe = regexp.MustCompile(`%PDF-(\d+)\.(\d+)`)

// readHeader finds %PDF-x.y in the first 1024 bytes.
func (d *Document) readHeader() error {
	n := int64(1024)
	if d.size < n {
		n = d.size
	}
	buf := make([]byte, n)
	read, err := d.src.ReadAt(buf, 0)
	if err != nil && err != io.EOF {
		return err
	}
	m := versionRe.FindSubmatch(buf[:read])
	if m == nil {
		return ErrNotPDF
	}
	d.version.Major, _ = strconv.Atoi(string(m[1]))
	d.version.Minor, _ = strconv.Atoi(string(m[2]))
	return nil
}

// load reads the cross-reference data, or rebuilds it when repair is
// set, then sets up security and the page tree.
func (d *Document) load(repair bool) error {
	d.resetCache()
	d.security = nil
	d.encryptNum = 0
	d.repaired = repair

	if repair {
		if err := d.rebuild(); err != nil {
			return err
		}
	} else {
		table, err := core.NewXRefParser(d.src, d.size).ParseAll()
		if err != nil {
			if errors.Is(err, ErrRead) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		d.xref = table
		d.trailer = table.Trailer
	}

	if err := d.setupSecurity(); err != nil {
		return err
	}
	if repair {
		d.registerObjectStreams()
		if !d.trailer.Has("Root") {
			d.findCatalog()
		}
	}
	return d.loadCatalog()
}

func (d *Document) setupSecurity() error {
	encObj := d.trailer.Get("Encrypt")
	if encObj == nil {
		return nil
	}
	if ref, ok := encObj.(core.IndirectRef); ok {
		d.encryptNum = ref.Number
	}
	resolved, err := d.Resolve(encObj)
	if err != nil {
		return fmt.Errorf("%w: /Encrypt: %w", ErrMalformed, err)
	}
	encrypt, ok := resolved.(core.Dict)
	if !ok {
		return fmt.Errorf("%w: /Encrypt is %T", ErrMalformed, resolved)
	}

	var id []byte
	if ids, ok := d.trailer.GetArray("ID"); ok {
		if s, ok := ids.Get(0).(core.String); ok {
			id = []byte(s)
		}
	}
	h, err := security.NewStandardHandler(encrypt, id)
	if err != nil {
		return err
	}
	if err := h.Authenticate(d.opts.password); err != nil {
		return err
	}
	logging.For("reader").Debug("security handler selected",
		"V", encrypt.Get("V"), "R", encrypt.Get("R"), "owner", h.IsOwner())

	d.security = h
	// Objects read while resolving /Encrypt were cached undecrypted.
	d.resetCache()
	return nil
}

func (d *Document) loadCatalog() error {
	obj, err := d.Resolve(d.trailer.Get("Root"))
	if err != nil {
		return fmt.Errorf("%w: catalog: %w", ErrMalformed, err)
	}
	catalog, ok := obj.(core.Dict)
	if !ok {
		return fmt.Errorf("%w: catalog is %T", ErrMalformed, obj)
	}
	tree := pages.NewTree(catalog, d)
	count, err := tree.Count()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if v, ok := catalog.GetName("Version"); ok {
		if m := versionRe.FindStringSubmatch("%PDF-" + string(v)); m != nil {
			var cv PDFVersion
			cv.Major, _ = strconv.Atoi(m[1])
			cv.Minor, _ = strconv.Atoi(m[2])
			if d.version.less(cv) {
				d.version = cv
			}
		}
	}

	d.catalog = catalog
	d.tree = tree
	d.count = count
	return nil
}

// Version returns the PDF version: the header version, or the catalog
// /Version when that is newer.
func (d *Document) Version() PDFVersion { return d.version }

// Trailer returns the trailer dictionary
func (d *Document) Trailer() core.Dict { return d.trailer }

// Repaired reports whether the cross-reference table was rebuilt.
func (d *Document) Repaired() bool { return d.repaired }

// Encrypted reports whether the document has a security handler.
func (d *Document) Encrypted() bool { return d.security != nil }

// Permissions returns the document permissions. Unencrypted documents
// and documents opened with the owner password allow everything.
func (d *Document) Permissions() security.Permissions {
	if d.security == nil || d.security.IsOwner() {
		return security.AllPermissions()
	}
	return d.security.Permissions()
}

// XRefTable returns the cross-reference table
// Exposed for debugging/inspection
func (d *Document) XRefTable() *core.XRefTable { return d.xref }

// Catalog returns the document catalog
func (d *Document) Catalog() core.Dict { return d.catalog }

// Pages returns the page tree
func (d *Document) Pages() *pages.Tree { return d.tree }

// PageCount returns the number of pages
func (d *Document) PageCount() int { return d.count }

// Page loads the page at index (0-based).
func (d *Document) Page(index int) (*pages.Page, error) {
	return d.tree.Page(index)
}

// Info returns the document information dictionary, or nil.
func (d *Document) Info() core.Dict {
	obj := d.trailer.Get("Info")
	if obj == nil {
		return nil
	}
	resolved, err := d.Resolve(obj)
	if err != nil {
		return nil
	}
	info, _ := resolved.(core.Dict)
	return info
}

// MetaText returns the decoded /Info entry for tag, such as "Title" or
// "Author", or "" when absent.
func (d *Document) MetaText(tag string) string {
	info := d.Info()
	if info == nil {
		return ""
	}
	v, err := d.Resolve(info.Get(tag))
	if err != nil {
		return ""
	}
	switch s := v.(type) {
	case core.String:
		return core.DecodeTextString([]byte(s))
	case core.Name:
		return string(s)
	}
	return ""
}

// FirstChildBookmark returns the first child of parent, or the first
// top-level bookmark when parent is nil.
func (d *Document) FirstChildBookmark(parent *pages.Bookmark) (pages.Bookmark, bool, error) {
	return d.tree.FirstChild(parent)
}

// NextSiblingBookmark returns the bookmark after b.
func (d *Document) NextSiblingBookmark(b pages.Bookmark) (pages.Bookmark, bool, error) {
	return d.tree.NextSibling(b)
}

// BookmarkDestIndex returns the 0-based target page of b, or -1.
func (d *Document) BookmarkDestIndex(b pages.Bookmark) int {
	return d.tree.BookmarkDestIndex(b)
}

// Outline returns the whole bookmark tree.
func (d *Document) Outline() ([]*pages.OutlineNode, error) {
	return d.tree.Outline()
}

// Close releases the underlying file, if the document owns one.
func (d *Document) Close() error {
	d.resetCache()
	if d.closer != nil {
		err := d.closer.Close()
		d.closer = nil
		return err
	}
	return nil
}

// maxRepairSize bounds the file size rebuild reads into memory.
const maxRepairSize = 1 << 28

// rebuild reconstructs the cross-reference table by scanning the file.
func (d *Document) rebuild() error {
	if d.size > maxRepairSize {
		return fmt.Errorf("%w: %d bytes is too large to repair", ErrMalformed, d.size)
	}
	data := make([]byte, d.size)
	n, err := d.src.ReadAt(data, 0)
	if err != nil && err != io.EOF {
		return err
	}
	table := core.RebuildXRef(data[:n])
	if len(table.Entries) == 0 {
		return fmt.Errorf("%w: no objects found", ErrMalformed)
	}
	d.xref = table
	d.trailer = table.Trailer

	// Files with cross-reference streams have no trailer keyword; take
	// the trailer entries from the streams' dictionaries.
	if !d.trailer.Has("Root") {
		for _, num := range sortedNums(table) {
			obj, err := d.GetObject(num)
			if err != nil {
				continue
			}
			if s, ok := obj.(*core.Stream); ok {
				if t, _ := s.Dict.GetName("Type"); t == "XRef" {
					for _, key := range []string{"Root", "Info", "ID", "Encrypt"} {
						if v, ok := s.Dict[key]; ok {
							d.trailer[key] = v
						}
					}
				}
			}
		}
	}
	d.resetCache()
	return nil
}

// registerObjectStreams adds entries for objects stored in object
// streams found by the scan. Uncompressed definitions win.
func (d *Document) registerObjectStreams() {
	for _, num := range sortedNums(d.xref) {
		obj, err := d.GetObject(num)
		if err != nil {
			continue
		}
		s, ok := obj.(*core.Stream)
		if !ok {
			continue
		}
		if t, _ := s.Dict.GetName("Type"); t != "ObjStm" {
			continue
		}
		stm, err := core.NewObjectStream(s)
		if err != nil {
			continue
		}
		for i, n := range stm.ObjectNumbers() {
			if _, exists := d.xref.Get(n); !exists {
				d.xref.Set(n, &core.XRefEntry{Type: core.XRefEntryCompressed, StreamNum: num, Index: i})
			}
		}
	}
}

// findCatalog looks for a /Type /Catalog object when the trailer has
// no /Root.
func (d *Document) findCatalog() {
	for _, num := range sortedNums(d.xref) {
		obj, err := d.GetObject(num)
		if err != nil {
			continue
		}
		if dict, ok := obj.(core.Dict); ok {
			if t, _ := dict.GetName("Type"); t == "Catalog" {
				d.trailer["Root"] = core.IndirectRef{Number: num}
				return
			}
		}
	}
}

func sortedNums(table *core.XRefTable) []int {
	nums := make([]int, 0, len(table.Entries))
	for n := range table.Entries {
		nums = append(nums, n)
	}
	slices.Sort(nums)
	return nums
}
