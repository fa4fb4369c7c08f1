package pages

import (
	"errors"
	"fmt"
	"sync"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/logging"
)

var (
	// ErrPageNotFound is returned for an index outside [0, Count).
	ErrPageNotFound = errors.New("page not found")

	// ErrInvalidPage is returned for a page slot whose object could not
	// be resolved or is not a dictionary.
	ErrInvalidPage = errors.New("invalid page object")

	// ErrZeroArea is returned for a page whose effective box has no area.
	ErrZeroArea = errors.New("page box has zero area")

	// ErrNoPageTree is returned when the catalog has no usable /Pages.
	ErrNoPageTree = errors.New("catalog has no page tree")
)

// ObjectResolver resolves indirect references. The reader's Document
// implements it.
type ObjectResolver interface {
	Resolve(obj core.Object) (core.Object, error)
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// inheritable page attributes, looked up along the whole /Parent chain
var inheritable = []string{"Resources", "MediaBox", "CropBox", "Rotate"}

// slot is one leaf of the flattened page tree. A slot with err set
// stands for a kid that could not be loaded.
type slot struct {
	ref       core.IndirectRef
	dict      core.Dict
	inherited core.Dict
	err       error
}

// Tree is the flattened page tree of a document. It is built once, on
// first use, and is safe for concurrent use afterwards.
type Tree struct {
	catalog  core.Dict
	resolver ObjectResolver

	once  sync.Once
	slots []slot
	byNum map[int]int
	err   error
}

// NewTree creates a page tree over the document catalog.
func NewTree(catalog core.Dict, resolver ObjectResolver) *Tree {
	return &Tree{catalog: catalog, resolver: resolver}
}

// Catalog returns the document catalog.
func (t *Tree) Catalog() core.Dict {
	return t.catalog
}

// Count returns the number of page slots. It fails only when the root
// of the page tree is unusable.
func (t *Tree) Count() (int, error) {
	t.once.Do(t.flatten)
	if t.err != nil {
		return 0, t.err
	}
	return len(t.slots), nil
}

// IndexOf returns the index of the page object with the given number,
// or -1.
func (t *Tree) IndexOf(objNum int) int {
	t.once.Do(t.flatten)
	if i, ok := t.byNum[objNum]; ok {
		return i
	}
	return -1
}

// Page loads the page at index (0-based).
func (t *Tree) Page(index int) (*Page, error) {
	t.once.Do(t.flatten)
	if t.err != nil {
		return nil, t.err
	}
	if index < 0 || index >= len(t.slots) {
		return nil, fmt.Errorf("%w: index %d out of range [0, %d)", ErrPageNotFound, index, len(t.slots))
	}
	s := t.slots[index]
	if s.err != nil {
		return nil, fmt.Errorf("page %d: %w", index, s.err)
	}
	return newPage(t, index, s)
}

func (t *Tree) flatten() {
	root, err := t.resolver.Resolve(t.catalog.Get("Pages"))
	if err != nil {
		t.err = fmt.Errorf("%w: %v", ErrNoPageTree, err)
		return
	}
	rootDict, ok := root.(core.Dict)
	if !ok {
		t.err = fmt.Errorf("%w: /Pages is %T", ErrNoPageTree, root)
		return
	}

	t.byNum = make(map[int]int)
	visited := make(map[int]bool)
	if ref, ok := t.catalog.Get("Pages").(core.IndirectRef); ok {
		visited[ref.Number] = true
	}
	t.walk(rootDict, core.IndirectRef{}, core.Dict{}, visited, 0)
}

const maxTreeDepth = 256

// walk appends the leaves under node. inherited holds the attributes
// collected from all ancestors; node's own entries override them.
func (t *Tree) walk(node core.Dict, ref core.IndirectRef, inherited core.Dict, visited map[int]bool, depth int) {
	log := logging.For("pages")

	attrs := make(core.Dict, len(inherited))
	for k, v := range inherited {
		attrs[k] = v
	}
	for _, key := range inheritable {
		if v, ok := node[key]; ok {
			attrs[key] = v
		}
	}

	if !isPagesNode(node) {
		if ref.Number > 0 {
			t.byNum[ref.Number] = len(t.slots)
		}
		t.slots = append(t.slots, slot{ref: ref, dict: node, inherited: attrs})
		return
	}

	if depth >= maxTreeDepth {
		log.Warn("page tree too deep, subtree skipped", "depth", depth)
		return
	}

	kids, err := t.resolver.Resolve(node.Get("Kids"))
	if err != nil {
		log.Warn("unresolvable /Kids", "error", err)
		return
	}
	kidArr, _ := kids.(core.Array)
	for i, kid := range kidArr {
		kidRef, isRef := kid.(core.IndirectRef)
		if isRef {
			if visited[kidRef.Number] {
				log.Warn("page tree node visited twice, skipped", "object", kidRef.Number)
				continue
			}
			visited[kidRef.Number] = true
		}

		obj, err := t.resolver.Resolve(kid)
		if err != nil {
			t.slots = append(t.slots, slot{ref: kidRef, err: fmt.Errorf("%w: kid %d: %v", ErrInvalidPage, i, err)})
			continue
		}
		dict, ok := obj.(core.Dict)
		if !ok {
			t.slots = append(t.slots, slot{ref: kidRef, err: fmt.Errorf("%w: kid %d is %T", ErrInvalidPage, i, obj)})
			continue
		}
		t.walk(dict, kidRef, attrs, visited, depth+1)
	}
}

// isPagesNode reports whether node is an intermediate node. Nodes with
// a missing /Type are classified by the presence of /Kids.
func isPagesNode(node core.Dict) bool {
	if typ, ok := node.GetName("Type"); ok {
		switch typ {
		case "Pages":
			return true
		case "Page":
			return false
		}
	}
	return node.Has("Kids")
}
