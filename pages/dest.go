package pages

import (
	"github.com/tsawler/folio/core"
)

// DestKind is the view fit type of a destination.
type DestKind int

const (
	DestUnknown DestKind = iota
	DestXYZ
	DestFit
	DestFitH
	DestFitV
	DestFitR
	DestFitB
	DestFitBH
	DestFitBV
)

var destKindNames = map[string]DestKind{
	"XYZ":   DestXYZ,
	"Fit":   DestFit,
	"FitH":  DestFitH,
	"FitV":  DestFitV,
	"FitR":  DestFitR,
	"FitB":  DestFitB,
	"FitBH": DestFitBH,
	"FitBV": DestFitBV,
}

func (k DestKind) String() string {
	for name, kind := range destKindNames {
		if kind == k {
			return name
		}
	}
	return "Unknown"
}

// Destination is a resolved view target inside the document.
type Destination struct {
	PageIndex int
	Kind      DestKind

	// View position; each is valid only when the matching Has flag is set.
	Left, Top, Zoom         float64
	HasLeft, HasTop, HasZoom bool

	// Params holds the numeric parameters after the kind, nulls as 0.
	Params []float64
}

const maxDestHops = 8

// ResolveDest resolves an explicit destination array, a named
// destination (name or string) or a dictionary with /D. It returns nil
// for anything absent or unresolvable.
func (t *Tree) ResolveDest(obj core.Object) *Destination {
	for hop := 0; hop < maxDestHops && obj != nil; hop++ {
		v, err := t.resolver.Resolve(obj)
		if err != nil {
			return nil
		}
		switch d := v.(type) {
		case core.Array:
			return t.explicitDest(d)
		case core.Dict:
			obj = d.Get("D")
		case core.Name:
			obj = t.lookupNamedDest(string(d))
		case core.String:
			obj = t.lookupNamedDest(string(d))
		default:
			return nil
		}
	}
	return nil
}

func (t *Tree) explicitDest(arr core.Array) *Destination {
	if len(arr) == 0 {
		return nil
	}
	dest := &Destination{PageIndex: -1}
	switch p := arr[0].(type) {
	case core.IndirectRef:
		dest.PageIndex = t.IndexOf(p.Number)
	case core.Int:
		// Some writers use a page number, which is how remote
		// destinations are written.
		if n, err := t.Count(); err == nil && int(p) >= 0 && int(p) < n {
			dest.PageIndex = int(p)
		}
	}
	if dest.PageIndex < 0 {
		return nil
	}

	if kind, ok := arr.GetName(1); ok {
		dest.Kind = destKindNames[string(kind)]
	}
	params := make([]float64, 0, len(arr))
	present := make([]bool, 0, len(arr))
	for _, item := range arr[min(2, len(arr)):] {
		n, ok := core.Number(item)
		params = append(params, n)
		present = append(present, ok)
	}
	dest.Params = params

	at := func(i int) (float64, bool) {
		if i < len(params) && present[i] {
			return params[i], true
		}
		return 0, false
	}
	switch dest.Kind {
	case DestXYZ:
		dest.Left, dest.HasLeft = at(0)
		dest.Top, dest.HasTop = at(1)
		dest.Zoom, dest.HasZoom = at(2)
		if dest.Zoom == 0 {
			dest.HasZoom = false
		}
	case DestFitH, DestFitBH:
		dest.Top, dest.HasTop = at(0)
	case DestFitV, DestFitBV:
		dest.Left, dest.HasLeft = at(0)
	case DestFitR:
		dest.Left, dest.HasLeft = at(0)
		dest.Top, dest.HasTop = at(3)
	}
	return dest
}

// lookupNamedDest finds name in the catalog /Dests dictionary, then in
// the /Names /Dests name tree.
func (t *Tree) lookupNamedDest(name string) core.Object {
	if dests := t.resolveDict(t.catalog.Get("Dests")); dests != nil {
		if v := dests.Get(name); v != nil {
			return v
		}
	}
	names := t.resolveDict(t.catalog.Get("Names"))
	if names == nil {
		return nil
	}
	return t.lookupNameTree(names.Get("Dests"), name, make(map[int]bool), 0)
}

const maxNameTreeDepth = 32

// lookupNameTree searches a name tree, pruning kids by /Limits.
func (t *Tree) lookupNameTree(node core.Object, key string, visited map[int]bool, depth int) core.Object {
	if depth > maxNameTreeDepth {
		return nil
	}
	if ref, ok := node.(core.IndirectRef); ok {
		if visited[ref.Number] {
			return nil
		}
		visited[ref.Number] = true
	}
	dict := t.resolveDict(node)
	if dict == nil {
		return nil
	}

	if names, ok := t.resolveArray(dict.Get("Names")); ok {
		for i := 0; i+1 < len(names); i += 2 {
			k, err := t.resolver.Resolve(names[i])
			if err != nil {
				continue
			}
			if s, ok := k.(core.String); ok && string(s) == key {
				return names[i+1]
			}
		}
	}

	kids, _ := t.resolveArray(dict.Get("Kids"))
	for _, kid := range kids {
		if kidDict := t.resolveDict(kid); kidDict != nil && !withinLimits(kidDict, key) {
			continue
		}
		if v := t.lookupNameTree(kid, key, visited, depth+1); v != nil {
			return v
		}
	}
	return nil
}

// withinLimits reports whether key may be found under node. Nodes
// without usable /Limits are always searched.
func withinLimits(node core.Dict, key string) bool {
	limits, ok := node.GetArray("Limits")
	if !ok || len(limits) != 2 {
		return true
	}
	lo, ok1 := limits[0].(core.String)
	hi, ok2 := limits[1].(core.String)
	if !ok1 || !ok2 {
		return true
	}
	return key >= string(lo) && key <= string(hi)
}

func (t *Tree) resolveArray(obj core.Object) (core.Array, bool) {
	if obj == nil {
		return nil, false
	}
	v, err := t.resolver.Resolve(obj)
	if err != nil {
		return nil, false
	}
	arr, ok := v.(core.Array)
	return arr, ok
}
