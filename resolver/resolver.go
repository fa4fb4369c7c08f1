package resolver

import (
	"errors"
	"fmt"

	"github.com/tsawler/folio/core"
)

var (
	// ErrCircularReference is returned when a reference chain loops back
	// on an object that is still being resolved.
	ErrCircularReference = errors.New("circular reference")

	// ErrMaxDepth is returned when nesting exceeds the configured depth.
	ErrMaxDepth = errors.New("maximum resolution depth exceeded")
)

// ObjectReader loads the target of a single indirect reference.
type ObjectReader interface {
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// Option configures the resolver
type Option func(*Resolver)

// WithMaxDepth sets the maximum recursion depth (default: 100)
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// Resolver follows indirect references through an ObjectReader.
// It keeps no state between calls and is safe for concurrent use when
// the reader is.
type Resolver struct {
	reader   ObjectReader
	maxDepth int
}

// New creates a resolver over reader.
func New(reader ObjectReader, opts ...Option) *Resolver {
	r := &Resolver{reader: reader, maxDepth: 100}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// walk carries the cycle set for one top-level call.
type walk struct {
	*Resolver
	active map[int]bool
	deep   bool
}

// Resolve follows obj while it is an indirect reference, returning the
// first direct object. Containers are returned as they are.
func (r *Resolver) Resolve(obj core.Object) (core.Object, error) {
	w := &walk{Resolver: r, active: make(map[int]bool)}
	return w.resolve(obj, 0)
}

// ResolveDeep returns a copy of obj with every nested reference in
// dictionaries, arrays and stream dictionaries replaced by its target.
func (r *Resolver) ResolveDeep(obj core.Object) (core.Object, error) {
	w := &walk{Resolver: r, active: make(map[int]bool), deep: true}
	return w.resolve(obj, 0)
}

// ResolveDict resolves obj and requires the result to be a dictionary.
// A stream resolves to its dictionary.
func (r *Resolver) ResolveDict(obj core.Object) (core.Dict, error) {
	v, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	switch d := v.(type) {
	case core.Dict:
		return d, nil
	case *core.Stream:
		return d.Dict, nil
	}
	return nil, fmt.Errorf("expected dictionary, got %s", typeName(v))
}

// ResolveArray resolves obj and requires the result to be an array.
func (r *Resolver) ResolveArray(obj core.Object) (core.Array, error) {
	v, err := r.Resolve(obj)
	if err != nil {
		return nil, err
	}
	arr, ok := v.(core.Array)
	if !ok {
		return nil, fmt.Errorf("expected array, got %s", typeName(v))
	}
	return arr, nil
}

func typeName(obj core.Object) string {
	if obj == nil {
		return "nil"
	}
	return obj.Type().String()
}

func (w *walk) resolve(obj core.Object, depth int) (core.Object, error) {
	if depth >= w.maxDepth {
		return nil, fmt.Errorf("%w (%d)", ErrMaxDepth, w.maxDepth)
	}

	switch v := obj.(type) {
	case core.IndirectRef:
		if w.active[v.Number] {
			return nil, fmt.Errorf("%w: object %d", ErrCircularReference, v.Number)
		}
		w.active[v.Number] = true
		defer delete(w.active, v.Number)

		target, err := w.reader.ResolveReference(v)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve reference %s: %w", v, err)
		}
		return w.resolve(target, depth+1)

	case core.Dict:
		if !w.deep {
			return v, nil
		}
		out := make(core.Dict, len(v))
		for key, value := range v {
			resolved, err := w.resolve(value, depth+1)
			if err != nil {
				return nil, fmt.Errorf("dict key %s: %w", key, err)
			}
			out[key] = resolved
		}
		return out, nil

	case core.Array:
		if !w.deep {
			return v, nil
		}
		out := make(core.Array, len(v))
		for i, elem := range v {
			resolved, err := w.resolve(elem, depth+1)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out[i] = resolved
		}
		return out, nil

	case *core.Stream:
		if !w.deep {
			return v, nil
		}
		dict, err := w.resolve(v.Dict, depth+1)
		if err != nil {
			return nil, fmt.Errorf("stream dict: %w", err)
		}
		return &core.Stream{Dict: dict.(core.Dict), Data: v.Data}, nil

	case nil:
		return core.Null{}, nil
	}
	return obj, nil
}
