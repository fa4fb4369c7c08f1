package reader

import (
	"errors"
	"fmt"
	"io"

	"github.com/tsawler/folio/core"
	"github.com/tsawler/folio/logging"
)

// GetObject loads an object by its number. Free and missing objects are
// null. Results are cached.
func (d *Document) GetObject(objNum int) (core.Object, error) {
	return d.getObject(objNum, nil)
}

// ResolveReference resolves an indirect reference
func (d *Document) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return d.getObject(ref.Number, nil)
}

// Resolve follows obj while it is an indirect reference.
func (d *Document) Resolve(obj core.Object) (core.Object, error) {
	return d.resolver.Resolve(obj)
}

// ResolveDeep returns obj with all nested references replaced.
func (d *Document) ResolveDeep(obj core.Object) (core.Object, error) {
	return d.resolver.ResolveDeep(obj)
}

// ClearCache clears the object cache
// Useful for freeing memory when processing large PDFs
func (d *Document) ClearCache() {
	d.resetCache()
}

// CacheSize returns the number of cached objects
func (d *Document) CacheSize() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cache)
}

func (d *Document) resetCache() {
	d.mu.Lock()
	d.cache = make(map[int]core.Object)
	d.objStms = make(map[int]*core.ObjectStream)
	d.mu.Unlock()
}

func (d *Document) cached(num int) (core.Object, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	obj, ok := d.cache[num]
	return obj, ok
}

func (d *Document) store(num int, obj core.Object) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.cacheLimit > 0 && len(d.cache) >= d.opts.cacheLimit {
		d.cache = make(map[int]core.Object)
	}
	d.cache[num] = obj
}

// getObject loads num. chain holds the objects being loaded further up
// the call stack, to break stream /Length references that lead back.
func (d *Document) getObject(num int, chain []int) (core.Object, error) {
	if obj, ok := d.cached(num); ok {
		return obj, nil
	}
	for _, n := range chain {
		if n == num {
			return nil, fmt.Errorf("%w: object %d is needed to load itself", ErrMalformed, num)
		}
	}
	chain = append(chain[:len(chain):len(chain)], num)

	entry, ok := d.xref.Get(num)
	if !ok || !entry.InUse() {
		return core.Null{}, nil
	}

	var (
		obj core.Object
		err error
	)
	switch entry.Type {
	case core.XRefEntryCompressed:
		obj, err = d.loadCompressed(num, entry, chain)
	default:
		obj, err = d.loadAt(num, entry, chain)
	}
	if err != nil {
		logging.For("reader").Debug("object load failed", "object", num, "error", err)
		return nil, err
	}
	d.store(num, obj)
	return obj, nil
}

// lengthResolver resolves indirect /Length values while a stream is
// being parsed.
type lengthResolver struct {
	doc   *Document
	chain []int
}

func (l lengthResolver) ResolveReference(ref core.IndirectRef) (core.Object, error) {
	return l.doc.getObject(ref.Number, l.chain)
}

func (d *Document) loadAt(num int, entry *core.XRefEntry, chain []int) (core.Object, error) {
	if entry.Offset < 0 || entry.Offset >= d.size {
		return nil, fmt.Errorf("%w: object %d offset %d outside file", ErrMalformed, num, entry.Offset)
	}
	p := core.NewParserAt(io.NewSectionReader(d.src, entry.Offset, d.size-entry.Offset), entry.Offset)
	p.SetReferenceResolver(lengthResolver{doc: d, chain: chain})

	ind, err := p.ParseIndirectObject()
	if err != nil {
		if errors.Is(err, ErrRead) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: object %d at offset %d: %w", ErrMalformed, num, entry.Offset, err)
	}
	if ind.Ref.Number != num {
		return nil, fmt.Errorf("%w: expected object %d at offset %d, found %d", ErrMalformed, num, entry.Offset, ind.Ref.Number)
	}

	if d.security != nil && num != d.encryptNum {
		return d.decrypt(ind.Object, ind.Ref)
	}
	return ind.Object, nil
}

// loadCompressed reads an object from an object stream. Such objects are
// not decrypted on their own; the containing stream already was.
func (d *Document) loadCompressed(num int, entry *core.XRefEntry, chain []int) (core.Object, error) {
	stm, err := d.objectStream(entry.StreamNum, chain)
	if err != nil {
		return nil, err
	}
	obj, got, err := stm.GetObjectByIndex(entry.Index)
	if err != nil || got != num {
		obj, _, err = stm.GetObjectByNumber(num)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: object %d in stream %d: %w", ErrMalformed, num, entry.StreamNum, err)
	}
	return obj, nil
}

func (d *Document) objectStream(num int, chain []int) (*core.ObjectStream, error) {
	d.mu.RLock()
	stm, ok := d.objStms[num]
	d.mu.RUnlock()
	if ok {
		return stm, nil
	}

	obj, err := d.getObject(num, chain)
	if err != nil {
		return nil, err
	}
	s, ok := obj.(*core.Stream)
	if !ok {
		return nil, fmt.Errorf("%w: object stream %d is %T", ErrMalformed, num, obj)
	}
	stm, err = core.NewObjectStream(s)
	if err != nil {
		return nil, fmt.Errorf("%w: object stream %d: %w", ErrMalformed, num, err)
	}

	d.mu.Lock()
	d.objStms[num] = stm
	d.mu.Unlock()
	return stm, nil
}

// decrypt returns obj with its strings and stream data decrypted with
// the key of ref.
func (d *Document) decrypt(obj core.Object, ref core.IndirectRef) (core.Object, error) {
	switch v := obj.(type) {
	case core.String:
		b, err := d.security.DecryptString(ref, []byte(v))
		if err != nil {
			return nil, err
		}
		return core.String(b), nil

	case core.Array:
		out := make(core.Array, len(v))
		for i, item := range v {
			dec, err := d.decrypt(item, ref)
			if err != nil {
				return nil, err
			}
			out[i] = dec
		}
		return out, nil

	case core.Dict:
		out := make(core.Dict, len(v))
		for k, item := range v {
			dec, err := d.decrypt(item, ref)
			if err != nil {
				return nil, err
			}
			out[k] = dec
		}
		return out, nil

	case *core.Stream:
		typ, _ := v.Dict.GetName("Type")
		if typ == "XRef" {
			return v, nil
		}
		dict, err := d.decrypt(v.Dict, ref)
		if err != nil {
			return nil, err
		}
		filter := cryptFilterName(v.Dict)
		if filter == "Identity" || typ == "Metadata" && !d.security.EncryptMetadata() {
			return &core.Stream{Dict: dict.(core.Dict), Data: v.Data}, nil
		}
		data, err := d.security.DecryptStream(ref, v.Data, filter)
		if err != nil {
			return nil, err
		}
		return &core.Stream{Dict: dict.(core.Dict), Data: data}, nil
	}
	return obj, nil
}

// cryptFilterName returns the crypt filter named by a leading /Crypt
// filter, "" when the stream has none, and "Identity" when /Crypt names
// no filter.
func cryptFilterName(dict core.Dict) string {
	var first core.Name
	switch f := dict.Get("Filter").(type) {
	case core.Name:
		first = f
	case core.Array:
		first, _ = f.GetName(0)
	}
	if first != "Crypt" {
		return ""
	}
	var p core.Dict
	switch v := dict.Get("DecodeParms").(type) {
	case core.Dict:
		p = v
	case core.Array:
		p, _ = v.Get(0).(core.Dict)
	}
	if name, ok := p.GetName("Name"); ok {
		return string(name)
	}
	return "Identity"
}
